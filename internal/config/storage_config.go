package config

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	storageDriverVar  = "STORAGE_DRIVER"
	dataFolderVar     = "DATA_FOLDER"
	redisAddrVar      = "REDIS_ADDR"
	redisPasswordVar  = "REDIS_PASSWORD"
	redisDBVar        = "REDIS_DB"
	redisKeyPrefixVar = "REDIS_KEY_PREFIX"
)

// Supported storage drivers
const (
	StorageDriverFile   = "file"
	StorageDriverRedis  = "redis"
	StorageDriverMemory = "memory"
)

type StorageConfig interface {
	GetStorageDriver() string
	GetDataFolder() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisKeyPrefix() string
}

type Storage struct {
	v *viper.Viper
}

var _ StorageConfig = Storage{}

func (s Storage) GetStorageDriver() string {
	return strings.ToLower(strings.TrimSpace(s.v.GetString(storageDriverVar)))
}

func (s Storage) GetDataFolder() string {
	return s.v.GetString(dataFolderVar)
}

func (s Storage) GetRedisAddr() string {
	return s.v.GetString(redisAddrVar)
}

func (s Storage) GetRedisPassword() string {
	return s.v.GetString(redisPasswordVar)
}

func (s Storage) GetRedisDB() int {
	return s.v.GetInt(redisDBVar)
}

func (s Storage) GetRedisKeyPrefix() string {
	return s.v.GetString(redisKeyPrefixVar)
}
