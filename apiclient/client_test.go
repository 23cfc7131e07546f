package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/trails-auth/apiclient"
	"github.com/jrsteele09/trails-auth/authmodel"
	"github.com/jrsteele09/trails-auth/storage"
	"github.com/jrsteele09/trails-auth/storage/repofake"
)

type testFixture struct {
	repo   *repofake.FakeStorageRepo
	client *apiclient.Client
	hits   atomic.Int32
}

func setupTestFixture(t *testing.T, handler http.HandlerFunc) *testFixture {
	t.Helper()
	f := &testFixture{repo: repofake.NewFakeStorageRepo()}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := apiclient.New(server.URL+"/api", f.repo, apiclient.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	f.client = client
	return f
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_Validation(t *testing.T) {
	_, err := apiclient.New("https://x", nil)
	require.Error(t, err)
	_, err = apiclient.New(" ", repofake.NewFakeStorageRepo())
	require.Error(t, err)
}

func TestClient_SendsBearerToken(t *testing.T) {
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/trails", r.URL.Path)
		require.Equal(t, "Bearer T1", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"count": 3})
	})
	f.repo.Put(storage.KeyAuthToken, "T1")

	var out struct {
		Count int `json:"count"`
	}
	require.NoError(t, f.client.Get(context.Background(), "/trails", &out))
	require.Equal(t, 3, out.Count)
}

func TestClient_MissingTokenFailsWithoutRequest(t *testing.T) {
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	err := f.client.Get(context.Background(), "/trails", nil)
	require.ErrorIs(t, err, authmodel.ErrUnauthorized)
	require.EqualError(t, err, apiclient.MsgNoToken)
	require.Zero(t, f.hits.Load())
}

func TestClient_StorageReadFailureIsUnauthorized(t *testing.T) {
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	cause := errors.New("keychain locked")
	f.repo.FailGet(storage.KeyAuthToken, cause)

	err := f.client.Get(context.Background(), "/trails", nil)
	require.ErrorIs(t, err, authmodel.ErrUnauthorized)
	require.ErrorIs(t, err, cause)
	require.Zero(t, f.hits.Load())
}

func TestClient_UnauthorizedRemovesToken(t *testing.T) {
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "token expired"})
	})
	f.repo.Put(storage.KeyAuthToken, "T1")
	f.repo.Put(storage.KeyUserData, `{"id":"u1"}`)

	err := f.client.Get(context.Background(), "/trails", nil)
	require.ErrorIs(t, err, authmodel.ErrUnauthorized)
	require.EqualError(t, err, apiclient.MsgUnauthorized)
	require.Equal(t, int32(1), f.hits.Load())
	require.False(t, f.repo.Has(storage.KeyAuthToken))
	require.True(t, f.repo.Has(storage.KeyUserData))
}

func TestClient_NoAuthRequest(t *testing.T) {
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, f.client.Do(context.Background(), http.MethodGet, "/health", nil, nil, false))
}

func TestClient_ErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    error
		message string
	}{
		{"bad request", http.StatusBadRequest, `{"message":"Name is required"}`, authmodel.ErrValidation, "Name is required"},
		{"unprocessable", http.StatusUnprocessableEntity, `{}`, authmodel.ErrValidation, apiclient.MsgUnknown},
		{"not found", http.StatusNotFound, `{"message":"not found"}`, authmodel.ErrServer, "not found"},
		{"server", http.StatusInternalServerError, `oops`, authmodel.ErrServer, apiclient.MsgUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			f.repo.Put(storage.KeyAuthToken, "T1")

			err := f.client.Get(context.Background(), "/trails", nil)
			require.ErrorIs(t, err, tt.kind)
			require.EqualError(t, err, tt.message)
			require.True(t, f.repo.Has(storage.KeyAuthToken))
		})
	}
}

func TestClient_PutSendsJSONBody(t *testing.T) {
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		writeJSON(w, http.StatusOK, in)
	})
	f.repo.Put(storage.KeyAuthToken, "T1")

	var out map[string]string
	require.NoError(t, f.client.Put(context.Background(), "/users/profile", map[string]string{"firstName": "A"}, &out))
	require.Equal(t, "A", out["firstName"])
}

func TestClient_TextResponse(t *testing.T) {
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("pong"))
	})
	f.repo.Put(storage.KeyAuthToken, "T1")

	var out string
	require.NoError(t, f.client.Get(context.Background(), "/ping", &out))
	require.Equal(t, "pong", out)

	var structured map[string]any
	require.ErrorIs(t, f.client.Get(context.Background(), "/ping", &structured), authmodel.ErrServer)
}

func TestClient_AbsoluteEndpoint(t *testing.T) {
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/elsewhere", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer other.Close()

	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	f.repo.Put(storage.KeyAuthToken, "T1")

	require.NoError(t, f.client.Delete(context.Background(), other.URL+"/elsewhere", nil))
	require.Zero(t, f.hits.Load())
}
