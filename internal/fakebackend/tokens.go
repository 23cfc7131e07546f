package fakebackend

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jrsteele09/trails-auth/users"
)

const issuer = "trails-fake-api"

type sessionClaims struct {
	Email      string `json:"email"`
	Generation int    `json:"gen"`
	jwtlib.RegisteredClaims
}

// issueSession signs an HS256 session token for user.
func (s *Server) issueSession(user *users.User) (token string, expiresAt time.Time, err error) {
	now := s.nowTime()
	expiresAt = now.Add(s.tokenTTL)
	s.mu.Lock()
	generation := s.generation
	s.mu.Unlock()

	claims := sessionClaims{
		Email:      user.Email,
		Generation: generation,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID,
			Issuer:    issuer,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
		},
	}
	token, err = jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.signingKey)
	return token, expiresAt, err
}

// verifySession checks signature, expiry and revocation and returns the subject.
// RevokeAll bumps the generation, invalidating every token issued before it.
func (s *Server) verifySession(raw string) (string, error) {
	var claims sessionClaims
	_, err := jwtlib.ParseWithClaims(raw, &claims, func(t *jwtlib.Token) (any, error) {
		return s.signingKey, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(issuer),
		jwtlib.WithTimeFunc(s.nowTime),
	)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if claims.Generation != s.generation {
		return "", errors.New("token revoked")
	}
	return claims.Subject, nil
}

// issuePending creates an opaque token that is only good for /twofactor/verify.
func (s *Server) issuePending(userID string) string {
	token := "pending-" + uuid.New().String()
	s.mu.Lock()
	s.pending[token] = userID
	s.mu.Unlock()
	return token
}

func (s *Server) lookupPending(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.pending[token]
	return userID, ok
}

func (s *Server) dropPending(token string) {
	s.mu.Lock()
	delete(s.pending, token)
	s.mu.Unlock()
}
