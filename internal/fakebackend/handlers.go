package fakebackend

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jrsteele09/trails-auth/authmodel"
	"github.com/jrsteele09/trails-auth/token"
	"github.com/jrsteele09/trails-auth/users"
)

const maxBodySize = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func bearerToken(r *http.Request) string {
	scheme, value, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(value)
}

func (s *Server) sessionResponse(w http.ResponseWriter, user *users.User) {
	tok, expiresAt, err := s.issueSession(user)
	if err != nil {
		s.logger.Err(err).Msg("issue session token")
		writeMessage(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, authmodel.AuthResponse{
		Token:        tok,
		RefreshToken: uuid.New().String(),
		ExpiresAt:    expiresAt.UTC().Format(time.RFC3339),
		User:         user,
	})
}

// authenticated resolves the bearer session to its account or writes a 401.
func (s *Server) authenticated(w http.ResponseWriter, r *http.Request) (*users.User, bool) {
	userID, err := s.verifySession(bearerToken(r))
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	user, err := s.accounts.getByID(userID)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	return user, true
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authmodel.LoginRequest
		if !decodeBody(w, r, &req) {
			return
		}
		user, err := s.accounts.authenticate(req.Email, req.Password)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		if user.TwoFactorEnabled {
			writeJSON(w, http.StatusOK, authmodel.AuthResponse{
				Token:             s.issuePending(user.ID),
				RequiresTwoFactor: true,
			})
			return
		}
		s.sessionResponse(w, user)
	}
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authmodel.RegisterRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
			writeMessage(w, http.StatusBadRequest, "All fields are required")
			return
		}
		if req.Password != req.ConfirmPassword {
			writeMessage(w, http.StatusBadRequest, "Passwords do not match")
			return
		}
		user, err := s.accounts.create(&users.User{
			Email:     normaliseEmail(req.Email),
			FirstName: req.FirstName,
			LastName:  req.LastName,
		}, req.Password)
		if errors.Is(err, errAccountExists) {
			writeMessage(w, http.StatusConflict, "An account with this email already exists")
			return
		}
		if err != nil {
			s.logger.Err(err).Msg("create account")
			writeMessage(w, http.StatusInternalServerError, "Registration failed")
			return
		}
		s.sessionResponse(w, user)
	}
}

// GoogleHandler trusts the email claim of the identity token; signature checks
// belong to the client-side Google provider.
func (s *Server) GoogleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authmodel.GoogleAuthRequest
		if !decodeBody(w, r, &req) {
			return
		}
		claims, err := token.Inspect(req.IDToken)
		if err != nil || claims.Email == "" {
			writeMessage(w, http.StatusBadRequest, "Invalid Google token")
			return
		}
		user, err := s.accounts.getByEmail(claims.Email)
		if errors.Is(err, errAccountNotFound) {
			user, err = s.accounts.create(&users.User{Email: normaliseEmail(claims.Email)}, "")
		}
		if err != nil {
			s.logger.Err(err).Msg("google account")
			writeMessage(w, http.StatusInternalServerError, "Google login failed")
			return
		}
		if user.TwoFactorEnabled {
			writeJSON(w, http.StatusOK, authmodel.AuthResponse{Token: s.issuePending(user.ID), RequiresTwoFactor: true})
			return
		}
		s.sessionResponse(w, user)
	}
}

func (s *Server) VerifyTwoFactorHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pending := bearerToken(r)
		userID, ok := s.lookupPending(pending)
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Verification session expired")
			return
		}
		var req authmodel.TwoFactorVerificationRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Code != s.twoFactorCode {
			writeMessage(w, http.StatusBadRequest, "Invalid verification code")
			return
		}
		user, err := s.accounts.getByID(userID)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Verification session expired")
			return
		}
		s.dropPending(pending)
		s.sessionResponse(w, user)
	}
}

// ForgotPasswordHandler always answers 200 so account existence is not leaked.
func (s *Server) ForgotPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authmodel.ForgotPasswordRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if _, err := s.accounts.getByEmail(req.Email); err == nil {
			s.mu.Lock()
			s.resetTokens[normaliseEmail(req.Email)] = uuid.New().String()
			s.mu.Unlock()
		}
		writeMessage(w, http.StatusOK, "If the account exists, a reset email has been sent")
	}
}

func (s *Server) ResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authmodel.PasswordResetRequest
		if !decodeBody(w, r, &req) {
			return
		}
		email := normaliseEmail(req.Email)
		s.mu.Lock()
		expected, ok := s.resetTokens[email]
		if ok && expected == req.Token {
			delete(s.resetTokens, email)
		}
		s.mu.Unlock()
		if !ok || expected != req.Token {
			writeMessage(w, http.StatusBadRequest, "Invalid or expired reset token")
			return
		}
		if req.NewPassword == "" || req.NewPassword != req.ConfirmPassword {
			writeMessage(w, http.StatusBadRequest, "Passwords do not match")
			return
		}
		if err := s.accounts.setPassword(email, req.NewPassword); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid or expired reset token")
			return
		}
		s.RevokeAll()
		writeMessage(w, http.StatusOK, "Password has been reset")
	}
}

func (s *Server) GetProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authenticated(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func (s *Server) UpdateProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, ok := s.authenticated(w, r)
		if !ok {
			return
		}
		var patch users.User
		if !decodeBody(w, r, &patch) {
			return
		}
		if strings.TrimSpace(patch.FirstName) == "" || strings.TrimSpace(patch.LastName) == "" {
			writeMessage(w, http.StatusBadRequest, "First and last name are required")
			return
		}
		updated, err := s.accounts.update(current.ID, &patch)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}
