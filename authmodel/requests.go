package authmodel

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe,omitempty"` // Passed through; the backend decides what it means
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
}

// ForgotPasswordRequest is the body of POST /account/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// PasswordResetRequest is the body of POST /account/reset-password.
// Token is the reset token delivered by email.
type PasswordResetRequest struct {
	Email           string `json:"email"`
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// GoogleAuthRequest is the body of POST /auth/google.
type GoogleAuthRequest struct {
	IDToken string `json:"idToken"`
}

// TwoFactorVerificationRequest is the body of POST /twofactor/verify.
// The pending token travels in the Authorization header, not here.
type TwoFactorVerificationRequest struct {
	Code           string `json:"code"`
	RememberDevice bool   `json:"rememberDevice,omitempty"`
}
