package signin

import (
	"regexp"
	"strings"

	"github.com/jrsteele09/trails-auth/authmodel"
)

// Messages shown to the user when input is rejected before any request is made.
const (
	MsgMissingCredentials = "Please enter both email and password"
	MsgMissingFields      = "Please fill in all fields"
	MsgPasswordMismatch   = "Passwords do not match"
	MsgInvalidEmail       = "Please enter a valid email address"
	MsgMissingEmail       = "Please enter your email address"
	MsgPasswordTooShort   = "Password must be at least 8 characters long"
	MsgInvalidCode        = "Please enter a valid 6-digit code"
	MsgMissingResetToken  = "Please enter the reset token from your email"
	MsgMissingIDToken     = "Google sign-in did not return an identity token"
)

const MinPasswordLength = 8

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	codePattern  = regexp.MustCompile(`^[0-9]{6}$`)
)

// Validator checks screen input. Every failure is an authmodel validation error
// carrying the message to display.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateLogin requires both fields; the email shape is left to the backend.
func (v *Validator) ValidateLogin(req authmodel.LoginRequest) error {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return authmodel.ValidationError(MsgMissingCredentials)
	}
	return nil
}

func (v *Validator) ValidateRegister(req authmodel.RegisterRequest) error {
	if blank(req.FirstName, req.LastName, req.Email, req.Password, req.ConfirmPassword) {
		return authmodel.ValidationError(MsgMissingFields)
	}
	if req.Password != req.ConfirmPassword {
		return authmodel.ValidationError(MsgPasswordMismatch)
	}
	if err := v.ValidateEmail(req.Email); err != nil {
		return err
	}
	return v.ValidatePassword(req.Password)
}

// ValidateForgotPassword checks presence first so an empty field gets the more helpful message.
func (v *Validator) ValidateForgotPassword(email string) error {
	if strings.TrimSpace(email) == "" {
		return authmodel.ValidationError(MsgMissingEmail)
	}
	return v.ValidateEmail(email)
}

func (v *Validator) ValidateResetPassword(req authmodel.PasswordResetRequest) error {
	if blank(req.Email, req.NewPassword, req.ConfirmPassword) {
		return authmodel.ValidationError(MsgMissingFields)
	}
	if strings.TrimSpace(req.Token) == "" {
		return authmodel.ValidationError(MsgMissingResetToken)
	}
	if req.NewPassword != req.ConfirmPassword {
		return authmodel.ValidationError(MsgPasswordMismatch)
	}
	if err := v.ValidateEmail(req.Email); err != nil {
		return err
	}
	return v.ValidatePassword(req.NewPassword)
}

func (v *Validator) ValidateEmail(email string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return authmodel.ValidationError(MsgInvalidEmail)
	}
	return nil
}

func (v *Validator) ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return authmodel.ValidationError(MsgPasswordTooShort)
	}
	return nil
}

// ValidateCode accepts exactly six ASCII digits.
func (v *Validator) ValidateCode(code string) error {
	if !codePattern.MatchString(code) {
		return authmodel.ValidationError(MsgInvalidCode)
	}
	return nil
}

func (v *Validator) ValidateIDToken(idToken string) error {
	if strings.TrimSpace(idToken) == "" {
		return authmodel.ValidationError(MsgMissingIDToken)
	}
	return nil
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
