package auth

import "github.com/jrsteele09/trails-auth/authmodel"

// Backend paths, relative to the API base URL.
const (
	LoginPath           = "/auth/login"
	RegisterPath        = "/auth/register"
	GoogleLoginPath     = "/auth/google"
	ForgotPasswordPath  = "/account/forgot-password"
	ResetPasswordPath   = "/account/reset-password"
	VerifyTwoFactorPath = "/twofactor/verify"
)

// operation describes how one endpoint reports failure. A 5xx is always a
// server error; failureKind applies to every other non-2xx status.
type operation struct {
	name           string
	path           string
	failureKind    authmodel.Kind
	failureMessage string
}

var (
	loginOp = operation{
		name: "Gateway.Login", path: LoginPath,
		failureKind: authmodel.KindInvalidCredentials, failureMessage: "Login failed",
	}
	registerOp = operation{
		name: "Gateway.Register", path: RegisterPath,
		failureKind: authmodel.KindValidation, failureMessage: "Registration failed",
	}
	forgotPasswordOp = operation{
		name: "Gateway.ForgotPassword", path: ForgotPasswordPath,
		failureKind: authmodel.KindServer, failureMessage: "Failed to send password reset email",
	}
	resetPasswordOp = operation{
		name: "Gateway.ResetPassword", path: ResetPasswordPath,
		failureKind: authmodel.KindServer, failureMessage: "Failed to reset password",
	}
	googleLoginOp = operation{
		name: "Gateway.GoogleLogin", path: GoogleLoginPath,
		failureKind: authmodel.KindServer, failureMessage: "Google login failed",
	}
	verifyTwoFactorOp = operation{
		name: "Gateway.VerifyTwoFactor", path: VerifyTwoFactorPath,
		failureKind: authmodel.KindInvalidCode, failureMessage: "2FA verification failed",
	}
)
