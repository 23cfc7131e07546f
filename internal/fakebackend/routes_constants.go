package fakebackend

// Route path constants, mounted under APIPrefix.
const (
	APIPrefix = "/api"

	RouteAuthLogin       = APIPrefix + "/auth/login"
	RouteAuthRegister    = APIPrefix + "/auth/register"
	RouteAuthGoogle      = APIPrefix + "/auth/google"
	RouteForgotPassword  = APIPrefix + "/account/forgot-password"
	RouteResetPassword   = APIPrefix + "/account/reset-password"
	RouteTwoFactorVerify = APIPrefix + "/twofactor/verify"
	RouteUserProfile     = APIPrefix + "/users/profile"
)
