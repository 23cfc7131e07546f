package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jrsteele09/trails-auth/authmodel"
	"github.com/jrsteele09/trails-auth/google"
	"github.com/jrsteele09/trails-auth/internal/utils"
	"github.com/jrsteele09/trails-auth/profile"
	"github.com/jrsteele09/trails-auth/signin"
	"github.com/jrsteele09/trails-auth/token"
	"github.com/jrsteele09/trails-auth/users"
)

// maxCodeAttempts bounds how often a wrong 2FA code may be re-entered.
const maxCodeAttempts = 3

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string, p *prompter, out io.Writer) error
}

var commands = map[string]command{
	"login":           {"sign in with email and password", loginCmd},
	"google-login":    {"sign in with a Google account", googleLoginCmd},
	"register":        {"create an account and sign in", registerCmd},
	"forgot-password": {"request a password reset email", forgotPasswordCmd},
	"reset-password":  {"set a new password with a reset token", resetPasswordCmd},
	"logout":          {"end the current session", logoutCmd},
	"whoami":          {"show the signed in rider", whoamiCmd},
	"profile":         {"show or edit the rider profile", profileCmd},
}

func printUsage(out io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(out, "Usage: trailauth <command> [flags]")
	fmt.Fprintln(out)
	for _, name := range names {
		fmt.Fprintf(out, "  %-16s %s\n", name, commands[name].summary)
	}
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func loginCmd(ctx context.Context, a *app, args []string, p *prompter, out io.Writer) error {
	var req authmodel.LoginRequest
	var rememberDevice bool
	fs := newFlagSet("login", out)
	fs.StringVar(&req.Email, "email", "", "account email")
	fs.StringVar(&req.Password, "password", "", "account password")
	fs.BoolVar(&req.RememberMe, "remember", false, "ask the backend for a long lived session")
	fs.BoolVar(&rememberDevice, "remember-device", false, "skip 2FA on this device next time")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := p.askIfEmpty(&req.Email, "Email"); err != nil {
		return err
	}
	if err := p.askIfEmpty(&req.Password, "Password"); err != nil {
		return err
	}

	step, err := a.flow.SignIn(ctx, req)
	if err != nil {
		return err
	}
	return finishSignIn(ctx, a, step, rememberDevice, p, out)
}

func googleLoginCmd(ctx context.Context, a *app, args []string, p *prompter, out io.Writer) error {
	var callback string
	var rememberDevice bool
	fs := newFlagSet("google-login", out)
	fs.StringVar(&callback, "callback", "", "redirect URL the browser landed on")
	fs.BoolVar(&rememberDevice, "remember-device", false, "skip 2FA on this device next time")
	if err := fs.Parse(args); err != nil {
		return err
	}

	provider, err := google.NewProvider(ctx, a.cfg)
	if err != nil {
		return err
	}
	authURL, _, err := provider.AuthCodeURL()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Open this URL in a browser and approve access:\n\n  %s\n\n", authURL)
	if err := p.askIfEmpty(&callback, "Paste the URL you were redirected to"); err != nil {
		return err
	}

	state, code, err := google.ParseCallback(callback)
	if err != nil {
		return err
	}
	idToken, err := provider.Exchange(ctx, state, code)
	if err != nil {
		return err
	}

	step, err := a.flow.SignInWithGoogle(ctx, idToken)
	if err != nil {
		return err
	}
	return finishSignIn(ctx, a, step, rememberDevice, p, out)
}

// finishSignIn answers a 2FA challenge when the backend asks for one. The
// pending token only lives in this process so the code is read here.
func finishSignIn(ctx context.Context, a *app, step signin.Step, rememberDevice bool, p *prompter, out io.Writer) error {
	if step == signin.StepTwoFactorRequired {
		if err := verifyTwoFactor(ctx, a, rememberDevice, p, out); err != nil {
			a.flow.Cancel()
			return err
		}
	}
	printSignedIn(out, a.store.User())
	return nil
}

func verifyTwoFactor(ctx context.Context, a *app, rememberDevice bool, p *prompter, out io.Writer) error {
	var err error
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		var code string
		if code, err = p.ask("Verification code"); err != nil {
			return err
		}
		if err = a.flow.VerifyTwoFactor(ctx, code, rememberDevice); err == nil {
			return nil
		}
		kind := authmodel.KindOf(err)
		if kind != authmodel.KindInvalidCode && kind != authmodel.KindValidation {
			return err
		}
		fmt.Fprintln(out, err.Error())
	}
	return err
}

func registerCmd(ctx context.Context, a *app, args []string, p *prompter, out io.Writer) error {
	var req authmodel.RegisterRequest
	fs := newFlagSet("register", out)
	fs.StringVar(&req.Email, "email", "", "account email")
	fs.StringVar(&req.Password, "password", "", "password, at least 8 characters")
	fs.StringVar(&req.ConfirmPassword, "confirm", "", "password again")
	fs.StringVar(&req.FirstName, "first", "", "first name")
	fs.StringVar(&req.LastName, "last", "", "last name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, q := range []struct {
		value *string
		label string
	}{
		{&req.FirstName, "First name"},
		{&req.LastName, "Last name"},
		{&req.Email, "Email"},
		{&req.Password, "Password"},
		{&req.ConfirmPassword, "Confirm password"},
	} {
		if err := p.askIfEmpty(q.value, q.label); err != nil {
			return err
		}
	}

	step, err := a.flow.Register(ctx, req)
	if err != nil {
		return err
	}
	return finishSignIn(ctx, a, step, false, p, out)
}

func forgotPasswordCmd(ctx context.Context, a *app, args []string, p *prompter, out io.Writer) error {
	var email string
	fs := newFlagSet("forgot-password", out)
	fs.StringVar(&email, "email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := p.askIfEmpty(&email, "Email"); err != nil {
		return err
	}
	if err := a.flow.ForgotPassword(ctx, email); err != nil {
		return err
	}
	fmt.Fprintln(out, "If that account exists, a reset email is on its way.")
	return nil
}

func resetPasswordCmd(ctx context.Context, a *app, args []string, p *prompter, out io.Writer) error {
	var req authmodel.PasswordResetRequest
	fs := newFlagSet("reset-password", out)
	fs.StringVar(&req.Email, "email", "", "account email")
	fs.StringVar(&req.Token, "token", "", "reset token from the email")
	fs.StringVar(&req.NewPassword, "password", "", "new password")
	fs.StringVar(&req.ConfirmPassword, "confirm", "", "new password again")
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, q := range []struct {
		value *string
		label string
	}{
		{&req.Email, "Email"},
		{&req.Token, "Reset token"},
		{&req.NewPassword, "New password"},
		{&req.ConfirmPassword, "Confirm password"},
	} {
		if err := p.askIfEmpty(q.value, q.label); err != nil {
			return err
		}
	}
	if err := a.flow.ResetPassword(ctx, req); err != nil {
		return err
	}
	fmt.Fprintln(out, "Password updated. Sign in with the new password.")
	return nil
}

func logoutCmd(ctx context.Context, a *app, _ []string, _ *prompter, out io.Writer) error {
	if err := a.store.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "Signed out.")
	return nil
}

func whoamiCmd(_ context.Context, a *app, _ []string, _ *prompter, out io.Writer) error {
	snap := a.store.Snapshot()
	if !snap.IsAuthenticated() {
		fmt.Fprintln(out, "Not signed in.")
		return nil
	}
	printUser(out, snap.User)

	claims, err := token.Inspect(snap.Token)
	if errors.Is(err, token.ErrNotJWT) {
		return nil
	}
	if err != nil {
		return err
	}
	now := time.Now()
	switch {
	case claims.ExpiresAt == nil:
		fmt.Fprintln(out, "Session: no expiry")
	case claims.Expired(now):
		fmt.Fprintf(out, "Session: expired at %s\n", claims.ExpiresAt.Local().Format(time.RFC1123))
	default:
		fmt.Fprintf(out, "Session: expires in %s\n", claims.Remaining(now).Round(time.Second))
	}
	return nil
}

func profileCmd(ctx context.Context, a *app, args []string, _ *prompter, out io.Writer) error {
	var update profile.ProfileUpdate
	fs := newFlagSet("profile", out)
	fs.StringVar(&update.FirstName, "first", "", "new first name")
	fs.StringVar(&update.LastName, "last", "", "new last name")
	fs.StringVar(&update.PhoneNumber, "phone", "", "phone number, -phone= clears it")
	fs.StringVar(&update.ProfileImageURL, "image", "", "profile image URL, -image= clears it")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		user *users.User
		err  error
	)
	if fs.NFlag() == 0 {
		user, err = a.profile.Refresh(ctx)
	} else {
		set := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
		// flags left out keep their current value; "-phone=" clears
		if current := a.store.User(); current != nil {
			if !set["first"] {
				update.FirstName = current.FirstName
			}
			if !set["last"] {
				update.LastName = current.LastName
			}
			if !set["phone"] {
				update.PhoneNumber = utils.Value(current.PhoneNumber)
			}
			if !set["image"] {
				update.ProfileImageURL = utils.Value(current.ProfileImageURL)
			}
		}
		user, err = a.profile.Update(ctx, update)
	}
	if err != nil {
		return err
	}
	printUser(out, user)
	return nil
}

func printSignedIn(out io.Writer, user *users.User) {
	if user == nil {
		return
	}
	fmt.Fprintf(out, "Signed in as %s <%s>\n", user.FullName(), user.Email)
}

func printUser(out io.Writer, user *users.User) {
	fmt.Fprintf(out, "Name:  %s\n", user.FullName())
	fmt.Fprintf(out, "Email: %s\n", user.Email)
	if user.PhoneNumber != nil {
		fmt.Fprintf(out, "Phone: %s\n", *user.PhoneNumber)
	}
	if user.ProfileImageURL != nil {
		fmt.Fprintf(out, "Image: %s\n", *user.ProfileImageURL)
	}
	if user.TwoFactorEnabled {
		fmt.Fprintln(out, "2FA:   enabled")
	}
}
