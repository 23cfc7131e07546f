package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/trails-auth/authmodel"
	"github.com/jrsteele09/trails-auth/internal/config"
	interrors "github.com/jrsteele09/trails-auth/internal/errors"
	"github.com/jrsteele09/trails-auth/internal/fakebackend"
	"github.com/jrsteele09/trails-auth/storage"
	"github.com/jrsteele09/trails-auth/storage/filestore"
	"github.com/jrsteele09/trails-auth/users"
)

type cliFixture struct {
	backend *fakebackend.Server
	dataDir string
}

func setupCLI(t *testing.T) *cliFixture {
	t.Helper()
	backend := fakebackend.New(fakebackend.WithLogger(zerolog.Nop()))
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	f := &cliFixture{backend: backend, dataDir: t.TempDir()}
	t.Setenv("API_BASE_URL", srv.URL+fakebackend.APIPrefix)
	t.Setenv("STORAGE_DRIVER", config.StorageDriverFile)
	t.Setenv("DATA_FOLDER", f.dataDir)
	t.Setenv("LOG_LEVEL", "disabled")

	_, err := backend.AddAccount(&users.User{Email: "rider@trails.test", FirstName: "Ada", LastName: "Rider"}, "saddle-up-1")
	require.NoError(t, err)
	_, err = backend.AddAccount(&users.User{Email: "secure@trails.test", FirstName: "Sam", LastName: "Secure", TwoFactorEnabled: true}, "saddle-up-2")
	require.NoError(t, err)
	return f
}

// exec runs one CLI invocation, like a fresh process start.
func (f *cliFixture) exec(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), config.Load(""), args, strings.NewReader(input), &out)
	return out.String(), err
}

func (f *cliFixture) persisted(t *testing.T, key string) (string, error) {
	t.Helper()
	repo, err := filestore.New(f.dataDir)
	require.NoError(t, err)
	return repo.Get(context.Background(), key)
}

func TestRun_Usage(t *testing.T) {
	setupCLI(t)
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), config.Load(""), nil, strings.NewReader(""), &out))
	require.Contains(t, out.String(), "Usage: trailauth")
	require.Contains(t, out.String(), "google-login")

	err := run(context.Background(), config.Load(""), []string{"fly"}, strings.NewReader(""), &out)
	require.ErrorContains(t, err, `unknown command "fly"`)
}

func TestLoginWhoamiLogout(t *testing.T) {
	f := setupCLI(t)

	out, err := f.exec(t, "", "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "Not signed in.")

	out, err = f.exec(t, "rider@trails.test\nsaddle-up-1\n", "login")
	require.NoError(t, err)
	require.Contains(t, out, "Signed in as Ada Rider <rider@trails.test>")

	tok, err := f.persisted(t, storage.KeyAuthToken)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	// a new process restores the session from disk
	out, err = f.exec(t, "", "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "Email: rider@trails.test")
	require.Contains(t, out, "Session: expires in")

	out, err = f.exec(t, "", "logout")
	require.NoError(t, err)
	require.Contains(t, out, "Signed out.")

	_, err = f.persisted(t, storage.KeyAuthToken)
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, err = f.persisted(t, storage.KeyUserData)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLogin_Failures(t *testing.T) {
	f := setupCLI(t)

	_, err := f.exec(t, "", "login", "-email", "rider@trails.test")
	require.EqualError(t, err, "Please enter both email and password")
	require.Zero(t, f.backend.Hits(http.MethodPost, fakebackend.RouteAuthLogin))

	_, err = f.exec(t, "", "login", "-email", "rider@trails.test", "-password", "wrong")
	require.EqualError(t, err, "Invalid email or password")

	_, err = f.persisted(t, storage.KeyAuthToken)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLogin_TwoFactor(t *testing.T) {
	f := setupCLI(t)

	out, err := f.exec(t, "000000\n"+fakebackend.DefaultTwoFactorCode+"\n",
		"login", "-email", "secure@trails.test", "-password", "saddle-up-2")
	require.NoError(t, err)
	require.Contains(t, out, "Invalid verification code")
	require.Contains(t, out, "Signed in as Sam Secure")

	tok, err := f.persisted(t, storage.KeyAuthToken)
	require.NoError(t, err)
	require.NotEmpty(t, tok)
}

func TestLogin_TwoFactorGivesUp(t *testing.T) {
	f := setupCLI(t)

	_, err := f.exec(t, "000000\n000000\n000000\n",
		"login", "-email", "secure@trails.test", "-password", "saddle-up-2")
	require.ErrorIs(t, err, authmodel.ErrInvalidCode)
	require.Equal(t, maxCodeAttempts, f.backend.Hits(http.MethodPost, fakebackend.RouteTwoFactorVerify))

	// the pending token is never persisted
	_, err = f.persisted(t, storage.KeyAuthToken)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRegister(t *testing.T) {
	f := setupCLI(t)

	out, err := f.exec(t, "", "register",
		"-email", "new@trails.test", "-password", "gallop-123", "-confirm", "gallop-123",
		"-first", "Nell", "-last", "New")
	require.NoError(t, err)
	require.Contains(t, out, "Signed in as Nell New")

	_, err = f.exec(t, "", "register",
		"-email", "new@trails.test", "-password", "gallop-123", "-confirm", "gallop-123",
		"-first", "Nell", "-last", "New")
	require.EqualError(t, err, "An account with this email already exists")

	_, err = f.exec(t, "", "register",
		"-email", "other@trails.test", "-password", "gallop-123", "-confirm", "gallop-124",
		"-first", "O", "-last", "T")
	require.EqualError(t, err, "Passwords do not match")
}

func TestPasswordReset(t *testing.T) {
	f := setupCLI(t)

	out, err := f.exec(t, "rider@trails.test\n", "forgot-password")
	require.NoError(t, err)
	require.Contains(t, out, "reset email is on its way")

	resetToken, ok := f.backend.ResetToken("rider@trails.test")
	require.True(t, ok)

	_, err = f.exec(t, "", "reset-password",
		"-email", "rider@trails.test", "-token", resetToken,
		"-password", "new-saddle-9", "-confirm", "new-saddle-9")
	require.NoError(t, err)

	_, err = f.exec(t, "", "login", "-email", "rider@trails.test", "-password", "saddle-up-1")
	require.Error(t, err)
	_, err = f.exec(t, "", "login", "-email", "rider@trails.test", "-password", "new-saddle-9")
	require.NoError(t, err)
}

func TestProfile(t *testing.T) {
	f := setupCLI(t)

	_, err := f.exec(t, "", "profile")
	require.ErrorIs(t, err, authmodel.ErrUnauthorized)

	_, err = f.exec(t, "", "login", "-email", "rider@trails.test", "-password", "saddle-up-1")
	require.NoError(t, err)

	out, err := f.exec(t, "", "profile", "-phone", "07700 900123")
	require.NoError(t, err)
	require.Contains(t, out, "Name:  Ada Rider")
	require.Contains(t, out, "Phone: 07700 900123")

	stored, err := f.backend.Account("rider@trails.test")
	require.NoError(t, err)
	require.Equal(t, "07700 900123", *stored.PhoneNumber)

	out, err = f.exec(t, "", "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "Phone: 07700 900123")
}

func TestProfile_EditKeepsUnsetFields(t *testing.T) {
	f := setupCLI(t)

	_, err := f.exec(t, "", "login", "-email", "rider@trails.test", "-password", "saddle-up-1")
	require.NoError(t, err)
	_, err = f.exec(t, "", "profile", "-phone", "07700 900123", "-image", "https://img.trails.test/ada.png")
	require.NoError(t, err)

	out, err := f.exec(t, "", "profile", "-first", "Adaline")
	require.NoError(t, err)
	require.Contains(t, out, "Name:  Adaline Rider")
	require.Contains(t, out, "Phone: 07700 900123")

	stored, err := f.backend.Account("rider@trails.test")
	require.NoError(t, err)
	require.Equal(t, "Adaline", stored.FirstName)
	require.NotNil(t, stored.PhoneNumber)
	require.Equal(t, "07700 900123", *stored.PhoneNumber)
	require.NotNil(t, stored.ProfileImageURL)
	require.Equal(t, "https://img.trails.test/ada.png", *stored.ProfileImageURL)

	// an explicit empty value clears the field
	out, err = f.exec(t, "", "profile", "-phone=")
	require.NoError(t, err)
	require.NotContains(t, out, "Phone:")
	stored, err = f.backend.Account("rider@trails.test")
	require.NoError(t, err)
	require.Nil(t, stored.PhoneNumber)
	require.NotNil(t, stored.ProfileImageURL)
}

func TestProfile_RevokedSessionClearsToken(t *testing.T) {
	f := setupCLI(t)

	_, err := f.exec(t, "", "login", "-email", "rider@trails.test", "-password", "saddle-up-1")
	require.NoError(t, err)
	f.backend.RevokeAll()

	_, err = f.exec(t, "", "profile")
	require.ErrorIs(t, err, authmodel.ErrUnauthorized)

	_, err = f.persisted(t, storage.KeyAuthToken)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOpenStorage_UnknownDriver(t *testing.T) {
	setupCLI(t)
	t.Setenv("STORAGE_DRIVER", "floppy")

	_, _, err := openStorage(context.Background(), config.Load(""))
	require.ErrorIs(t, err, interrors.ErrInvalidConfig)
}

func TestOpenStorage_Memory(t *testing.T) {
	setupCLI(t)
	t.Setenv("STORAGE_DRIVER", config.StorageDriverMemory)

	repo, closeFn, err := openStorage(context.Background(), config.Load(""))
	require.NoError(t, err)
	require.NoError(t, closeFn())
	require.NoError(t, repo.Set(context.Background(), storage.KeyAuthToken, "T1"))
}
