package authmodel_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/trails-auth/authmodel"
)

func TestAuthResponse_Decode(t *testing.T) {
	body := `{
		"token": "T1",
		"refreshToken": "R1",
		"expiresAt": "2025-01-01T00:00:00Z",
		"user": {"id": "u1", "email": "a@b.com", "firstName": "A", "lastName": "B", "twoFactorEnabled": false}
	}`
	var resp authmodel.AuthResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))

	require.Equal(t, "T1", resp.Token)
	require.False(t, resp.RequiresTwoFactor)
	require.True(t, resp.HasSession())
	require.Nil(t, resp.User.PhoneNumber)
}

func TestAuthResponse_HasSession(t *testing.T) {
	var nilResp *authmodel.AuthResponse
	require.False(t, nilResp.HasSession())
	require.False(t, (&authmodel.AuthResponse{Token: "T1"}).HasSession())
	require.False(t, (&authmodel.AuthResponse{RequiresTwoFactor: true, Token: "PENDING1"}).HasSession())
}

func TestAuthResponse_Expiry(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		want   time.Time
		wantOK bool
	}{
		{"rfc3339", "2025-01-01T00:00:00Z", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"offset", "2025-01-01T02:00:00+02:00", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"zone-less", "2025-03-04T05:06:07", time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC), true},
		{"zone-less fraction", "2025-03-04T05:06:07.1234567", time.Date(2025, 3, 4, 5, 6, 7, 123456700, time.UTC), true},
		{"empty", "", time.Time{}, false},
		{"garbage", "tomorrow", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := (&authmodel.AuthResponse{ExpiresAt: tt.value}).Expiry()
			require.Equal(t, tt.wantOK, ok)
			if ok {
				require.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}
}
