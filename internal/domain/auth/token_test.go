package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", "fitbusiness", Claims{
		UserID:    "u-1",
		Name:      "Ana",
		Email:     "ana@acme.com",
		Role:      "rh",
		CompanyID: "c-1",
	}, time.Minute)
	require.NoError(t, err)

	claims, err := ParseToken("secret", "fitbusiness", token)
	require.NoError(t, err)

	user, err := claims.User()
	require.NoError(t, err)
	require.Equal(t, RoleHRManager, user.Role)
	require.Equal(t, "c-1", user.CompanyID)
	require.Equal(t, "ana@acme.com", user.Email)
}

func TestParseTokenRejectsWrongIssuerAndSecret(t *testing.T) {
	token, err := GenerateToken("secret", "someone-else", Claims{UserID: "u-1", Role: "admin"}, time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("secret", "fitbusiness", token)
	require.Error(t, err)

	_, err = ParseToken("other", "", token)
	require.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken("secret", "", Claims{UserID: "u-1", Role: "admin"}, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("secret", "", token)
	require.Error(t, err)
}

func TestClaimsUserValidation(t *testing.T) {
	_, err := Claims{UserID: "u-1", Role: "manager"}.User()
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = Claims{UserID: "u-1", Role: "employee"}.User()
	require.ErrorIs(t, err, ErrInvalidToken, "scoped roles need a company")

	user, err := Claims{UserID: "u-1", Role: "superadmin"}.User()
	require.NoError(t, err)
	require.Equal(t, RoleAdmin, user.Role)
}

func TestCanAccessCompany(t *testing.T) {
	admin := UserContext{Role: RoleAdmin}
	hr := UserContext{Role: RoleHRManager, CompanyID: "c-1"}

	require.True(t, admin.CanAccessCompany("c-9"))
	require.True(t, hr.CanAccessCompany("c-1"))
	require.False(t, hr.CanAccessCompany("c-2"))
	require.False(t, hr.CanAccessCompany(""))
	require.False(t, UserContext{Role: "ghost", CompanyID: "c-1"}.CanAccessCompany("c-1"))
}

func TestIsSelf(t *testing.T) {
	u := UserContext{Role: RoleEmployee, Email: "Bia@Acme.com", CompanyID: "c-1"}
	require.True(t, u.IsSelf("c-1", "bia@acme.com"))
	require.False(t, u.IsSelf("c-2", "bia@acme.com"))
	require.False(t, u.IsSelf("c-1", "carl@acme.com"))
}
