package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytevantagees-gif/janasamparka-engine/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("unit-test-secret")
	actor := domain.Actor{
		ID:    "officer-9",
		Roles: []domain.Role{domain.RoleOfficer, domain.Role(domain.DepartmentRolePrefix + "WSD")},
	}

	token, err := tm.IssueToken(actor, time.Minute)
	require.NoError(t, err)

	parsed, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, actor.ID, parsed.ID)
	assert.Equal(t, actor.Roles, parsed.Roles)
	assert.True(t, parsed.HasRole(domain.RoleOfficer))
	assert.True(t, parsed.MemberOfDepartment("WSD"))
	assert.False(t, parsed.MemberOfDepartment("PWD"))
}

func TestParseTokenWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a")
	verifier := NewTokenManager("secret-b")

	token, err := issuer.IssueToken(domain.Actor{ID: "u1", Roles: []domain.Role{domain.RoleCitizen}}, time.Minute)
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	require.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	tm := NewTokenManager("unit-test-secret")

	token, err := tm.IssueToken(domain.Actor{ID: "u1"}, -time.Minute)
	require.NoError(t, err)

	_, err = tm.ParseToken(token)
	require.Error(t, err)
}

func TestParseTokenGarbage(t *testing.T) {
	tm := NewTokenManager("unit-test-secret")

	_, err := tm.ParseToken("not-a-token")
	require.Error(t, err)
}
