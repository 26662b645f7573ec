package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeUnit(t *testing.T) {
	user := Principal{UserID: "u1", UnitCode: 1, OrgCode: 1}
	require.NoError(t, AuthorizeUnit(user, 1))

	err := AuthorizeUnit(user, 2)
	var fe ForbiddenError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "unit:2", fe.Permission)
	assert.Equal(t, "user cannot access a work plan of another unit", err.Error())

	require.NoError(t, AuthorizeUnit(Principal{Admin: true}, 2))
}

func TestAuthorizeOrg(t *testing.T) {
	user := Principal{UserID: "u1", UnitCode: 1, OrgCode: 1}
	require.NoError(t, AuthorizeOrg(user, 1))
	err := AuthorizeOrg(user, 2)
	require.Error(t, err)
	assert.Equal(t, "user has no permission on the informed instituting_org_code", err.Error())
	require.NoError(t, AuthorizeOrg(Principal{Admin: true}, 2))
}

func TestRequireAdmin(t *testing.T) {
	assert.Error(t, RequireAdmin(Principal{}))
	assert.NoError(t, RequireAdmin(Principal{Admin: true}))
	assert.Equal(t, "permission x required", ForbiddenError{Permission: "x"}.Error())
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	require.NoError(t, CheckPassword(hash, "s3cret"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrPasswordMismatch)

	_, err = HashPassword("")
	assert.Error(t, err)
}
