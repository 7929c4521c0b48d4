package service

import (
	"context"
	"errors"
	"testing"

	"loadboard/internal/model"
	"loadboard/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProfileFixture(t *testing.T) (*MockUserRepository, ProfileService) {
	t.Helper()
	users := NewMockUserRepository()
	hash, err := utils.HashPassword("secret1")
	require.NoError(t, err)
	users.AddUser(&model.User{ID: "u1", Email: "u@example.com", Name: "U", Role: model.RoleUser, PasswordHash: hash})
	return users, NewProfileService(users)
}

func TestUpdateProfile_PasswordMismatch(t *testing.T) {
	t.Parallel()
	users, svc := newProfileFixture(t)

	_, err := svc.UpdateProfile(context.Background(), "u1", ProfileUpdate{NewPassword: "abcdef", ConfirmPassword: "abcdeg"})

	var vErr *model.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "Passwords do not match", vErr.Error())
	assert.Equal(t, 0, users.UpdateCallCount)
}

func TestUpdateProfile_AddressOnlyKeepsPassword(t *testing.T) {
	t.Parallel()
	users, svc := newProfileFixture(t)
	address := "  12 Marine Drive, Mumbai "

	user, err := svc.UpdateProfile(context.Background(), "u1", ProfileUpdate{Address: &address})

	require.NoError(t, err)
	require.NotNil(t, user.Address)
	assert.Equal(t, "12 Marine Drive, Mumbai", *user.Address)
	assert.NotNil(t, user.UpdatedAt)
	stored, _ := users.FindByID(context.Background(), "u1")
	assert.True(t, utils.CheckPasswordHash("secret1", stored.PasswordHash))
}

func TestUpdateProfile_ChangesPassword(t *testing.T) {
	t.Parallel()
	users, svc := newProfileFixture(t)

	_, err := svc.UpdateProfile(context.Background(), "u1", ProfileUpdate{NewPassword: "n3wpass", ConfirmPassword: "n3wpass"})

	require.NoError(t, err)
	stored, _ := users.FindByID(context.Background(), "u1")
	assert.True(t, utils.CheckPasswordHash("n3wpass", stored.PasswordHash))
}

func TestUpdateProfile_NothingToChange(t *testing.T) {
	t.Parallel()
	users, svc := newProfileFixture(t)

	user, err := svc.UpdateProfile(context.Background(), "u1", ProfileUpdate{})

	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, 0, users.UpdateCallCount)
}

func TestGetProfile_Missing(t *testing.T) {
	t.Parallel()
	_, svc := newProfileFixture(t)

	_, err := svc.GetProfile(context.Background(), "ghost")

	assert.ErrorIs(t, err, ErrUserNotFound)
}
