package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetclinic/internal/domain/entity"
	"vetclinic/pkg/errors"
)

type recordingClaims struct {
	roles map[string]string
}

func (r *recordingClaims) SetRole(ctx context.Context, uid, role string) error {
	r.roles[uid] = role
	return nil
}

func TestUpsertMeCreatesPetOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.userUC.UpsertMe(ctx, "new-user", "", UpdateProfileInput{})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	user, err := f.userUC.UpsertMe(ctx, "new-user", "", UpdateProfileInput{Username: "erin", Email: "erin@example.com"})
	require.NoError(t, err)
	assert.Equal(t, entity.RolePetOwner, user.Role)

	user, err = f.userUC.UpsertMe(ctx, "new-user", "", UpdateProfileInput{AvatarURL: "https://cdn.example/erin.png"})
	require.NoError(t, err)
	assert.Equal(t, "erin", user.Username)
	assert.Equal(t, "https://cdn.example/erin.png", user.AvatarURL)

	got, err := f.userUC.GetMe(ctx, "new-user")
	require.NoError(t, err)
	assert.Equal(t, "erin@example.com", got.Email)
}

func TestSetRole(t *testing.T) {
	f := newFixture(t)
	claims := &recordingClaims{roles: map[string]string{}}
	uc := NewUserUseCase(f.users, claims)
	ctx := context.Background()

	user, err := uc.SetRole(ctx, "admin-d", "owner-c", entity.RoleVet)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleVet, user.Role)
	assert.Equal(t, entity.RoleVet, claims.roles["owner-c"])
	assert.Equal(t, entity.RoleVet, uc.ResolveRole(ctx, "owner-c"))

	_, err = uc.SetRole(ctx, "admin-d", "owner-c", "groomer")
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	_, err = uc.SetRole(ctx, "admin-d", "admin-d", entity.RoleVet)
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	_, err = uc.SetRole(ctx, "admin-d", "ghost", entity.RoleVet)
	assert.True(t, errors.IsNotFound(err))

	assert.Equal(t, entity.RolePetOwner, uc.ResolveRole(ctx, "ghost"))
}
