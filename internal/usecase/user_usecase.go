package usecase

import (
	"context"
	"strings"

	"vetclinic/internal/domain/entity"
	"vetclinic/internal/domain/repository"
	"vetclinic/pkg/errors"
	"vetclinic/pkg/logger"
)

type UserUseCase struct {
	userRepo    repository.UserRepository
	claimSetter RoleClaimSetter
}

func NewUserUseCase(userRepo repository.UserRepository, claimSetter RoleClaimSetter) *UserUseCase {
	return &UserUseCase{
		userRepo:    userRepo,
		claimSetter: claimSetter,
	}
}

type UpdateProfileInput struct {
	Email     string
	Username  string
	AvatarURL string
}

func (uc *UserUseCase) GetMe(ctx context.Context, userID string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}

// UpsertMe creates the caller's directory entry on first use and updates it
// afterwards. New users start as pet owners; the role is never changed here.
func (uc *UserUseCase) UpsertMe(ctx context.Context, userID, tokenRole string, input UpdateProfileInput) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		if !errors.IsNotFound(err) {
			logger.Error("UpsertMe Error: %v", err)
			return nil, err
		}
		role := tokenRole
		if !entity.IsValidRole(role) {
			role = entity.RolePetOwner
		}
		user = &entity.User{ID: userID, Role: role}
	}

	if v := strings.TrimSpace(input.Username); v != "" {
		user.Username = v
	}
	if v := strings.TrimSpace(input.Email); v != "" {
		user.Email = v
	}
	if v := strings.TrimSpace(input.AvatarURL); v != "" {
		user.AvatarURL = v
	}
	if user.Username == "" {
		return nil, errors.BadRequest("Username is required", nil)
	}

	if err := uc.userRepo.Upsert(ctx, user); err != nil {
		logger.Error("UpsertMe Error: %v", err)
		return nil, err
	}
	return user, nil
}

func (uc *UserUseCase) SetRole(ctx context.Context, adminID, userID, role string) (*entity.User, error) {
	if !entity.IsValidRole(role) {
		return nil, errors.BadRequest("Invalid role", nil)
	}
	if adminID == userID && role != entity.RoleAdmin {
		return nil, errors.BadRequest("You cannot remove your own admin role", nil)
	}

	if err := uc.userRepo.UpdateRole(ctx, userID, role); err != nil {
		logger.Error("SetRole Error: %v", err)
		return nil, err
	}

	if uc.claimSetter != nil {
		if err := uc.claimSetter.SetRole(ctx, userID, role); err != nil {
			logger.Warn("SetRole: role claim for %s not updated: %v", userID, err)
		}
	}

	logger.Info("User %s role set to %s by %s", userID, role, adminID)
	return uc.userRepo.GetByID(ctx, userID)
}

// ResolveRole returns the directory role for a user, used when the token carries none.
func (uc *UserUseCase) ResolveRole(ctx context.Context, userID string) string {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return entity.RolePetOwner
	}
	return user.Role
}
