package repository

import (
	"context"

	"vetclinic/internal/domain/entity"
)

// UserRepository is the participant directory.
type UserRepository interface {
	Upsert(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// GetByIDs resolves many users at once. Unknown ids are absent from the result.
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.User, error)
	UpdateRole(ctx context.Context, id, role string) error
}
