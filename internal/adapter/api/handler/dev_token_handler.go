package handler

import (
	"github.com/labstack/echo/v4"

	"vetclinic/internal/domain/entity"
	"vetclinic/internal/domain/repository"
	"vetclinic/internal/infrastructure/auth"
	"vetclinic/pkg/errors"
	"vetclinic/pkg/response"
)

// DevTokenHandler mints local tokens for seeded users. It is only routed in development.
type DevTokenHandler struct {
	issuer   *auth.JWTProvider
	userRepo repository.UserRepository
}

func NewDevTokenHandler(issuer *auth.JWTProvider, userRepo repository.UserRepository) *DevTokenHandler {
	return &DevTokenHandler{
		issuer:   issuer,
		userRepo: userRepo,
	}
}

type devTokenRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	Username string `json:"username"`
	Role     string `json:"role" validate:"omitempty,oneof=pet-owner vet admin"`
}

// IssueToken creates the user when missing and returns a signed token for them.
func (h *DevTokenHandler) IssueToken(c echo.Context) error {
	var req devTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	ctx := c.Request().Context()
	user, err := h.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		if !errors.IsNotFound(err) {
			return response.Error(c, err)
		}
		user = &entity.User{ID: req.UserID, Username: req.Username, Role: req.Role}
		if user.Username == "" {
			user.Username = req.UserID
		}
		if user.Role == "" {
			user.Role = entity.RolePetOwner
		}
		if err := h.userRepo.Upsert(ctx, user); err != nil {
			return response.Error(c, err)
		}
	}

	token, err := h.issuer.IssueToken(user.ID, user.Role)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}
