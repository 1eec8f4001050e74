package entity

import (
	"time"
)

const (
	RolePetOwner = "pet-owner"
	RoleVet      = "vet"
	RoleAdmin    = "admin"
)

func IsValidRole(role string) bool {
	return role == RolePetOwner || role == RoleVet || role == RoleAdmin
}

type User struct {
	ID        string    `json:"id" firestore:"id"`
	Email     string    `json:"email" firestore:"email"`
	Username  string    `json:"username" firestore:"username"`
	Role      string    `json:"role" firestore:"role"`
	AvatarURL string    `json:"avatar_url,omitempty" firestore:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// Participant is the display projection of a user shown inside conversations and messages.
type Participant struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

func (u *User) Participant() Participant {
	return Participant{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		AvatarURL: u.AvatarURL,
	}
}
