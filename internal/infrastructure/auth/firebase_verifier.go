package auth

import (
	"context"

	fbauth "firebase.google.com/go/v4/auth"

	"vetclinic/pkg/errors"
)

const roleClaim = "role"

type FirebaseVerifier struct {
	client *fbauth.Client
}

func NewFirebaseVerifier(client *fbauth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{
		client: client,
	}
}

// VerifyToken checks a Firebase ID token. The role comes from the "role"
// custom claim when an admin has set one.
func (f *FirebaseVerifier) VerifyToken(ctx context.Context, token string) (*Principal, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, errors.Unauthorized("Invalid or expired token", err)
	}

	role, _ := result.Claims[roleClaim].(string)
	return &Principal{UserID: result.UID, Role: role}, nil
}

// SetRole mirrors a role assignment into the user's custom claims so new
// tokens carry it.
func (f *FirebaseVerifier) SetRole(ctx context.Context, uid, role string) error {
	if err := f.client.SetCustomUserClaims(ctx, uid, map[string]interface{}{roleClaim: role}); err != nil {
		return errors.Internal("failed to update role claim", err)
	}
	return nil
}
