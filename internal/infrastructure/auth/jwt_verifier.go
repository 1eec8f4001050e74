package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"vetclinic/pkg/errors"
)

const jwtIssuer = "vetclinic"

type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTProvider issues and verifies HS256 tokens signed with a shared secret.
type JWTProvider struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewJWTProvider(secret string, expiry time.Duration) *JWTProvider {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &JWTProvider{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

func (p *JWTProvider) IssueToken(userID, role string) (string, error) {
	now := p.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    jwtIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
		},
	})

	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", errors.Internal("failed to sign token", err)
	}
	return signed, nil
}

func (p *JWTProvider) VerifyToken(ctx context.Context, tokenString string) (*Principal, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(jwtIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, errors.Unauthorized("Invalid or expired token", err)
	}
	if claims.Subject == "" {
		return nil, errors.Unauthorized("Token has no subject", nil)
	}

	return &Principal{UserID: claims.Subject, Role: claims.Role}, nil
}
