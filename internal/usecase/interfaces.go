package usecase

import "context"

// Broadcaster pushes an event to whoever is subscribed to channel right now.
// Channels are conversation ids and user ids. Delivery is best effort.
type Broadcaster interface {
	Publish(ctx context.Context, channel, event string, payload interface{}) error
}

// RoleClaimSetter mirrors role changes into the identity provider, when it supports that.
type RoleClaimSetter interface {
	SetRole(ctx context.Context, uid, role string) error
}
