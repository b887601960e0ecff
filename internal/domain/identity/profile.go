package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrProfileNotFound is returned when no profile exists for a user
var ErrProfileNotFound = errors.New("identity: profile not found")

// Role is a portal role stored on the profile
type Role string

const (
	// RoleAdmin can trigger syncs and read every client's analytics
	RoleAdmin Role = "admin"
	// RoleClient can read only its own analytics
	RoleClient Role = "client"
)

// Profile is the portal-level view of an authenticated user.
// For client users the profile ID doubles as the client ID.
type Profile struct {
	ID        uuid.UUID
	Email     string
	FullName  string
	Role      Role
	CreatedAt time.Time
}

// IsAdmin returns true if the profile carries the admin role
func (p *Profile) IsAdmin() bool {
	return Role(strings.ToLower(string(p.Role))) == RoleAdmin
}

// CanAccessClient returns true if the profile may read the given client's data
func (p *Profile) CanAccessClient(clientID uuid.UUID) bool {
	return p.IsAdmin() || p.ID == clientID
}

// ProfileRepository reads profiles
type ProfileRepository interface {
	// FindByID returns ErrProfileNotFound if no profile exists
	FindByID(ctx context.Context, id uuid.UUID) (*Profile, error)
}
