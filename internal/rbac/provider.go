// Package rbac resolves a user's roles and permissions for claim embedding.
// The token issuer consumes it read-only; role management lives elsewhere in
// the platform.
package rbac

import "context"

// Role is a named role assigned to a user.
type Role struct {
	ID   string
	Name string
}

// Provider resolves role and permission sets for a user.
type Provider interface {
	GetUserRoles(ctx context.Context, userID string) ([]Role, error)
	GetUserPermissions(ctx context.Context, userID string) ([]string, error)
}

// RoleIDs returns the ids of the given roles in order.
func RoleIDs(roles []Role) []string {
	ids := make([]string, len(roles))
	for i, r := range roles {
		ids[i] = r.ID
	}
	return ids
}
