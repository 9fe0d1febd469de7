package rbac

import (
	"context"
	"database/sql"
)

// PostgresProvider resolves roles and permissions from the roles,
// user_roles, permissions, and role_permissions tables.
type PostgresProvider struct {
	db *sql.DB
}

// NewPostgresProvider returns a Provider backed by db.
func NewPostgresProvider(db *sql.DB) *PostgresProvider {
	return &PostgresProvider{db: db}
}

// GetUserRoles returns the roles assigned to userID.
func (p *PostgresProvider) GetUserRoles(ctx context.Context, userID string) ([]Role, error) {
	const q = `
SELECT r.id, r.name
FROM roles r
JOIN user_roles ur ON ur.role_id = r.id
WHERE ur.user_id = $1
ORDER BY r.name;
`
	rows, err := p.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// GetUserPermissions returns the distinct permission names granted to userID
// through its roles.
func (p *PostgresProvider) GetUserPermissions(ctx context.Context, userID string) ([]string, error) {
	const q = `
SELECT DISTINCT p.name
FROM permissions p
JOIN role_permissions rp ON rp.permission_id = p.id
JOIN user_roles ur ON ur.role_id = rp.role_id
WHERE ur.user_id = $1
ORDER BY p.name;
`
	rows, err := p.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		perms = append(perms, name)
	}
	return perms, rows.Err()
}
