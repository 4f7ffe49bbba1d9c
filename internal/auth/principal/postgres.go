package principal

import (
	"context"
	"database/sql"
	"errors"

	"auth-gateway/internal/auth"
	"auth-gateway/internal/db"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const findByEmailQuery = `
	SELECT p.id, p.email, p.display_name,
	       COALESCE(array_agg(r.role) FILTER (WHERE r.role IS NOT NULL), '{}')
	FROM principals p
	LEFT JOIN principal_roles r ON r.principal_id = p.id
	WHERE p.email = $1
	GROUP BY p.id, p.email, p.display_name
`

// PostgresStore reads principals from the principals / principal_roles tables.
type PostgresStore struct {
	db *db.DB
}

func NewPostgresStore(db *db.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*auth.Principal, error) {
	var (
		id    uuid.UUID
		p     auth.Principal
		roles pq.StringArray
	)

	err := s.db.QueryRowContext(ctx, findByEmailQuery, email).
		Scan(&id, &p.Email, &p.DisplayName, &roles)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.ID = id.String()
	p.Roles = auth.NewRoleSet(roles...)

	return &p, nil
}
