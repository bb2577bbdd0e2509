package repositories

import (
	"context"

	"choiros-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, email, name, password_hash, is_superadmin, created_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsSuperadmin, &u.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetByEmail is used by login; emails are stored lower-case
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.DB.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = LOWER($1)`, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(r.DB.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}
