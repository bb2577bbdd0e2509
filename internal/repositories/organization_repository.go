package repositories

import (
	"context"

	"choiros-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type OrganizationRepository struct {
	DB *pgxpool.Pool
}

func NewOrganizationRepository(db *pgxpool.Pool) *OrganizationRepository {
	return &OrganizationRepository{DB: db}
}

// GetBySlug resolves a tenant from its subdomain or path slug
func (r *OrganizationRepository) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	var org models.Organization
	err := r.DB.QueryRow(ctx, `
		SELECT id, slug, name, created_at
		FROM organizations
		WHERE slug = $1`, slug,
	).Scan(&org.ID, &org.Slug, &org.Name, &org.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &org, nil
}
