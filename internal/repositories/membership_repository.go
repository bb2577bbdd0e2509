package repositories

import (
	"context"

	"choiros-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MembershipRepository struct {
	DB *pgxpool.Pool
}

func NewMembershipRepository(db *pgxpool.Pool) *MembershipRepository {
	return &MembershipRepository{DB: db}
}

// Get returns ErrNotFound when the user does not belong to the organization
func (r *MembershipRepository) Get(ctx context.Context, orgID, userID int64) (*models.Membership, error) {
	var m models.Membership
	err := r.DB.QueryRow(ctx, `
		SELECT organization_id, user_id, role
		FROM memberships
		WHERE organization_id = $1 AND user_id = $2`, orgID, userID,
	).Scan(&m.OrganizationID, &m.UserID, &m.Role)
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}
