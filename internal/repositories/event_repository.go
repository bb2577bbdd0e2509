package repositories

import (
	"context"

	"choiros-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository struct {
	DB *pgxpool.Pool
}

func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{DB: db}
}

// GetByID scopes the lookup to the tenant so events of other
// organizations read as not found.
func (r *EventRepository) GetByID(ctx context.Context, orgID, eventID int64) (*models.Event, error) {
	var e models.Event
	err := r.DB.QueryRow(ctx, `
		SELECT id, organization_id, title, location, starts_at, created_at
		FROM events
		WHERE organization_id = $1 AND id = $2`, orgID, eventID,
	).Scan(&e.ID, &e.OrganizationID, &e.Title, &e.Location, &e.StartsAt, &e.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}
