package repositories

import (
	"context"

	"choiros-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AttendanceRepository struct {
	DB *pgxpool.Pool
}

func NewAttendanceRepository(db *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{DB: db}
}

// Insert stores a check-in unless one already exists for (event, user).
// On conflict a is overwritten with the stored row and created is false.
func (r *AttendanceRepository) Insert(ctx context.Context, a *models.Attendance) (bool, error) {
	tag, err := r.DB.Exec(ctx, `
		INSERT INTO attendance (event_id, user_id, check_in_at, received_at, source)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT attendance_event_user_unique DO NOTHING`,
		a.EventID, a.UserID, a.CheckInAt, a.ReceivedAt, a.Source,
	)
	if err != nil {
		return false, err
	}

	created := tag.RowsAffected() > 0
	err = r.DB.QueryRow(ctx, `
		SELECT id, event_id, user_id, check_in_at, received_at, source
		FROM attendance
		WHERE event_id = $1 AND user_id = $2`, a.EventID, a.UserID,
	).Scan(&a.ID, &a.EventID, &a.UserID, &a.CheckInAt, &a.ReceivedAt, &a.Source)
	if err != nil {
		return false, err
	}
	return created, nil
}

// ListByEvent returns check-ins for an event, earliest first
func (r *AttendanceRepository) ListByEvent(ctx context.Context, eventID int64) ([]models.AttendanceListItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT a.id, a.event_id, a.user_id, a.check_in_at, a.received_at, a.source,
		       u.name, u.email
		FROM attendance a
		JOIN users u ON u.id = a.user_id
		WHERE a.event_id = $1
		ORDER BY a.check_in_at ASC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.AttendanceListItem{}
	for rows.Next() {
		var it models.AttendanceListItem
		if err := rows.Scan(&it.ID, &it.EventID, &it.UserID, &it.CheckInAt, &it.ReceivedAt, &it.Source,
			&it.UserName, &it.UserEmail); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
