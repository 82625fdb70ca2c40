package repositories

import (
	"context"

	"hvac-backend/internal/models"
)

type AdminActionLogRepository struct {
	DB Conn
}

func NewAdminActionLogRepository(db Conn) *AdminActionLogRepository {
	return &AdminActionLogRepository{DB: db}
}

// CreateActionLog records an admin action
func (r *AdminActionLogRepository) CreateActionLog(ctx context.Context, log *models.AdminActionLog) error {
	query := `
		INSERT INTO admin_action_logs (
			admin_user_id, action_type, target_type, target_id,
			description, old_value, new_value, ip_address
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	return r.DB.QueryRow(ctx, query,
		log.AdminUserID, log.ActionType, log.TargetType, log.TargetID,
		log.Description, log.OldValue, log.NewValue, log.IPAddress,
	).Scan(&log.ID, &log.CreatedAt)
}

// ListActionLogs returns the newest entries first, with the acting profile's
// email when it still exists.
func (r *AdminActionLogRepository) ListActionLogs(ctx context.Context, filter models.ActionLogFilter) ([]models.AdminActionLog, error) {
	query := `
		SELECT
			al.id, al.admin_user_id, COALESCE(p.email, ''),
			al.action_type, al.target_type, al.target_id,
			al.description, al.old_value, al.new_value,
			al.ip_address, al.created_at
		FROM admin_action_logs al
		LEFT JOIN profiles p ON al.admin_user_id = p.id
		WHERE ($1 = '' OR al.target_type = $1)
		  AND ($2 = '' OR al.target_id = $2)
		ORDER BY al.created_at DESC, al.id DESC
		LIMIT $3
	`

	rows, err := r.DB.Query(ctx, query, filter.TargetType, filter.TargetID, filter.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.AdminActionLog
	for rows.Next() {
		var l models.AdminActionLog
		if err := rows.Scan(
			&l.ID, &l.AdminUserID, &l.AdminEmail,
			&l.ActionType, &l.TargetType, &l.TargetID,
			&l.Description, &l.OldValue, &l.NewValue,
			&l.IPAddress, &l.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
