package repositories

import (
	"context"

	"hvac-backend/internal/models"
)

// ProfileRepository reads the role records kept next to the auth provider's
// users.
type ProfileRepository struct {
	DB Conn
}

func NewProfileRepository(db Conn) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

func (r *ProfileRepository) Get(ctx context.Context, id string) (*models.Profile, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, email, full_name, role, is_active, created_at, updated_at
		 FROM profiles WHERE id = $1`, id)

	var p models.Profile
	if err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns all profiles
func (r *ProfileRepository) List(ctx context.Context) ([]*models.Profile, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, email, full_name, role, is_active, created_at, updated_at
		 FROM profiles ORDER BY full_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, &p)
	}
	return profiles, rows.Err()
}
