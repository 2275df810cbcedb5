package store

import (
	"database/sql"
	"errors"
	"time"
)

// Profile represents a named calibration of the openness threshold, so the
// switch can be tuned per camera and lighting setup.
type Profile struct {
	ID            string
	Name          string
	OpenThreshold float64
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProfileRepository provides CRUD operations for calibration profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

// Create inserts a new calibration profile.
func (r *ProfileRepository) Create(p *Profile) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO calibration_profiles (id, name, open_threshold, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.OpenThreshold, p.Active, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetByID retrieves a profile by its ID.
func (r *ProfileRepository) GetByID(id string) (*Profile, error) {
	p := &Profile{}
	var active int

	err := r.db.QueryRow(
		`SELECT id, name, open_threshold, active, created_at, updated_at
		 FROM calibration_profiles WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.Name, &p.OpenThreshold, &active, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	p.Active = active != 0
	return p, nil
}

// List returns all profiles ordered by name.
func (r *ProfileRepository) List() ([]Profile, error) {
	rows, err := r.db.Query(
		`SELECT id, name, open_threshold, active, created_at, updated_at
		 FROM calibration_profiles ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		var p Profile
		var active int
		if err := rows.Scan(&p.ID, &p.Name, &p.OpenThreshold, &active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Active = active != 0
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}

// Active returns the currently active profile, or ErrNotFound when no
// profile is marked active.
func (r *ProfileRepository) Active() (*Profile, error) {
	p := &Profile{}
	var active int

	err := r.db.QueryRow(
		`SELECT id, name, open_threshold, active, created_at, updated_at
		 FROM calibration_profiles WHERE active = 1 LIMIT 1`,
	).Scan(&p.ID, &p.Name, &p.OpenThreshold, &active, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	p.Active = active != 0
	return p, nil
}

// Activate marks the given profile active and every other profile
// inactive, in a single transaction.
func (r *ProfileRepository) Activate(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE calibration_profiles SET active = 0`); err != nil {
		return err
	}

	res, err := tx.Exec(
		`UPDATE calibration_profiles SET active = 1, updated_at = ? WHERE id = ?`,
		time.Now(), id,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// Update changes a profile's name and threshold.
func (r *ProfileRepository) Update(p *Profile) error {
	p.UpdatedAt = time.Now()

	res, err := r.db.Exec(
		`UPDATE calibration_profiles SET name = ?, open_threshold = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.OpenThreshold, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a profile by ID.
func (r *ProfileRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM calibration_profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
