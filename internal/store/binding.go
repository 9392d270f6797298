package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Binding attaches a named scene entity to a profile.
type Binding struct {
	ID            string    `json:"id"`
	Entity        string    `json:"entity"`
	ProfileID     string    `json:"profile_id"`
	MovementSpeed float64   `json:"movement_speed"`
	CreatedAt     time.Time `json:"created_at"`
}

// BindingRepository provides CRUD operations for bindings.
type BindingRepository struct {
	db *sql.DB
}

// Bindings returns the binding repository for this store.
func (s *Store) Bindings() *BindingRepository {
	return &BindingRepository{db: s.db}
}

// Create inserts b, assigning an ID when b has none.
func (r *BindingRepository) Create(b *Binding) error {
	if b.MovementSpeed < 0 {
		return fmt.Errorf("binding %s: negative movement speed", b.Entity)
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO bindings (id, entity, profile_id, movement_speed, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Entity, b.ProfileID, b.MovementSpeed, b.CreatedAt,
	)
	return err
}

// GetByEntity retrieves the binding for an entity name.
func (r *BindingRepository) GetByEntity(entity string) (*Binding, error) {
	b := &Binding{}
	err := r.db.QueryRow(
		`SELECT id, entity, profile_id, movement_speed, created_at
		 FROM bindings WHERE entity = ?`,
		entity,
	).Scan(&b.ID, &b.Entity, &b.ProfileID, &b.MovementSpeed, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// List retrieves every binding, or only those of profileID when it is set.
func (r *BindingRepository) List(profileID string) ([]Binding, error) {
	query := `SELECT id, entity, profile_id, movement_speed, created_at FROM bindings`
	var args []any
	if profileID != "" {
		query += ` WHERE profile_id = ?`
		args = append(args, profileID)
	}
	query += ` ORDER BY entity`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bindings []Binding
	for rows.Next() {
		var b Binding
		if err := rows.Scan(&b.ID, &b.Entity, &b.ProfileID, &b.MovementSpeed, &b.CreatedAt); err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}
	return bindings, rows.Err()
}

// SetSpeed changes a binding's movement speed.
func (r *BindingRepository) SetSpeed(id string, speed float64) error {
	if speed < 0 {
		return fmt.Errorf("binding %s: negative movement speed", id)
	}
	result, err := r.db.Exec(`UPDATE bindings SET movement_speed = ? WHERE id = ?`, speed, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Delete removes a binding.
func (r *BindingRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM bindings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
