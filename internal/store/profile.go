package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/thumbstick/internal/hand"
	"github.com/ayusman/thumbstick/internal/joint"
	"github.com/ayusman/thumbstick/internal/signal"
)

// Profile is a named signal configuration.
type Profile struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	HandSide       hand.Side             `json:"hand_side"`
	Deadzone       float64               `json:"deadzone"`
	MaxDistance    float64               `json:"max_distance"`
	ScaleFactor    float64               `json:"scale_factor"`
	DeadzonePolicy signal.DeadzonePolicy `json:"deadzone_policy"`
	ReferenceJoint joint.Reference       `json:"reference_joint"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// NewProfile returns an unsaved profile holding cfg.
func NewProfile(name string, cfg signal.Config) *Profile {
	return &Profile{
		Name:           name,
		HandSide:       cfg.HandSide,
		Deadzone:       cfg.Deadzone,
		MaxDistance:    cfg.MaxDistance,
		ScaleFactor:    cfg.ScaleFactor,
		DeadzonePolicy: cfg.DeadzonePolicy,
		ReferenceJoint: cfg.ReferenceJoint,
	}
}

// SignalConfig returns the processor configuration the profile describes.
func (p *Profile) SignalConfig() signal.Config {
	return signal.Config{
		HandSide:       p.HandSide,
		Deadzone:       p.Deadzone,
		MaxDistance:    p.MaxDistance,
		ScaleFactor:    p.ScaleFactor,
		DeadzonePolicy: p.DeadzonePolicy,
		ReferenceJoint: p.ReferenceJoint,
	}
}

// ProfileRepository provides CRUD operations for profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

const profileColumns = `id, name, hand_side, deadzone, max_distance, scale_factor,
	deadzone_policy, reference_joint, created_at, updated_at`

// Create validates and inserts p, assigning an ID when p has none.
func (r *ProfileRepository) Create(p *Profile) error {
	if err := p.SignalConfig().Validate(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO profiles (`+profileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.HandSide.String(), p.Deadzone, p.MaxDistance, p.ScaleFactor,
		p.DeadzonePolicy.String(), p.ReferenceJoint.String(), p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetByID retrieves a profile by its ID.
func (r *ProfileRepository) GetByID(id string) (*Profile, error) {
	return scanProfile(r.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id))
}

// GetByName retrieves a profile by its name.
func (r *ProfileRepository) GetByName(name string) (*Profile, error) {
	return scanProfile(r.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE name = ?`, name))
}

// List retrieves all profiles ordered by name.
func (r *ProfileRepository) List() ([]*Profile, error) {
	rows, err := r.db.Query(`SELECT ` + profileColumns + ` FROM profiles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Update validates p and overwrites the stored row.
func (r *ProfileRepository) Update(p *Profile) error {
	if err := p.SignalConfig().Validate(); err != nil {
		return err
	}
	p.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE profiles SET name = ?, hand_side = ?, deadzone = ?, max_distance = ?,
		 scale_factor = ?, deadzone_policy = ?, reference_joint = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.HandSide.String(), p.Deadzone, p.MaxDistance, p.ScaleFactor,
		p.DeadzonePolicy.String(), p.ReferenceJoint.String(), p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Delete removes a profile and its bindings.
func (r *ProfileRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	p := &Profile{}
	var side, policy, ref string

	err := row.Scan(&p.ID, &p.Name, &side, &p.Deadzone, &p.MaxDistance, &p.ScaleFactor,
		&policy, &ref, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if p.HandSide, err = hand.ParseSide(side); err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.ID, err)
	}
	if p.DeadzonePolicy, err = signal.ParseDeadzonePolicy(policy); err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.ID, err)
	}
	if p.ReferenceJoint, err = joint.ParseReference(ref); err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.ID, err)
	}
	return p, nil
}
