package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"clairenest/internal/database"
	"clairenest/internal/models"
)

// ChildRepository handles database operations for child profiles
type ChildRepository struct {
	db database.DBTX
}

// NewChildRepository creates a new child repository
func NewChildRepository(db database.DBTX) *ChildRepository {
	return &ChildRepository{db: db}
}

// CreateChild inserts a new child profile and returns it
func (r *ChildRepository) CreateChild(child *models.ChildProfile) (*models.ChildProfile, error) {
	if child.ID == "" {
		child.ID = uuid.New().String()
	}
	now := time.Now()
	child.CreatedAt = now
	child.UpdatedAt = now

	milestones, err := json.Marshal(child.Milestones)
	if err != nil {
		return nil, fmt.Errorf("failed to encode milestones: %w", err)
	}

	query := `
		INSERT INTO child_profiles (id, parent_id, name, birthdate, height_cm, weight_kg,
			milestones, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, child.ID, child.ParentID, child.Name, child.Birthdate,
		nullFloat(child.HeightCm), nullFloat(child.WeightKg), string(milestones),
		child.CreatedAt, child.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create child profile: %w", err)
	}
	return child, nil
}

const childColumns = `id, parent_id, name, birthdate, height_cm, weight_kg,
	milestones, created_at, updated_at`

// GetChildByID retrieves a child profile by its id
func (r *ChildRepository) GetChildByID(id string) (*models.ChildProfile, error) {
	query := `SELECT ` + childColumns + ` FROM child_profiles WHERE id = ?`
	child, err := scanChildFrom(r.db.QueryRow(query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get child profile: %w", err)
	}
	return child, nil
}

func scanChildFrom(scan func(dest ...any) error) (*models.ChildProfile, error) {
	child := &models.ChildProfile{}
	var height, weight sql.NullFloat64
	var milestones string

	err := scan(&child.ID, &child.ParentID, &child.Name, &child.Birthdate,
		&height, &weight, &milestones, &child.CreatedAt, &child.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if height.Valid {
		child.HeightCm = &height.Float64
	}
	if weight.Valid {
		child.WeightKg = &weight.Float64
	}
	if err := json.Unmarshal([]byte(milestones), &child.Milestones); err != nil {
		return nil, fmt.Errorf("corrupt child record %s: %w", child.ID, err)
	}
	return child, nil
}

// ListByParent retrieves a parent's child profiles ordered by birthdate
func (r *ChildRepository) ListByParent(parentID string) ([]models.ChildProfile, error) {
	query := `SELECT ` + childColumns + ` FROM child_profiles WHERE parent_id = ? ORDER BY birthdate ASC`
	rows, err := r.db.Query(query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query child profiles: %w", err)
	}
	defer rows.Close()

	var children []models.ChildProfile
	for rows.Next() {
		child, err := scanChildFrom(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child profile: %w", err)
		}
		children = append(children, *child)
	}
	return children, rows.Err()
}

// UpdateChild overwrites a child profile's editable fields
func (r *ChildRepository) UpdateChild(child *models.ChildProfile) error {
	milestones, err := json.Marshal(child.Milestones)
	if err != nil {
		return fmt.Errorf("failed to encode milestones: %w", err)
	}
	query := `
		UPDATE child_profiles SET name = ?, birthdate = ?, height_cm = ?, weight_kg = ?,
			milestones = ?, updated_at = ?
		WHERE id = ?
	`
	_, err = r.db.Exec(query, child.Name, child.Birthdate, nullFloat(child.HeightCm),
		nullFloat(child.WeightKg), string(milestones), time.Now(), child.ID)
	if err != nil {
		return fmt.Errorf("failed to update child profile: %w", err)
	}
	return nil
}

// DeleteChild removes a child profile
func (r *ChildRepository) DeleteChild(id string) error {
	if _, err := r.db.Exec(`DELETE FROM child_profiles WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete child profile: %w", err)
	}
	return nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
