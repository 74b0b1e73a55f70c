package repository

import (
	"database/sql"
	"fmt"
	"time"

	"clairenest/internal/database"
	"clairenest/internal/models"
)

// ConnectionRepository handles database operations for family connections.
// Each logical connection is stored as two rows, one per owner.
type ConnectionRepository struct {
	db database.DBTX
}

// NewConnectionRepository creates a new connection repository
func NewConnectionRepository(db database.DBTX) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

// CreatePair inserts the pending connection rows for both sides atomically
func (r *ConnectionRepository) CreatePair(ownerID, counterpartID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	query := `
		INSERT INTO family_connections (owner_id, counterpart_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := tx.Exec(query, ownerID, counterpartID, string(models.ConnectionPending), now, now); err != nil {
		return fmt.Errorf("failed to create connection: %w", err)
	}
	if _, err := tx.Exec(query, counterpartID, ownerID, string(models.ConnectionPending), now, now); err != nil {
		return fmt.Errorf("failed to create mirror connection: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetByOwnerAndCounterpart retrieves one side of a connection, if present
func (r *ConnectionRepository) GetByOwnerAndCounterpart(ownerID, counterpartID string) (*models.FamilyConnection, error) {
	query := `
		SELECT id, owner_id, counterpart_id, status, created_at, updated_at
		FROM family_connections
		WHERE owner_id = ? AND counterpart_id = ?
	`
	return r.scanConnection(r.db.QueryRow(query, ownerID, counterpartID))
}

func (r *ConnectionRepository) scanConnection(row *sql.Row) (*models.FamilyConnection, error) {
	conn := &models.FamilyConnection{}
	var status string
	err := row.Scan(&conn.ID, &conn.OwnerID, &conn.CounterpartID, &status, &conn.CreatedAt, &conn.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	conn.Status, err = models.ParseConnectionStatus(status)
	if err != nil {
		return nil, fmt.Errorf("corrupt connection record %d: %w", conn.ID, err)
	}
	return conn, nil
}

// UpdateStatusPair transitions both sides of a connection in one transaction.
// Only rows still pending are touched, so the caller can detect races.
func (r *ConnectionRepository) UpdateStatusPair(ownerID, counterpartID string, status models.ConnectionStatus) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	query := `
		UPDATE family_connections SET status = ?, updated_at = ?
		WHERE owner_id = ? AND counterpart_id = ? AND status = ?
	`
	pending := string(models.ConnectionPending)
	if _, err := tx.Exec(query, string(status), now, ownerID, counterpartID, pending); err != nil {
		return fmt.Errorf("failed to update connection: %w", err)
	}
	if _, err := tx.Exec(query, string(status), now, counterpartID, ownerID, pending); err != nil {
		return fmt.Errorf("failed to update mirror connection: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListByOwner retrieves all of a user's connections, newest first
func (r *ConnectionRepository) ListByOwner(ownerID string) ([]models.FamilyConnection, error) {
	query := `
		SELECT id, owner_id, counterpart_id, status, created_at, updated_at
		FROM family_connections
		WHERE owner_id = ?
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}
	defer rows.Close()

	var conns []models.FamilyConnection
	for rows.Next() {
		var conn models.FamilyConnection
		var status string
		if err := rows.Scan(&conn.ID, &conn.OwnerID, &conn.CounterpartID, &status, &conn.CreatedAt, &conn.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		conn.Status, err = models.ParseConnectionStatus(status)
		if err != nil {
			return nil, fmt.Errorf("corrupt connection record %d: %w", conn.ID, err)
		}
		conns = append(conns, conn)
	}

	return conns, rows.Err()
}

// ListApprovedFamilies resolves a user's approved connections to the
// counterpart's public profile fields only
func (r *ConnectionRepository) ListApprovedFamilies(ownerID string) ([]models.ApprovedFamily, error) {
	query := `
		SELECT fc.id, u.id, u.name, u.photo_url, fc.updated_at
		FROM family_connections fc
		INNER JOIN users u ON fc.counterpart_id = u.id
		WHERE fc.owner_id = ? AND fc.status = ?
		ORDER BY u.name ASC
	`
	rows, err := r.db.Query(query, ownerID, string(models.ConnectionApproved))
	if err != nil {
		return nil, fmt.Errorf("failed to query approved families: %w", err)
	}
	defer rows.Close()

	var families []models.ApprovedFamily
	for rows.Next() {
		var fam models.ApprovedFamily
		if err := rows.Scan(&fam.ConnectionID, &fam.Counterpart.ID, &fam.Counterpart.Name, &fam.Counterpart.PhotoURL, &fam.Since); err != nil {
			return nil, fmt.Errorf("failed to scan approved family: %w", err)
		}
		families = append(families, fam)
	}

	return families, rows.Err()
}

// ListApprovedCounterpartIDs returns the ids of all approved counterparts
func (r *ConnectionRepository) ListApprovedCounterpartIDs(ownerID string) ([]string, error) {
	query := `
		SELECT counterpart_id FROM family_connections
		WHERE owner_id = ? AND status = ?
	`
	rows, err := r.db.Query(query, ownerID, string(models.ConnectionApproved))
	if err != nil {
		return nil, fmt.Errorf("failed to query counterparts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan counterpart id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
