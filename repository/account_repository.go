package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sidesa/models"
)

// ErrAccountNotFound is returned when a directory lookup matches no account.
var ErrAccountNotFound = errors.New("repository: account not found")

// AccountRepository reads the account directory tables (citizens and
// village_officials). Account provisioning itself lives outside this core;
// the workflow only needs profile reads for denormalization.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetCitizenProfile fetches the reporter profile denormalized onto a
// complaint at submission time.
func (r *AccountRepository) GetCitizenProfile(ctx context.Context, userID int64) (*models.CitizenProfile, error) {
	query := `
		SELECT user_id, username, full_name, national_id, phone, email, address
		FROM citizens
		WHERE user_id = ?
	`

	var p models.CitizenProfile
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&p.Username,
		&p.FullName,
		&p.NationalID,
		&p.Phone,
		&p.Email,
		&p.Address,
	)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get citizen profile %d: %w", userID, err)
	}
	return &p, nil
}

// CountOfficials returns the number of provisioned officials. Used by the
// startup seed to decide whether a first super_admin must be created.
func (r *AccountRepository) CountOfficials(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM village_officials`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count officials: %w", err)
	}
	return count, nil
}

// CreateOfficial inserts an official account with a pre-hashed password.
func (r *AccountRepository) CreateOfficial(ctx context.Context, username, passwordHash string, role models.Role, regionName string) error {
	query := `
		INSERT INTO village_officials (username, password_hash, role, region)
		VALUES (?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query, username, passwordHash, role, regionName); err != nil {
		return fmt.Errorf("failed to create official %s: %w", username, err)
	}
	return nil
}
