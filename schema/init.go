package schema

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"sidesa/models"
	"sidesa/repository"
	"sidesa/utils"
)

// statements creates the core tables when they do not exist yet. Production
// deployments run proper migrations; this keeps a fresh database usable.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS citizens (
		user_id BIGINT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(64) NOT NULL UNIQUE,
		full_name VARCHAR(255) NOT NULL,
		national_id VARCHAR(32) NOT NULL,
		phone VARCHAR(32) NOT NULL,
		email VARCHAR(255) NOT NULL,
		address VARCHAR(512) NOT NULL,
		region VARCHAR(128) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS village_officials (
		user_id BIGINT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(64) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(32) NOT NULL,
		region VARCHAR(128) NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS complaints (
		complaint_id BIGINT AUTO_INCREMENT PRIMARY KEY,
		complaint_number VARCHAR(64) NOT NULL UNIQUE,
		title VARCHAR(255) NOT NULL,
		category VARCHAR(32) NOT NULL,
		description TEXT NOT NULL,
		photo_path VARCHAR(512) NULL,
		reporter_user_id BIGINT NOT NULL,
		reporter_username VARCHAR(64) NOT NULL,
		reporter_full_name VARCHAR(255) NOT NULL,
		reporter_national_id VARCHAR(32) NOT NULL,
		reporter_phone VARCHAR(32) NOT NULL,
		reporter_email VARCHAR(255) NOT NULL,
		reporter_address VARCHAR(512) NOT NULL,
		region VARCHAR(128) NOT NULL,
		status VARCHAR(32) NOT NULL,
		resolution_note TEXT NULL,
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NULL,
		INDEX idx_complaints_region_status (region, status),
		INDEX idx_complaints_reporter (reporter_user_id),
		INDEX idx_complaints_status_updated (status, updated_at)
	)`,
	`CREATE TABLE IF NOT EXISTS complaint_status_history (
		history_id BIGINT AUTO_INCREMENT PRIMARY KEY,
		complaint_id BIGINT NOT NULL,
		old_status VARCHAR(32) NULL,
		new_status VARCHAR(32) NOT NULL,
		actor_type VARCHAR(16) NOT NULL,
		actor_id BIGINT NULL,
		actor_name VARCHAR(64) NOT NULL DEFAULT '',
		note TEXT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_history_complaint (complaint_id)
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		notification_id BIGINT AUTO_INCREMENT PRIMARY KEY,
		complaint_id BIGINT NOT NULL,
		recipient_user_id BIGINT NOT NULL,
		subject VARCHAR(255) NOT NULL,
		body TEXT NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		retry_count INT NOT NULL DEFAULT 0,
		sent_at TIMESTAMP NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_notifications_status (status),
		INDEX idx_notifications_recipient (recipient_user_id)
	)`,
}

// Init creates missing tables and seeds the first super_admin account.
func Init(ctx context.Context, db *sql.DB) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema init failed: %w", err)
		}
	}

	if err := validateRequiredColumns(ctx, db); err != nil {
		return err
	}
	return seedSuperAdmin(ctx, db)
}

// validateRequiredColumns verifies the columns the workflow depends on exist,
// so a schema that lags behind the code fails loudly at startup instead of
// mid-transition.
func validateRequiredColumns(ctx context.Context, db *sql.DB) error {
	required := map[string][]string{
		"complaints":               {"status", "resolution_note", "version", "region", "updated_at"},
		"complaint_status_history": {"old_status", "new_status", "actor_type"},
		"village_officials":        {"role", "region"},
		"citizens":                 {"region"},
	}

	for table, columns := range required {
		for _, column := range columns {
			var count int
			err := db.QueryRowContext(ctx, `
				SELECT COUNT(*) FROM information_schema.columns
				WHERE table_schema = DATABASE() AND table_name = ? AND column_name = ?
			`, table, column).Scan(&count)
			if err != nil {
				return fmt.Errorf("failed to inspect %s.%s: %w", table, column, err)
			}
			if count == 0 {
				return fmt.Errorf("required column %s.%s is missing, run migrations", table, column)
			}
		}
	}
	return nil
}

// seedSuperAdmin provisions the first super_admin when the officials table is
// empty. The password comes from SEED_ADMIN_PASSWORD and is stored hashed.
func seedSuperAdmin(ctx context.Context, db *sql.DB) error {
	accounts := repository.NewAccountRepository(db)

	count, err := accounts.CountOfficials(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		log.Println("[schema] No officials and no SEED_ADMIN_PASSWORD set, skipping super_admin seed")
		return nil
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}
	if err := accounts.CreateOfficial(ctx, "superadmin", hash, models.RoleSuperAdmin, ""); err != nil {
		return err
	}
	log.Println("[schema] Seeded initial super_admin account")
	return nil
}
