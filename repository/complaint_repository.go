package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sidesa/models"

	"github.com/google/uuid"
)

// Sentinel errors for the complaint store. The workflow service maps these
// onto its public error taxonomy.
var (
	// ErrComplaintNotFound is returned when no complaint has the given id.
	ErrComplaintNotFound = errors.New("repository: complaint not found")

	// ErrVersionConflict is returned when a compare-and-swap precondition
	// fails because another writer already advanced the complaint.
	ErrVersionConflict = errors.New("repository: version conflict")
)

// ComplaintRepository handles database operations for complaints
type ComplaintRepository struct {
	db *sql.DB
}

// NewComplaintRepository creates a new complaint repository
func NewComplaintRepository(db *sql.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

// GenerateComplaintNumber generates a unique complaint number
// Format: PGD-YYYYMMDD-{UUID}
func (r *ComplaintRepository) GenerateComplaintNumber() string {
	datePrefix := time.Now().UTC().Format("20060102")
	uniqueID := uuid.New().String()[:8]
	return fmt.Sprintf("PGD-%s-%s", datePrefix, uniqueID)
}

const complaintColumns = `
	complaint_id, complaint_number, title, category, description, photo_path,
	reporter_user_id, reporter_username, reporter_full_name, reporter_national_id,
	reporter_phone, reporter_email, reporter_address,
	region, status, resolution_note, version, created_at, updated_at`

// CreateComplaint inserts a new complaint. Creation and the first status
// assignment (pending) are one INSERT, so no partially constructed complaint
// is ever visible. Version starts at 1.
func (r *ComplaintRepository) CreateComplaint(ctx context.Context, complaint *models.Complaint) error {
	query := `
		INSERT INTO complaints (
			complaint_number, title, category, description, photo_path,
			reporter_user_id, reporter_username, reporter_full_name, reporter_national_id,
			reporter_phone, reporter_email, reporter_address,
			region, status, resolution_note, version, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
	`

	complaint.CreatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(
		ctx,
		query,
		complaint.ComplaintNumber,
		complaint.Title,
		complaint.Category,
		complaint.Description,
		complaint.PhotoPath,
		complaint.ReporterUserID,
		complaint.ReporterUsername,
		complaint.ReporterFullName,
		complaint.ReporterNationalID,
		complaint.ReporterPhone,
		complaint.ReporterEmail,
		complaint.ReporterAddress,
		complaint.Region,
		complaint.Status,
		complaint.ResolutionNote,
		complaint.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create complaint: %w", err)
	}

	complaintID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get complaint ID: %w", err)
	}

	complaint.ComplaintID = complaintID
	complaint.Version = 1
	return nil
}

// GetComplaint retrieves a complaint by ID, including its current version
// for use as a compare-and-swap precondition.
func (r *ComplaintRepository) GetComplaint(ctx context.Context, id int64) (*models.Complaint, error) {
	query := `SELECT` + complaintColumns + ` FROM complaints WHERE complaint_id = ?`

	var c models.Complaint
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ComplaintID,
		&c.ComplaintNumber,
		&c.Title,
		&c.Category,
		&c.Description,
		&c.PhotoPath,
		&c.ReporterUserID,
		&c.ReporterUsername,
		&c.ReporterFullName,
		&c.ReporterNationalID,
		&c.ReporterPhone,
		&c.ReporterEmail,
		&c.ReporterAddress,
		&c.Region,
		&c.Status,
		&c.ResolutionNote,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrComplaintNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get complaint %d: %w", id, err)
	}
	return &c, nil
}

// CompareAndSwapStatus applies a validated status transition. The UPDATE is
// predicated on the version observed by the caller, so of two racing writers
// exactly one wins; the loser gets ErrVersionConflict and must re-read.
// Status, resolution_note and updated_at are only ever written here.
func (r *ComplaintRepository) CompareAndSwapStatus(
	ctx context.Context,
	id int64,
	expectedVersion int64,
	newStatus models.ComplaintStatus,
	resolutionNote string,
	updatedAt time.Time,
) error {
	query := `
		UPDATE complaints
		SET status = ?, resolution_note = ?, updated_at = ?, version = version + 1
		WHERE complaint_id = ? AND version = ?
	`

	result, err := r.db.ExecContext(ctx, query, newStatus, resolutionNote, updatedAt, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update complaint %d status: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for complaint %d: %w", id, err)
	}
	if affected == 1 {
		return nil
	}

	// Zero rows: either the complaint is gone or the version moved on.
	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM complaints WHERE complaint_id = ?`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to verify complaint %d after stale update: %w", id, err)
	}
	if exists == 0 {
		return ErrComplaintNotFound
	}
	return ErrVersionConflict
}

// DeleteComplaint removes a rejected complaint and its history. This is the
// reject-and-purge path; it refuses to touch complaints in any other state.
func (r *ComplaintRepository) DeleteComplaint(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(
		ctx,
		`DELETE FROM complaints WHERE complaint_id = ? AND status = ?`,
		id, models.StatusRejected,
	)
	if err != nil {
		return fmt.Errorf("failed to delete complaint %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for complaint %d: %w", id, err)
	}
	if affected == 0 {
		return ErrComplaintNotFound
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM complaint_status_history WHERE complaint_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete history for complaint %d: %w", id, err)
	}
	return nil
}

// ListStaleByStatus returns complaints sitting in the given status whose last
// update is older than the cutoff. Used by the auto-approval sweep.
func (r *ComplaintRepository) ListStaleByStatus(
	ctx context.Context,
	status models.ComplaintStatus,
	cutoff time.Time,
) ([]models.Complaint, error) {
	query := `SELECT` + complaintColumns + `
		FROM complaints
		WHERE status = ? AND COALESCE(updated_at, created_at) < ?
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, status, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale complaints: %w", err)
	}
	defer rows.Close()

	return scanComplaints(rows)
}

// ListByReporter retrieves all complaints filed by a citizen, newest first.
func (r *ComplaintRepository) ListByReporter(ctx context.Context, userID int64) ([]models.Complaint, error) {
	query := `SELECT` + complaintColumns + `
		FROM complaints
		WHERE reporter_user_id = ?
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints for user %d: %w", userID, err)
	}
	defer rows.Close()

	return scanComplaints(rows)
}

// ListByRegion retrieves complaints for an official's work queue. Empty
// region means all regions (region-global roles); empty status means any.
func (r *ComplaintRepository) ListByRegion(ctx context.Context, regionName string, status models.ComplaintStatus) ([]models.Complaint, error) {
	query := `SELECT` + complaintColumns + ` FROM complaints WHERE 1=1`
	args := []interface{}{}
	if regionName != "" {
		query += ` AND region = ?`
		args = append(args, regionName)
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints by region: %w", err)
	}
	defer rows.Close()

	return scanComplaints(rows)
}

// AppendStatusHistory records an immutable status change row.
func (r *ComplaintRepository) AppendStatusHistory(ctx context.Context, h *models.ComplaintStatusHistory) error {
	query := `
		INSERT INTO complaint_status_history (
			complaint_id, old_status, new_status, actor_type, actor_id, actor_name, note
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		h.ComplaintID,
		h.OldStatus,
		h.NewStatus,
		h.ActorType,
		h.ActorID,
		h.ActorName,
		h.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}

	historyID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get history ID: %w", err)
	}
	h.HistoryID = historyID
	return nil
}

// ListStatusHistory returns the full timeline for a complaint, oldest first.
func (r *ComplaintRepository) ListStatusHistory(ctx context.Context, complaintID int64) ([]models.ComplaintStatusHistory, error) {
	query := `
		SELECT history_id, complaint_id, old_status, new_status, actor_type, actor_id, actor_name, note, created_at
		FROM complaint_status_history
		WHERE complaint_id = ?
		ORDER BY created_at ASC, history_id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, complaintID)
	if err != nil {
		return nil, fmt.Errorf("failed to list status history for complaint %d: %w", complaintID, err)
	}
	defer rows.Close()

	var history []models.ComplaintStatusHistory
	for rows.Next() {
		var h models.ComplaintStatusHistory
		if err := rows.Scan(
			&h.HistoryID,
			&h.ComplaintID,
			&h.OldStatus,
			&h.NewStatus,
			&h.ActorType,
			&h.ActorID,
			&h.ActorName,
			&h.Note,
			&h.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan status history row: %w", err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

func scanComplaints(rows *sql.Rows) ([]models.Complaint, error) {
	var complaints []models.Complaint
	for rows.Next() {
		var c models.Complaint
		if err := rows.Scan(
			&c.ComplaintID,
			&c.ComplaintNumber,
			&c.Title,
			&c.Category,
			&c.Description,
			&c.PhotoPath,
			&c.ReporterUserID,
			&c.ReporterUsername,
			&c.ReporterFullName,
			&c.ReporterNationalID,
			&c.ReporterPhone,
			&c.ReporterEmail,
			&c.ReporterAddress,
			&c.Region,
			&c.Status,
			&c.ResolutionNote,
			&c.Version,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan complaint row: %w", err)
		}
		complaints = append(complaints, c)
	}
	return complaints, rows.Err()
}
