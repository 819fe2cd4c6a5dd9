package models

import (
	"database/sql"
	"time"
)

// ComplaintStatus represents a complaint's lifecycle state
type ComplaintStatus string

const (
	StatusPending         ComplaintStatus = "pending"
	StatusAdminApproved   ComplaintStatus = "admin_approved"
	StatusDusunApproved   ComplaintStatus = "dusun_approved"
	StatusAutoApproved    ComplaintStatus = "auto_approved"
	StatusVillageApproved ComplaintStatus = "village_approved"
	StatusInProgress      ComplaintStatus = "in_progress"
	StatusResolved        ComplaintStatus = "resolved"
	StatusApprovedClosed  ComplaintStatus = "approved_closed"
	StatusRejected        ComplaintStatus = "rejected"
)

// StageIndex orders lifecycle states monotonically. Outside of rejection a
// transition may only increase this index. auto_approved shares the index of
// dusun_approved: the two are equivalent for every subsequent rule. Rejected
// and unknown states report -1 (no forward position).
func (s ComplaintStatus) StageIndex() int {
	switch s {
	case StatusPending:
		return 0
	case StatusAdminApproved:
		return 1
	case StatusDusunApproved, StatusAutoApproved:
		return 2
	case StatusVillageApproved:
		return 3
	case StatusInProgress:
		return 4
	case StatusResolved, StatusApprovedClosed:
		return 5
	}
	return -1
}

// Terminal reports whether no further transition is accepted from s.
func (s ComplaintStatus) Terminal() bool {
	return s == StatusResolved || s == StatusApprovedClosed || s == StatusRejected
}

// CloseOutcome validates a requested close outcome. Close is the only
// transition where the caller picks between two target states.
func CloseOutcome(s string) (ComplaintStatus, bool) {
	switch ComplaintStatus(s) {
	case StatusResolved:
		return StatusResolved, true
	case StatusApprovedClosed:
		return StatusApprovedClosed, true
	}
	return "", false
}

// ComplaintCategory is the closed set of complaint categories
type ComplaintCategory string

const (
	CategoryInfrastruktur ComplaintCategory = "infrastruktur"
	CategoryLingkungan    ComplaintCategory = "lingkungan"
	CategoryKeamanan      ComplaintCategory = "keamanan"
	CategoryPelayanan     ComplaintCategory = "pelayanan"
	CategorySosial        ComplaintCategory = "sosial"
	CategoryLainnya       ComplaintCategory = "lainnya"
)

// ValidCategory reports whether c is one of the declared categories.
func ValidCategory(c ComplaintCategory) bool {
	switch c {
	case CategoryInfrastruktur, CategoryLingkungan, CategoryKeamanan,
		CategoryPelayanan, CategorySosial, CategoryLainnya:
		return true
	}
	return false
}

// ActorType records who performed a status change
type ActorType string

const (
	ActorCitizen  ActorType = "citizen"
	ActorOfficial ActorType = "official"
	ActorSystem   ActorType = "system"
)

// Complaint represents a citizen complaint (pengaduan).
//
// The reporter fields are denormalized at submission time and immutable
// afterward. Status, ResolutionNote and UpdatedAt are owned exclusively by
// the workflow engine and change only through validated transitions; Version
// is the compare-and-swap precondition backing those transitions.
type Complaint struct {
	ComplaintID     int64             `db:"complaint_id" json:"complaint_id"`
	ComplaintNumber string            `db:"complaint_number" json:"complaint_number"`
	Title           string            `db:"title" json:"title"`
	Category        ComplaintCategory `db:"category" json:"category"`
	Description     string            `db:"description" json:"description"`
	PhotoPath       sql.NullString    `db:"photo_path" json:"photo_path"`

	ReporterUserID     int64  `db:"reporter_user_id" json:"reporter_user_id"`
	ReporterUsername   string `db:"reporter_username" json:"reporter_username"`
	ReporterFullName   string `db:"reporter_full_name" json:"reporter_full_name"`
	ReporterNationalID string `db:"reporter_national_id" json:"reporter_national_id"`
	ReporterPhone      string `db:"reporter_phone" json:"reporter_phone"`
	ReporterEmail      string `db:"reporter_email" json:"reporter_email"`
	ReporterAddress    string `db:"reporter_address" json:"reporter_address"`

	Region         string          `db:"region" json:"region"`
	Status         ComplaintStatus `db:"status" json:"status"`
	ResolutionNote sql.NullString  `db:"resolution_note" json:"resolution_note"`
	Version        int64           `db:"version" json:"version"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      sql.NullTime    `db:"updated_at" json:"updated_at"`
}

// ComplaintStatusHistory represents one status change record (immutable)
type ComplaintStatusHistory struct {
	HistoryID   int64           `db:"history_id" json:"history_id"`
	ComplaintID int64           `db:"complaint_id" json:"complaint_id"`
	OldStatus   sql.NullString  `db:"old_status" json:"old_status"`
	NewStatus   ComplaintStatus `db:"new_status" json:"new_status"`
	ActorType   ActorType       `db:"actor_type" json:"actor_type"`
	ActorID     sql.NullInt64   `db:"actor_id" json:"actor_id"`
	ActorName   string          `db:"actor_name" json:"actor_name"`
	Note        sql.NullString  `db:"note" json:"note"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// CitizenProfile is the directory record denormalized onto a complaint at
// submission time.
type CitizenProfile struct {
	UserID     int64  `db:"user_id" json:"user_id"`
	Username   string `db:"username" json:"username"`
	FullName   string `db:"full_name" json:"full_name"`
	NationalID string `db:"national_id" json:"national_id"`
	Phone      string `db:"phone" json:"phone"`
	Email      string `db:"email" json:"email"`
	Address    string `db:"address" json:"address"`
}

// CreateComplaintRequest is the citizen submission payload
type CreateComplaintRequest struct {
	Title       string  `json:"title"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	PhotoPath   *string `json:"photo_path,omitempty"`
}

// CreateComplaintResponse is returned after a successful submission
type CreateComplaintResponse struct {
	ComplaintID     int64           `json:"complaint_id"`
	ComplaintNumber string          `json:"complaint_number"`
	Status          ComplaintStatus `json:"status"`
	Region          string          `json:"region"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TransitionRequest is the payload for approve/reject/process/close calls.
// Note doubles as the rejection reason; Outcome is only read by Close.
type TransitionRequest struct {
	Note    string `json:"note"`
	Outcome string `json:"outcome,omitempty"`
}

// TransitionResponse reports the applied transition
type TransitionResponse struct {
	ComplaintID int64           `json:"complaint_id"`
	OldStatus   ComplaintStatus `json:"old_status"`
	NewStatus   ComplaintStatus `json:"new_status"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// AutoApprovalResult reports one complaint processed by the sweep
type AutoApprovalResult struct {
	ComplaintID  int64     `json:"complaint_id"`
	AutoApproved bool      `json:"auto_approved"`
	Reason       string    `json:"reason"`
	ProcessedAt  time.Time `json:"processed_at"`
}
