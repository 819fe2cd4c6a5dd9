package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"sidesa/models"
	"sidesa/rbac"
	"sidesa/region"
	"sidesa/repository"
)

// ComplaintStore is the document-store surface the workflow engine needs.
// *repository.ComplaintRepository implements it; tests substitute an
// in-memory store. Implementations return repository.ErrComplaintNotFound
// and repository.ErrVersionConflict for the two precondition failures.
type ComplaintStore interface {
	GetComplaint(ctx context.Context, id int64) (*models.Complaint, error)
	CompareAndSwapStatus(ctx context.Context, id int64, expectedVersion int64, newStatus models.ComplaintStatus, resolutionNote string, updatedAt time.Time) error
	AppendStatusHistory(ctx context.Context, h *models.ComplaintStatusHistory) error
	ListStaleByStatus(ctx context.Context, status models.ComplaintStatus, cutoff time.Time) ([]models.Complaint, error)
	DeleteComplaint(ctx context.Context, id int64) error
}

// WorkflowService owns the complaint lifecycle. Every status write goes
// through one of the validated transitions below; there is deliberately no
// way to set a status directly. Each transition is a single atomic
// read-check-write: the write is predicated on the version read at the start,
// so concurrent requests on the same complaint are linearized and the loser
// observes a conflict instead of silently overwriting.
type WorkflowService struct {
	store            ComplaintStore
	resolver         region.Resolver
	matrix           *rbac.Matrix
	notifier         *NotificationService // optional; nil disables notifications
	autoApproveAfter time.Duration
}

// NewWorkflowService creates the workflow engine.
func NewWorkflowService(
	store ComplaintStore,
	resolver region.Resolver,
	matrix *rbac.Matrix,
	notifier *NotificationService,
	autoApproveAfter time.Duration,
) *WorkflowService {
	return &WorkflowService{
		store:            store,
		resolver:         resolver,
		matrix:           matrix,
		notifier:         notifier,
		autoApproveAfter: autoApproveAfter,
	}
}

// Approve advances a complaint one step along the approval chain. The
// required actor role depends on the complaint's current state:
// pending needs admin_desa, admin_approved needs kepala_dusun, and
// dusun_approved/auto_approved need kepala_desa.
func (s *WorkflowService) Approve(ctx context.Context, actor models.Actor, id int64, note string) (*models.TransitionResponse, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var next models.ComplaintStatus
	var approver models.Role
	switch c.Status {
	case models.StatusPending:
		next, approver = models.StatusAdminApproved, models.RoleAdminDesa
	case models.StatusAdminApproved:
		next, approver = models.StatusDusunApproved, models.RoleKepalaDusun
	case models.StatusDusunApproved, models.StatusAutoApproved:
		next, approver = models.StatusVillageApproved, models.RoleKepalaDesa
	default:
		return nil, transitionBlocked(c, "approve")
	}

	if err := s.authorize(ctx, actor, c, approver); err != nil {
		return nil, err
	}
	return s.apply(ctx, actor, c, next, note)
}

// Reject moves a complaint from any non-terminal state to rejected. Only the
// role that owns the current stage may reject, under that stage's region
// rule; administrator and super_admin may reject regardless of stage.
func (s *WorkflowService) Reject(ctx context.Context, actor models.Actor, id int64, reason string) (*models.TransitionResponse, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	owners, ok := stageOwners(c.Status)
	if !ok {
		return nil, transitionBlocked(c, "reject")
	}

	if actor.Role.SuperRole() {
		if !s.matrix.Allowed(actor.Role, models.ResourceComplaints, models.ActionUpdate) {
			return nil, fmt.Errorf("role %s may not update complaints: %w", actor.Role, ErrUnauthorized)
		}
	} else if err := s.authorize(ctx, actor, c, owners...); err != nil {
		return nil, err
	}
	return s.apply(ctx, actor, c, models.StatusRejected, reason)
}

// BeginProcessing moves a fully approved complaint into in_progress.
func (s *WorkflowService) BeginProcessing(ctx context.Context, actor models.Actor, id int64, note string) (*models.TransitionResponse, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != models.StatusVillageApproved {
		return nil, transitionBlocked(c, "begin-processing")
	}
	if err := s.authorize(ctx, actor, c, models.RoleAdminDesa, models.RoleKepalaDesa); err != nil {
		return nil, err
	}
	return s.apply(ctx, actor, c, models.StatusInProgress, note)
}

// Close finishes an in-progress complaint. The caller picks the terminal
// outcome: resolved or approved_closed.
func (s *WorkflowService) Close(ctx context.Context, actor models.Actor, id int64, outcome models.ComplaintStatus, note string) (*models.TransitionResponse, error) {
	if outcome != models.StatusResolved && outcome != models.StatusApprovedClosed {
		return nil, fmt.Errorf("close outcome must be %s or %s: %w", models.StatusResolved, models.StatusApprovedClosed, ErrInvalidTransition)
	}

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != models.StatusInProgress {
		return nil, transitionBlocked(c, "close")
	}
	if err := s.authorize(ctx, actor, c, models.RoleAdminDesa, models.RoleKepalaDesa); err != nil {
		return nil, err
	}
	return s.apply(ctx, actor, c, outcome, note)
}

// Purge physically removes a rejected complaint. This is the only deletion
// path; complaints in any other state cannot be removed.
func (s *WorkflowService) Purge(ctx context.Context, actor models.Actor, id int64) error {
	if !s.matrix.Allowed(actor.Role, models.ResourceComplaints, models.ActionDelete) {
		return fmt.Errorf("role %s may not delete complaints: %w", actor.Role, ErrUnauthorized)
	}

	c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if c.Status != models.StatusRejected {
		return fmt.Errorf("only rejected complaints can be purged, complaint %d is %s: %w", id, c.Status, ErrInvalidTransition)
	}

	if err := s.store.DeleteComplaint(ctx, id); err != nil {
		return mapStoreErr(err)
	}
	log.Printf("[workflow] Purged rejected complaint %d (%s) by %s", c.ComplaintID, c.ComplaintNumber, actor.Username)
	return nil
}

// ProcessAutoApprovals transitions admin_approved complaints that kepala_dusun
// has not acted on within the inactivity window to auto_approved. Each
// auto-approval is the same compare-and-swap transition the interactive paths
// use, applied with the system pseudo-actor; a conflict means somebody acted
// in the meantime and the complaint is simply skipped.
func (s *WorkflowService) ProcessAutoApprovals(ctx context.Context) ([]models.AutoApprovalResult, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-s.autoApproveAfter)

	stale, err := s.store.ListStaleByStatus(ctx, models.StatusAdminApproved, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list auto-approval candidates: %w", err)
	}

	var results []models.AutoApprovalResult
	for _, c := range stale {
		c := c
		note := fmt.Sprintf("Auto-approved: no kepala_dusun action within %s", s.autoApproveAfter)
		_, err := s.commit(ctx, models.SystemActor, models.ActorSystem, &c, models.StatusAutoApproved, note)
		result := models.AutoApprovalResult{
			ComplaintID: c.ComplaintID,
			ProcessedAt: now,
		}
		switch {
		case err == nil:
			result.AutoApproved = true
			result.Reason = note
		case errors.Is(err, ErrConflict), errors.Is(err, ErrNotFound):
			result.Reason = "skipped: complaint changed concurrently"
		default:
			log.Printf("[workflow] Auto-approval of complaint %d failed: %v", c.ComplaintID, err)
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

// load fetches the complaint, mapping store errors onto the public taxonomy.
func (s *WorkflowService) load(ctx context.Context, id int64) (*models.Complaint, error) {
	c, err := s.store.GetComplaint(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return c, nil
}

// authorize enforces the permission matrix, the per-stage role requirement
// and the region rule. Region-scoped roles (admin_desa, kepala_dusun) must
// resolve to the complaint's region on every transition they perform; the
// resolved region is used once and never cached across requests.
func (s *WorkflowService) authorize(ctx context.Context, actor models.Actor, c *models.Complaint, allowed ...models.Role) error {
	if !s.matrix.Allowed(actor.Role, models.ResourceComplaints, models.ActionUpdate) {
		return fmt.Errorf("role %s may not update complaints: %w", actor.Role, ErrUnauthorized)
	}

	roleOK := false
	for _, r := range allowed {
		if actor.Role == r {
			roleOK = true
			break
		}
	}
	if !roleOK {
		return fmt.Errorf("role %s may not act on a %s complaint: %w", actor.Role, c.Status, ErrUnauthorized)
	}

	if actor.Role.RegionScoped() {
		actorRegion, err := s.resolver.ResolveRegion(ctx, actor)
		if err != nil {
			return fmt.Errorf("cannot verify region scope for actor %d: %v: %w", actor.ID, err, ErrResolverUnavailable)
		}
		if actorRegion != c.Region {
			return fmt.Errorf("actor region %q does not match complaint region %q: %w", actorRegion, c.Region, ErrUnauthorized)
		}
	}
	return nil
}

// apply commits an interactive transition performed by a human actor.
func (s *WorkflowService) apply(ctx context.Context, actor models.Actor, c *models.Complaint, next models.ComplaintStatus, note string) (*models.TransitionResponse, error) {
	actorType := models.ActorOfficial
	if actor.Role == models.RoleWargaDPKJ || actor.Role == models.RoleWargaLuarDPKJ {
		actorType = models.ActorCitizen
	}
	return s.commit(ctx, actor, actorType, c, next, note)
}

// commit performs the compare-and-swap write, the history append and the
// best-effort reporter notification shared by all transitions.
func (s *WorkflowService) commit(ctx context.Context, actor models.Actor, actorType models.ActorType, c *models.Complaint, next models.ComplaintStatus, note string) (*models.TransitionResponse, error) {
	now := time.Now().UTC()
	if err := s.store.CompareAndSwapStatus(ctx, c.ComplaintID, c.Version, next, note, now); err != nil {
		return nil, mapStoreErr(err)
	}

	history := &models.ComplaintStatusHistory{
		ComplaintID: c.ComplaintID,
		OldStatus:   sql.NullString{String: string(c.Status), Valid: true},
		NewStatus:   next,
		ActorType:   actorType,
		ActorID:     sql.NullInt64{Int64: actor.ID, Valid: actorType != models.ActorSystem},
		ActorName:   actor.Username,
		Note:        sql.NullString{String: note, Valid: note != ""},
	}
	if err := s.store.AppendStatusHistory(ctx, history); err != nil {
		// The transition itself committed; a missing audit row must not
		// roll it back or surface as a transition failure.
		log.Printf("[workflow] Failed to append history for complaint %d: %v", c.ComplaintID, err)
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyStatusChange(ctx, c, next, note); err != nil {
			log.Printf("[workflow] Failed to queue notification for complaint %d: %v", c.ComplaintID, err)
		}
	}

	log.Printf("[workflow] Complaint %d: %s -> %s by %s (%s)", c.ComplaintID, c.Status, next, actor.Username, actorType)
	return &models.TransitionResponse{
		ComplaintID: c.ComplaintID,
		OldStatus:   c.Status,
		NewStatus:   next,
		UpdatedAt:   now,
	}, nil
}

// stageOwners returns the role(s) that own a state for rejection purposes.
// Terminal states own nothing: ok is false and the caller reports the
// attempt as an invalid transition.
func stageOwners(status models.ComplaintStatus) ([]models.Role, bool) {
	switch status {
	case models.StatusPending:
		return []models.Role{models.RoleAdminDesa}, true
	case models.StatusAdminApproved:
		return []models.Role{models.RoleKepalaDusun}, true
	case models.StatusDusunApproved, models.StatusAutoApproved:
		return []models.Role{models.RoleKepalaDesa}, true
	case models.StatusVillageApproved, models.StatusInProgress:
		return []models.Role{models.RoleAdminDesa, models.RoleKepalaDesa}, true
	}
	return nil, false
}

func transitionBlocked(c *models.Complaint, action string) error {
	if c.Status.Terminal() {
		return fmt.Errorf("complaint %d is in terminal state %s: %w", c.ComplaintID, c.Status, ErrInvalidTransition)
	}
	return fmt.Errorf("cannot %s complaint %d in state %s: %w", action, c.ComplaintID, c.Status, ErrInvalidTransition)
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrComplaintNotFound):
		return fmt.Errorf("%v: %w", err, ErrNotFound)
	case errors.Is(err, repository.ErrVersionConflict):
		return fmt.Errorf("%v: %w", err, ErrConflict)
	}
	return err
}
