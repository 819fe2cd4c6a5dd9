package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"sidesa/models"
	"sidesa/rbac"
	"sidesa/region"
	"sidesa/repository"
)

// ComplaintService handles complaint intake and read paths. All status
// mutation lives in WorkflowService; this service never writes status after
// creation.
type ComplaintService struct {
	repo        *repository.ComplaintRepository
	accountRepo *repository.AccountRepository
	resolver    region.Resolver
	matrix      *rbac.Matrix
}

// NewComplaintService creates a new complaint service
func NewComplaintService(
	repo *repository.ComplaintRepository,
	accountRepo *repository.AccountRepository,
	resolver region.Resolver,
	matrix *rbac.Matrix,
) *ComplaintService {
	return &ComplaintService{
		repo:        repo,
		accountRepo: accountRepo,
		resolver:    resolver,
		matrix:      matrix,
	}
}

// CreateComplaint files a new complaint for a citizen.
//
// Lifecycle rules:
//  1. The reporter profile is denormalized onto the complaint at submission
//     and never updated afterward.
//  2. The complaint's region is resolved once here and is immutable.
//  3. Creation and the first status (pending) are a single atomic insert.
func (s *ComplaintService) CreateComplaint(ctx context.Context, actor models.Actor, req *models.CreateComplaintRequest) (*models.CreateComplaintResponse, error) {
	if !s.matrix.Allowed(actor.Role, models.ResourceComplaints, models.ActionCreate) {
		return nil, fmt.Errorf("role %s may not file complaints: %w", actor.Role, ErrUnauthorized)
	}

	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("title and description are required")
	}
	category := models.ComplaintCategory(req.Category)
	if !models.ValidCategory(category) {
		category = models.CategoryLainnya
	}

	profile, err := s.accountRepo.GetCitizenProfile(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reporter profile: %w", err)
	}

	complaintRegion, err := s.resolver.ResolveRegion(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve region for reporter %d: %v: %w", actor.ID, err, ErrResolverUnavailable)
	}

	complaint := &models.Complaint{
		ComplaintNumber:    s.repo.GenerateComplaintNumber(),
		Title:              req.Title,
		Category:           category,
		Description:        req.Description,
		ReporterUserID:     profile.UserID,
		ReporterUsername:   profile.Username,
		ReporterFullName:   profile.FullName,
		ReporterNationalID: profile.NationalID,
		ReporterPhone:      profile.Phone,
		ReporterEmail:      profile.Email,
		ReporterAddress:    profile.Address,
		Region:             complaintRegion,
		Status:             models.StatusPending,
	}
	if req.PhotoPath != nil && *req.PhotoPath != "" {
		complaint.PhotoPath = sql.NullString{String: *req.PhotoPath, Valid: true}
	}

	if err := s.repo.CreateComplaint(ctx, complaint); err != nil {
		return nil, err
	}
	log.Printf("[complaint] Created complaint %d (%s) in region %q by %s", complaint.ComplaintID, complaint.ComplaintNumber, complaintRegion, actor.Username)

	history := &models.ComplaintStatusHistory{
		ComplaintID: complaint.ComplaintID,
		OldStatus:   sql.NullString{},
		NewStatus:   models.StatusPending,
		ActorType:   models.ActorCitizen,
		ActorID:     sql.NullInt64{Int64: actor.ID, Valid: true},
		ActorName:   profile.Username,
		Note:        sql.NullString{String: "Complaint submitted", Valid: true},
	}
	if err := s.repo.AppendStatusHistory(ctx, history); err != nil {
		log.Printf("[complaint] Failed to append submission history for complaint %d: %v", complaint.ComplaintID, err)
	}

	return &models.CreateComplaintResponse{
		ComplaintID:     complaint.ComplaintID,
		ComplaintNumber: complaint.ComplaintNumber,
		Status:          complaint.Status,
		Region:          complaint.Region,
		CreatedAt:       complaint.CreatedAt,
	}, nil
}

// GetComplaint returns one complaint. Citizens only see their own; officials
// need read permission on the complaints resource.
func (s *ComplaintService) GetComplaint(ctx context.Context, actor models.Actor, id int64) (*models.Complaint, error) {
	c, err := s.repo.GetComplaint(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if err := s.authorizeRead(actor, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetTimeline returns the status history of a complaint, oldest first.
func (s *ComplaintService) GetTimeline(ctx context.Context, actor models.Actor, id int64) ([]models.ComplaintStatusHistory, error) {
	c, err := s.repo.GetComplaint(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if err := s.authorizeRead(actor, c); err != nil {
		return nil, err
	}
	return s.repo.ListStatusHistory(ctx, id)
}

// ListOwn returns the complaints filed by the calling citizen.
func (s *ComplaintService) ListOwn(ctx context.Context, actor models.Actor) ([]models.Complaint, error) {
	if !s.matrix.Allowed(actor.Role, models.ResourceComplaints, models.ActionRead) {
		return nil, fmt.Errorf("role %s may not read complaints: %w", actor.Role, ErrUnauthorized)
	}
	return s.repo.ListByReporter(ctx, actor.ID)
}

// ListQueue returns an official's work queue, optionally filtered by status.
// Region-scoped officials only see their own region; region-global roles see
// everything.
func (s *ComplaintService) ListQueue(ctx context.Context, actor models.Actor, status models.ComplaintStatus) ([]models.Complaint, error) {
	if !s.matrix.CanEnterAdminArea(actor.Role) {
		return nil, fmt.Errorf("role %s may not enter the admin area: %w", actor.Role, ErrUnauthorized)
	}
	if !s.matrix.Allowed(actor.Role, models.ResourceComplaints, models.ActionRead) {
		return nil, fmt.Errorf("role %s may not read complaints: %w", actor.Role, ErrUnauthorized)
	}

	regionFilter := ""
	if actor.Role.RegionScoped() {
		actorRegion, err := s.resolver.ResolveRegion(ctx, actor)
		if err != nil {
			return nil, fmt.Errorf("cannot resolve region for actor %d: %v: %w", actor.ID, err, ErrResolverUnavailable)
		}
		regionFilter = actorRegion
	}
	return s.repo.ListByRegion(ctx, regionFilter, status)
}

func (s *ComplaintService) authorizeRead(actor models.Actor, c *models.Complaint) error {
	if c.ReporterUserID == actor.ID && s.matrix.Allowed(actor.Role, models.ResourceComplaints, models.ActionRead) {
		return nil
	}
	if s.matrix.CanEnterAdminArea(actor.Role) && s.matrix.Allowed(actor.Role, models.ResourceComplaints, models.ActionRead) {
		return nil
	}
	return fmt.Errorf("role %s may not read complaint %d: %w", actor.Role, c.ComplaintID, ErrUnauthorized)
}
