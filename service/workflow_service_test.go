package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"sidesa/models"
	"sidesa/rbac"
	"sidesa/region"
	"sidesa/repository"
	"sidesa/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory ComplaintStore with the same compare-and-swap
// contract as the MySQL repository.
type memStore struct {
	mu         sync.Mutex
	complaints map[int64]*models.Complaint
	history    []models.ComplaintStatusHistory
	nextID     int64
}

func newMemStore() *memStore {
	return &memStore{complaints: make(map[int64]*models.Complaint), nextID: 1}
}

func (s *memStore) seed(c models.Complaint) *models.Complaint {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ComplaintID = s.nextID
	s.nextID++
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Status == "" {
		c.Status = models.StatusPending
	}
	stored := c
	s.complaints[c.ComplaintID] = &stored
	return &stored
}

func (s *memStore) GetComplaint(_ context.Context, id int64) (*models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complaints[id]
	if !ok {
		return nil, repository.ErrComplaintNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *memStore) CompareAndSwapStatus(_ context.Context, id, expectedVersion int64, newStatus models.ComplaintStatus, note string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complaints[id]
	if !ok {
		return repository.ErrComplaintNotFound
	}
	if c.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	c.Status = newStatus
	c.ResolutionNote.String = note
	c.ResolutionNote.Valid = note != ""
	c.UpdatedAt.Time = updatedAt
	c.UpdatedAt.Valid = true
	c.Version++
	return nil
}

func (s *memStore) AppendStatusHistory(_ context.Context, h *models.ComplaintStatusHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h.HistoryID = int64(len(s.history) + 1)
	s.history = append(s.history, *h)
	return nil
}

func (s *memStore) ListStaleByStatus(_ context.Context, status models.ComplaintStatus, cutoff time.Time) ([]models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Complaint
	for _, c := range s.complaints {
		last := c.CreatedAt
		if c.UpdatedAt.Valid {
			last = c.UpdatedAt.Time
		}
		if c.Status == status && last.Before(cutoff) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *memStore) DeleteComplaint(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.complaints[id]; !ok {
		return repository.ErrComplaintNotFound
	}
	delete(s.complaints, id)
	return nil
}

func (s *memStore) mustGet(t *testing.T, id int64) models.Complaint {
	t.Helper()
	c, err := s.GetComplaint(context.Background(), id)
	require.NoError(t, err)
	return *c
}

// staleStore serves a fixed snapshot from GetComplaint while delegating
// writes to the backing store. It simulates two callers acting on the same
// observed state.
type staleStore struct {
	*memStore
	snapshot models.Complaint
}

func (s *staleStore) GetComplaint(_ context.Context, id int64) (*models.Complaint, error) {
	copied := s.snapshot
	return &copied, nil
}

// Test fixtures. The region names follow the two dusun of the pilot village.
const (
	regionTarunaSari = "Taruna Sari"
	regionSariAsih   = "Sari Asih"
)

var (
	actorAdminDesa      = models.Actor{ID: 1, Username: "admin.taruna", Role: models.RoleAdminDesa}
	actorAdminDesaOther = models.Actor{ID: 2, Username: "admin.sari", Role: models.RoleAdminDesa}
	actorKepalaDusun    = models.Actor{ID: 3, Username: "kadus.taruna", Role: models.RoleKepalaDusun}
	actorKepalaDesa     = models.Actor{ID: 4, Username: "kades", Role: models.RoleKepalaDesa}
	actorAdministrator  = models.Actor{ID: 5, Username: "portal.admin", Role: models.RoleAdministrator}
	actorWarga          = models.Actor{ID: 100, Username: "warga.budi", Role: models.RoleWargaDPKJ}
)

func testResolver() region.Resolver {
	return region.NewStaticResolver(map[int64]string{
		actorAdminDesa.ID:      regionTarunaSari,
		actorAdminDesaOther.ID: regionSariAsih,
		actorKepalaDusun.ID:    regionTarunaSari,
		actorWarga.ID:          regionTarunaSari,
	})
}

func newWorkflow(store service.ComplaintStore) *service.WorkflowService {
	return service.NewWorkflowService(store, testResolver(), rbac.NewDefaultMatrix(), nil, 72*time.Hour)
}

func seedComplaint(store *memStore, status models.ComplaintStatus) *models.Complaint {
	return store.seed(models.Complaint{
		ComplaintNumber: "PGD-20260901-abcd1234",
		Title:           "Jalan berlubang di RT 03",
		Category:        models.CategoryInfrastruktur,
		Description:     "Lubang besar membahayakan pengendara motor.",
		ReporterUserID:  actorWarga.ID,
		Region:          regionTarunaSari,
		Status:          status,
		CreatedAt:       time.Now().UTC().Add(-time.Hour),
	})
}

// TestApproveByRegionAdmin covers Scenario A: an admin_desa in the
// complaint's region approves a pending complaint.
func TestApproveByRegionAdmin(t *testing.T) {
	store := newMemStore()
	c := seedComplaint(store, models.StatusPending)
	wf := newWorkflow(store)

	resp, err := wf.Approve(context.Background(), actorAdminDesa, c.ComplaintID, "diteruskan ke kepala dusun")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, resp.OldStatus)
	assert.Equal(t, models.StatusAdminApproved, resp.NewStatus)

	stored := store.mustGet(t, c.ComplaintID)
	assert.Equal(t, models.StatusAdminApproved, stored.Status)
	assert.Equal(t, "diteruskan ke kepala dusun", stored.ResolutionNote.String)
	assert.Equal(t, int64(2), stored.Version)
}

// TestApproveWrongRegion covers Scenario B: an admin_desa resolved to a
// different region is rejected and the state does not move.
func TestApproveWrongRegion(t *testing.T) {
	store := newMemStore()
	c := seedComplaint(store, models.StatusPending)
	wf := newWorkflow(store)

	_, err := wf.Approve(context.Background(), actorAdminDesaOther, c.ComplaintID, "")
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	assert.Equal(t, models.StatusPending, store.mustGet(t, c.ComplaintID).Status)
}

func TestApproveWrongRole(t *testing.T) {
	store := newMemStore()
	c := seedComplaint(store, models.StatusPending)
	wf := newWorkflow(store)

	// kepala_dusun owns the next stage, not this one.
	_, err := wf.Approve(context.Background(), actorKepalaDusun, c.ComplaintID, "")
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	// Citizens have no update grant on complaints at all.
	_, err = wf.Approve(context.Background(), actorWarga, c.ComplaintID, "")
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	assert.Equal(t, models.StatusPending, store.mustGet(t, c.ComplaintID).Status)
}

func TestApproveNotFound(t *testing.T) {
	wf := newWorkflow(newMemStore())

	_, err := wf.Approve(context.Background(), actorAdminDesa, 9999, "")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

// TestResolverUnavailable verifies a region-scoped actor whose region cannot
// be resolved is blocked hard: scope cannot be verified.
func TestResolverUnavailable(t *testing.T) {
	store := newMemStore()
	c := seedComplaint(store, models.StatusPending)
	// Resolver with no entries at all.
	wf := service.NewWorkflowService(store, region.NewStaticResolver(nil), rbac.NewDefaultMatrix(), nil, 72*time.Hour)

	_, err := wf.Approve(context.Background(), actorAdminDesa, c.ComplaintID, "")
	assert.ErrorIs(t, err, service.ErrResolverUnavailable)
	assert.Equal(t, models.StatusPending, store.mustGet(t, c.ComplaintID).Status)
}

// TestFullLifecycle covers P2: walking the whole approval chain, the stage
// index never decreases and each transition needs exactly its owning role.
func TestFullLifecycle(t *testing.T) {
	store := newMemStore()
	c := seedComplaint(store, models.StatusPending)
	wf := newWorkflow(store)
	ctx := context.Background()

	steps := []struct {
		act  func() (*models.TransitionResponse, error)
		want models.ComplaintStatus
	}{
		{func() (*models.TransitionResponse, error) {
			return wf.Approve(ctx, actorAdminDesa, c.ComplaintID, "")
		}, models.StatusAdminApproved},
		{func() (*models.TransitionResponse, error) {
			return wf.Approve(ctx, actorKepalaDusun, c.ComplaintID, "")
		}, models.StatusDusunApproved},
		{func() (*models.TransitionResponse, error) {
			return wf.Approve(ctx, actorKepalaDesa, c.ComplaintID, "")
		}, models.StatusVillageApproved},
		{func() (*models.TransitionResponse, error) {
			return wf.BeginProcessing(ctx, actorAdminDesa, c.ComplaintID, "mulai perbaikan")
		}, models.StatusInProgress},
		{func() (*models.TransitionResponse, error) {
			return wf.Close(ctx, actorKepalaDesa, c.ComplaintID, models.StatusResolved, "jalan sudah diperbaiki")
		}, models.StatusResolved},
	}

	lastIndex := models.StatusPending.StageIndex()
	for _, step := range steps {
		resp, err := step.act()
		require.NoError(t, err)
		assert.Equal(t, step.want, resp.NewStatus)
		assert.GreaterOrEqual(t, resp.NewStatus.StageIndex(), lastIndex, "stage index must never decrease")
		lastIndex = resp.NewStatus.StageIndex()
	}

	assert.Equal(t, models.StatusResolved, store.mustGet(t, c.ComplaintID).Status)
	assert.Len(t, store.history, len(steps))
}

// TestTerminalStatesIdempotent covers P4 and Scenario D: nothing moves a
// complaint out of a terminal state, and the stored state stays untouched.
func TestTerminalStatesIdempotent(t *testing.T) {
	for _, terminal := range []models.ComplaintStatus{models.StatusResolved, models.StatusApprovedClosed, models.StatusRejected} {
		t.Run(string(terminal), func(t *testing.T) {
			store := newMemStore()
			c := seedComplaint(store, terminal)
			wf := newWorkflow(store)
			ctx := context.Background()

			_, err := wf.Approve(ctx, actorAdminDesa, c.ComplaintID, "")
			assert.ErrorIs(t, err, service.ErrInvalidTransition)

			_, err = wf.Reject(ctx, actorAdministrator, c.ComplaintID, "coba tolak")
			assert.ErrorIs(t, err, service.ErrInvalidTransition)

			_, err = wf.BeginProcessing(ctx, actorKepalaDesa, c.ComplaintID, "")
			assert.ErrorIs(t, err, service.ErrInvalidTransition)

			_, err = wf.Close(ctx, actorKepalaDesa, c.ComplaintID, models.StatusResolved, "")
			assert.ErrorIs(t, err, service.ErrInvalidTransition)

			stored := store.mustGet(t, c.ComplaintID)
			assert.Equal(t, terminal, stored.Status)
			assert.Equal(t, int64(1), stored.Version)
		})
	}
}

// TestRejectStageOwnership verifies reject is gated by the role owning the
// current stage, while administrator/super_admin may reject any non-terminal
// complaint.
func TestRejectStageOwnership(t *testing.T) {
	ctx := context.Background()

	t.Run("stage owner with matching region", func(t *testing.T) {
		store := newMemStore()
		c := seedComplaint(store, models.StatusAdminApproved)
		wf := newWorkflow(store)

		resp, err := wf.Reject(ctx, actorKepalaDusun, c.ComplaintID, "bukan wewenang dusun")
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, resp.NewStatus)
	})

	t.Run("non-owner denied", func(t *testing.T) {
		store := newMemStore()
		c := seedComplaint(store, models.StatusAdminApproved)
		wf := newWorkflow(store)

		// admin_desa already passed this stage; it no longer owns it.
		_, err := wf.Reject(ctx, actorAdminDesa, c.ComplaintID, "terlambat")
		assert.ErrorIs(t, err, service.ErrUnauthorized)
		assert.Equal(t, models.StatusAdminApproved, store.mustGet(t, c.ComplaintID).Status)
	})

	t.Run("wrong region denied", func(t *testing.T) {
		store := newMemStore()
		c := seedComplaint(store, models.StatusPending)
		wf := newWorkflow(store)

		_, err := wf.Reject(ctx, actorAdminDesaOther, c.ComplaintID, "wilayah lain")
		assert.ErrorIs(t, err, service.ErrUnauthorized)
	})

	t.Run("super role overrides stage", func(t *testing.T) {
		store := newMemStore()
		c := seedComplaint(store, models.StatusInProgress)
		wf := newWorkflow(store)

		resp, err := wf.Reject(ctx, actorAdministrator, c.ComplaintID, "laporan duplikat")
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, resp.NewStatus)
		assert.Equal(t, "laporan duplikat", store.mustGet(t, c.ComplaintID).ResolutionNote.String)
	})
}

func TestCloseOutcomes(t *testing.T) {
	ctx := context.Background()

	t.Run("approved_closed", func(t *testing.T) {
		store := newMemStore()
		c := seedComplaint(store, models.StatusInProgress)
		wf := newWorkflow(store)

		resp, err := wf.Close(ctx, actorAdminDesa, c.ComplaintID, models.StatusApprovedClosed, "ditutup dengan persetujuan")
		require.NoError(t, err)
		assert.Equal(t, models.StatusApprovedClosed, resp.NewStatus)
	})

	t.Run("invalid outcome", func(t *testing.T) {
		store := newMemStore()
		c := seedComplaint(store, models.StatusInProgress)
		wf := newWorkflow(store)

		_, err := wf.Close(ctx, actorAdminDesa, c.ComplaintID, models.StatusPending, "")
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
		assert.Equal(t, models.StatusInProgress, store.mustGet(t, c.ComplaintID).Status)
	})
}

// TestConcurrentTransitionConflict covers P5: two transitions acting on the
// same observed state; exactly one wins, the other gets a conflict.
func TestConcurrentTransitionConflict(t *testing.T) {
	backing := newMemStore()
	c := seedComplaint(backing, models.StatusPending)
	stale := &staleStore{memStore: backing, snapshot: *c}
	wf := newWorkflow(stale)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = wf.Approve(context.Background(), actorAdminDesa, c.ComplaintID, "")
		}(i)
	}
	wg.Wait()

	winners, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case assert.ErrorIs(t, err, service.ErrConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, winners, "exactly one transition must win")
	assert.Equal(t, 1, conflicts, "the loser must see a conflict")
	assert.Equal(t, models.StatusAdminApproved, backing.mustGet(t, c.ComplaintID).Status)
}

// TestAutoApprovalSweep covers Scenario C: an admin_approved complaint past
// the inactivity window is auto-approved by the sweep, after which
// kepala_desa approval moves it to village_approved.
func TestAutoApprovalSweep(t *testing.T) {
	store := newMemStore()
	stale := seedComplaint(store, models.StatusAdminApproved)
	stale.UpdatedAt.Time = time.Now().UTC().Add(-100 * time.Hour)
	stale.UpdatedAt.Valid = true
	store.complaints[stale.ComplaintID].UpdatedAt = stale.UpdatedAt

	fresh := seedComplaint(store, models.StatusAdminApproved)
	fresh.UpdatedAt.Time = time.Now().UTC().Add(-time.Hour)
	fresh.UpdatedAt.Valid = true
	store.complaints[fresh.ComplaintID].UpdatedAt = fresh.UpdatedAt

	wf := newWorkflow(store)
	ctx := context.Background()

	results, err := wf.ProcessAutoApprovals(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].AutoApproved)
	assert.Equal(t, stale.ComplaintID, results[0].ComplaintID)

	assert.Equal(t, models.StatusAutoApproved, store.mustGet(t, stale.ComplaintID).Status)
	assert.Equal(t, models.StatusAdminApproved, store.mustGet(t, fresh.ComplaintID).Status)

	// auto_approved is equivalent to dusun_approved for everything after.
	resp, err := wf.Approve(ctx, actorKepalaDesa, stale.ComplaintID, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusVillageApproved, resp.NewStatus)

	// The sweep records the system pseudo-actor in the audit trail.
	var sweepRows int
	for _, h := range store.history {
		if h.ActorType == models.ActorSystem {
			sweepRows++
			assert.Equal(t, models.StatusAutoApproved, h.NewStatus)
		}
	}
	assert.Equal(t, 1, sweepRows)
}

func TestAutoApprovalSweepIdempotent(t *testing.T) {
	store := newMemStore()
	stale := seedComplaint(store, models.StatusAdminApproved)
	store.complaints[stale.ComplaintID].UpdatedAt.Time = time.Now().UTC().Add(-100 * time.Hour)
	store.complaints[stale.ComplaintID].UpdatedAt.Valid = true

	wf := newWorkflow(store)
	ctx := context.Background()

	_, err := wf.ProcessAutoApprovals(ctx)
	require.NoError(t, err)

	// Second sweep finds nothing: the complaint moved on and its timestamp
	// is fresh.
	results, err := wf.ProcessAutoApprovals(ctx)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, models.StatusAutoApproved, store.mustGet(t, stale.ComplaintID).Status)
}

func TestPurge(t *testing.T) {
	ctx := context.Background()

	t.Run("rejected complaint purged", func(t *testing.T) {
		store := newMemStore()
		c := seedComplaint(store, models.StatusRejected)
		wf := newWorkflow(store)

		require.NoError(t, wf.Purge(ctx, actorAdministrator, c.ComplaintID))
		_, err := store.GetComplaint(ctx, c.ComplaintID)
		assert.ErrorIs(t, err, repository.ErrComplaintNotFound)
	})

	t.Run("non-rejected complaint refused", func(t *testing.T) {
		store := newMemStore()
		c := seedComplaint(store, models.StatusInProgress)
		wf := newWorkflow(store)

		err := wf.Purge(ctx, actorAdministrator, c.ComplaintID)
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})

	t.Run("citizen denied", func(t *testing.T) {
		store := newMemStore()
		c := seedComplaint(store, models.StatusRejected)
		wf := newWorkflow(store)

		err := wf.Purge(ctx, actorWarga, c.ComplaintID)
		assert.ErrorIs(t, err, service.ErrUnauthorized)
	})
}
