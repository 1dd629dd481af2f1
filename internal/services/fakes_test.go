package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/keychain-connect/backend/internal/events"
	"github.com/keychain-connect/backend/internal/models"
)

type fakeControllerRepo struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*models.Controller
	reads   int
	creates int
}

func newFakeControllerRepo() *fakeControllerRepo {
	return &fakeControllerRepo{byID: make(map[uuid.UUID]*models.Controller)}
}

func (r *fakeControllerRepo) Create(ctx context.Context, c *models.Controller) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	for _, existing := range r.byID {
		if existing.Address == c.Address || existing.Username == c.Username {
			return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
		}
	}
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	r.byID[c.ID] = &cp
	return nil
}

func (r *fakeControllerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	c, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (r *fakeControllerRepo) createCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.creates
}

func (r *fakeControllerRepo) GetByAddress(ctx context.Context, address string) (*models.Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byID {
		if c.Address == address {
			cp := *c
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeControllerRepo) UpdateClassHash(ctx context.Context, id uuid.UUID, classHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[id]; ok {
		c.ClassHash = &classHash
	}
	return nil
}

func (r *fakeControllerRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byID[id]
	delete(r.byID, id)
	return ok, nil
}

func (r *fakeControllerRepo) Reads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads
}

// fakeApprovalRepo evaluates expiry against now, like the SQL queries do
// against now().
type fakeApprovalRepo struct {
	mu   sync.Mutex
	rows []*models.Approval
	now  func() time.Time
}

func newFakeApprovalRepo(now func() time.Time) *fakeApprovalRepo {
	return &fakeApprovalRepo{now: now}
}

func (r *fakeApprovalRepo) live(a *models.Approval) bool {
	return a.IsActiveAt(r.now())
}

func (r *fakeApprovalRepo) Upsert(ctx context.Context, a *models.Approval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ControllerID == a.ControllerID && row.Origin == a.Origin && row.Status == models.ApprovalStatusActive {
			row.Scopes = a.Scopes
			row.ExpiresAt = a.ExpiresAt
			row.ApprovedAt = r.now()
			a.ID, a.Status, a.ApprovedAt = row.ID, row.Status, row.ApprovedAt
			return nil
		}
	}
	a.ID = uuid.New()
	a.Status = models.ApprovalStatusActive
	a.ApprovedAt = r.now()
	cp := *a
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *fakeApprovalRepo) GetActive(ctx context.Context, controllerID uuid.UUID, origin string) (*models.Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ControllerID == controllerID && row.Origin == origin && r.live(row) {
			cp := *row
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeApprovalRepo) ListActive(ctx context.Context, controllerID uuid.UUID) ([]models.Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Approval
	for _, row := range r.rows {
		if row.ControllerID == controllerID && r.live(row) {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *fakeApprovalRepo) Revoke(ctx context.Context, controllerID uuid.UUID, origin string) (*models.Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ControllerID == controllerID && row.Origin == origin && row.Status == models.ApprovalStatusActive {
			now := r.now()
			row.Status = models.ApprovalStatusRevoked
			row.RevokedAt = &now
			cp := *row
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeApprovalRepo) ExpireDue(ctx context.Context, now time.Time, limit int) ([]models.Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Approval
	for _, row := range r.rows {
		if len(out) == limit {
			break
		}
		if row.Status == models.ApprovalStatusActive && row.ExpiresAt != nil && !row.ExpiresAt.After(now) {
			row.Status = models.ApprovalStatusExpired
			out = append(out, *row)
		}
	}
	return out, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (a *fakeAudit) Log(ctx context.Context, entry models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

func (a *fakeAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
