package keychain

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/keychain-connect/backend/internal/models"
)

// MemoryStore is an in-process Store holding at most one controller.
type MemoryStore struct {
	mu        sync.RWMutex
	present   bool
	address   string
	approvals map[string]models.Approval
	reads     int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{approvals: make(map[string]models.Approval)}
}

func (s *MemoryStore) SetController(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.present = true
	s.address = address
}

// ClearController removes the controller and all its approvals.
func (s *MemoryStore) ClearController() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.present = false
	s.address = ""
	s.approvals = make(map[string]models.Approval)
}

func (s *MemoryStore) Approve(origin string, scopes []models.Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvals[origin] = models.Approval{
		ID:         uuid.New(),
		Origin:     origin,
		Scopes:     scopes,
		Status:     models.ApprovalStatusActive,
		ApprovedAt: time.Now(),
	}
}

func (s *MemoryStore) Revoke(origin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.approvals, origin)
}

// Reads returns how many times Current has been called.
func (s *MemoryStore) Reads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reads
}

func (s *MemoryStore) Current(ctx context.Context) (Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if !s.present {
		return nil, nil
	}
	return memoryController{store: s, address: s.address}, nil
}

type memoryController struct {
	store   *MemoryStore
	address string
}

func (c memoryController) Address() string { return c.address }

func (c memoryController) Approval(ctx context.Context, origin string) (*models.Approval, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	a, ok := c.store.approvals[origin]
	if !ok {
		return nil, nil
	}
	return &a, nil
}
