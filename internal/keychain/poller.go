package keychain

import (
	"context"
	"fmt"
	"time"

	"github.com/keychain-connect/backend/internal/clock"
	"github.com/keychain-connect/backend/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultInterval = 100 * time.Millisecond
	DefaultTimeout  = 3 * time.Minute
)

// Store is the persisted keychain state a connect attempt reads from.
type Store interface {
	// Current returns the stored controller, or an untyped nil when none
	// exists.
	Current(ctx context.Context) (Controller, error)
}

type Controller interface {
	Address() string
	// Approval returns the approval recorded for origin, or nil.
	Approval(ctx context.Context, origin string) (*models.Approval, error)
}

// Connection is what an approved origin receives.
type Connection struct {
	Address string         `json:"address"`
	Scopes  []models.Scope `json:"scopes"`
}

func (c *Connection) clone() *Connection {
	return &Connection{
		Address: c.Address,
		Scopes:  append(make([]models.Scope, 0, len(c.Scopes)), c.Scopes...),
	}
}

// ApprovalRequest tracks one wait. Elapsed grows by one interval per
// check and is never derived from wall-clock time.
type ApprovalRequest struct {
	Origin    string
	StartedAt time.Time
	Elapsed   time.Duration
}

// Poller waits for an origin to be approved by checking the store once
// immediately and then on every tick.
type Poller struct {
	clock    clock.Clock
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger
}

type Option func(*Poller)

func WithClock(c clock.Clock) Option { return func(p *Poller) { p.clock = c } }

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewPoller(log *zap.Logger, opts ...Option) *Poller {
	p := &Poller{
		clock:    clock.Real(),
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
		log:      log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Wait blocks until origin is approved, the store has no controller, the
// timeout elapses, or ctx is done. The ticker is stopped on every return.
func (p *Poller) Wait(ctx context.Context, store Store, origin string) (*Connection, error) {
	if origin == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidOrigin)
	}

	req := &ApprovalRequest{Origin: origin, StartedAt: p.clock.Now()}

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		conn, done, err := p.check(ctx, store, req)
		if done {
			p.logResult(req, conn, err)
			return conn, err
		}

		select {
		case <-ctx.Done():
			p.logResult(req, nil, ctx.Err())
			return nil, ctx.Err()
		case <-ticker.C:
		}
		if err := ctx.Err(); err != nil {
			p.logResult(req, nil, err)
			return nil, err
		}
	}
}

func (p *Poller) check(ctx context.Context, store Store, req *ApprovalRequest) (*Connection, bool, error) {
	ctrl, err := store.Current(ctx)
	if err != nil {
		return nil, true, fmt.Errorf("read controller: %w", err)
	}
	if ctrl == nil {
		return nil, true, notConnected()
	}

	approval, err := ctrl.Approval(ctx, req.Origin)
	if err != nil {
		return nil, true, fmt.Errorf("read approval for %s: %w", req.Origin, err)
	}
	if approval != nil {
		// an approval without scopes still connects, and reports an empty list
		granted := approval.Scopes
		if granted == nil {
			granted = []models.Scope{}
		}
		return &Connection{Address: ctrl.Address(), Scopes: granted}, true, nil
	}

	if req.Elapsed > p.timeout {
		return nil, true, timedOut()
	}
	req.Elapsed += p.interval
	return nil, false, nil
}

func (p *Poller) logResult(req *ApprovalRequest, conn *Connection, err error) {
	fields := []zap.Field{
		zap.String("origin", req.Origin),
		zap.Duration("elapsed", req.Elapsed),
	}
	if err != nil {
		p.log.Debug("connect wait ended", append(fields, zap.Error(err))...)
		return
	}
	p.log.Debug("connect approved", append(fields, zap.String("address", conn.Address))...)
}
