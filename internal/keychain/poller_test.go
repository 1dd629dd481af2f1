package keychain

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/keychain-connect/backend/internal/clock"
	"github.com/keychain-connect/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testOrigin  = "https://game.example"
	testAddress = "0x0123"
)

var testScopes = []models.Scope{{Target: "0x1", Method: "transfer"}}

type waitResult struct {
	conn *Connection
	err  error
}

func startWait(t *testing.T, ctx context.Context, store Store) (*clock.FakeTicker, <-chan waitResult) {
	t.Helper()
	clk := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	p := NewPoller(zap.NewNop(), WithClock(clk))

	done := make(chan waitResult, 1)
	go func() {
		conn, err := p.Wait(ctx, store, testOrigin)
		done <- waitResult{conn, err}
	}()
	return clk.NextTicker(), done
}

func await(t *testing.T, done <-chan waitResult) waitResult {
	t.Helper()
	select {
	case r := <-done:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("wait did not settle")
		return waitResult{}
	}
}

func TestWait_LeadingEdgeCheck(t *testing.T) {
	store := NewMemoryStore()
	store.SetController(testAddress)
	store.Approve(testOrigin, testScopes)

	ft, done := startWait(t, context.Background(), store)

	r := await(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, testAddress, r.conn.Address)
	assert.Equal(t, testScopes, r.conn.Scopes)

	assert.Equal(t, 1, store.Reads())
	assert.True(t, ft.WaitStopped(time.Second))
	assert.Equal(t, 1, ft.StopCount())
}

func TestWait_TimeoutBoundary(t *testing.T) {
	store := NewMemoryStore()
	store.SetController(testAddress)

	ft, done := startWait(t, context.Background(), store)

	// A successful Tick n+1 proves tick n did not settle the wait.
	for i := 1; i <= 1801; i++ {
		require.True(t, ft.Tick(), "poller stopped early at tick %d", i)
	}

	r := await(t, done)
	require.Error(t, r.err)
	assert.ErrorIs(t, r.err, ErrTimeout)

	var ce *ConnectError
	require.ErrorAs(t, r.err, &ce)
	assert.Equal(t, MethodConnect, ce.Method)
	assert.Equal(t, KindTimeout, ce.Kind())

	assert.Equal(t, 1802, store.Reads())
	assert.True(t, ft.Stopped())
	assert.False(t, ft.Tick())
	assert.Equal(t, 1802, store.Reads())
}

func TestWait_NoControllerFailsImmediately(t *testing.T) {
	store := NewMemoryStore()

	ft, done := startWait(t, context.Background(), store)

	r := await(t, done)
	assert.ErrorIs(t, r.err, ErrNotConnected)
	assert.Nil(t, r.conn)

	var ce *ConnectError
	require.ErrorAs(t, r.err, &ce)
	assert.Equal(t, KindNotConnected, ce.Kind())

	assert.Equal(t, 1, store.Reads())
	assert.True(t, ft.WaitStopped(time.Second))
	assert.False(t, ft.Tick())
	assert.Equal(t, 1, store.Reads())
}

func TestWait_ApprovalArrivesLater(t *testing.T) {
	store := NewMemoryStore()
	store.SetController(testAddress)

	ft, done := startWait(t, context.Background(), store)

	for i := 0; i < 3; i++ {
		require.True(t, ft.Tick())
	}
	store.Approve(testOrigin, testScopes)
	require.True(t, ft.Tick())

	r := await(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, testAddress, r.conn.Address)

	assert.Equal(t, 5, store.Reads())
	assert.False(t, ft.Tick())
	assert.Equal(t, 5, store.Reads())
}

func TestWait_ControllerRemovedWhilePolling(t *testing.T) {
	store := NewMemoryStore()
	store.SetController(testAddress)

	ft, done := startWait(t, context.Background(), store)

	require.True(t, ft.Tick())
	store.ClearController()
	require.True(t, ft.Tick())

	r := await(t, done)
	assert.ErrorIs(t, r.err, ErrNotConnected)
	assert.Equal(t, 3, store.Reads())
	assert.True(t, ft.Stopped())
}

func TestWait_CancelStopsPolling(t *testing.T) {
	store := NewMemoryStore()
	store.SetController(testAddress)

	ctx, cancel := context.WithCancel(context.Background())
	ft, done := startWait(t, ctx, store)

	require.True(t, ft.Tick())
	cancel()

	r := await(t, done)
	assert.ErrorIs(t, r.err, context.Canceled)
	assert.True(t, ft.WaitStopped(time.Second))

	reads := store.Reads()
	assert.False(t, ft.Tick())
	assert.Equal(t, reads, store.Reads())
}

type failingStore struct{ err error }

func (s failingStore) Current(ctx context.Context) (Controller, error) { return nil, s.err }

func TestWait_StoreErrorIsReturned(t *testing.T) {
	boom := errors.New("connection refused")

	ft, done := startWait(t, context.Background(), failingStore{err: boom})

	r := await(t, done)
	assert.ErrorIs(t, r.err, boom)
	var ce *ConnectError
	assert.False(t, errors.As(r.err, &ce))
	assert.True(t, ft.WaitStopped(time.Second))
}

func TestWait_EmptyOrigin(t *testing.T) {
	p := NewPoller(zap.NewNop(), WithClock(clock.Fake(time.Now())))
	_, err := p.Wait(context.Background(), NewMemoryStore(), "")
	assert.ErrorIs(t, err, ErrInvalidOrigin)
}

func TestWait_CustomIntervalAndTimeout(t *testing.T) {
	store := NewMemoryStore()
	store.SetController(testAddress)

	clk := clock.Fake(time.Now())
	p := NewPoller(zap.NewNop(), WithClock(clk), WithInterval(time.Second), WithTimeout(3*time.Second))

	done := make(chan waitResult, 1)
	go func() {
		conn, err := p.Wait(context.Background(), store, testOrigin)
		done <- waitResult{conn, err}
	}()
	ft := clk.NextTicker()

	// elapsed exceeds 3s on the 4th tick
	for i := 1; i <= 4; i++ {
		require.True(t, ft.Tick(), "tick %d", i)
	}
	r := await(t, done)
	assert.ErrorIs(t, r.err, ErrTimeout)
	assert.Equal(t, 5, store.Reads())
}

func TestConnectErrorJSON(t *testing.T) {
	data, err := json.Marshal(timedOut())
	require.NoError(t, err)
	assert.JSONEq(t, `{"method":"connect","error":"timeout"}`, string(data))

	data, err = json.Marshal(notConnected())
	require.NoError(t, err)
	assert.JSONEq(t, `{"method":"connect","error":"not_connected"}`, string(data))
}

func TestWait_ApprovalWithoutScopesConnects(t *testing.T) {
	store := NewMemoryStore()
	store.SetController(testAddress)
	store.Approve(testOrigin, nil)

	_, done := startWait(t, context.Background(), store)

	r := await(t, done)
	require.NoError(t, r.err)
	assert.Empty(t, r.conn.Scopes)

	raw, err := json.Marshal(r.conn)
	require.NoError(t, err)
	assert.JSONEq(t, `{"address":"0x0123","scopes":[]}`, string(raw))
}
