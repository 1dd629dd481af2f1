package keychain

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Connector runs connect waits. With de-duplication off every call gets
// its own poller. With it on, concurrent calls for the same key and
// origin join a single poll, which is cancelled once the last waiter
// leaves.
type Connector struct {
	poller *Poller
	dedupe bool

	group   singleflight.Group
	mu      sync.Mutex
	flights map[string]*flight
}

type flight struct {
	ctx    context.Context
	cancel context.CancelFunc
	// waiters holds a reference on the flight from join to leave.
	waiters int
}

func NewConnector(poller *Poller, dedupe bool) *Connector {
	return &Connector{
		poller:  poller,
		dedupe:  dedupe,
		flights: make(map[string]*flight),
	}
}

// Connect waits for origin to be approved in store. key identifies the
// store, e.g. the controller ID of the session.
func (c *Connector) Connect(ctx context.Context, key string, store Store, origin string) (*Connection, error) {
	if !c.dedupe {
		return c.poller.Wait(ctx, store, origin)
	}

	k := key + "|" + origin
	f, ch := c.join(k, store, origin)
	defer c.leave(k, f)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Connection).clone(), nil
	}
}

// join registers a waiter and subscribes it to the shared result under the
// same lock, so a flight is never left between the two. The poll runs on
// its own context since it outlives the request that started it.
func (c *Connector) join(k string, store Store, origin string) (*flight, <-chan singleflight.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.flights[k]
	if !ok {
		fctx, cancel := context.WithCancel(context.Background())
		f = &flight{ctx: fctx, cancel: cancel}
		c.flights[k] = f
	}
	f.waiters++
	ch := c.group.DoChan(k, func() (any, error) {
		return c.poller.Wait(f.ctx, store, origin)
	})
	return f, ch
}

func (c *Connector) leave(k string, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if c.flights[k] == f {
		delete(c.flights, k)
		c.group.Forget(k)
	}
}
