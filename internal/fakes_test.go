package internal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/heinsupport/hein-assist/internal/kv"
)

var errDiskFull = errors.New("disk full")

// flakyStore wraps a kv.Store and fails writes while failWrites is set
type flakyStore struct {
	kv.Store
	failWrites atomic.Bool
	puts       atomic.Int32
}

func newFlakyStore() *flakyStore {
	return &flakyStore{Store: kv.NewMemoryStore()}
}

func (s *flakyStore) Put(ctx context.Context, namespace, key string, value []byte) error {
	s.puts.Add(1)
	if s.failWrites.Load() {
		return errDiskFull
	}
	return s.Store.Put(ctx, namespace, key, value)
}

func (s *flakyStore) Delete(ctx context.Context, namespace, key string) error {
	if s.failWrites.Load() {
		return errDiskFull
	}
	return s.Store.Delete(ctx, namespace, key)
}

// fakeClock hands out strictly increasing times unless set explicitly
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// scriptedAssistant answers sends from a script and records the requests
type scriptedAssistant struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []WorkflowRequest
	onSend   func(WorkflowRequest)
}

func (a *scriptedAssistant) Send(ctx context.Context, req WorkflowRequest) (string, error) {
	a.mu.Lock()
	a.requests = append(a.requests, req)
	onSend := a.onSend
	var reply string
	if len(a.replies) > 0 {
		reply = a.replies[0]
		a.replies = a.replies[1:]
	}
	err := a.err
	a.mu.Unlock()

	if onSend != nil {
		onSend(req)
	}
	return reply, err
}

func (a *scriptedAssistant) Requests() []WorkflowRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]WorkflowRequest, len(a.requests))
	copy(out, a.requests)
	return out
}
