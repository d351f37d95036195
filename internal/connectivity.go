package internal

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultProbeInterval is the cadence of reachability probes
	DefaultProbeInterval = 30 * time.Second
	// DefaultProbeTimeout bounds a single probe
	DefaultProbeTimeout = 5 * time.Second
)

// Prober checks whether the assistant endpoint can be reached
type Prober interface {
	Probe(ctx context.Context) error
}

// ConnectivityMonitor probes the assistant endpoint on a fixed interval and
// exposes a tri-state status. Probes run concurrently; each result is kept
// only if no later-started probe has already committed.
type ConnectivityMonitor struct {
	prober   Prober
	interval time.Duration
	timeout  time.Duration

	mu        sync.Mutex
	status    ConnectionStatus
	started   uint64 // sequence of the most recently started probe
	committed uint64 // sequence of the probe whose result is current
	stopped   bool

	// publishMu orders notifications the same way commits are ordered
	publishMu sync.Mutex
	listeners notifier[ConnectionStatus]

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewConnectivityMonitor builds a monitor in the checking state. Zero
// durations fall back to the defaults.
func NewConnectivityMonitor(prober Prober, interval, timeout time.Duration) *ConnectivityMonitor {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &ConnectivityMonitor{
		prober:   prober,
		interval: interval,
		timeout:  timeout,
		status:   StatusChecking,
		cancel:   func() {},
	}
}

// Status returns the current reachability status
func (m *ConnectivityMonitor) Status() ConnectionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Subscribe registers fn to be called whenever the status changes.
// Notifications arrive in commit order; fn must not call CheckNow.
func (m *ConnectivityMonitor) Subscribe(fn func(ConnectionStatus)) func() {
	return m.listeners.subscribe(fn)
}

// Start launches the first probe immediately and then one per interval.
// A slow probe never delays the next one. Calling Start more than once has
// no further effect.
func (m *ConnectivityMonitor) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		m.mu.Lock()
		if m.stopped {
			m.mu.Unlock()
			return
		}
		ctx, cancel := context.WithCancel(ctx)
		m.cancel = cancel
		m.wg.Add(1)
		m.mu.Unlock()

		go m.run(ctx)
	})
}

// Stop cancels the schedule and any in-flight probe and waits for them to
// exit. No status write happens after Stop returns.
func (m *ConnectivityMonitor) Stop() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		m.stopped = true
		cancel := m.cancel
		m.mu.Unlock()

		cancel()
		m.wg.Wait()
		LogDebug("Connectivity monitor stopped")
	})
}

// CheckNow runs one probe synchronously and returns the resulting status
func (m *ConnectivityMonitor) CheckNow(ctx context.Context) ConnectionStatus {
	seq, ok := m.begin()
	if !ok {
		return m.Status()
	}
	m.probe(ctx, seq)
	return m.Status()
}

func (m *ConnectivityMonitor) run(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.launch(ctx)
	for {
		select {
		case <-ticker.C:
			m.launch(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *ConnectivityMonitor) launch(ctx context.Context) {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.started++
	seq := m.started
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		m.probe(ctx, seq)
	}()
}

func (m *ConnectivityMonitor) begin() (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return 0, false
	}
	m.started++
	return m.started, true
}

func (m *ConnectivityMonitor) probe(ctx context.Context, seq uint64) {
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	status := StatusConnected
	if err := m.prober.Probe(probeCtx); err != nil {
		LogDebug("Connectivity probe %d failed: %v", seq, err)
		status = StatusDisconnected
	}
	m.commit(seq, status)
}

// commit records status for probe seq unless a newer probe already
// committed or the monitor was stopped
func (m *ConnectivityMonitor) commit(seq uint64, status ConnectionStatus) {
	m.publishMu.Lock()
	defer m.publishMu.Unlock()

	m.mu.Lock()
	if m.stopped || seq <= m.committed {
		m.mu.Unlock()
		return
	}
	m.committed = seq
	changed := m.status != status
	m.status = status
	m.mu.Unlock()

	if changed {
		LogInfo("Assistant endpoint is %s", status)
		m.listeners.publish(status)
	}
}
