// Package watchdog tracks whether the recognition service is reachable.
package watchdog

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"objectsrecognition/internal/logger"
	"objectsrecognition/internal/metrics"
)

// State is the connectivity state of the recognition service.
type State int

const (
	Disconnected State = iota
	Connected
	Lost
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Lost:
		return "lost"
	default:
		return "unknown"
	}
}

// Change is published whenever the state moves.
type Change struct {
	From State
	To   State
	Err  error // probe error that caused a move to Lost
}

// Prober performs one health check.
type Prober interface {
	Probe(ctx context.Context) error
}

const changeBuffer = 16

// Watchdog is the only writer of the connectivity state. After a successful
// Connect it probes the service every interval; the first failed probe moves
// it to Lost and ends the loop until the next Connect.
type Watchdog struct {
	prober   Prober
	interval time.Duration
	clock    clock.Clock
	logger   *logger.Logger
	metrics  *metrics.Metrics

	connectMu sync.Mutex // serializes Connect and Stop

	mu     sync.RWMutex
	state  State
	cancel context.CancelFunc
	wg     sync.WaitGroup

	changes chan Change
}

func New(prober Prober, interval time.Duration, clk clock.Clock, logger *logger.Logger, m *metrics.Metrics) *Watchdog {
	if clk == nil {
		clk = clock.New()
	}
	return &Watchdog{
		prober:   prober,
		interval: interval,
		clock:    clk,
		logger:   logger,
		metrics:  m,
		state:    Disconnected,
		changes:  make(chan Change, changeBuffer),
	}
}

// Connect probes the service once. On success the state becomes Connected and
// a fresh probe loop is started. On failure the state is left unchanged and
// the probe error is returned.
func (w *Watchdog) Connect(ctx context.Context) error {
	w.connectMu.Lock()
	defer w.connectMu.Unlock()

	err := w.prober.Probe(ctx)
	w.metrics.IncProbe(metrics.OutcomeOf(err))
	if err != nil {
		w.logger.Warning("Connect probe failed: %v", err)
		return err
	}

	w.stopLoop()

	loopCtx, cancel := context.WithCancel(context.Background())
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	w.setState(Connected, nil)

	w.wg.Add(1)
	go w.loop(loopCtx)
	return nil
}

// State returns the current connectivity state.
func (w *Watchdog) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Changes delivers state transitions. Slow consumers may miss changes but
// State always reports the latest value.
func (w *Watchdog) Changes() <-chan Change {
	return w.changes
}

// Stop cancels the probe loop and waits for it to exit. The state is kept.
func (w *Watchdog) Stop() {
	w.connectMu.Lock()
	defer w.connectMu.Unlock()
	w.stopLoop()
}

func (w *Watchdog) stopLoop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

func (w *Watchdog) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		timer := w.clock.Timer(w.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		err := w.prober.Probe(ctx)
		if ctx.Err() != nil {
			return
		}
		w.metrics.IncProbe(metrics.OutcomeOf(err))
		if err != nil {
			w.logger.Error("Recognition service lost: %v", err)
			w.setState(Lost, err)
			return
		}
	}
}

func (w *Watchdog) setState(to State, cause error) {
	w.mu.Lock()
	from := w.state
	w.state = to
	w.mu.Unlock()

	w.metrics.SetConnectivity(int(to))
	if from == to {
		return
	}

	w.logger.Info("Connectivity %s -> %s", from, to)
	select {
	case w.changes <- Change{From: from, To: to, Err: cause}:
	default:
		w.logger.Warning("Dropped connectivity change %s -> %s, no reader", from, to)
	}
}
