package watch

import (
	"context"
	"sort"
	"sync"
	"time"

	derrors "github.com/asrafilll/monoserve/internal/errors"
)

// DebouncerConfig tunes how change bursts collapse into builds.
type DebouncerConfig struct {
	// QuietWindow is how long the change stream must stay silent before a
	// build fires.
	QuietWindow time.Duration

	// MaxDelay bounds how long a continuous stream of changes can postpone
	// the build.
	MaxDelay time.Duration

	// BuildRunning reports whether a build is currently executing. While it
	// returns true the debouncer holds its trigger and fires exactly one
	// follow-up once the build finishes.
	BuildRunning func() bool

	// PollInterval controls how often BuildRunning is rechecked while a
	// follow-up is held. Defaults to 250ms.
	PollInterval time.Duration
}

// Trigger is one coalesced build decision.
type Trigger struct {
	// Workspaces lists the changed workspaces, lexically sorted. Nil means
	// the burst included a request for everything.
	Workspaces []string

	RequestCount int
	LastReason   string
	FirstRequest time.Time
	LastRequest  time.Time

	// Cause is why the trigger fired: "quiet", "max_delay" or "after_running".
	Cause string
}

// Debouncer coalesces bursts of build requests into single triggers: a burst
// fires after QuietWindow of silence, a continuous stream fires at MaxDelay,
// and at most one trigger is held back while a build is running. It is safe
// to run as a single goroutine with Request called from any number of others.
type Debouncer struct {
	cfg  DebouncerConfig
	fire func(Trigger)

	requests chan request

	mu         sync.Mutex
	pending    bool
	afterRun   bool
	polling    bool
	all        bool
	workspaces map[string]bool
	firstAt    time.Time
	lastAt     time.Time
	reason     string
	count      int
}

type request struct {
	workspace string
	reason    string
	at        time.Time
}

// NewDebouncer validates the configuration and wires the trigger callback,
// which is invoked from the Run goroutine.
func NewDebouncer(cfg DebouncerConfig, fire func(Trigger)) (*Debouncer, error) {
	if fire == nil {
		return nil, derrors.ValidationError("trigger callback is required")
	}
	if cfg.QuietWindow <= 0 {
		return nil, derrors.ValidationError("quiet window must be > 0")
	}
	if cfg.MaxDelay <= 0 {
		return nil, derrors.ValidationError("max delay must be > 0")
	}
	if cfg.BuildRunning == nil {
		cfg.BuildRunning = func() bool { return false }
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}

	return &Debouncer{
		cfg:        cfg,
		fire:       fire,
		requests:   make(chan request, 64),
		workspaces: make(map[string]bool),
	}, nil
}

// Request records a build request. An empty workspace asks for a full
// rebuild. Request never blocks; when the intake buffer is full the request
// is folded into the burst that is already pending.
func (d *Debouncer) Request(workspace, reason string) {
	select {
	case d.requests <- request{workspace: workspace, reason: reason, at: time.Now()}:
	default:
		d.mu.Lock()
		if d.pending {
			d.noteLocked(request{workspace: workspace, reason: reason, at: time.Now()})
		}
		d.mu.Unlock()
	}
}

// Pending reports whether a burst is waiting to fire.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Run drives the debounce timers until ctx is canceled.
func (d *Debouncer) Run(ctx context.Context) error {
	newStoppedTimer := func() *time.Timer {
		t := time.NewTimer(time.Hour)
		if !t.Stop() {
			select {
			case <-t.C:
			default:
			}
		}
		return t
	}
	quietTimer := newStoppedTimer()
	maxTimer := newStoppedTimer()
	pollTimer := newStoppedTimer()

	resetTimer := func(t *time.Timer, after time.Duration) {
		if !t.Stop() {
			select {
			case <-t.C:
			default:
			}
		}
		t.Reset(after)
	}

	var (
		quietC <-chan time.Time
		maxC   <-chan time.Time
		pollC  <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return nil

		case req := <-d.requests:
			first := d.note(req)
			resetTimer(quietTimer, d.cfg.QuietWindow)
			quietC = quietTimer.C
			if first {
				resetTimer(maxTimer, d.cfg.MaxDelay)
				maxC = maxTimer.C
			}

		case <-quietC:
			if d.tryFire("quiet") {
				quietC = nil
				maxC = nil
			}

		case <-maxC:
			if d.tryFire("max_delay") {
				quietC = nil
				maxC = nil
			}

		case <-pollC:
			if d.tryFireAfterRun() {
				pollC = nil
				quietC = nil
				maxC = nil
				continue
			}
			resetTimer(pollTimer, d.cfg.PollInterval)
			pollC = pollTimer.C
		}

		if d.shouldPoll() && pollC == nil {
			resetTimer(pollTimer, d.cfg.PollInterval)
			pollC = pollTimer.C
		}
	}
}

// note folds a request into the pending burst and reports whether it opened
// a new one.
func (d *Debouncer) note(req request) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	first := !d.pending
	if first {
		d.pending = true
		d.firstAt = req.at
		d.count = 0
		d.all = false
		clear(d.workspaces)
	}
	d.noteLocked(req)
	return first
}

func (d *Debouncer) noteLocked(req request) {
	if req.workspace == "" {
		d.all = true
	} else {
		d.workspaces[req.workspace] = true
	}
	d.lastAt = req.at
	d.reason = req.reason
	d.count++
}

func (d *Debouncer) shouldPoll() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.afterRun && !d.polling
}

// tryFire emits the pending burst unless a build is running, in which case
// the burst is held for exactly one follow-up.
func (d *Debouncer) tryFire(cause string) bool {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return true
	}
	if d.cfg.BuildRunning() {
		d.afterRun = true
		d.mu.Unlock()
		return false
	}
	trigger := d.takeLocked(cause)
	d.mu.Unlock()

	d.fire(trigger)
	return true
}

func (d *Debouncer) tryFireAfterRun() bool {
	d.mu.Lock()
	if !d.afterRun {
		d.mu.Unlock()
		return true
	}
	d.polling = true
	d.mu.Unlock()

	if d.cfg.BuildRunning() {
		return false
	}
	return d.tryFire("after_running")
}

func (d *Debouncer) takeLocked(cause string) Trigger {
	trigger := Trigger{
		RequestCount: d.count,
		LastReason:   d.reason,
		FirstRequest: d.firstAt,
		LastRequest:  d.lastAt,
		Cause:        cause,
	}
	if !d.all {
		names := make([]string, 0, len(d.workspaces))
		for name := range d.workspaces {
			names = append(names, name)
		}
		sort.Strings(names)
		trigger.Workspaces = names
	}

	d.pending = false
	d.afterRun = false
	d.polling = false
	return trigger
}
