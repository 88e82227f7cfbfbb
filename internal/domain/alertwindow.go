package domain

import "time"

// TriggerWindow evaluates alert trigger decisions over a rolling window
// of detection samples. In production the window accumulates one sample
// per analyzed frame; a single-image test run seeds exactly one sample.
//
// The window is not safe for concurrent use. Each alert evaluation owns
// its own instance.
type TriggerWindow struct {
	mode      WindowMode
	size      int
	threshold float64
	samples   []bool
}

// NewTriggerWindow creates a rolling window from an enabled alert
// window configuration.
func NewTriggerWindow(cfg AlertWindowConfig) *TriggerWindow {
	size := cfg.Size
	if size < 1 {
		size = 1
	}
	return &TriggerWindow{
		mode:      cfg.Mode,
		size:      size,
		threshold: cfg.Threshold,
		samples:   make([]bool, 0, size),
	}
}

// Observe appends a sample, evicting the oldest once the window is full.
func (w *TriggerWindow) Observe(positive bool) {
	if len(w.samples) == w.size {
		copy(w.samples, w.samples[1:])
		w.samples = w.samples[:w.size-1]
	}
	w.samples = append(w.samples, positive)
}

// Len returns the number of samples currently in the window.
func (w *TriggerWindow) Len() int { return len(w.samples) }

// Triggered evaluates the window under its configured mode. An empty
// window never triggers. Ratio mode evaluates over the samples observed
// so far rather than the configured capacity, so a window that is still
// filling can already trigger.
func (w *TriggerWindow) Triggered() bool {
	if len(w.samples) == 0 {
		return false
	}
	positives := 0
	for _, s := range w.samples {
		if s {
			positives++
		}
	}
	switch w.mode {
	case WindowRatio:
		return float64(positives)/float64(len(w.samples)) >= w.threshold
	case WindowCount:
		return float64(positives) >= w.threshold
	case WindowConsecutive:
		run := 0
		for i := len(w.samples) - 1; i >= 0 && w.samples[i]; i-- {
			run++
		}
		return float64(run) >= w.threshold
	}
	return false
}

// CooldownTracker suppresses alert re-triggering for a fixed duration
// after each trigger. A zero cooldown never suppresses. The zero value
// has never triggered.
type CooldownTracker struct {
	cooldown      time.Duration
	lastTriggered time.Time
}

// NewCooldownTracker creates a tracker with the given cooldown.
func NewCooldownTracker(cooldown time.Duration) *CooldownTracker {
	return &CooldownTracker{cooldown: cooldown}
}

// Allow reports whether a trigger at the given instant would be
// permitted, meaning no prior trigger falls within the cooldown.
func (t *CooldownTracker) Allow(now time.Time) bool {
	if t.cooldown <= 0 || t.lastTriggered.IsZero() {
		return true
	}
	return now.Sub(t.lastTriggered) >= t.cooldown
}

// MarkTriggered records a trigger, starting the cooldown.
func (t *CooldownTracker) MarkTriggered(now time.Time) {
	t.lastTriggered = now
}
