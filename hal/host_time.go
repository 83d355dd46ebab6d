package hal

import "time"

type hostTime struct {
	now   time.Duration
	delta time.Duration

	last time.Time
}

func (t *hostTime) Now() time.Duration   { return t.now }
func (t *hostTime) Delta() time.Duration { return t.delta }

// stepWall advances by the wall time since the previous call. The first call is a zero step.
func (t *hostTime) stepWall(now time.Time) {
	if t.last.IsZero() {
		t.last = now
		t.delta = 0
		return
	}
	d := now.Sub(t.last)
	t.last = now
	if d < 0 {
		d = 0
	}
	// A stalled window (drag, suspend) must not fast-forward playback.
	if d > maxStep {
		d = maxStep
	}
	t.step(d)
}

func (t *hostTime) step(d time.Duration) {
	t.delta = d
	t.now += d
}

const maxStep = 250 * time.Millisecond
