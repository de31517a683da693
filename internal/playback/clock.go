// Package playback turns the global timeline and a time source into
// per-object visibility and progress.
package playback

import (
	"math"
	"time"

	"github.com/splinetool/splinetool/internal/document"
)

// Mode is where the clock takes its time from.
type Mode int

const (
	// Scrubbing reads time from the scrub position. A stopped clock is
	// scrubbing at the position it stopped at.
	Scrubbing Mode = iota
	// PlayingLooping wraps time modulo the timeline duration.
	PlayingLooping
	// PlayingBounded clamps time to the timeline duration.
	PlayingBounded
)

func (m Mode) String() string {
	switch m {
	case PlayingLooping:
		return "looping"
	case PlayingBounded:
		return "playing"
	default:
		return "scrubbing"
	}
}

// Clock is the global timeline clock. It is not safe for concurrent use.
type Clock struct {
	provider TimeProvider
	timeline document.Timeline

	playing   bool
	looping   bool
	startedAt time.Time
	// offsetMs is where playback resumes from.
	offsetMs float64
	// scrub is the normalized timeline position shown while stopped.
	scrub float64
}

// NewClock creates a stopped clock at time zero.
func NewClock(p TimeProvider, tl document.Timeline) *Clock {
	if p == nil {
		p = NewMonotonicTimeProvider()
	}
	c := &Clock{provider: p, looping: true}
	c.SetTimeline(tl)
	return c
}

// SetTimeline replaces the timeline configuration. Non-positive values fall
// back to the defaults.
func (c *Clock) SetTimeline(tl document.Timeline) {
	if tl.FPS <= 0 {
		tl.FPS = document.DefaultFPS
	}
	if tl.TotalFrames <= 0 {
		tl.TotalFrames = document.DefaultTotalFrames
	}
	c.timeline = tl
}

func (c *Clock) Timeline() document.Timeline { return c.timeline }

// DurationMs is the timeline length in milliseconds.
func (c *Clock) DurationMs() float64 {
	return float64(c.timeline.TotalFrames) / float64(c.timeline.FPS) * 1000
}

func (c *Clock) Mode() Mode {
	switch {
	case !c.playing:
		return Scrubbing
	case c.looping:
		return PlayingLooping
	default:
		return PlayingBounded
	}
}

func (c *Clock) Playing() bool { return c.playing }
func (c *Clock) Looping() bool { return c.looping }

// Play starts live playback from the stored offset.
func (c *Clock) Play() {
	if c.playing {
		return
	}
	c.playing = true
	c.startedAt = c.provider.Now()
}

// Stop pauses playback and keeps the current time as the resume offset.
func (c *Clock) Stop() {
	if !c.playing {
		return
	}
	now := c.NowMs()
	c.playing = false
	c.offsetMs = now
	c.scrub = c.fraction(now)
}

// Toggle switches between playing and stopped.
func (c *Clock) Toggle() {
	if c.playing {
		c.Stop()
	} else {
		c.Play()
	}
}

// SetLooping selects between looping and bounded playback.
func (c *Clock) SetLooping(loop bool) {
	if c.playing && loop != c.looping {
		// rebase so the switch does not jump
		c.offsetMs = c.NowMs()
		c.startedAt = c.provider.Now()
	}
	c.looping = loop
}

// Scrub stops playback and moves to the normalized position pos.
func (c *Clock) Scrub(pos float64) {
	c.playing = false
	c.scrub = clamp01(pos)
}

// EndScrub makes the scrub position the resume offset.
func (c *Clock) EndScrub() {
	c.offsetMs = c.scrub * c.DurationMs()
}

// Seek moves to an absolute frame and makes it the resume offset.
func (c *Clock) Seek(frame int) {
	c.Scrub(float64(frame) / float64(c.timeline.TotalFrames))
	c.EndScrub()
}

// NowMs is the current timeline time in milliseconds.
func (c *Clock) NowMs() float64 {
	dur := c.DurationMs()
	if !c.playing {
		return c.scrub * dur
	}
	elapsed := float64(c.provider.Now().Sub(c.startedAt))/float64(time.Millisecond) + c.offsetMs
	if c.looping {
		elapsed = math.Mod(elapsed, dur)
		if elapsed < 0 {
			elapsed += dur
		}
		return elapsed
	}
	return math.Max(0, math.Min(elapsed, dur))
}

// Ended reports whether bounded playback has reached the end.
func (c *Clock) Ended() bool {
	return c.playing && !c.looping && c.NowMs() >= c.DurationMs()
}

// Position is the normalized timeline position in [0,1].
func (c *Clock) Position() float64 {
	return c.fraction(c.NowMs())
}

// Frame is the global frame number shown on the frame counter.
func (c *Clock) Frame() int {
	f := int(math.Floor(c.Position() * float64(c.timeline.TotalFrames)))
	return min(f, c.timeline.TotalFrames)
}

func (c *Clock) fraction(ms float64) float64 {
	return clamp01(ms / c.DurationMs())
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(v, 1))
}
