// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"time"
)

// NewTime creates a new time service
func NewTime(cfg TimeConfiguration) *Time {
	return &Time{
		fps:            cfg.FramesPerSecond,
		fpsTicker:      time.NewTicker(FrameInterval(cfg.FramesPerSecond)),
		eventPollDelay: cfg.EventPollDelay,
		eventTicker:    time.NewTicker(EventInterval(cfg.EventPollDelay)),
		started:        time.Now(),
	}
}

// FrameInterval is the time between frames for the fps cap,
// 0 means uncapped.
func FrameInterval(fps int) time.Duration {
	if fps <= 0 {
		return time.Nanosecond
	}
	return time.Second / time.Duration(fps)
}

// EventInterval is the time between event polls,
// it is never shorter than a millisecond.
func EventInterval(delayMs int) time.Duration {
	if delayMs <= 0 {
		return time.Millisecond
	}
	return time.Duration(delayMs) * time.Millisecond
}

// Time contains all the time services and tickers
type Time struct {
	fps       int
	fpsTicker *time.Ticker

	eventPollDelay int
	eventTicker    *time.Ticker

	started time.Time
}

// Fps gets the set frames per second
func (t *Time) Fps() int {
	return t.fps
}

// FpsTicker gets the initialized fps ticker
func (t *Time) FpsTicker() *time.Ticker {
	return t.fpsTicker
}

// EventTicker gets the initialized event ticker for the event loop
func (t *Time) EventTicker() *time.Ticker {
	return t.eventTicker
}

// Elapsed returns the time since the service was created
func (t *Time) Elapsed() time.Duration {
	return time.Since(t.started)
}

// Stop stops the tickers
func (t *Time) Stop() {
	t.fpsTicker.Stop()
	t.eventTicker.Stop()
}
