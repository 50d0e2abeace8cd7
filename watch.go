package pricewatch

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// Candidate is one product card of a listing.
type Candidate struct {
	Title string
	Price string
	URL   string
}

// Observation is the candidate a watch loop settled on.
type Observation struct {
	Title string
	Price string
	URL   string
	Date  time.Time
}

// ListingSource produces a fresh snapshot of a listing on every call.
type ListingSource interface {
	Snapshot(ctx context.Context) ([]Candidate, error)
	String() string
}

// Matcher decides whether a candidate title is the wanted product.
type Matcher func(title string) bool

// Keywords matches titles containing every keyword, ignoring case.
func Keywords(keywords ...string) Matcher {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}
	return func(title string) bool {
		title = strings.ToLower(title)
		for _, k := range lowered {
			if !strings.Contains(title, k) {
				return false
			}
		}
		return true
	}
}

// SearchKeywords splits a search term into keywords.
func SearchKeywords(term string) Matcher {
	return Keywords(strings.Fields(term)...)
}

// Interval is the waiting policy between two unsuccessful snapshots.
type Interval interface {
	Next() time.Duration
}

type FixedInterval time.Duration

func (interval FixedInterval) Next() time.Duration {
	return time.Duration(interval)
}

// RandomInterval waits a uniformly random duration within [Min, Max].
type RandomInterval struct {
	Min time.Duration
	Max time.Duration
	// Int64N defaults to math/rand/v2.Int64N.
	Int64N func(n int64) int64
}

func (interval RandomInterval) Next() time.Duration {
	if interval.Max <= interval.Min {
		return interval.Min
	}
	int64n := interval.Int64N
	if int64n == nil {
		int64n = rand.Int64N
	}
	span := int64(interval.Max - interval.Min)
	return interval.Min + time.Duration(int64n(span+1))
}

type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RealSleeper sleeps on the wall clock and wakes early when ctx is done.
type RealSleeper struct{}

func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

type WatchState int

const (
	Searching WatchState = iota
	Found
)

func (state WatchState) String() string {
	switch state {
	case Searching:
		return "SEARCHING"
	case Found:
		return "FOUND"
	}
	return fmt.Sprintf("WatchState(%d)", int(state))
}

// Watcher polls a listing until a candidate matches.
type Watcher struct {
	Source   ListingSource
	Match    Matcher
	Interval Interval
	Sleeper  Sleeper
	Clock    Clock
	Log      Logger

	state    WatchState
	attempts int
}

func NewWatcher(source ListingSource, match Matcher, interval Interval, log Logger) *Watcher {
	return &Watcher{
		Source:   source,
		Match:    match,
		Interval: interval,
		Sleeper:  RealSleeper{},
		Clock:    SystemClock{},
		Log:      log,
	}
}

func (watcher *Watcher) State() WatchState {
	return watcher.state
}

// Attempts is the number of snapshots taken by the last Poll.
func (watcher *Watcher) Attempts() int {
	return watcher.attempts
}

// Select returns the index of the first matching candidate, or -1.
func (watcher *Watcher) Select(candidates []Candidate) int {
	for i, c := range candidates {
		if watcher.Match(c.Title) {
			return i
		}
		watcher.Log.Printf("not matched: %v", c.Title)
	}
	return -1
}

// Poll blocks until a candidate matches, the source fails or ctx is done.
// There is no retry limit.
func (watcher *Watcher) Poll(ctx context.Context) (Observation, error) {
	watcher.state = Searching
	watcher.attempts = 0
	for {
		if err := ctx.Err(); err != nil {
			return Observation{}, err
		}

		watcher.attempts++
		candidates, err := watcher.Source.Snapshot(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return Observation{}, ctx.Err()
			}
			return Observation{}, SourceUnreachableError{watcher.Source.String(), err}
		}

		if i := watcher.Select(candidates); i >= 0 {
			c := candidates[i]
			watcher.state = Found
			watcher.Log.Printf("found %q price %q after %d attempts", c.Title, c.Price, watcher.attempts)
			return Observation{
				Title: c.Title,
				Price: c.Price,
				URL:   c.URL,
				Date:  watcher.Clock.Now(),
			}, nil
		}

		wait := watcher.Interval.Next()
		watcher.Log.Printf("no matching results in %d candidates, waiting %v", len(candidates), wait)
		if err := watcher.Sleeper.Sleep(ctx, wait); err != nil {
			return Observation{}, err
		}
	}
}
