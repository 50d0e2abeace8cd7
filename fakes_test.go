package pricewatch

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// memoryStore is a GridStore keeping a snapshot of every save.
type memoryStore struct {
	grid    *Grid
	saves   [][][]string
	saveErr error
	loadErr error
}

func (store *memoryStore) Load() (*Grid, error) {
	if store.loadErr != nil {
		return nil, store.loadErr
	}
	if store.grid == nil {
		return NewPriceGrid("Product", "Lowest Price"), nil
	}
	return NewGrid(store.grid.Rows()), nil
}

func (store *memoryStore) Save(grid *Grid) error {
	if store.saveErr != nil {
		return store.saveErr
	}
	store.saves = append(store.saves, grid.Rows())
	store.grid = NewGrid(grid.Rows())
	return nil
}

// fakeSleeper records requested durations without sleeping.
type fakeSleeper struct {
	slept []time.Duration
	// onSleep runs before returning, e.g. to cancel a context
	onSleep func(n int)
}

func (sleeper *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	sleeper.slept = append(sleeper.slept, d)
	if sleeper.onSleep != nil {
		sleeper.onSleep(len(sleeper.slept))
	}
	return ctx.Err()
}

type fixedClock time.Time

func (clock fixedClock) Now() time.Time {
	return time.Time(clock)
}

// scriptedSource returns its snapshots in order, repeating the last one.
type scriptedSource struct {
	snapshots [][]Candidate
	errs      []error
	calls     int
}

func (source *scriptedSource) String() string {
	return "scripted"
}

func (source *scriptedSource) Snapshot(ctx context.Context) ([]Candidate, error) {
	i := source.calls
	source.calls++
	if i < len(source.errs) && source.errs[i] != nil {
		return nil, source.errs[i]
	}
	if len(source.snapshots) == 0 {
		return nil, nil
	}
	if i >= len(source.snapshots) {
		i = len(source.snapshots) - 1
	}
	return source.snapshots[i], nil
}

// fakePage is what fakeAgent serves for one URL: selector to text. A
// selector listed in timeouts fails with a Timeout probe error.
type fakePage struct {
	texts    map[string]string
	timeouts map[string]bool
	html     map[string]string
	// clicks maps a selector to the texts that appear after clicking it
	clicks map[string]map[string]string
}

// fakeAgent is a scripted WebAgent.
type fakeAgent struct {
	pages       map[string]*fakePage
	navigateErr map[string]error
	current     *fakePage
	visible     map[string]string

	navigated []string
	clicked   []string
	filled    []string
	waited    []string
}

func newFakeAgent() *fakeAgent {
	return &fakeAgent{pages: map[string]*fakePage{}, navigateErr: map[string]error{}}
}

func (agent *fakeAgent) Navigate(ctx context.Context, url string) error {
	agent.navigated = append(agent.navigated, url)
	if err := agent.navigateErr[url]; err != nil {
		return err
	}
	page, ok := agent.pages[url]
	if !ok {
		return fmt.Errorf("navigate %v: net::ERR_NAME_NOT_RESOLVED", url)
	}
	agent.current = page
	agent.visible = map[string]string{}
	for k, v := range page.texts {
		agent.visible[k] = v
	}
	return nil
}

func (agent *fakeAgent) FindAll(ctx context.Context, selector string) ([]Handle, error) {
	if _, ok := agent.visible[selector]; ok {
		return []Handle{{Selector: selector}}, nil
	}
	return nil, nil
}

func (agent *fakeAgent) Text(ctx context.Context, h Handle) (string, error) {
	text, ok := agent.visible[h.Selector]
	if !ok {
		return "", ProbeError{Selector: h.Selector, Kind: ElementNotFound}
	}
	return text, nil
}

func (agent *fakeAgent) Fill(ctx context.Context, h Handle, value string) error {
	agent.filled = append(agent.filled, h.Selector+"="+value)
	return nil
}

func (agent *fakeAgent) Click(ctx context.Context, h Handle) error {
	agent.clicked = append(agent.clicked, h.Selector)
	if agent.current != nil {
		for k, v := range agent.current.clicks[h.Selector] {
			agent.visible[k] = v
		}
	}
	return nil
}

func (agent *fakeAgent) WaitFor(ctx context.Context, selector string, timeout time.Duration) (Handle, error) {
	agent.waited = append(agent.waited, selector)
	if err := ctx.Err(); err != nil {
		return Handle{}, err
	}
	if agent.current != nil && agent.current.timeouts[selector] {
		return Handle{}, ProbeError{Selector: selector, Kind: Timeout, Err: context.DeadlineExceeded}
	}
	if _, ok := agent.visible[selector]; ok {
		return Handle{Selector: selector}, nil
	}
	if agent.current != nil {
		if _, ok := agent.current.html[selector]; ok {
			return Handle{Selector: selector}, nil
		}
	}
	return Handle{}, ProbeError{Selector: selector, Kind: ElementNotFound}
}

func (agent *fakeAgent) OuterHTML(ctx context.Context, selector string) (string, error) {
	if agent.current != nil {
		if html, ok := agent.current.html[selector]; ok {
			return html, nil
		}
	}
	return "", ProbeError{Selector: selector, Kind: ElementNotFound}
}

func (agent *fakeAgent) Screenshot(ctx context.Context, selector string) ([]byte, error) {
	if _, ok := agent.visible[selector]; !ok {
		return nil, errors.New("nothing to capture")
	}
	return []byte("\x89PNG " + selector), nil
}
