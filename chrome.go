package pricewatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

type NewChromeOptions struct {
	Headless bool
	Timeout  time.Duration // overall session lifetime, 0 for none
	// NoSandbox adds the flags needed inside containers and CI.
	NoSandbox    bool
	UserDataDir  string
	DownloadPath string
}

// ChromeAgent drives a local Chrome through chromedp.
type ChromeAgent struct {
	ctx        context.Context
	cancelFunc context.CancelFunc
	Log        Logger
}

func allocatorOptions(options NewChromeOptions) []chromedp.ExecAllocatorOption {
	allocOptions := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOptions = append(allocOptions, chromedp.Flag("headless", options.Headless))
	if options.Headless {
		allocOptions = append(allocOptions, chromedp.DisableGPU)
	}
	if options.UserDataDir != "" {
		allocOptions = append(allocOptions, chromedp.UserDataDir(options.UserDataDir))
	}
	if options.NoSandbox || os.Getenv("CI") == "true" {
		allocOptions = append(allocOptions,
			chromedp.NoSandbox,
			chromedp.NoFirstRun,
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-extensions", true),
		)
	}
	return allocOptions
}

// ciMinTimeout raises a session limit to at least 90s when CI=true.
func ciMinTimeout(requested time.Duration) time.Duration {
	const ciMin = 90 * time.Second
	if requested == 0 || os.Getenv("CI") != "true" || requested >= ciMin {
		return requested
	}
	return ciMin
}

// NewChromeAgent starts a browser. Close must be called on every exit path.
func NewChromeAgent(options NewChromeOptions, log Logger) (*ChromeAgent, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(options)...)

	ctxt, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Printf))
	if timeout := ciMinTimeout(options.Timeout); timeout != 0 {
		var timeoutCancel context.CancelFunc
		ctxt, timeoutCancel = context.WithTimeout(ctxt, timeout)
		inner := cancel
		cancel = func() {
			timeoutCancel()
			inner()
		}
	}
	agent := &ChromeAgent{
		ctx: ctxt,
		cancelFunc: func() {
			cancel()
			allocCancel()
		},
		Log: log,
	}

	// start the browser now so that launch failures surface here
	if err := chromedp.Run(ctxt); err != nil {
		agent.Close()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	if options.DownloadPath != "" {
		downloadPath, err := filepath.Abs(options.DownloadPath)
		if err != nil {
			agent.Close()
			return nil, err
		}
		if err := os.MkdirAll(downloadPath, 0777); err != nil {
			agent.Close()
			return nil, fmt.Errorf("couldn't create directory: %v", downloadPath)
		}
		err = chromedp.Run(ctxt,
			chromedp.ActionFunc(func(ctxt context.Context) error {
				return browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllow).WithDownloadPath(downloadPath).Do(ctxt)
			}))
		if err != nil {
			agent.Close()
			return nil, err
		}
	}

	return agent, nil
}

func (agent *ChromeAgent) Close() {
	agent.cancelFunc()
}

// run executes actions on the browser tab, stopping early when ctx is done.
func (agent *ChromeAgent) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(agent.ctx)
	defer cancel()
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (agent *ChromeAgent) Navigate(ctx context.Context, url string) error {
	agent.Log.Printf("navigate %v", url)
	if err := agent.run(ctx, DefaultTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %v: %w", url, err)
	}
	return nil
}

func handles(selector string, nodes []cdp.NodeID) []Handle {
	out := make([]Handle, len(nodes))
	for i, n := range nodes {
		out[i] = Handle{Node: n, Selector: selector}
	}
	return out
}

func (agent *ChromeAgent) FindAll(ctx context.Context, selector string) ([]Handle, error) {
	var nodes []cdp.NodeID
	err := agent.run(ctx, DefaultTimeout, chromedp.NodeIDs(selector, &nodes, chromedp.BySearch, chromedp.AtLeast(0)))
	if err != nil {
		return nil, ProbeError{Selector: selector, Kind: ElementNotFound, Err: err}
	}
	return handles(selector, nodes), nil
}

func (agent *ChromeAgent) WaitFor(ctx context.Context, selector string, timeout time.Duration) (Handle, error) {
	var nodes []cdp.NodeID
	err := agent.run(ctx, timeout, chromedp.NodeIDs(selector, &nodes, chromedp.BySearch))
	switch {
	case ctx.Err() != nil:
		return Handle{}, ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		return Handle{}, ProbeError{Selector: selector, Kind: Timeout, Err: err}
	case err != nil:
		return Handle{}, ProbeError{Selector: selector, Kind: ElementNotFound, Err: err}
	case len(nodes) == 0:
		return Handle{}, ProbeError{Selector: selector, Kind: ElementNotFound}
	}
	return Handle{Node: nodes[0], Selector: selector}, nil
}

func (agent *ChromeAgent) Text(ctx context.Context, h Handle) (string, error) {
	var text string
	err := agent.run(ctx, DefaultTimeout, chromedp.Text([]cdp.NodeID{h.Node}, &text, chromedp.ByNodeID))
	if err != nil {
		return "", ProbeError{Selector: h.Selector, Kind: ElementNotFound, Err: err}
	}
	return text, nil
}

func (agent *ChromeAgent) Fill(ctx context.Context, h Handle, value string) error {
	nodes := []cdp.NodeID{h.Node}
	return agent.run(ctx, DefaultTimeout,
		chromedp.Clear(nodes, chromedp.ByNodeID),
		chromedp.SendKeys(nodes, value, chromedp.ByNodeID),
	)
}

func (agent *ChromeAgent) Click(ctx context.Context, h Handle) error {
	return agent.run(ctx, DefaultTimeout, chromedp.Click([]cdp.NodeID{h.Node}, chromedp.ByNodeID))
}

func (agent *ChromeAgent) OuterHTML(ctx context.Context, selector string) (string, error) {
	var html string
	if err := agent.run(ctx, DefaultTimeout, chromedp.OuterHTML(selector, &html, chromedp.BySearch)); err != nil {
		return "", ProbeError{Selector: selector, Kind: ElementNotFound, Err: err}
	}
	return html, nil
}

func (agent *ChromeAgent) Screenshot(ctx context.Context, selector string) ([]byte, error) {
	var buf []byte
	if err := agent.run(ctx, DefaultTimeout, chromedp.Screenshot(selector, &buf, chromedp.BySearch)); err != nil {
		return nil, err
	}
	return buf, nil
}
