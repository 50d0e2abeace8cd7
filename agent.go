package pricewatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
)

const (
	// DefaultTimeout is the default timeout for navigation and element waiting
	DefaultTimeout = 30 * time.Second
	// DefaultProbeTimeout bounds a single stock probe
	DefaultProbeTimeout = 5 * time.Second
)

// Handle refers to one element of the current page.
type Handle struct {
	Node     cdp.NodeID
	Selector string
}

// WebAgent is the browser capability the tasks need. Selectors are CSS or
// XPath. Lookups that find nothing fail with a ProbeError.
type WebAgent interface {
	Navigate(ctx context.Context, url string) error
	FindAll(ctx context.Context, selector string) ([]Handle, error)
	Text(ctx context.Context, h Handle) (string, error)
	Fill(ctx context.Context, h Handle, value string) error
	Click(ctx context.Context, h Handle) error
	WaitFor(ctx context.Context, selector string, timeout time.Duration) (Handle, error)
	OuterHTML(ctx context.Context, selector string) (string, error)
	Screenshot(ctx context.Context, selector string) ([]byte, error)
}

// Find returns the first element matching selector without waiting.
func Find(ctx context.Context, agent WebAgent, selector string) (Handle, error) {
	handles, err := agent.FindAll(ctx, selector)
	if err != nil {
		return Handle{}, err
	}
	if len(handles) == 0 {
		return Handle{}, ProbeError{Selector: selector, Kind: ElementNotFound}
	}
	return handles[0], nil
}

// ProbeText waits for selector and returns its text.
func ProbeText(ctx context.Context, agent WebAgent, selector string, timeout time.Duration) (string, error) {
	h, err := agent.WaitFor(ctx, selector, timeout)
	if err != nil {
		return "", err
	}
	return agent.Text(ctx, h)
}

// FillSelector waits for an input and types value into it.
func FillSelector(ctx context.Context, agent WebAgent, selector, value string, timeout time.Duration) error {
	h, err := agent.WaitFor(ctx, selector, timeout)
	if err != nil {
		return err
	}
	return agent.Fill(ctx, h, value)
}

// ClickSelector waits for an element and clicks it.
func ClickSelector(ctx context.Context, agent WebAgent, selector string, timeout time.Duration) error {
	h, err := agent.WaitFor(ctx, selector, timeout)
	if err != nil {
		return err
	}
	return agent.Click(ctx, h)
}

// escapeXPathText quotes s as an XPath string literal. Text holding both
// quote kinds is built with concat().
func escapeXPathText(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	var args []string
	for i, part := range strings.Split(s, "'") {
		if i > 0 {
			args = append(args, `"'"`)
		}
		if part != "" {
			args = append(args, "'"+part+"'")
		}
	}
	return "concat(" + strings.Join(args, ", ") + ")"
}

// ElementWithText is an XPath for tag elements whose text contains text.
func ElementWithText(tag, text string) string {
	return fmt.Sprintf("//%v[contains(., %v)]", tag, escapeXPathText(text))
}

// ElementWithAttr is an XPath for tag elements whose attr equals value.
func ElementWithAttr(tag, attr, value string) string {
	return fmt.Sprintf("//%v[@%v=%v]", tag, attr, escapeXPathText(value))
}
