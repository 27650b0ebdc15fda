// internal/domain/browser/driver.go
package browser

import (
	"context"
	"time"
)

// LocatorKind selects how a Locator's Value is interpreted.
type LocatorKind int

const (
	ByCSS LocatorKind = iota
	ByXPath
)

// Locator identifies one element on a page.
type Locator struct {
	Kind  LocatorKind
	Value string
}

// CSS builds a CSS selector locator.
func CSS(selector string) Locator { return Locator{Kind: ByCSS, Value: selector} }

// XPath builds an XPath locator.
func XPath(expr string) Locator { return Locator{Kind: ByXPath, Value: expr} }

func (l Locator) String() string {
	if l.Kind == ByXPath {
		return "xpath=" + l.Value
	}
	return "css=" + l.Value
}

// Driver is a live interactive browser session. Every call is bounded by a
// timeout; a timeout yields false or an error, never a hang.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, loc Locator, timeout time.Duration) bool
	Click(ctx context.Context, loc Locator) error
	Type(ctx context.Context, loc Locator, text string) error
	Hover(ctx context.Context, loc Locator) error
	// EvalString evaluates a JS function expression and returns its string
	// result. A null/undefined result is returned as "".
	EvalString(ctx context.Context, js string) (string, error)
	Close() error
}

// Opener starts a new Driver. The caller owns the returned session and must Close it.
type Opener interface {
	Open(ctx context.Context) (Driver, error)
}
