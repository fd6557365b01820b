package dom

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const visibleJS = `() => {
	for (let el = this; el && el.nodeType === 1; el = el.parentElement) {
		const s = window.getComputedStyle(el);
		if (s.display === "none" || s.visibility === "hidden" || s.visibility === "collapse" || parseFloat(s.opacity) === 0) {
			return false;
		}
	}
	const r = this.getBoundingClientRect();
	return r.width > 0 && r.height > 0;
}`

const interactiveJS = `() => this.matches("` + InteractiveSelector + `") || this.querySelector("` + InteractiveSelector + `") !== null`

// RodPage is a live browser page. Observation polls element text because
// the browser pushes no per-element change events.
type RodPage struct {
	page     *rod.Page
	interval time.Duration
	close    func() error
}

type rodElement struct {
	page *RodPage
	el   *rod.Element
}

// NewRodPage wraps an already opened page.
func NewRodPage(page *rod.Page, interval time.Duration) *RodPage {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &RodPage{page: page, interval: interval, close: func() error { return nil }}
}

// OpenRodPage connects to controlURL, or launches a headless browser when it
// is empty, and opens url.
func OpenRodPage(ctx context.Context, controlURL, url string, interval time.Duration) (*RodPage, error) {
	if controlURL == "" {
		u, err := launcher.New().Headless(true).Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to open %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to load %s: %w", url, err)
	}

	p := NewRodPage(page, interval)
	p.close = browser.Close
	return p, nil
}

// Close closes the browser when the page opened it.
func (p *RodPage) Close() error {
	return p.close()
}

func (p *RodPage) Query(selector string) ([]Element, error) {
	els, err := p.page.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", selector, err)
	}
	return p.wrap(els), nil
}

func (p *RodPage) Elements(limit int) ([]Element, error) {
	els, err := p.page.Elements("body *")
	if err != nil {
		return nil, fmt.Errorf("failed to list elements: %w", err)
	}
	if len(els) > limit {
		els = els[:max(limit, 0)]
	}
	return p.wrap(els), nil
}

func (p *RodPage) Observe(el Element, onChange func()) (Subscription, error) {
	e, ok := el.(*rodElement)
	if !ok || e.page != p {
		return nil, ErrForeignElement
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		last := e.Text()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				text := e.Text()
				if text != last {
					last = text
					onChange()
				}
			}
		}
	}()

	return SubscriptionFunc(func() {
		close(stop)
		wg.Wait()
	}), nil
}

func (p *RodPage) wrap(els rod.Elements) []Element {
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{page: p, el: el})
	}
	return out
}

func (e *rodElement) Text() string {
	text, err := e.el.Text()
	if err != nil {
		return ""
	}
	return NormalizeText(text)
}

func (e *rodElement) Visible() bool {
	return e.evalBool(visibleJS)
}

func (e *rodElement) ContainsInteractive() bool {
	return e.evalBool(interactiveJS)
}

func (e *rodElement) evalBool(js string) bool {
	res, err := e.el.Eval(js)
	if err != nil || res == nil {
		return false
	}
	return res.Value.Bool()
}
