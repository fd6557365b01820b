// Package dom is the small slice of a page that score discovery needs:
// element text, visibility and interactivity, selector lookup, a bounded
// walk of all elements, and change subscriptions.
package dom

import (
	"errors"
	"strings"
	"sync"
)

// ErrForeignElement is returned when an element is handed to a page it does
// not belong to.
var ErrForeignElement = errors.New("element does not belong to this page")

// InteractiveSelector matches form controls.
const InteractiveSelector = "input, button, select, textarea"

// Element is one element of a page.
type Element interface {
	// Text is the element's rendered text with whitespace collapsed. Text
	// inside hidden descendants is left out.
	Text() string
	// Visible reports whether the element and all its ancestors are rendered.
	Visible() bool
	// ContainsInteractive reports whether the element or a descendant is a
	// form control.
	ContainsInteractive() bool
}

// Page is a document that can be searched and observed.
type Page interface {
	// Query returns the elements matching selector in document order.
	Query(selector string) ([]Element, error)
	// Elements returns at most limit elements in document order.
	Elements(limit int) ([]Element, error)
	// Observe calls onChange after every change to el's text or children.
	Observe(el Element, onChange func()) (Subscription, error)
}

// Subscription is an active observation.
type Subscription interface {
	Unsubscribe()
}

// SubscriptionFunc adapts a function to Subscription. Unsubscribe runs it
// at most once.
func SubscriptionFunc(f func()) Subscription {
	return &funcSubscription{f: f}
}

type funcSubscription struct {
	once sync.Once
	f    func()
}

func (s *funcSubscription) Unsubscribe() {
	s.once.Do(s.f)
}

// NormalizeText collapses runs of whitespace to one space and trims.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
