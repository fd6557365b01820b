package dom

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// Document is a parsed HTML page whose content can be changed through
// SetText and Reload. Changes notify subscribers synchronously, in the
// goroutine that made the change.
type Document struct {
	mu     sync.Mutex
	root   *html.Node
	subs   map[int]*subscription
	nextID int
}

type subscription struct {
	path     []int
	onChange func()
}

// element addresses a node by its element-child index path from the root,
// so it stays meaningful across Reload.
type element struct {
	doc  *Document
	path []int
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return &Document{root: root, subs: make(map[int]*subscription)}, nil
}

// ParseString reads an HTML document from a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// HTML renders the current document.
func (d *Document) HTML() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var b strings.Builder
	html.Render(&b, d.root)
	return b.String()
}

func (d *Document) Query(selector string) ([]Element, error) {
	sel, err := ParseSelector(selector)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var out []Element
	walkElements(d.root, nil, func(n *html.Node, path []int) bool {
		if sel.Match(n) {
			out = append(out, d.element(path))
		}
		return true
	})
	return out, nil
}

func (d *Document) Elements(limit int) ([]Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []Element
	walkElements(d.root, nil, func(n *html.Node, path []int) bool {
		if len(out) >= limit {
			return false
		}
		out = append(out, d.element(path))
		return true
	})
	return out, nil
}

func (d *Document) Observe(el Element, onChange func()) (Subscription, error) {
	e, err := d.own(el)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.subs[id] = &subscription{path: e.path, onChange: onChange}
	d.mu.Unlock()

	return SubscriptionFunc(func() {
		d.mu.Lock()
		delete(d.subs, id)
		d.mu.Unlock()
	}), nil
}

// SetText replaces el's children with a single text node.
func (d *Document) SetText(el Element, text string) error {
	e, err := d.own(el)
	if err != nil {
		return err
	}

	d.mu.Lock()
	n := resolve(d.root, e.path)
	if n == nil {
		d.mu.Unlock()
		return fmt.Errorf("element %v no longer exists", e.path)
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	handlers := d.affected(e.path)
	d.mu.Unlock()

	notify(handlers)
	return nil
}

// Reload replaces the whole document and notifies every subscriber.
func (d *Document) Reload(r io.Reader) error {
	root, err := html.Parse(r)
	if err != nil {
		return fmt.Errorf("failed to parse html: %w", err)
	}

	d.mu.Lock()
	d.root = root
	handlers := d.affected(nil)
	d.mu.Unlock()

	notify(handlers)
	return nil
}

// affected returns the handlers observing an element inside, or containing,
// the changed path. Call with d.mu held.
func (d *Document) affected(changed []int) []func() {
	var handlers []func()
	for _, sub := range d.subs {
		if hasPrefix(changed, sub.path) || hasPrefix(sub.path, changed) {
			handlers = append(handlers, sub.onChange)
		}
	}
	return handlers
}

func (d *Document) own(el Element) (*element, error) {
	e, ok := el.(*element)
	if !ok || e.doc != d {
		return nil, ErrForeignElement
	}
	return e, nil
}

func (d *Document) element(path []int) *element {
	return &element{doc: d, path: append([]int(nil), path...)}
}

func (e *element) Text() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	n := resolve(e.doc.root, e.path)
	if n == nil {
		return ""
	}
	var b strings.Builder
	collectText(n, &b)
	return NormalizeText(b.String())
}

func (e *element) Visible() bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	n := resolve(e.doc.root, e.path)
	if n == nil {
		return false
	}
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && hidden(n) {
			return false
		}
	}
	return true
}

func (e *element) ContainsInteractive() bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	n := resolve(e.doc.root, e.path)
	if n == nil {
		return false
	}
	found := false
	walkElements(n, e.path, func(c *html.Node, _ []int) bool {
		if interactiveTags[c.Data] {
			found = true
			return false
		}
		return true
	})
	return found
}

var interactiveTags = map[string]bool{
	"input":    true,
	"button":   true,
	"select":   true,
	"textarea": true,
}

// walkElements visits n (when it is an element) and its element descendants
// in document order until fn returns false.
func walkElements(n *html.Node, path []int, fn func(*html.Node, []int) bool) bool {
	if n.Type == html.ElementNode {
		if !fn(n, path) {
			return false
		}
	}
	i := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if !walkElements(c, append(path, i), fn) {
			return false
		}
		i++
	}
	return true
}

// resolve follows an element-child index path from root.
func resolve(root *html.Node, path []int) *html.Node {
	n := root
	for _, idx := range path {
		i := 0
		var next *html.Node
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if i == idx {
				next = c
				break
			}
			i++
		}
		if next == nil {
			return nil
		}
		n = next
	}
	return n
}

// collectText appends the rendered text under n. Descendant elements that
// are hidden are skipped along with their subtrees; n itself is not checked.
func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && hidden(c) {
			continue
		}
		collectText(c, b)
	}
}

func hasPrefix(path, prefix []int) bool {
	if len(prefix) > len(path) {
		return false
	}
	for i := range prefix {
		if path[i] != prefix[i] {
			return false
		}
	}
	return true
}

func notify(handlers []func()) {
	for _, h := range handlers {
		h()
	}
}
