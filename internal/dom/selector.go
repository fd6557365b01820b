package dom

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// Selector is a parsed selector group: a comma separated list of compound
// selectors built from a tag name, #id, .class, [attr] and [attr=value].
// Combinators are not supported.
type Selector []compound

type compound struct {
	tag     string
	id      string
	classes []string
	attrs   []attrMatch
}

type attrMatch struct {
	name     string
	value    string
	hasValue bool
}

// ParseSelector parses a selector group.
func ParseSelector(s string) (Selector, error) {
	var sel Selector
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty selector in %q", s)
		}
		c, err := parseCompound(part)
		if err != nil {
			return nil, fmt.Errorf("invalid selector %q: %w", part, err)
		}
		sel = append(sel, c)
	}
	return sel, nil
}

// MustParseSelector is ParseSelector for constant selectors.
func MustParseSelector(s string) Selector {
	sel, err := ParseSelector(s)
	if err != nil {
		panic(err)
	}
	return sel
}

// Match reports whether n matches any compound of the group.
func (s Selector) Match(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, c := range s {
		if c.match(n) {
			return true
		}
	}
	return false
}

func (c compound) match(n *html.Node) bool {
	if c.tag != "" && c.tag != "*" && n.Data != c.tag {
		return false
	}
	if c.id != "" && attr(n, "id") != c.id {
		return false
	}
	if len(c.classes) > 0 {
		have := strings.Fields(attr(n, "class"))
		for _, want := range c.classes {
			if !slices.Contains(have, want) {
				return false
			}
		}
	}
	for _, a := range c.attrs {
		v, ok := lookupAttr(n, a.name)
		if !ok || (a.hasValue && v != a.value) {
			return false
		}
	}
	return true
}

func parseCompound(s string) (compound, error) {
	var c compound
	tag, i := readIdent(s, 0)
	c.tag = strings.ToLower(tag)
	if c.tag == "" && i < len(s) && s[i] == '*' {
		c.tag = "*"
		i++
	}

	for i < len(s) {
		switch s[i] {
		case '#':
			var id string
			id, i = readIdent(s, i+1)
			if id == "" {
				return c, fmt.Errorf("missing id after '#'")
			}
			c.id = id
		case '.':
			var class string
			class, i = readIdent(s, i+1)
			if class == "" {
				return c, fmt.Errorf("missing class after '.'")
			}
			c.classes = append(c.classes, class)
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return c, fmt.Errorf("unterminated attribute selector")
			}
			a, err := parseAttr(s[i+1 : i+end])
			if err != nil {
				return c, err
			}
			c.attrs = append(c.attrs, a)
			i += end + 1
		default:
			return c, fmt.Errorf("unexpected %q at offset %d", s[i], i)
		}
	}

	if c.tag == "" && c.id == "" && len(c.classes) == 0 && len(c.attrs) == 0 {
		return c, fmt.Errorf("selector matches nothing")
	}
	return c, nil
}

func parseAttr(s string) (attrMatch, error) {
	name, value, hasValue := strings.Cut(s, "=")
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return attrMatch{}, fmt.Errorf("missing attribute name")
	}
	if !hasValue {
		return attrMatch{name: name}, nil
	}
	value = strings.TrimSpace(value)
	if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
		value = value[1 : len(value)-1]
	}
	return attrMatch{name: name, value: value, hasValue: true}, nil
}

func readIdent(s string, i int) (string, int) {
	start := i
	for i < len(s) && isIdentByte(s[i]) {
		i++
	}
	return s[start:i], i
}

func isIdentByte(b byte) bool {
	return b == '-' || b == '_' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') ||
		b >= 0x80
}

func attr(n *html.Node, name string) string {
	v, _ := lookupAttr(n, name)
	return v
}

func lookupAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}
