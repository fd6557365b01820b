package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var nonRendered = map[string]bool{
	"head":     true,
	"script":   true,
	"style":    true,
	"template": true,
	"noscript": true,
	"title":    true,
	"meta":     true,
	"link":     true,
}

// hidden reports whether n itself is not rendered, judging by its tag, its
// hidden attribute and its inline style. Ancestors are not consulted.
func hidden(n *html.Node) bool {
	if nonRendered[n.Data] {
		return true
	}
	if _, ok := lookupAttr(n, "hidden"); ok {
		return true
	}
	if n.Data == "input" && strings.EqualFold(attr(n, "type"), "hidden") {
		return true
	}

	style := inlineStyle(attr(n, "style"))
	if style["display"] == "none" {
		return true
	}
	switch style["visibility"] {
	case "hidden", "collapse":
		return true
	}
	if v, ok := style["opacity"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f <= 0 {
			return true
		}
	}
	return zeroLength(style["width"]) || zeroLength(style["height"])
}

// inlineStyle parses a style attribute into lower-cased property/value
// pairs. Later declarations win and !important is dropped.
func inlineStyle(s string) map[string]string {
	props := make(map[string]string)
	for _, decl := range strings.Split(s, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.ToLower(strings.TrimSpace(value))
		value = strings.TrimSpace(strings.TrimSuffix(value, "!important"))
		if name != "" {
			props[name] = value
		}
	}
	return props
}

func zeroLength(v string) bool {
	if v == "" {
		return false
	}
	for _, unit := range []string{"px", "rem", "em", "%", "pt", "vh", "vw"} {
		if strings.HasSuffix(v, unit) {
			v = strings.TrimSuffix(v, unit)
			break
		}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return err == nil && f == 0
}
