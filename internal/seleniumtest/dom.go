// internal/seleniumtest/dom.go
package seleniumtest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tebeka/selenium"
	"golang.org/x/net/html"
)

// A <template shadowrootmode="open"> child turns its parent into a shadow
// host. Searches never cross a template boundary.
const shadowRootTag = "template"

var (
	xpathAttr = regexp.MustCompile(`^\.?//([\w*-]+)\[@([\w-]+)\s*=\s*['"]([^'"]*)['"]\]$`)
	xpathText = regexp.MustCompile(`^\.?//([\w*-]+)\[(?:text\(\)|\.)\s*=\s*['"]([^'"]*)['"]\]$`)
	xpathTag  = regexp.MustCompile(`^\.?/{1,2}([\w*-]+)$`)
)

// scopeOf returns the nearest enclosing shadow root template of n.
func scopeOf(n *html.Node, includeSelf bool) *html.Node {
	if !includeSelf && n != nil {
		n = n.Parent
	}
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && n.Data == shadowRootTag {
			return n
		}
	}
	return nil
}

// shadowRootOf returns the open shadow root template of host, if any.
func shadowRootOf(host *html.Node) *html.Node {
	for c := host.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == shadowRootTag && attr(c, "shadowrootmode") == "open" {
			return c
		}
	}
	return nil
}

func attr(n *html.Node, name string) string {
	v, _ := lookupAttr(n, name)
	return v
}

func lookupAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

func removeAttr(n *html.Node, name string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != name {
			out = append(out, a)
		}
	}
	n.Attr = out
}

func nodeText(n *html.Node) string {
	return strings.Join(strings.Fields(goquery.NewDocumentFromNode(n).Text()), " ")
}

// hiddenNode reports whether n or an ancestor is hidden by attribute or style.
func hiddenNode(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if _, ok := lookupAttr(n, "hidden"); ok {
			return true
		}
		style := strings.ReplaceAll(strings.ToLower(attr(n, "style")), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return true
		}
	}
	return false
}

func cssProperty(n *html.Node, name string) string {
	for _, decl := range strings.Split(attr(n, "style"), ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok && strings.EqualFold(strings.TrimSpace(k), name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// find runs a WebDriver locator strategy below root.
func find(root *html.Node, by, value string) ([]*html.Node, error) {
	sel := goquery.NewDocumentFromNode(root).Selection
	var matches *goquery.Selection

	switch by {
	case selenium.ByCSSSelector:
		matches = sel.Find(value)
	case selenium.ByID:
		matches = sel.Find("[id=" + strconv.Quote(value) + "]")
	case selenium.ByName:
		matches = sel.Find("[name=" + strconv.Quote(value) + "]")
	case selenium.ByClassName:
		matches = sel.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.HasClass(value)
		})
	case selenium.ByTagName:
		matches = sel.Find(value)
	case selenium.ByLinkText:
		matches = sel.Find("a").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return nodeText(s.Get(0)) == value
		})
	case selenium.ByPartialLinkText:
		matches = sel.Find("a").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return strings.Contains(nodeText(s.Get(0)), value)
		})
	case selenium.ByXPATH:
		var err error
		if matches, err = findXPath(sel, value); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("invalid argument: unsupported locator strategy %q", by)
	}

	scope := scopeOf(root, true)
	var out []*html.Node
	for _, n := range matches.Nodes {
		if scopeOf(n, false) == scope {
			out = append(out, n)
		}
	}
	return out, nil
}

// findXPath understands //tag, //tag[@attr='v'] and //tag[text()='v'].
func findXPath(sel *goquery.Selection, expr string) (*goquery.Selection, error) {
	expr = strings.TrimSpace(expr)

	if m := xpathAttr.FindStringSubmatch(expr); m != nil {
		return sel.Find(cssTag(m[1]) + "[" + m[2] + "=" + strconv.Quote(m[3]) + "]"), nil
	}
	if m := xpathText.FindStringSubmatch(expr); m != nil {
		return sel.Find(cssTag(m[1])).FilterFunction(func(_ int, s *goquery.Selection) bool {
			return nodeText(s.Get(0)) == m[2]
		}), nil
	}
	if m := xpathTag.FindStringSubmatch(expr); m != nil {
		return sel.Find(cssTag(m[1])), nil
	}
	return nil, fmt.Errorf("invalid selector: unsupported xpath %q", expr)
}

func cssTag(tag string) string {
	if tag == "" {
		return "*"
	}
	return tag
}
