package render

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/postbuilder/internal/identity"
)

// RewriteLinks rewrites relative `*.md` anchor hrefs in rendered HTML
// to `/<identity>` so cross-post links keep working after the markdown
// sources disappear behind JSON artifacts. Absolute URLs and hrefs
// whose target yields no identity are left untouched.
func RewriteLinks(rendered []byte) ([]byte, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(rendered), body)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		rewriteNode(n)
		if err := html.Render(&buf, n); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func rewriteNode(n *html.Node) {
	if n.Type == html.ElementNode && n.DataAtom == atom.A {
		for i, attr := range n.Attr {
			if attr.Key != "href" {
				continue
			}
			if target, ok := rewriteHref(attr.Val); ok {
				n.Attr[i].Val = target
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteNode(c)
	}
}

func rewriteHref(href string) (string, bool) {
	if href == "" || strings.Contains(href, "://") ||
		strings.HasPrefix(href, "/") || strings.HasPrefix(href, "#") {
		return "", false
	}

	// Keep a fragment suffix across the rewrite.
	fragment := ""
	if idx := strings.IndexByte(href, '#'); idx >= 0 {
		href, fragment = href[:idx], href[idx:]
	}
	if !strings.HasSuffix(strings.ToLower(href), ".md") {
		return "", false
	}

	id, err := identity.Resolve(href)
	if err != nil {
		return "", false
	}
	return "/" + id + fragment, true
}
