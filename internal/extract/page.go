package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is raw page text prepared for extraction: the text itself plus the
// bodies of its inline script elements. Parse it once and hand the same
// Page to every extractor.
//
// A Page is read-only after Parse and safe to share between goroutines.
type Page struct {
	// Text is the raw page text exactly as fetched.
	Text string

	// Scripts holds the textual content of every script element that has
	// any, in document order. Script elements with an empty body (for
	// example <script src="..."></script>) are omitted.
	Scripts []string

	// doc is the parsed document, nil when the text could not be parsed.
	doc *goquery.Document
}

// Parse isolates the inline script bodies of raw.
// Text that is not HTML at all still yields a Page; it simply has no
// scripts.
func Parse(raw string) *Page {
	p := &Page{
		Text:    raw,
		Scripts: make([]string, 0),
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return p
	}
	p.doc = doc

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		body := s.Text()
		if strings.TrimSpace(body) == "" {
			return
		}
		p.Scripts = append(p.Scripts, body)
	})

	return p
}

// ResourceRefs returns the external script sources and stylesheet links
// of the page in document order, without duplicates. The values are
// returned exactly as written in the markup; resolve them against the
// page URL before use.
func (p *Page) ResourceRefs() []string {
	refs := make([]string, 0)
	if p.doc == nil {
		return refs
	}

	seen := make(map[string]struct{})
	p.doc.Find(`script[src], link[href]`).Each(func(_ int, s *goquery.Selection) {
		var ref string
		if goquery.NodeName(s) == "script" {
			ref = s.AttrOr("src", "")
		} else {
			if !isStylesheet(s.AttrOr("rel", "")) {
				return
			}
			ref = s.AttrOr("href", "")
		}

		ref = strings.TrimSpace(ref)
		if ref == "" {
			return
		}
		if _, ok := seen[ref]; ok {
			return
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	})

	return refs
}

// isStylesheet reports whether a rel attribute value contains the
// "stylesheet" keyword. Keywords are space separated and case-insensitive.
func isStylesheet(rel string) bool {
	for _, token := range strings.Fields(rel) {
		if strings.EqualFold(token, "stylesheet") {
			return true
		}
	}
	return false
}
