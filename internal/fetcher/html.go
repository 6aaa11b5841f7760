package fetcher

import (
	"strings"

	"golang.org/x/net/html"
)

// skipElements are containers whose text is never visible page copy.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"svg":      true,
	"head":     true,
}

// ExtractText strips markup from an HTML document and returns the visible
// text with whitespace collapsed. Malformed HTML is tolerated; the tokenizer
// yields whatever text it can.
func ExtractText(doc string) string {
	tz := html.NewTokenizer(strings.NewReader(doc))

	var b strings.Builder
	skipDepth := 0
	for {
		switch tz.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			name, _ := tz.TagName()
			if skipElements[string(name)] {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tz.TagName()
			if skipElements[string(name)] && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(tz.Text())
				b.WriteByte(' ')
			}
		}
	}
}
