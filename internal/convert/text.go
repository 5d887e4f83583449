// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"regexp"
	"strings"
)

const htmlDocument = `<!DOCTYPE html><html><head><meta charset="UTF-8"><title>Converted Document</title></head><body><pre>%s</pre></body></html>`

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// TextToHTML wraps plain text in a minimal HTML document. The text is placed
// in a <pre> block with markup characters escaped.
func TextToHTML(text string) string {
	return strings.Replace(htmlDocument, "%s", textEscaper.Replace(text), 1)
}

var (
	scriptBlock  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	styleBlock   = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style\s*>`)
	headBlock    = regexp.MustCompile(`(?is)<head\b[^>]*>.*?</head\s*>`)
	commentBlock = regexp.MustCompile(`(?s)<!--.*?-->`)
	anyTag       = regexp.MustCompile(`<[^>]*>`)
)

// HTMLToText strips markup from an HTML document. Script, style and head
// blocks are removed with their content, every other tag is removed, and
// &nbsp; &lt; &gt; &amp; are unescaped, &amp; last. HTMLToText(TextToHTML(s))
// returns s unchanged.
func HTMLToText(html string) string {
	s := scriptBlock.ReplaceAllString(html, "")
	s = styleBlock.ReplaceAllString(s, "")
	s = headBlock.ReplaceAllString(s, "")
	s = commentBlock.ReplaceAllString(s, "")
	s = anyTag.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	return strings.ReplaceAll(s, "&amp;", "&")
}
