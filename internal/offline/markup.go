// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package offline

import (
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

const (
	proseStyle = `body{font-family:Arial,sans-serif;line-height:1.6;max-width:800px;margin:0 auto;padding:20px;}`
	monoStyle  = `body{font-family:monospace;white-space:pre-wrap;line-height:1.4;padding:20px;}`
)

// sanitizer strips anything executable from generated HTML bodies.
var sanitizer = bluemonday.UGCPolicy()

func htmlPage(name, style, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html><html><head><meta charset="UTF-8"><title>%s</title><style>%s</style></head><body>%s</body></html>`,
		html.EscapeString(filepath.Base(name)), style, body)
}

func txtToHTML(name string, data []byte) (string, error) {
	return htmlPage(name, monoStyle, html.EscapeString(string(data))), nil
}

// blockBreaks are elements that end a line in the text rendering.
var blockBreaks = map[string]bool{
	"div": true, "p": true, "br": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

func htmlToText(_ string, data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}
	doc.Find("script, style, head").Remove()

	var b strings.Builder
	var walk func(s *goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			name := goquery.NodeName(c)
			switch {
			case name == "#text":
				b.WriteString(c.Get(0).Data)
			case name == "li":
				b.WriteString("• ")
				walk(c)
				b.WriteString("\n")
			case blockBreaks[name]:
				walk(c)
				b.WriteString("\n")
			default:
				walk(c)
			}
		})
	}
	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	walk(root)
	return strings.TrimSpace(b.String()), nil
}

func htmlToMarkdown(_ string, data []byte) (string, error) {
	conv := md.NewConverter("", true, nil)
	out, err := conv.ConvertString(string(data))
	if err != nil {
		return "", fmt.Errorf("converting to markdown: %w", err)
	}
	return out, nil
}

var (
	mdH3       = regexp.MustCompile(`(?m)^### (.*)$`)
	mdH2       = regexp.MustCompile(`(?m)^## (.*)$`)
	mdH1       = regexp.MustCompile(`(?m)^# (.*)$`)
	mdBold     = regexp.MustCompile(`\*\*(.*?)\*\*`)
	mdItalic   = regexp.MustCompile(`\*(.*?)\*`)
	mdBullet   = regexp.MustCompile(`(?m)^[*-] (.*)$`)
	mdNumbered = regexp.MustCompile(`(?m)^\d+\. (.*)$`)
	mdList     = regexp.MustCompile(`(?s)(<li>.*</li>)`)
	mdHeading  = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdBulletTx = regexp.MustCompile(`(?m)^[*-] `)
	mdNumTx    = regexp.MustCompile(`(?m)^\d+\. `)
)

// markdownToHTML covers headings, emphasis and flat lists. Source text is
// escaped first so raw HTML in the markdown is shown, not rendered.
func markdownToHTML(name string, data []byte) (string, error) {
	s := html.EscapeString(string(data))
	s = mdH3.ReplaceAllString(s, "<h3>$1</h3>")
	s = mdH2.ReplaceAllString(s, "<h2>$1</h2>")
	s = mdH1.ReplaceAllString(s, "<h1>$1</h1>")
	s = mdBold.ReplaceAllString(s, "<strong>$1</strong>")
	s = mdBullet.ReplaceAllString(s, "<li>$1</li>")
	s = mdNumbered.ReplaceAllString(s, "<li>$1</li>")
	s = mdItalic.ReplaceAllString(s, "<em>$1</em>")
	s = strings.ReplaceAll(s, "\n", "<br>\n")
	s = mdList.ReplaceAllString(s, "<ul>$1</ul>")
	return htmlPage(name, proseStyle, sanitizer.Sanitize(s)), nil
}

func markdownToText(_ string, data []byte) (string, error) {
	s := mdHeading.ReplaceAllString(string(data), "")
	s = mdBold.ReplaceAllString(s, "$1")
	s = mdBulletTx.ReplaceAllString(s, "• ")
	s = mdItalic.ReplaceAllString(s, "$1")
	s = mdNumTx.ReplaceAllString(s, "")
	return strings.TrimSpace(s), nil
}

const rtfNote = "\n\n[Note: RTF conversion is limited. For better results, convert with the server.]"

var (
	rtfGroupDest   = regexp.MustCompile(`\{\\\*[^{}]*\}`)
	rtfTables      = regexp.MustCompile(`\{\\(?:fonttbl|colortbl|stylesheet|info)(?:[^{}]|\{[^{}]*\})*\}`)
	rtfControlWord = regexp.MustCompile(`\\[a-zA-Z]+-?\d* ?`)
	rtfHexEscape   = regexp.MustCompile(`\\'[0-9a-fA-F]{2}`)
	rtfBraces      = regexp.MustCompile(`[{}]`)
	rtfParagraph   = regexp.MustCompile(`\\par\b ?`)
)

// rtfToText strips control words and groups. Escaped literal braces and
// backslashes are kept.
func rtfToText(_ string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errEmptyInput
	}
	s := strings.NewReplacer(`\\`, "\x00", `\{`, "\x01", `\}`, "\x02").Replace(string(data))
	s = rtfTables.ReplaceAllString(s, "")
	s = rtfGroupDest.ReplaceAllString(s, "")
	s = rtfHexEscape.ReplaceAllString(s, "")
	s = rtfParagraph.ReplaceAllString(s, "\n")
	s = rtfControlWord.ReplaceAllString(s, "")
	s = rtfBraces.ReplaceAllString(s, "")
	s = strings.NewReplacer("\x00", `\`, "\x01", "{", "\x02", "}").Replace(s)
	return strings.TrimSpace(s) + rtfNote, nil
}
