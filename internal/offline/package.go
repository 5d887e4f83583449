// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package offline

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
)

// Office documents are zip packages with the body in one XML part.
const (
	docxBody = "word/document.xml"
	odtBody  = "content.xml"

	wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	textNS = "urn:oasis:names:tc:opendocument:xmlns:text:1.0"

	maxPartSize = 64 << 20
)

const odtNote = "\n\n[Note: ODT conversion is limited. For better results, convert with the server.]"

// paragraph is one block of extracted text. Level is 1-6 for headings and
// 0 for body text.
type paragraph struct {
	Level int
	Text  string
}

func readPart(data []byte, name string) ([]byte, error) {
	if len(data) == 0 {
		return nil, errEmptyInput
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("not a document package: %w", err)
	}
	f, err := zr.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	part, err := io.ReadAll(io.LimitReader(f, maxPartSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if len(part) > maxPartSize {
		return nil, errors.New(name + " is too large")
	}
	return part, nil
}

// docxParagraphs walks w:p elements collecting w:t runs. Heading styles
// (Heading1..Heading6, Title) set the paragraph level.
func docxParagraphs(data []byte) ([]paragraph, error) {
	part, err := readPart(data, docxBody)
	if err != nil {
		return nil, err
	}

	var (
		out    []paragraph
		cur    strings.Builder
		level  int
		inPara bool
		inText bool
	)
	dec := xml.NewDecoder(bytes.NewReader(part))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", docxBody, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				inPara, level = true, 0
				cur.Reset()
			case "pStyle":
				level = headingLevel(attr(t, "val"))
			case "t":
				inText = true
			case "tab":
				if inPara {
					cur.WriteByte('\t')
				}
			case "br", "cr":
				if inPara {
					cur.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				out = append(out, paragraph{Level: level, Text: cur.String()})
				inPara = false
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	return out, nil
}

func headingLevel(style string) int {
	if style == "Title" {
		return 1
	}
	if n, ok := strings.CutPrefix(style, "Heading"); ok {
		if lvl, err := strconv.Atoi(n); err == nil && lvl >= 1 && lvl <= 6 {
			return lvl
		}
	}
	return 0
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func docxToHTML(name string, data []byte) (string, error) {
	paras, err := docxParagraphs(data)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, p := range paras {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		tag := "p"
		if p.Level > 0 {
			tag = "h" + strconv.Itoa(p.Level)
		}
		text := strings.ReplaceAll(html.EscapeString(p.Text), "\n", "<br>")
		fmt.Fprintf(&b, "<%s>%s</%s>", tag, text, tag)
	}
	return htmlPage(name, proseStyle, sanitizer.Sanitize(b.String())), nil
}

func docxToText(_ string, data []byte) (string, error) {
	paras, err := docxParagraphs(data)
	if err != nil {
		return "", err
	}
	var lines []string
	for _, p := range paras {
		if strings.TrimSpace(p.Text) != "" {
			lines = append(lines, p.Text)
		}
	}
	return strings.Join(lines, "\n\n"), nil
}

// odtToText collects the text of text:p and text:h elements, one per line.
func odtToText(_ string, data []byte) (string, error) {
	part, err := readPart(data, odtBody)
	if err != nil {
		return "", err
	}

	var (
		lines []string
		cur   strings.Builder
		depth int
	)
	dec := xml.NewDecoder(bytes.NewReader(part))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parsing %s: %w", odtBody, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != textNS {
				continue
			}
			switch t.Name.Local {
			case "p", "h":
				if depth == 0 {
					cur.Reset()
				}
				depth++
			case "tab":
				cur.WriteByte('\t')
			case "line-break":
				cur.WriteByte('\n')
			case "s":
				n, err := strconv.Atoi(attr(t, "c"))
				if err != nil || n < 1 {
					n = 1
				}
				cur.WriteString(strings.Repeat(" ", n))
			}
		case xml.EndElement:
			if t.Name.Space == textNS && (t.Name.Local == "p" || t.Name.Local == "h") {
				depth--
				if depth == 0 {
					lines = append(lines, cur.String())
				}
			}
		case xml.CharData:
			if depth > 0 {
				cur.Write(t)
			}
		}
	}

	text := strings.TrimSpace(strings.Join(lines, "\n"))
	if text == "" {
		text = "Unable to extract text from ODT file"
	}
	return text + odtNote, nil
}
