// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package offline

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/zconvert/internal/convert"
)

func zipPackage(t *testing.T, name, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const sampleDocx = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Quarterly Report</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Revenue grew </w:t></w:r><w:r><w:t>&lt;fast&gt;</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t>Line one</w:t><w:br/><w:t>Line two</w:t></w:r></w:p>
</w:body>
</w:document>`

const sampleODT = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0">
<office:body><office:text>
<text:h text:outline-level="1">Title</text:h>
<text:p>First<text:s text:c="2"/>paragraph with <text:span>span</text:span>.</text:p>
<text:p>Second<text:tab/>tabbed</text:p>
</office:text></office:body>
</office:document-content>`

func TestCheck(t *testing.T) {
	tests := []struct {
		src, dst       string
		serverRequired bool
		notSupported   bool
	}{
		{src: "docx", dst: "html"},
		{src: "docx", dst: "txt"},
		{src: "html", dst: "txt"},
		{src: "html", dst: "md"},
		{src: "txt", dst: "html"},
		{src: "txt", dst: "md"},
		{src: "md", dst: "html"},
		{src: "md", dst: "txt"},
		{src: "rtf", dst: "txt"},
		{src: "odt", dst: "txt"},
		{src: "pdf", dst: "txt", serverRequired: true},
		{src: "docx", dst: "pdf", serverRequired: true},
		{src: "txt", dst: "epub", serverRequired: true},
		{src: "docx", dst: "odt", notSupported: true},
		{src: "png", dst: "jpg", notSupported: true},
		{src: "rtf", dst: "html", notSupported: true},
	}
	for _, tt := range tests {
		t.Run(tt.src+"_"+tt.dst, func(t *testing.T) {
			err := Check(tt.src, tt.dst)
			switch {
			case tt.serverRequired:
				require.ErrorIs(t, err, ErrServerRequired)
				assert.ErrorIs(t, err, convert.ErrUnsupportedConversion)
			case tt.notSupported:
				var nse *NotSupportedError
				require.ErrorAs(t, err, &nse)
				assert.ErrorIs(t, err, convert.ErrUnsupportedConversion)
				assert.NotErrorIs(t, err, ErrServerRequired)
			default:
				require.NoError(t, err)
				assert.True(t, Supported(tt.src, tt.dst))
			}
		})
	}
}

func TestConvertRejectsBeforeReading(t *testing.T) {
	// Invalid input data is never looked at for a rejected pair.
	_, err := Convert("report.pdf", []byte("not a pdf"), "txt")
	require.ErrorIs(t, err, ErrServerRequired)

	_, err = Convert("report.docx", nil, "odt")
	var nse *NotSupportedError
	require.ErrorAs(t, err, &nse)
	assert.Equal(t, "conversion from docx to odt is not supported offline", nse.Error())
}

func TestConvertTextPairs(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		input    string
		target   string
		contains []string
		excludes []string
		mime     string
	}{
		{
			name: "txt to html escapes", file: "notes.txt", input: "a < b & c", target: "html",
			contains: []string{"<title>notes.txt</title>", "a &lt; b &amp; c"},
			mime:     "text/html",
		},
		{
			name: "txt to md passes through", file: "notes.txt", input: "# Heading\n- item", target: "md",
			contains: []string{"# Heading\n- item"},
		},
		{
			name: "html to txt breaks blocks", file: "page.html", target: "txt",
			input:    `<html><head><title>T</title><style>p{}</style></head><body><h1>Title</h1><p>One <b>bold</b></p><ul><li>a</li><li>b</li></ul><script>x()</script></body></html>`,
			contains: []string{"Title\nOne bold\n", "• a\n• b"},
			excludes: []string{"x()", "p{}"},
		},
		{
			name: "html to md", file: "page.html", target: "md",
			input:    `<h1>Title</h1><p>Some <strong>bold</strong> text</p>`,
			contains: []string{"# Title", "**bold**"},
		},
		{
			name: "md to html", file: "readme.md", target: "html",
			input:    "# Title\n**bold** and *em*\n* one\n* two",
			contains: []string{"<h1>Title</h1>", "<strong>bold</strong>", "<em>em</em>", "<ul><li>one</li>"},
		},
		{
			name: "md to html neutralises raw html", file: "readme.md", target: "html",
			input:    "<script>alert(1)</script>",
			contains: []string{"&lt;script&gt;"},
			excludes: []string{"<script>"},
		},
		{
			name: "md to txt", file: "readme.md", target: "txt",
			input:    "## Title\n**bold** and *em*\n* one\n1. first",
			contains: []string{"Title\nbold and em\n• one\nfirst"},
		},
		{
			name: "rtf to txt", file: "letter.rtf", target: "txt",
			input:    `{\rtf1\ansi{\fonttbl{\f0 Arial;}}\f0\fs24 Hello \b world\b0\par Second line \{braced\}}`,
			contains: []string{"Hello world\nSecond line {braced}", "RTF conversion is limited"},
			excludes: []string{"Arial", `\fs24`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Convert(tt.file, []byte(tt.input), tt.target)
			require.NoError(t, err)
			assert.True(t, res.Degraded)
			assert.Equal(t, DegradedNotice, res.Notice)
			if tt.mime != "" {
				assert.True(t, strings.HasPrefix(res.MIMEType, tt.mime), res.MIMEType)
			}
			out := string(res.Data)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, bad := range tt.excludes {
				assert.NotContains(t, out, bad)
			}
		})
	}
}

func TestConvertDocx(t *testing.T) {
	pkg := zipPackage(t, docxBody, sampleDocx)

	res, err := Convert("report.docx", pkg, "html")
	require.NoError(t, err)
	out := string(res.Data)
	assert.Contains(t, out, "<h1>Quarterly Report</h1>")
	assert.Contains(t, out, "<p>Revenue grew &lt;fast&gt;</p>")
	assert.Contains(t, out, "<p>Line one<br>Line two</p>")
	assert.NotContains(t, out, "<p></p>")

	res, err = Convert("report.docx", pkg, "txt")
	require.NoError(t, err)
	assert.Equal(t, "Quarterly Report\n\nRevenue grew <fast>\n\nLine one\nLine two", string(res.Data))
}

func TestConvertDocxInvalid(t *testing.T) {
	_, err := Convert("report.docx", []byte("plain text"), "txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a document package")

	_, err = Convert("report.docx", zipPackage(t, "other.xml", "<x/>"), "txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), docxBody)
}

func TestConvertODT(t *testing.T) {
	res, err := Convert("doc.odt", zipPackage(t, odtBody, sampleODT), "txt")
	require.NoError(t, err)
	out := string(res.Data)
	assert.True(t, strings.HasPrefix(out, "Title\nFirst  paragraph with span.\nSecond\ttabbed"), out)
	assert.Contains(t, out, "ODT conversion is limited")
}
