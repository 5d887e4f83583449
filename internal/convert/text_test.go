// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"hello world",
		"line one\nline two\n\n  indented",
		"a < b && c > d",
		"literal &amp; stays literal",
		"<script>alert(1)</script>",
		"unicode: żółć ✓",
	}
	for _, in := range inputs {
		assert.Equal(t, in, HTMLToText(TextToHTML(in)), "%q", in)
	}
}

func TestTextToHTML(t *testing.T) {
	got := TextToHTML("1 < 2")
	assert.Contains(t, got, "<!DOCTYPE html>")
	assert.Contains(t, got, `<meta charset="UTF-8">`)
	assert.Contains(t, got, "<pre>1 &lt; 2</pre>")
	assert.Contains(t, TextToHTML("R&D"), "<pre>R&amp;D</pre>")
}

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "tags stripped", in: "<p>Hello <b>world</b></p>", want: "Hello world"},
		{name: "script removed", in: "a<script type=\"x\">var x = 1;</script>b", want: "ab"},
		{name: "style removed", in: "<STYLE>p{}</STYLE>text", want: "text"},
		{name: "head removed", in: "<head><title>Doc</title></head>body", want: "body"},
		{name: "comment removed", in: "x<!-- hidden -->y", want: "xy"},
		{name: "entities", in: "a&nbsp;b &lt;c&gt; &amp;lt;", want: "a b <c> &lt;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTMLToText(tt.in))
		})
	}
}
