package htmlsanitize

import (
	"strings"
	"testing"

	"github.com/dalemusser/stratasim/internal/domain/models"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:  "empty string",
			input: "",
		},
		{
			name:     "plain text",
			input:    "Disease Simulation App",
			contains: []string{"Disease Simulation App"},
		},
		{
			name:     "safe HTML preserved",
			input:    "<p>Hello <strong>World</strong></p>",
			contains: []string{"<p>", "<strong>", "Hello", "World"},
		},
		{
			name:     "entity decoded",
			input:    "App &copy; 2024",
			contains: []string{"App © 2024"},
		},
		{
			name:     "script tag removed",
			input:    "<p>Hello</p><script>alert('xss')</script>",
			contains: []string{"<p>Hello</p>"},
			excludes: []string{"<script>", "alert"},
		},
		{
			name:     "onclick removed",
			input:    `<p onclick="alert('xss')">Click me</p>`,
			contains: []string{"<p>", "Click me"},
			excludes: []string{"onclick"},
		},
		{
			name:     "javascript URL removed",
			input:    `<a href="javascript:alert('xss')">Link</a>`,
			contains: []string{"Link"},
			excludes: []string{"javascript:"},
		},
		{
			name:     "external link opens in new tab",
			input:    `<a href="https://example.com">Link</a>`,
			contains: []string{`href="https://example.com"`, `target="_blank"`},
		},
		{
			name:     "iframe removed",
			input:    `<iframe src="https://evil.com"></iframe><p>Content</p>`,
			contains: []string{"<p>Content</p>"},
			excludes: []string{"<iframe", "evil.com"},
		},
		{
			name:     "style tag removed",
			input:    "<style>body{display:none}</style><p>Content</p>",
			contains: []string{"<p>Content</p>"},
			excludes: []string{"<style>", "display:none"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.input)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, missing %q", tt.input, got, want)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("Sanitize(%q) = %q, should not contain %q", tt.input, got, bad)
				}
			}
		})
	}
}

func TestSanitize_DefaultSiteText(t *testing.T) {
	for _, in := range []string{models.DefaultAboutHTML, models.DefaultFooterHTML} {
		if got := Sanitize(in); got != in {
			t.Errorf("Sanitize changed default text:\n got %q\nwant %q", got, in)
		}
	}
}

func TestIsPlainText(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"just words", true},
		{"a < b", true},
		{"<p>x</p>", false},
	}
	for _, tt := range tests {
		if got := IsPlainText(tt.in); got != tt.want {
			t.Errorf("IsPlainText(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPlainTextToHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"one", "<p>one</p>"},
		{"one\ntwo", "<p>one<br>two</p>"},
		{"one\n\ntwo", "<p>one</p><p>two</p>"},
		{"a < b & c", "<p>a &lt; b &amp; c</p>"},
		{"one\r\n\r\ntwo\n", "<p>one</p><p>two</p>"},
	}
	for _, tt := range tests {
		if got := PlainTextToHTML(tt.in); got != tt.want {
			t.Errorf("PlainTextToHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrepareForDisplay(t *testing.T) {
	if got := PrepareForDisplay(""); got != "" {
		t.Errorf("PrepareForDisplay(\"\") = %q, want empty", got)
	}
	if got := string(PrepareForDisplay("plain")); got != "<p>plain</p>" {
		t.Errorf("PrepareForDisplay(plain) = %q", got)
	}
	got := string(PrepareForDisplay("<p>ok</p><script>x</script>"))
	if got != "<p>ok</p>" {
		t.Errorf("PrepareForDisplay(html) = %q, want %q", got, "<p>ok</p>")
	}
}
