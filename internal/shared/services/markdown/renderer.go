// Package markdown renders notification templates written in Markdown to
// HTML that is safe to embed in email bodies.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts Markdown to sanitized HTML.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.Linkify,
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	// mail clients drop most CSS, alignment on table cells is the only
	// presentation attribute kept
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("align").Matching(bluemonday.CellAlign).OnElements("td", "th")
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &Renderer{md: md, policy: policy}
}

func (r *Renderer) ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}
	return buf.String(), nil
}

func (r *Renderer) Sanitize(htmlContent string) string {
	return r.policy.Sanitize(htmlContent)
}

// ToHTMLSanitized renders source and strips anything the email policy does
// not allow.
func (r *Renderer) ToHTMLSanitized(source string) (string, error) {
	out, err := r.ToHTML(source)
	if err != nil {
		return "", err
	}
	return r.Sanitize(out), nil
}
