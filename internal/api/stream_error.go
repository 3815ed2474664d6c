package api

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/example/genai-gateway/internal/failure"
)

// StreamErrorSentinel marks an in-band error notice in a plain-text stream.
// Anything before it is valid, possibly partial, output.
const StreamErrorSentinel = "[[STREAM_ERROR]]"

// RenderStreamError serializes e as the sentinel followed by an HTML
// paragraph. Only the user-facing message is written; Detail never is.
func RenderStreamError(e *failure.ClassifiedError) string {
	msg := "An unexpected error occurred."
	if e != nil && e.Message != "" {
		msg = e.Message
	}
	p := &html.Node{
		Type:     html.ElementNode,
		Data:     "p",
		DataAtom: atom.P,
		Attr:     []html.Attribute{{Key: "class", Val: "stream-error"}},
	}
	p.AppendChild(&html.Node{Type: html.TextNode, Data: msg})

	var b strings.Builder
	b.WriteString(StreamErrorSentinel)
	if err := html.Render(&b, p); err != nil {
		// strings.Builder does not fail; keep the notice readable regardless
		b.WriteString(html.EscapeString(msg))
	}
	return b.String()
}
