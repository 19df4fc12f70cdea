package media

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jamesprial/go-reddit-media/pkg/types"
)

// FromEmbed classifies the iframe source inside a submission's
// secure_media_embed block. Reddit escapes the embed HTML once, so it is
// unescaped before parsing.
func FromEmbed(post *types.Post) (Descriptor, bool) {
	if post == nil || post.SecureMediaEmbed.Content == "" {
		return nil, false
	}
	for _, src := range embedSources(html.UnescapeString(post.SecureMediaEmbed.Content)) {
		if d, ok := Classify(src); ok {
			return d, true
		}
	}
	return nil, false
}

// embedSources returns every iframe src in fragment, in document order.
func embedSources(fragment string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil
	}
	var srcs []string
	doc.Find("iframe").Each(func(_ int, s *goquery.Selection) {
		if src, exists := s.Attr("src"); exists && src != "" {
			srcs = append(srcs, html.UnescapeString(src))
		}
	})
	return srcs
}

// ForSubmission picks the descriptor for a submission: native Reddit media
// first, then the outbound URL, then an embedded iframe. It reports false
// when the submission has no recognizable media.
func ForSubmission(post *types.Post) (Descriptor, bool) {
	if post == nil {
		return nil, false
	}
	if d, ok := FromSubmission(post); ok {
		return d, true
	}
	if d, ok := Classify(post.OutboundURL()); ok {
		return d, true
	}
	if post.URLOverriddenByDest != "" && post.URL != post.URLOverriddenByDest {
		if d, ok := Classify(post.URL); ok {
			return d, true
		}
	}
	return FromEmbed(post)
}
