package media

import (
	"html"

	"github.com/jamesprial/go-reddit-media/pkg/types"
)

const (
	metadataValid    = "valid"
	metadataAnimated = "AnimatedImage"
	postHintImage    = "image"
)

// FromSubmission builds a descriptor from media Reddit hosts itself:
// galleries, hosted videos and single images. It reports false when the
// submission carries no native media.
func FromSubmission(post *types.Post) (Descriptor, bool) {
	if post == nil {
		return nil, false
	}
	if urls := galleryURLs(post); len(urls) > 0 {
		return NativeGallery{ImageURLs: urls}, true
	}
	if stream := videoURL(post); stream != "" {
		return NativeVideo{StreamURL: stream}, true
	}
	if post.PostHint == postHintImage {
		if u := post.OutboundURL(); u != "" {
			return NativeGallery{ImageURLs: []string{html.UnescapeString(u)}}, true
		}
	}
	return nil, false
}

// galleryURLs returns the gallery images in display order. Items whose
// metadata is missing, not yet processed or without a source are skipped.
func galleryURLs(post *types.Post) []string {
	if post.GalleryData == nil || len(post.MediaMetadata) == 0 {
		return nil
	}
	urls := make([]string, 0, len(post.GalleryData.Items))
	for _, item := range post.GalleryData.Items {
		meta, ok := post.MediaMetadata[item.MediaID]
		if !ok || meta.Status != metadataValid || meta.Source == nil {
			continue
		}
		if u := sourceURL(meta); u != "" {
			urls = append(urls, html.UnescapeString(u))
		}
	}
	return urls
}

func sourceURL(meta types.MediaMetadata) string {
	src := meta.Source
	if meta.Kind == metadataAnimated {
		if src.MP4 != "" {
			return src.MP4
		}
		if src.GIF != "" {
			return src.GIF
		}
	}
	return src.U
}

// videoURL prefers the HLS playlist and falls back to the progressive MP4.
func videoURL(post *types.Post) string {
	for _, m := range []*types.SecureMedia{post.SecureMedia, post.Media} {
		if m == nil || m.RedditVideo == nil {
			continue
		}
		v := m.RedditVideo
		if v.HLSURL != "" {
			return html.UnescapeString(v.HLSURL)
		}
		if v.FallbackURL != "" {
			return html.UnescapeString(v.FallbackURL)
		}
	}
	return ""
}
