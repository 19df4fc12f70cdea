package media

import (
	"context"
	"net/url"

	"github.com/jamesprial/go-reddit-media/internal"
	pkgerrs "github.com/jamesprial/go-reddit-media/pkg/errors"
	"github.com/jamesprial/go-reddit-media/pkg/types"
)

type streamableFile struct {
	URL    string `json:"url"`
	Width  *int   `json:"width"`
	Height *int   `json:"height"`
}

type streamableVideo struct {
	Title string `json:"title"`
	Files struct {
		MP4 *streamableFile `json:"mp4"`
	} `json:"files"`
}

// streamable fetches the video metadata and returns its MP4 rendition.
func (r *Resolver) streamable(ctx context.Context, id string) types.Result[[]Item] {
	endpoint := r.endpoints.StreamableAPI + "/videos/" + url.PathEscape(id)
	r.logger.Debug("media hop", "provider", ProviderStreamable, "url", endpoint)

	video := internal.Perform[streamableVideo](internal.Get(ctx, r.client, endpoint, r.userAgent))
	return types.Then(video, func(v streamableVideo) types.Result[[]Item] {
		mp4 := v.Files.MP4
		if mp4 == nil || mp4.URL == "" {
			return types.Fail[[]Item](&pkgerrs.DecodeError{
				Op:      "streamable",
				Message: "missing mp4 file variant",
			})
		}
		return types.Ok([]Item{Video(absoluteURL(mp4.URL)).WithReportedSize(mp4.Width, mp4.Height)})
	})
}

// absoluteURL upgrades protocol-relative URLs, which Streamable returns for
// some files, to https.
func absoluteURL(u string) string {
	if len(u) > 2 && u[:2] == "//" {
		return "https:" + u
	}
	return u
}
