package media

import (
	"context"
	"net/url"
	"regexp"

	"github.com/jamesprial/go-reddit-media/internal"
	pkgerrs "github.com/jamesprial/go-reddit-media/pkg/errors"
	"github.com/jamesprial/go-reddit-media/pkg/types"
)

// imgurCollection selects the post API path segment.
type imgurCollection string

const (
	imgurAlbums imgurCollection = "albums"
	imgurMedia  imgurCollection = "media"
)

var (
	imgurScriptPattern   = regexp.MustCompile(`https?://s\.imgur\.com/desktop-assets/js/main\.\w+\.js`)
	imgurClientIDPattern = regexp.MustCompile(`apiClientId: *"(\w+)`)
)

type imgurMediaItem struct {
	Type     string `json:"type"`
	URL      string `json:"url"`
	Width    *int   `json:"width"`
	Height   *int   `json:"height"`
	Metadata struct {
		Description string `json:"description"`
	} `json:"metadata"`
}

type imgurPost struct {
	ID    string           `json:"id"`
	Media []imgurMediaItem `json:"media"`
}

// imgur resolves an album or single media id. The public API client id is
// scraped from the desktop bundle on every call: home page, then script,
// then the post API. A failed hop ends the chain.
func (r *Resolver) imgur(ctx context.Context, collection imgurCollection, id string) types.Result[[]Item] {
	provider := ProviderImgurMedia
	if collection == imgurAlbums {
		provider = ProviderImgurAlbum
	}
	page := r.text(ctx, provider, r.endpoints.ImgurHome)

	script := types.Then(page, func(body string) types.Result[string] {
		src := imgurScriptPattern.FindString(body)
		if src == "" {
			return types.Fail[string](&pkgerrs.ExtractionError{Op: "imgur script", Message: "script not found"})
		}
		return r.text(ctx, provider, src)
	})

	clientID := types.Then(script, func(body string) types.Result[string] {
		m := imgurClientIDPattern.FindStringSubmatch(body)
		if len(m) < 2 {
			return types.Fail[string](&pkgerrs.ExtractionError{Op: "imgur client id", Message: "client id not found"})
		}
		return types.Ok(m[1])
	})

	post := types.Then(clientID, func(cid string) types.Result[imgurPost] {
		q := url.Values{}
		q.Set("client_id", cid)
		q.Set("include", "media")
		endpoint := r.endpoints.ImgurAPI + "/post/v1/" + string(collection) + "/" + url.PathEscape(id) + "?" + q.Encode()
		r.logger.Debug("media hop", "provider", provider, "url", endpoint)
		return internal.Perform[imgurPost](internal.Get(ctx, r.client, endpoint, r.userAgent))
	})

	return types.Map(post, func(p imgurPost) []Item {
		items := make([]Item, 0, len(p.Media))
		for _, m := range p.Media {
			item := Image(m.URL)
			if m.Type == "video" {
				item = Video(m.URL)
			}
			items = append(items, item.WithReportedSize(m.Width, m.Height).WithDescription(m.Metadata.Description))
		}
		return items
	})
}

func (r *Resolver) text(ctx context.Context, provider, endpoint string) types.Result[string] {
	r.logger.Debug("media hop", "provider", provider, "url", endpoint)
	return internal.PerformText(internal.Get(ctx, r.client, endpoint, r.userAgent))
}
