package media

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	pkgerrs "github.com/jamesprial/go-reddit-media/pkg/errors"
	"github.com/jamesprial/go-reddit-media/pkg/types"
)

const (
	DefaultStreamableAPI = "https://api.streamable.com"
	DefaultImgurHome     = "https://imgur.com/"
	DefaultImgurAPI      = "https://api.imgur.com"
	DefaultRedgifsAPI    = "https://api.redgifs.com"

	defaultTimeout = 30 * time.Second
)

// Endpoints are the provider base URLs. Zero fields take the defaults, which
// lets tests point individual providers at an httptest server.
type Endpoints struct {
	StreamableAPI string
	ImgurHome     string
	ImgurAPI      string
	RedgifsAPI    string
}

func (e Endpoints) withDefaults() Endpoints {
	if e.StreamableAPI == "" {
		e.StreamableAPI = DefaultStreamableAPI
	}
	if e.ImgurHome == "" {
		e.ImgurHome = DefaultImgurHome
	}
	if e.ImgurAPI == "" {
		e.ImgurAPI = DefaultImgurAPI
	}
	if e.RedgifsAPI == "" {
		e.RedgifsAPI = DefaultRedgifsAPI
	}
	e.StreamableAPI = strings.TrimRight(e.StreamableAPI, "/")
	e.ImgurAPI = strings.TrimRight(e.ImgurAPI, "/")
	e.RedgifsAPI = strings.TrimRight(e.RedgifsAPI, "/")
	return e
}

// Resolver turns descriptors into playable items. It is safe for concurrent
// use and holds no per-request state.
type Resolver struct {
	client    *http.Client
	endpoints Endpoints
	userAgent string
	logger    *slog.Logger
}

// NewResolver creates a Resolver. A nil client gets a 30 second timeout and
// a nil logger discards output.
func NewResolver(client *http.Client, endpoints Endpoints, userAgent string, logger *slog.Logger) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{
		client:    client,
		endpoints: endpoints.withDefaults(),
		userAgent: userAgent,
		logger:    logger,
	}
}

// Resolve fetches the items behind d. Native and Redgifs descriptors never
// touch the network; Streamable takes one request and Imgur up to three.
func (r *Resolver) Resolve(ctx context.Context, d Descriptor) types.Result[[]Item] {
	var res types.Result[[]Item]
	switch d := d.(type) {
	case NativeGallery:
		items := make([]Item, 0, len(d.ImageURLs))
		for _, u := range d.ImageURLs {
			items = append(items, Image(u))
		}
		res = types.Ok(items)
	case NativeVideo:
		res = types.Ok([]Item{Video(d.StreamURL)})
	case Redgifs:
		res = types.Ok([]Item{r.redgifs(d.GifID)})
	case Streamable:
		res = r.streamable(ctx, d.VideoID)
	case ImgurAlbum:
		res = r.imgur(ctx, imgurAlbums, d.AlbumID)
	case ImgurMedia:
		res = r.imgur(ctx, imgurMedia, d.MediaID)
	case nil:
		return types.Fail[[]Item](&pkgerrs.StateError{Operation: "resolve", Message: "nil descriptor"})
	default:
		return types.Fail[[]Item](&pkgerrs.StateError{
			Operation: "resolve",
			Message:   fmt.Sprintf("unsupported descriptor %T", d),
		})
	}

	if err := res.Err(); err != nil {
		r.logger.Debug("media resolve failed", "provider", d.Provider(), "error", err)
	} else {
		items, _ := res.Value()
		r.logger.Debug("media resolved", "provider", d.Provider(), "items", len(items))
	}
	return res
}
