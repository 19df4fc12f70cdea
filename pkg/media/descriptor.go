// Package media classifies Reddit submissions into provider-specific media
// descriptors and resolves those descriptors into playable items.
//
// Classification is pure and never touches the network. Resolution may issue
// HTTP requests depending on the provider:
//
//	d, ok := media.Classify("https://streamable.com/abcd1")
//	if ok {
//		items, err := resolver.Resolve(ctx, d).Get()
//		...
//	}
package media

// Provider names reported by Descriptor.Provider.
const (
	ProviderRedditGallery = "reddit_gallery"
	ProviderRedditVideo   = "reddit_video"
	ProviderStreamable    = "streamable"
	ProviderImgurAlbum    = "imgur_album"
	ProviderImgurMedia    = "imgur_media"
	ProviderRedgifs       = "redgifs"
)

// Descriptor identifies the media attached to a submission before it is
// resolved. The set of implementations is closed: NativeGallery,
// NativeVideo, Streamable, ImgurAlbum, ImgurMedia and Redgifs.
type Descriptor interface {
	// Provider returns the stable provider name, e.g. "streamable".
	Provider() string
	descriptor()
}

// NativeGallery is a Reddit-hosted gallery or single image.
type NativeGallery struct {
	ImageURLs []string
}

// NativeVideo is a Reddit-hosted video stream.
type NativeVideo struct {
	StreamURL string
}

// Streamable is a streamable.com video.
type Streamable struct {
	VideoID string
}

// ImgurAlbum is an imgur.com/a/ album.
type ImgurAlbum struct {
	AlbumID string
}

// ImgurMedia is a single Imgur image or video.
type ImgurMedia struct {
	MediaID string
}

// Redgifs is a redgifs.com watch page.
type Redgifs struct {
	GifID string
}

func (NativeGallery) Provider() string { return ProviderRedditGallery }
func (NativeVideo) Provider() string   { return ProviderRedditVideo }
func (Streamable) Provider() string    { return ProviderStreamable }
func (ImgurAlbum) Provider() string    { return ProviderImgurAlbum }
func (ImgurMedia) Provider() string    { return ProviderImgurMedia }
func (Redgifs) Provider() string       { return ProviderRedgifs }

func (NativeGallery) descriptor() {}
func (NativeVideo) descriptor()   {}
func (Streamable) descriptor()    {}
func (ImgurAlbum) descriptor()    {}
func (ImgurMedia) descriptor()    {}
func (Redgifs) descriptor()       {}
