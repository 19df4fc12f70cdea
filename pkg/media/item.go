package media

import "fmt"

// Kind tells images and videos apart.
type Kind int

const (
	KindImage Kind = iota
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MarshalText encodes the kind as "image" or "video".
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "image":
		*k = KindImage
	case "video":
		*k = KindVideo
	default:
		return fmt.Errorf("unknown media kind %q", text)
	}
	return nil
}

// Item is one resolved, playable piece of media. Optional fields are nil
// when the provider does not report them.
type Item struct {
	Kind        Kind    `json:"kind"`
	URL         string  `json:"url"`
	Description *string `json:"description,omitempty"`
	Width       *int    `json:"width,omitempty"`
	Height      *int    `json:"height,omitempty"`
}

// Image returns an image item with no optional fields.
func Image(url string) Item {
	return Item{Kind: KindImage, URL: url}
}

// Video returns a video item with no optional fields.
func Video(url string) Item {
	return Item{Kind: KindVideo, URL: url}
}

// WithSize returns a copy of it carrying the given dimensions.
func (it Item) WithSize(width, height int) Item {
	it.Width = &width
	it.Height = &height
	return it
}

// WithReportedSize is WithSize for dimensions a provider may omit. The size
// is attached only when both are present.
func (it Item) WithReportedSize(width, height *int) Item {
	if width == nil || height == nil {
		return it
	}
	return it.WithSize(*width, *height)
}

// WithDescription returns a copy of it carrying desc. An empty desc leaves
// Description nil.
func (it Item) WithDescription(desc string) Item {
	if desc != "" {
		it.Description = &desc
	}
	return it
}
