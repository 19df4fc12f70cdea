package media

import "regexp"

// matcher turns the first capture group of pattern into a descriptor.
type matcher struct {
	pattern *regexp.Regexp
	build   func(id string) Descriptor
}

// matchers are tried in order. The Imgur album pattern must precede the
// generic Imgur pattern, which also matches album URLs.
var matchers = []matcher{
	{
		pattern: regexp.MustCompile(`https?://(?:\w+\.)?streamable\.com/(\w+)`),
		build:   func(id string) Descriptor { return Streamable{VideoID: id} },
	},
	{
		pattern: regexp.MustCompile(`https?://imgur\.com/a/[^/]*?(\w+)(?:$|/)`),
		build:   func(id string) Descriptor { return ImgurAlbum{AlbumID: id} },
	},
	{
		pattern: regexp.MustCompile(`https?://(?:i\.)?imgur\.com/[^/]*?(\w+)(?:$|/|\.\w+)`),
		build:   func(id string) Descriptor { return ImgurMedia{MediaID: id} },
	},
	{
		pattern: regexp.MustCompile(`https?://(?:\w+\.)?redgifs\.com/watch/(\w+)`),
		build:   func(id string) Descriptor { return Redgifs{GifID: id} },
	},
}

// Classify maps an off-platform URL to its provider descriptor. It reports
// false when no provider pattern matches. Patterns are searched anywhere in
// the string, not anchored.
func Classify(rawURL string) (Descriptor, bool) {
	for _, m := range matchers {
		if sub := m.pattern.FindStringSubmatch(rawURL); len(sub) > 1 {
			return m.build(sub[1]), true
		}
	}
	return nil, false
}
