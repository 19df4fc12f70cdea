package media

import (
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		want   Descriptor
		wantOK bool
	}{
		{name: "streamable", url: "https://streamable.com/abcd1", want: Streamable{VideoID: "abcd1"}, wantOK: true},
		{name: "streamable subdomain", url: "http://www.streamable.com/e9x7q", want: Streamable{VideoID: "e9x7q"}, wantOK: true},
		{name: "imgur album", url: "https://imgur.com/a/Ab12C", want: ImgurAlbum{AlbumID: "Ab12C"}, wantOK: true},
		{name: "imgur album trailing slash", url: "https://imgur.com/a/Ab12C/", want: ImgurAlbum{AlbumID: "Ab12C"}, wantOK: true},
		{name: "imgur album with slug", url: "https://imgur.com/a/funny-cats-Ab12C", want: ImgurAlbum{AlbumID: "Ab12C"}, wantOK: true},
		{name: "imgur direct image", url: "https://i.imgur.com/xyz123.jpg", want: ImgurMedia{MediaID: "xyz123"}, wantOK: true},
		{name: "imgur page", url: "https://imgur.com/xyz123", want: ImgurMedia{MediaID: "xyz123"}, wantOK: true},
		{name: "imgur gifv", url: "https://i.imgur.com/Qw9.gifv", want: ImgurMedia{MediaID: "Qw9"}, wantOK: true},
		{name: "redgifs", url: "https://www.redgifs.com/watch/happyblueduck", want: Redgifs{GifID: "happyblueduck"}, wantOK: true},
		{name: "redgifs bare host", url: "https://redgifs.com/watch/calmgreenfox", want: Redgifs{GifID: "calmgreenfox"}, wantOK: true},
		{name: "unanchored match", url: "see https://streamable.com/zz9 for details", want: Streamable{VideoID: "zz9"}, wantOK: true},
		{name: "unknown host", url: "https://example.com/x", wantOK: false},
		{name: "empty", url: "", wantOK: false},
		{name: "redgifs without watch", url: "https://redgifs.com/ifr/abc", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.url)
			if ok != tt.wantOK {
				t.Fatalf("Classify(%q) ok = %v, want %v", tt.url, ok, tt.wantOK)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Classify(%q) = %#v, want %#v", tt.url, got, tt.want)
			}
		})
	}
}

func TestClassify_AlbumNeverMedia(t *testing.T) {
	urls := []string{
		"https://imgur.com/a/one",
		"http://imgur.com/a/two/",
		"https://imgur.com/a/title-three",
	}
	for _, u := range urls {
		d, ok := Classify(u)
		if !ok {
			t.Fatalf("Classify(%q) did not match", u)
		}
		if _, isAlbum := d.(ImgurAlbum); !isAlbum {
			t.Errorf("Classify(%q) = %T, want ImgurAlbum", u, d)
		}
	}
}

func TestDescriptor_Provider(t *testing.T) {
	tests := []struct {
		d    Descriptor
		want string
	}{
		{NativeGallery{}, "reddit_gallery"},
		{NativeVideo{}, "reddit_video"},
		{Streamable{}, "streamable"},
		{ImgurAlbum{}, "imgur_album"},
		{ImgurMedia{}, "imgur_media"},
		{Redgifs{}, "redgifs"},
	}
	for _, tt := range tests {
		if got := tt.d.Provider(); got != tt.want {
			t.Errorf("%T.Provider() = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestKind_Text(t *testing.T) {
	for _, k := range []Kind{KindImage, KindVideo} {
		text, err := k.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v) error = %v", k, err)
		}
		var back Kind
		if err := back.UnmarshalText(text); err != nil || back != k {
			t.Errorf("UnmarshalText(%q) = %v, %v; want %v", text, back, err, k)
		}
	}
	var k Kind
	if err := k.UnmarshalText([]byte("audio")); err == nil {
		t.Error("UnmarshalText(audio) expected error")
	}
}
