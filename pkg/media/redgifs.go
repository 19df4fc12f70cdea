package media

import "net/url"

// redgifs builds the HD playlist URL directly; the playlist endpoint serves
// any gif by id so no lookup is needed.
func (r *Resolver) redgifs(id string) Item {
	return Video(r.endpoints.RedgifsAPI + "/v2/gifs/" + url.PathEscape(id) + "/hd.m3u8")
}
