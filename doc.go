// Package graw is a Reddit client focused on submissions and the media they
// carry.
//
// # Overview
//
// The client has three layers:
//
//   - pkg/media classifies a submission into a media descriptor (Reddit
//     gallery, Reddit video, Streamable, Imgur album or media, Redgifs) and
//     resolves descriptors into playable URLs.
//   - An authenticating transport attaches the session's bearer token and,
//     when Reddit answers 401 or 403, refreshes the token once and replays
//     the request.
//   - Client, in this package, fetches listings, comment threads, votes and
//     saves on top of that transport.
//
// # Quick Start
//
//	client, err := graw.NewClient(&graw.Config{
//		ClientID:  "your-client-id",
//		UserAgent: "web:myapp:1.0 (by /u/yourusername)",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	page, err := client.GetHot(ctx, &types.PostsRequest{Subreddit: "aww"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for i, res := range client.ResolveAll(ctx, page.Posts) {
//		items, err := res.Get()
//		if err != nil {
//			fmt.Printf("%s: %v\n", page.Posts[i].Title, err)
//			continue
//		}
//		for _, item := range items {
//			fmt.Printf("%s %s\n", item.Kind, item.URL)
//		}
//	}
//
// # Sessions
//
// A new client is logged out and reads the public ".json" pages of
// PublicBaseURL. To act on behalf of an account, send the user to
// AuthorizationURL and exchange the returned code:
//
//	authURL, state := client.AuthorizationURL()
//	// ... redirect, check state ...
//	creds, err := client.ExchangeCode(ctx, code)
//
// Stored credentials are restored with Login. An empty AccessToken is
// fetched from the refresh token on the first request. Set Config.OnRefresh
// to persist rotated tokens.
//
// Refreshes are not serialized. Two requests rejected at the same moment may
// both refresh; the last success is kept. A failed refresh never changes the
// stored token and the original 401 or 403 response is returned.
//
// # Media
//
// Media resolution prefers fields Reddit hosts itself (gallery metadata,
// reddit_video) over the outbound URL, and the outbound URL over an embedded
// iframe. Classification never touches the network:
//
//	d, ok := media.Classify("https://imgur.com/a/Ab12C")
//	// d == media.ImgurAlbum{AlbumID: "Ab12C"}
//
// Streamable costs one request. Imgur costs up to three (home page, script,
// API) because the public client id is scraped on every call.
//
// # Pagination
//
// Listing cursors are opaque fullnames. Pass AfterFullname back as After to
// get the next page; an empty AfterFullname marks the last page. Pager and
// PostIterator wrap that loop:
//
//	it := client.NewHotIterator(ctx, "golang").WithLimit(50)
//	posts, err := it.Collect(200)
//
// # Rate Limiting
//
// Requests to Reddit pass through a token bucket (60 per minute, burst 10 by
// default). Retry-After and the X-Ratelimit-* headers pause further requests
// until the window resets.
//
// # Error Handling
//
// Client methods return *ClientError wrapping one of the typed errors in
// pkg/errors. Media results carry the same types in types.Result:
//
//	var status *pkgerrs.StatusError
//	if errors.As(err, &status) && status.StatusCode == http.StatusNotFound {
//		// deleted or private
//	}
//
// # Logging
//
// Enable debug logging by providing a logger in the config:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//		Level: slog.LevelDebug,
//	}))
//
//	config := &graw.Config{
//		// ... other config ...
//		Logger: logger,
//	}
//
// For details of Reddit's endpoints see https://www.reddit.com/dev/api/.
package graw
