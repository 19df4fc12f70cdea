package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	graw "github.com/jamesprial/go-reddit-media"
	"github.com/jamesprial/go-reddit-media/pkg/media"
	"github.com/jamesprial/go-reddit-media/pkg/types"
)

func main() {
	// Get credentials from environment variables
	clientID := os.Getenv("REDDIT_CLIENT_ID")
	if clientID == "" {
		log.Fatal("REDDIT_CLIENT_ID environment variable is required")
	}

	// Route structured logs to stderr; adjust the level as needed.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	client, err := graw.NewClient(&graw.Config{
		ClientID:     clientID,
		ClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		UserAgent:    "example-bot/1.0 by YourUsername",
		Logger:       logger,
	})
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}

	// A saved refresh token logs the client in; without one it reads the
	// public pages.
	if refresh := os.Getenv("REDDIT_REFRESH_TOKEN"); refresh != "" {
		client.Login(graw.Credentials{RefreshToken: refresh})
	}

	ctx := context.Background()

	// Classification is offline.
	for _, u := range []string{
		"https://streamable.com/abcd1",
		"https://imgur.com/a/Ab12C",
		"https://i.imgur.com/xyz123.jpg",
		"https://www.redgifs.com/watch/happydog",
		"https://example.com/article",
	} {
		if d, ok := media.Classify(u); ok {
			fmt.Printf("%-45s %s %+v\n", u, d.Provider(), d)
		} else {
			fmt.Printf("%-45s no provider\n", u)
		}
	}

	// Get hot posts from r/pics and resolve their media
	hotPosts, err := client.GetHot(ctx, &types.PostsRequest{
		Subreddit:  "pics",
		Pagination: types.Pagination{Limit: 5},
	})
	if err != nil {
		log.Fatalf("Failed to get hot posts: %v", err)
	}

	fmt.Println("\nHot posts from r/pics:")
	for i, res := range client.ResolveAll(ctx, hotPosts.Posts) {
		post := hotPosts.Posts[i]
		fmt.Printf("%d. %s (score: %d, comments: %d)\n", i+1, post.Title, post.Score, post.NumComments)
		items, err := res.Get()
		if err != nil {
			fmt.Printf("   media failed: %s\n", res.Message())
			continue
		}
		for _, item := range items {
			fmt.Printf("   %s %s\n", item.Kind, item.URL)
		}
	}
	if hotPosts.AfterFullname != "" {
		fmt.Printf("Next page: %s\n", hotPosts.AfterFullname)
	}

	// Get subreddit info
	subredditInfo, err := client.GetSubreddit(ctx, "pics")
	if err != nil {
		log.Printf("Failed to get subreddit info: %v", err)
	} else {
		fmt.Printf("\nSubreddit: r/%s\n", subredditInfo.DisplayName)
		fmt.Printf("Subscribers: %d\n", subredditInfo.Subscribers)
	}

	if len(hotPosts.Posts) == 0 {
		return
	}

	// Comments for the first post, walked depth-first
	firstPost := hotPosts.Posts[0]
	comments, err := client.GetComments(ctx, &types.CommentsRequest{
		Subreddit:  "pics",
		PostID:     firstPost.ID,
		Pagination: types.Pagination{Limit: 20},
	})
	if err != nil {
		log.Fatalf("Failed to get comments: %v", err)
	}

	fmt.Printf("\nComments for post: %s\n", firstPost.Title)
	it := graw.NewCommentIterator(comments.Comments, &graw.TraversalOptions{MaxDepth: 2})
	for shown := 0; shown < 10; shown++ {
		c, depth, ok := it.Next()
		if !ok {
			break
		}
		fmt.Printf("%*s- %s: %.80s\n", depth*2, "", c.Author, c.Body)
	}

	// Load some of the truncated comments
	if len(comments.MoreIDs) > 0 {
		moreToLoad := comments.MoreIDs[:min(len(comments.MoreIDs), 10)]
		more, err := client.GetMoreComments(ctx, &types.MoreCommentsRequest{
			LinkID:     firstPost.ID,
			CommentIDs: moreToLoad,
		})
		if err != nil {
			log.Printf("Failed to load more comments: %v", err)
		} else {
			fmt.Printf("Loaded %d of %d truncated comments\n", len(more), len(comments.MoreIDs))
		}
	}

	// Page through r/pics with the iterator
	posts, err := client.NewNewIterator(ctx, "pics").WithLimit(25).Collect(60)
	if err != nil {
		log.Printf("Iterator stopped: %v", err)
	}
	fmt.Printf("\nCollected %d new posts\n", len(posts))
}
