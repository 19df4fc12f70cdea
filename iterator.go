package graw

import (
	"context"
	"errors"

	"github.com/jamesprial/go-reddit-media/pkg/types"
)

// MaxPageSize is the largest page Reddit serves for a listing.
const MaxPageSize = 100

// ErrNoMorePosts is returned by PostIterator.Next after the last post.
var ErrNoMorePosts = errors.New("no more posts available")

// Page is one page of posts. NextCursor is opaque and empty on the last page.
type Page struct {
	Items      []*types.Post
	NextCursor string
}

// Pager serves pages of posts. An empty cursor requests the first page;
// cursors are handed back verbatim from Page.NextCursor.
type Pager interface {
	RequestPage(ctx context.Context, cursor string, pageSize int) types.Result[Page]
}

// FeedPager pages through a subreddit listing, or the front page when
// Subreddit is empty.
type FeedPager struct {
	client     *Client
	Subreddit  string
	Sort       string
	TimeFilter string
}

// Feed returns a Pager over a listing. An empty sort means hot.
func (c *Client) Feed(subreddit, sort string) *FeedPager {
	if sort == "" {
		sort = SortHot
	}
	return &FeedPager{client: c, Subreddit: subreddit, Sort: sort}
}

// RequestPage implements Pager.
func (f *FeedPager) RequestPage(ctx context.Context, cursor string, pageSize int) types.Result[Page] {
	resp, err := f.client.GetListing(ctx, f.Sort, &types.PostsRequest{
		Subreddit:  f.Subreddit,
		TimeFilter: f.TimeFilter,
		Pagination: types.Pagination{Limit: clampPageSize(pageSize), After: cursor},
	})
	if err != nil {
		return types.Fail[Page](err)
	}
	return types.Ok(Page{Items: resp.Posts, NextCursor: resp.AfterFullname})
}

func clampPageSize(n int) int {
	return min(max(n, 1), MaxPageSize)
}

// PostIterator walks every post of a Pager, fetching pages on demand.
type PostIterator struct {
	pager     Pager
	pageSize  int
	buffer    []*types.Post
	bufferIdx int
	cursor    string
	hasMore   bool
	err       error
	ctx       context.Context
}

// NewPostIterator creates an iterator over pager with the largest page size.
func NewPostIterator(ctx context.Context, pager Pager) *PostIterator {
	return &PostIterator{
		pager:    pager,
		pageSize: MaxPageSize,
		hasMore:  true,
		ctx:      ctx,
	}
}

// NewHotIterator creates a new iterator for hot posts.
func (c *Client) NewHotIterator(ctx context.Context, subreddit string) *PostIterator {
	return NewPostIterator(ctx, c.Feed(subreddit, SortHot))
}

// NewNewIterator creates a new iterator for new posts.
func (c *Client) NewNewIterator(ctx context.Context, subreddit string) *PostIterator {
	return NewPostIterator(ctx, c.Feed(subreddit, SortNew))
}

// WithLimit sets the number of posts to fetch per request.
func (it *PostIterator) WithLimit(limit int) *PostIterator {
	it.pageSize = clampPageSize(limit)
	return it
}

// HasNext returns true if there may be more posts to iterate through.
func (it *PostIterator) HasNext() bool {
	if it.err != nil {
		return false
	}
	return it.bufferIdx < len(it.buffer) || it.hasMore
}

// Next returns the next post in the iteration. It returns ErrNoMorePosts
// once the pager is exhausted.
func (it *PostIterator) Next() (*types.Post, error) {
	for {
		if it.err != nil {
			return nil, it.err
		}

		if it.bufferIdx >= len(it.buffer) {
			if !it.hasMore {
				return nil, ErrNoMorePosts
			}
			page, err := it.pager.RequestPage(it.ctx, it.cursor, it.pageSize).Get()
			if err != nil {
				it.err = err
				return nil, err
			}

			it.buffer = page.Items
			it.bufferIdx = 0
			it.cursor = page.NextCursor

			// An empty page or cursor ends the listing.
			if len(page.Items) == 0 || page.NextCursor == "" {
				it.hasMore = false
			}
			continue
		}

		post := it.buffer[it.bufferIdx]
		it.bufferIdx++
		if post != nil {
			return post, nil
		}
	}
}

// Error returns any error encountered during iteration.
func (it *PostIterator) Error() error {
	return it.err
}

// Reset resets the iterator to start from the beginning.
func (it *PostIterator) Reset() {
	it.buffer = nil
	it.bufferIdx = 0
	it.cursor = ""
	it.hasMore = true
	it.err = nil
}

// Collect fetches all remaining posts up to maxPosts, or all of them when
// maxPosts is zero or negative.
func (it *PostIterator) Collect(maxPosts int) ([]*types.Post, error) {
	var posts []*types.Post
	for it.HasNext() && (maxPosts <= 0 || len(posts) < maxPosts) {
		post, err := it.Next()
		if errors.Is(err, ErrNoMorePosts) {
			break
		}
		if err != nil {
			return posts, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// TraversalOrder defines the order of tree traversal.
type TraversalOrder int

const (
	// DepthFirst traverses the tree depth-first (default).
	DepthFirst TraversalOrder = iota
	// BreadthFirst traverses the tree breadth-first.
	BreadthFirst
)

// TraversalOptions provides options for comment tree traversal.
type TraversalOptions struct {
	MaxDepth   int                       // Maximum depth to descend to, 0 = unlimited
	MinScore   int                       // Comments scoring below are skipped with their replies
	FilterFunc func(*types.Comment) bool // Comments rejected are skipped with their replies
	Order      TraversalOrder
}

type queuedComment struct {
	comment *types.Comment
	depth   int
}

// CommentIterator walks a nested comment tree without recursion.
type CommentIterator struct {
	pending []queuedComment
	visited map[string]bool
	options TraversalOptions
}

// NewCommentIterator creates an iterator over comments and their replies.
func NewCommentIterator(comments []*types.Comment, opts *TraversalOptions) *CommentIterator {
	it := &CommentIterator{visited: make(map[string]bool)}
	if opts != nil {
		it.options = *opts
	}
	it.push(comments, 0)
	return it
}

// push queues comments at depth. Depth-first pushes in reverse so the first
// comment is popped first.
func (it *CommentIterator) push(comments []*types.Comment, depth int) {
	if it.options.Order == BreadthFirst {
		for _, c := range comments {
			it.pending = append(it.pending, queuedComment{c, depth})
		}
		return
	}
	for i := len(comments) - 1; i >= 0; i-- {
		it.pending = append(it.pending, queuedComment{comments[i], depth})
	}
}

func (it *CommentIterator) pop() queuedComment {
	if it.options.Order == BreadthFirst {
		next := it.pending[0]
		it.pending = it.pending[1:]
		return next
	}
	next := it.pending[len(it.pending)-1]
	it.pending = it.pending[:len(it.pending)-1]
	return next
}

// Next returns the next comment and its depth, with 0 for top-level
// comments. ok is false once the tree is exhausted.
func (it *CommentIterator) Next() (comment *types.Comment, depth int, ok bool) {
	for len(it.pending) > 0 {
		next := it.pop()
		c := next.comment
		if c == nil || (c.ID != "" && it.visited[c.ID]) {
			continue
		}
		if c.ID != "" {
			it.visited[c.ID] = true
		}
		if it.options.MinScore > 0 && c.Score < it.options.MinScore {
			continue
		}
		if it.options.FilterFunc != nil && !it.options.FilterFunc(c) {
			continue
		}
		if it.options.MaxDepth == 0 || next.depth < it.options.MaxDepth {
			it.push(c.Replies, next.depth+1)
		}
		return c, next.depth, true
	}
	return nil, 0, false
}
