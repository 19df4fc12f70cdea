package graw

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jamesprial/go-reddit-media/pkg/media"
	"github.com/jamesprial/go-reddit-media/pkg/types"
)

// Media resolves the media attached to post. Native Reddit media is
// preferred over the outbound URL, which is preferred over an embedded
// iframe. A post without recognizable media yields an empty, successful
// result.
func (c *Client) Media(ctx context.Context, post *types.Post) types.Result[[]media.Item] {
	d, ok := media.ForSubmission(post)
	if !ok {
		return types.Ok([]media.Item{})
	}
	return c.resolver.Resolve(ctx, d)
}

// Resolve resolves a descriptor obtained from media.Classify or
// media.ForSubmission.
func (c *Client) Resolve(ctx context.Context, d media.Descriptor) types.Result[[]media.Item] {
	return c.resolver.Resolve(ctx, d)
}

// ResolveAll resolves the media of every post concurrently, at most
// Config.ResolveConcurrency at a time. Results are in post order and
// independent: one failing post does not cancel the others.
func (c *Client) ResolveAll(ctx context.Context, posts []*types.Post) []types.Result[[]media.Item] {
	results := make([]types.Result[[]media.Item], len(posts))

	var g errgroup.Group
	g.SetLimit(c.config.ResolveConcurrency)
	for i, post := range posts {
		g.Go(func() error {
			results[i] = c.Media(ctx, post)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
