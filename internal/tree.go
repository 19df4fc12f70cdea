package internal

import "github.com/jamesprial/go-reddit-media/pkg/types"

// CommentTree provides traversal helpers over comments with nested replies.
type CommentTree struct {
	Comments []*types.Comment
}

// NewCommentTree creates a new CommentTree from top-level comments.
func NewCommentTree(comments []*types.Comment) *CommentTree {
	return &CommentTree{Comments: comments}
}

// Walk calls fn for every comment in depth-first order with its nesting
// level, starting at 0. Returning false from fn skips that comment's replies.
func (ct *CommentTree) Walk(fn func(c *types.Comment, level int) bool) {
	walk(ct.Comments, 0, fn)
}

func walk(comments []*types.Comment, level int, fn func(*types.Comment, int) bool) {
	for _, comment := range comments {
		if comment == nil {
			continue
		}
		if fn(comment, level) && len(comment.Replies) > 0 {
			walk(comment.Replies, level+1, fn)
		}
	}
}

// Flatten returns all comments in the tree as a flat slice.
func (ct *CommentTree) Flatten() []*types.Comment {
	var result []*types.Comment
	ct.Walk(func(c *types.Comment, _ int) bool {
		result = append(result, c)
		return true
	})
	return result
}

// Filter returns comments that match the given filter function.
func (ct *CommentTree) Filter(keep func(*types.Comment) bool) []*types.Comment {
	var result []*types.Comment
	ct.Walk(func(c *types.Comment, _ int) bool {
		if keep(c) {
			result = append(result, c)
		}
		return true
	})
	return result
}

// GetByID returns a comment by its ID, or nil.
func (ct *CommentTree) GetByID(id string) *types.Comment {
	var found *types.Comment
	ct.Walk(func(c *types.Comment, _ int) bool {
		if found == nil && c.ID == id {
			found = c
		}
		return found == nil
	})
	return found
}

// GetByAuthor returns all comments by a specific author.
func (ct *CommentTree) GetByAuthor(author string) []*types.Comment {
	return ct.Filter(func(c *types.Comment) bool {
		return c.Author == author
	})
}

// GetDepth returns the maximum nesting level, 0 for a flat tree.
func (ct *CommentTree) GetDepth() int {
	depth := 0
	ct.Walk(func(_ *types.Comment, level int) bool {
		depth = max(depth, level)
		return true
	})
	return depth
}

// Count returns the total number of comments in the tree.
func (ct *CommentTree) Count() int {
	return len(ct.Flatten())
}
