package graw

import (
	"github.com/jamesprial/go-reddit-media/internal"
	"github.com/jamesprial/go-reddit-media/pkg/types"
)

// CommentTree provides utility methods for working with nested comments as
// returned by GetComments.
type CommentTree interface {
	Flatten() []*types.Comment
	Filter(func(*types.Comment) bool) []*types.Comment
	GetByID(string) *types.Comment
	GetByAuthor(string) []*types.Comment
	GetDepth() int
	Count() int
	Walk(func(c *types.Comment, level int) bool)
}

// NewCommentTree creates a new CommentTree from top-level comments.
func NewCommentTree(comments []*types.Comment) CommentTree {
	return internal.NewCommentTree(comments)
}
