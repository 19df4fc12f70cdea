package internal

import (
	"bytes"
	"encoding/json"
	"fmt"

	pkgerrs "github.com/jamesprial/go-reddit-media/pkg/errors"
	"github.com/jamesprial/go-reddit-media/pkg/types"
)

const (
	kindListing   = "Listing"
	kindComment   = "t1"
	kindAccount   = "t2"
	kindLink      = "t3"
	kindSubreddit = "t5"
	kindMore      = "more"
)

// Parser handles parsing of Reddit API responses
type Parser struct{}

// NewParser creates a new parser instance
func NewParser() *Parser {
	return &Parser{}
}

func kindMismatch(want string, thing *types.Thing) error {
	if thing == nil {
		return &pkgerrs.DecodeError{Op: "parse", Message: "thing is nil"}
	}
	return &pkgerrs.DecodeError{Op: "parse", Message: fmt.Sprintf("expected %s, got %s", want, thing.Kind)}
}

func decodeData[T any](thing *types.Thing, label string) (*T, error) {
	var v T
	if err := json.Unmarshal(thing.Data, &v); err != nil {
		return nil, &pkgerrs.DecodeError{Op: "parse " + label, Message: fmt.Sprintf("failed to parse %s data: %v", label, err), Err: err}
	}
	return &v, nil
}

// ParseThing determines the type of a Thing and returns the appropriate typed struct.
func (p *Parser) ParseThing(thing *types.Thing) (any, error) {
	if thing == nil {
		return nil, kindMismatch("thing", nil)
	}

	switch thing.Kind {
	case kindListing:
		return p.ParseListing(thing)
	case kindComment:
		return p.ParseComment(thing)
	case kindAccount:
		return p.ParseAccount(thing)
	case kindLink:
		return p.ParseLink(thing)
	case kindSubreddit:
		return p.ParseSubreddit(thing)
	case kindMore:
		return p.ParseMore(thing)
	default:
		return nil, &pkgerrs.DecodeError{Op: "parse", Message: "unknown kind: " + thing.Kind}
	}
}

// ParseListing extracts a ListingData from a Thing of kind "Listing".
func (p *Parser) ParseListing(thing *types.Thing) (*types.ListingData, error) {
	if thing == nil || thing.Kind != kindListing {
		return nil, kindMismatch(kindListing, thing)
	}
	return decodeData[types.ListingData](thing, "Listing")
}

// ParseLink extracts a Post from a Thing of kind "t3".
func (p *Parser) ParseLink(thing *types.Thing) (*types.Post, error) {
	if thing == nil || thing.Kind != kindLink {
		return nil, kindMismatch("t3 (Link)", thing)
	}
	return decodeData[types.Post](thing, "Link")
}

// ParseComment extracts a Comment from a Thing of kind "t1", including its
// nested replies.
func (p *Parser) ParseComment(thing *types.Thing) (*types.Comment, error) {
	comment, _, err := p.parseComment(thing)
	return comment, err
}

func (p *Parser) parseComment(thing *types.Thing) (*types.Comment, []string, error) {
	if thing == nil || thing.Kind != kindComment {
		return nil, nil, kindMismatch("t1 (Comment)", thing)
	}

	comment, err := decodeData[types.Comment](thing, "Comment")
	if err != nil {
		return nil, nil, err
	}

	// replies is a Listing, or "" when there are none
	var rawData struct {
		Replies json.RawMessage `json:"replies"`
	}
	if err := json.Unmarshal(thing.Data, &rawData); err != nil || len(rawData.Replies) == 0 {
		return comment, nil, nil
	}
	if rawData.Replies[0] != '{' {
		return comment, nil, nil
	}

	var repliesThing types.Thing
	if err := json.Unmarshal(rawData.Replies, &repliesThing); err != nil {
		return comment, nil, nil
	}
	replies, moreIDs, err := p.ExtractComments(&repliesThing)
	if err == nil {
		comment.Replies = replies
	}
	return comment, moreIDs, nil
}

// ParseSubreddit extracts a SubredditData from a Thing of kind "t5".
func (p *Parser) ParseSubreddit(thing *types.Thing) (*types.SubredditData, error) {
	if thing == nil || thing.Kind != kindSubreddit {
		return nil, kindMismatch("t5 (Subreddit)", thing)
	}
	return decodeData[types.SubredditData](thing, "Subreddit")
}

// ParseAccount extracts an AccountData from a Thing of kind "t2".
func (p *Parser) ParseAccount(thing *types.Thing) (*types.AccountData, error) {
	if thing == nil || thing.Kind != kindAccount {
		return nil, kindMismatch("t2 (Account)", thing)
	}
	return decodeData[types.AccountData](thing, "Account")
}

// ParseMore extracts a MoreData from a Thing of kind "more".
func (p *Parser) ParseMore(thing *types.Thing) (*types.MoreData, error) {
	if thing == nil || thing.Kind != kindMore {
		return nil, kindMismatch(kindMore, thing)
	}
	return decodeData[types.MoreData](thing, "More")
}

// ExtractPosts extracts all Post objects from a listing Thing. Children that
// fail to decode are skipped.
func (p *Parser) ExtractPosts(listing *types.Thing) ([]*types.Post, error) {
	page, err := p.ExtractPostsPage(listing)
	if err != nil {
		return nil, err
	}
	return page.Posts, nil
}

// ExtractPostsPage extracts the posts of a listing along with its cursors.
func (p *Parser) ExtractPostsPage(listing *types.Thing) (*types.PostsResponse, error) {
	listingData, err := p.ParseListing(listing)
	if err != nil {
		return nil, err
	}

	posts := make([]*types.Post, 0, len(listingData.Children))
	for _, child := range listingData.Children {
		if child == nil || child.Kind != kindLink {
			continue
		}
		post, err := p.ParseLink(child)
		if err != nil {
			continue
		}
		posts = append(posts, post)
	}
	return &types.PostsResponse{
		Posts:          posts,
		AfterFullname:  listingData.AfterFullname,
		BeforeFullname: listingData.BeforeFullname,
	}, nil
}

// ExtractComments extracts the top-level comments of a comment listing (or a
// single t1) with their replies nested, plus the IDs of every truncated
// "more" stub found in the tree.
func (p *Parser) ExtractComments(thing *types.Thing) ([]*types.Comment, []string, error) {
	if thing == nil {
		return nil, nil, kindMismatch("Listing or t1", nil)
	}
	comments := make([]*types.Comment, 0)
	moreIDs := make([]string, 0)

	if thing.Kind == kindComment {
		comment, nested, err := p.parseComment(thing)
		if err != nil {
			return nil, nil, err
		}
		return append(comments, comment), append(moreIDs, nested...), nil
	}

	if thing.Kind != kindListing {
		return nil, nil, kindMismatch("Listing or t1", thing)
	}

	listingData, err := p.ParseListing(thing)
	if err != nil {
		return nil, nil, err
	}

	for _, child := range listingData.Children {
		if child == nil {
			continue
		}
		switch child.Kind {
		case kindComment:
			comment, nested, err := p.parseComment(child)
			if err != nil {
				continue
			}
			comments = append(comments, comment)
			moreIDs = append(moreIDs, nested...)
		case kindMore:
			more, err := p.ParseMore(child)
			if err != nil {
				continue
			}
			moreIDs = append(moreIDs, more.Children...)
		}
	}

	return comments, moreIDs, nil
}

// ExtractPostAndComments parses the typical response from GetComments which contains
// [post_listing, comments_listing]
func (p *Parser) ExtractPostAndComments(response []*types.Thing) (*types.Post, []*types.Comment, []string, error) {
	if len(response) == 0 {
		return nil, nil, nil, &pkgerrs.DecodeError{Op: "parse comments", Message: "empty response"}
	}

	// Reddit can return either:
	// 1. Two listings: [post_listing, comments_listing]
	// 2. One listing with just comments (when fetching comments for a specific post)

	if len(response) >= 2 {
		var post *types.Post
		posts, err := p.ExtractPosts(response[0])
		if err == nil && len(posts) > 0 {
			post = posts[0]
		}

		comments, moreIDs, err := p.ExtractComments(response[1])
		if err != nil {
			if post != nil {
				return post, nil, nil, &pkgerrs.DecodeError{Op: "parse comments", Message: "failed to extract comments: " + err.Error(), Err: err}
			}
			return nil, nil, nil, &pkgerrs.DecodeError{Op: "parse comments", Message: "failed to extract both post and comments"}
		}

		return post, comments, moreIDs, nil
	}

	comments, moreIDs, err := p.ExtractComments(response[0])
	if err != nil {
		posts, perr := p.ExtractPosts(response[0])
		if perr != nil || len(posts) == 0 {
			return nil, nil, nil, &pkgerrs.DecodeError{Op: "parse comments", Message: "failed to extract data from single listing: " + err.Error(), Err: err}
		}
		return posts[0], nil, nil, nil
	}

	return nil, comments, moreIDs, nil
}

// ParseCommentsResponse decodes the body of a comments endpoint, which is
// either an array of listings or a single listing object.
func (p *Parser) ParseCommentsResponse(body []byte) (*types.CommentsResponse, error) {
	body = bytes.TrimSpace(body)
	var things []*types.Thing

	switch {
	case len(body) > 0 && body[0] == '[':
		if err := json.Unmarshal(body, &things); err != nil {
			return nil, &pkgerrs.DecodeError{Op: "parse comments", Message: "failed to parse comments array response: " + err.Error(), Err: err}
		}
	case len(body) > 0 && body[0] == '{':
		var single types.Thing
		if err := json.Unmarshal(body, &single); err != nil {
			return nil, &pkgerrs.DecodeError{Op: "parse comments", Message: "failed to parse comments response: " + err.Error(), Err: err}
		}
		if single.Kind != kindListing {
			var errObj struct {
				Error   any    `json:"error"`
				Message string `json:"message"`
				Reason  string `json:"reason"`
			}
			if err := json.Unmarshal(body, &errObj); err == nil && errObj.Error != nil {
				return nil, &pkgerrs.APIError{ErrorCode: fmt.Sprint(errObj.Error), Message: errObj.Message}
			}
			return nil, &pkgerrs.DecodeError{Op: "parse comments", Message: "unexpected response kind: " + single.Kind}
		}
		things = []*types.Thing{&single}
	default:
		return nil, &pkgerrs.DecodeError{Op: "parse comments", Message: "empty or invalid response from Reddit"}
	}

	post, comments, moreIDs, err := p.ExtractPostAndComments(things)
	if err != nil {
		return nil, err
	}
	return &types.CommentsResponse{Post: post, Comments: comments, MoreIDs: moreIDs}, nil
}

// ParseMoreChildren decodes the api/morechildren response:
// {"json": {"errors": [], "data": {"things": [...]}}}
func (p *Parser) ParseMoreChildren(body []byte) ([]*types.Comment, []string, error) {
	var envelope struct {
		JSON struct {
			Errors [][]any `json:"errors"`
			Data   struct {
				Things []*types.Thing `json:"things"`
			} `json:"data"`
		} `json:"json"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, nil, &pkgerrs.DecodeError{Op: "parse morechildren", Err: err}
	}
	if errs := envelope.JSON.Errors; len(errs) > 0 {
		return nil, nil, apiErrorFromTuple(errs[0])
	}

	comments := make([]*types.Comment, 0, len(envelope.JSON.Data.Things))
	moreIDs := make([]string, 0)
	for _, thing := range envelope.JSON.Data.Things {
		if thing == nil {
			continue
		}
		switch thing.Kind {
		case kindComment:
			comment, nested, err := p.parseComment(thing)
			if err != nil {
				continue
			}
			comments = append(comments, comment)
			moreIDs = append(moreIDs, nested...)
		case kindMore:
			if more, err := p.ParseMore(thing); err == nil {
				moreIDs = append(moreIDs, more.Children...)
			}
		}
	}
	return comments, moreIDs, nil
}

// ParseActionErrors inspects the body of a POST action endpoint (vote, save)
// for the json.errors array Reddit returns with a 200 status.
func (p *Parser) ParseActionErrors(body []byte) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil
	}
	var envelope struct {
		JSON struct {
			Errors [][]any `json:"errors"`
		} `json:"json"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	if len(envelope.JSON.Errors) > 0 {
		return apiErrorFromTuple(envelope.JSON.Errors[0])
	}
	return nil
}

// apiErrorFromTuple converts a Reddit error tuple [code, message, field].
func apiErrorFromTuple(tuple []any) error {
	apiErr := &pkgerrs.APIError{}
	if len(tuple) > 0 {
		apiErr.ErrorCode = fmt.Sprint(tuple[0])
	}
	if len(tuple) > 1 {
		apiErr.Message = fmt.Sprint(tuple[1])
	}
	return apiErr
}
