package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RedditObject defines the common behavior for all Reddit API objects like
// Posts, Comments, and Subreddits.
type RedditObject interface {
	GetID() string
	GetName() string
}

// ThingData holds the common fields for Reddit objects.
// It can be embedded into specific types like Post and Comment.
type ThingData struct {
	ID   string `json:"id"`   // ID (without prefix)
	Name string `json:"name"` // Full name (e.g., "t3_abc123")
}

// GetID returns the object's ID.
func (td ThingData) GetID() string {
	return td.ID
}

// GetName returns the object's full name.
func (td ThingData) GetName() string {
	return td.Name
}

// Thing is the envelope for every Reddit API object: a kind tag plus the raw
// data, decoded later by the parser.
type Thing struct {
	ThingData
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Votable is an embeddable struct for things that can be voted on.
type Votable struct {
	Ups   int `json:"ups"`
	Downs int `json:"downs"`
	// Likes indicates the user's vote: true for upvote, false for downvote, null for no vote.
	Likes *bool `json:"likes"`
}

// Created is an embeddable struct for things that have a creation time.
type Created struct {
	Created    float64 `json:"created"`
	CreatedUTC float64 `json:"created_utc"`
}

// Edited represents a field that can be a boolean or a timestamp.
// If IsEdited is true and Timestamp is 0, it was an old edit marked as `true`.
// If IsEdited is true and Timestamp is non-zero, it's a modern edit with a timestamp.
// If IsEdited is false, the item was not edited.
type Edited struct {
	IsEdited  bool
	Timestamp float64
}

// UnmarshalJSON implements json.Unmarshaler to handle mixed types for the "edited" field.
func (e *Edited) UnmarshalJSON(data []byte) error {
	s := strings.ToLower(string(data))
	switch s {
	case "false", "null":
		e.IsEdited = false
		e.Timestamp = 0
		return nil
	case "true":
		e.IsEdited = true
		e.Timestamp = 0
		return nil
	}

	var timestamp float64
	if err := json.Unmarshal(data, &timestamp); err == nil {
		e.IsEdited = true
		e.Timestamp = timestamp
		return nil
	}

	return fmt.Errorf("unrecognized type for 'edited' field: %s", string(data))
}

// ListingData contains the data for a Listing, which is used for pagination.
type ListingData struct {
	BeforeFullname string   `json:"before"` // Reddit fullname for pagination (previous page)
	AfterFullname  string   `json:"after"`  // Reddit fullname for pagination (next page)
	Modhash        string   `json:"modhash"`
	Children       []*Thing `json:"children"` // Raw Things with kind+data, parsed by caller
}

// Pagination captures the shared pagination behaviour for Reddit listing endpoints.
// The After and Before values are opaque cursors returned by a previous page and
// must be passed back verbatim.
type Pagination struct {
	// Limit specifies the number of items to retrieve.
	// Reddit enforces a maximum of 100 items per request.
	// If 0, Reddit's default limit (usually 25) is used.
	Limit int

	// After is the cursor of the next page. Empty means the first page.
	After string

	// Before is the cursor of the previous page. Cannot be combined with After.
	Before string
}

// PostsRequest describes a request to retrieve posts from a subreddit (or the front page).
// The Subreddit field can be left blank to target the front page.
type PostsRequest struct {
	Subreddit string
	// TimeFilter applies to the top and controversial sorts:
	// "hour", "day", "week", "month", "year", "all".
	TimeFilter string
	Pagination
}

// CommentsRequest describes a request to retrieve comments for a specific post.
type CommentsRequest struct {
	Subreddit string
	PostID    string
	// Sort is the comment sort: "confidence", "top", "new", "controversial", "old", "qa".
	Sort string
	Pagination
}

// MoreCommentsRequest describes a request to expand previously truncated comment trees.
type MoreCommentsRequest struct {
	LinkID     string
	CommentIDs []string
	Sort       string
	// Depth 0 means no limit.
	Depth int
	Limit int
}

// SubredditData contains the data for a Subreddit.
type SubredditData struct {
	ThingData
	AccountsActive    int    `json:"accounts_active"`
	Description       string `json:"description"`
	DisplayName       string `json:"display_name"`
	Over18            bool   `json:"over18"`
	PublicDescription string `json:"public_description"`
	Subscribers       int64  `json:"subscribers"`
	SubredditType     string `json:"subreddit_type"`
	Title             string `json:"title"`
	URL               string `json:"url"`
	UserIsSubscriber  *bool  `json:"user_is_subscriber"`
}

// AccountData contains the data for a user Account.
type AccountData struct {
	ThingData
	Created
	CommentKarma int   `json:"comment_karma"`
	HasMail      *bool `json:"has_mail"`
	InboxCount   int   `json:"inbox_count,omitempty"`
	IsGold       bool  `json:"is_gold"`
	IsMod        bool  `json:"is_mod"`
	LinkKarma    int   `json:"link_karma"`
	Over18       bool  `json:"over_18"`
}

// MoreData represents a "more" object, used for comment pagination.
type MoreData struct {
	ThingData
	Children []string `json:"children"`
}

// RedditVideo is the reddit_video block of a hosted video submission.
type RedditVideo struct {
	HLSURL      string `json:"hls_url"`
	DashURL     string `json:"dash_url"`
	FallbackURL string `json:"fallback_url"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Duration    int    `json:"duration"`
	IsGIF       bool   `json:"is_gif"`
}

// SecureMedia is the media / secure_media block of a submission.
type SecureMedia struct {
	Type        string       `json:"type"`
	RedditVideo *RedditVideo `json:"reddit_video"`
}

// MediaEmbed is the secure_media_embed block; Content holds escaped iframe HTML.
type MediaEmbed struct {
	Content        string `json:"content"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	MediaDomainURL string `json:"media_domain_url"`
}

// MediaSource is the "s" entry of a media_metadata item. Exactly one of U,
// GIF or MP4 is normally set depending on the item kind.
type MediaSource struct {
	U      string `json:"u"`
	GIF    string `json:"gif"`
	MP4    string `json:"mp4"`
	Width  int    `json:"x"`
	Height int    `json:"y"`
}

// MediaMetadata describes one image of a gallery submission.
type MediaMetadata struct {
	Status string       `json:"status"`
	Kind   string       `json:"e"` // "Image" or "AnimatedImage"
	Mime   string       `json:"m"`
	Source *MediaSource `json:"s"`
}

// GalleryItem orders media_metadata entries inside a gallery.
type GalleryItem struct {
	ID      int64  `json:"id"`
	MediaID string `json:"media_id"`
	Caption string `json:"caption"`
}

// GalleryData holds the display order of a gallery submission.
type GalleryData struct {
	Items []GalleryItem `json:"items"`
}

// Post represents a Reddit submission.
type Post struct {
	ThingData
	Votable
	Created
	Author              string                   `json:"author"`
	Domain              string                   `json:"domain"`
	Hidden              bool                     `json:"hidden"`
	IsSelf              bool                     `json:"is_self"`
	IsVideo             bool                     `json:"is_video"`
	IsGallery           bool                     `json:"is_gallery"`
	PostHint            string                   `json:"post_hint"`
	LinkFlairText       *string                  `json:"link_flair_text"`
	Locked              bool                     `json:"locked"`
	Media               *SecureMedia             `json:"media"`
	SecureMedia         *SecureMedia             `json:"secure_media"`
	SecureMediaEmbed    MediaEmbed               `json:"secure_media_embed"`
	MediaMetadata       map[string]MediaMetadata `json:"media_metadata"`
	GalleryData         *GalleryData             `json:"gallery_data"`
	NumComments         int                      `json:"num_comments"`
	Over18              bool                     `json:"over_18"`
	Permalink           string                   `json:"permalink"`
	Saved               bool                     `json:"saved"`
	Score               int                      `json:"score"`
	SelfText            string                   `json:"selftext"`
	Subreddit           string                   `json:"subreddit"`
	SubredditID         string                   `json:"subreddit_id"`
	Thumbnail           string                   `json:"thumbnail"`
	Title               string                   `json:"title"`
	URL                 string                   `json:"url"`
	URLOverriddenByDest string                   `json:"url_overridden_by_dest"`
	Edited              Edited                   `json:"edited"`
	Stickied            bool                     `json:"stickied"`
}

// OutboundURL returns the link a submission points at, preferring the
// destination override Reddit sets for crossposts and redirects.
func (p *Post) OutboundURL() string {
	if p.URLOverriddenByDest != "" {
		return p.URLOverriddenByDest
	}
	return p.URL
}

// Comment represents a Reddit comment with all its fields
type Comment struct {
	ThingData
	Votable
	Created
	Author        string     `json:"author"`
	Body          string     `json:"body"`
	BodyHTML      string     `json:"body_html"`
	Edited        Edited     `json:"edited"`
	LinkID        string     `json:"link_id"`
	ParentID      string     `json:"parent_id"`
	Depth         int        `json:"depth"`
	Replies       []*Comment `json:"-"` // Parsed by Parser from the raw replies field
	Saved         bool       `json:"saved"`
	Score         int        `json:"score"`
	ScoreHidden   bool       `json:"score_hidden"`
	Subreddit     string     `json:"subreddit"`
	Distinguished *string    `json:"distinguished"`
	Stickied      bool       `json:"stickied"`
}

// PostsResponse represents a page of posts with its cursors.
type PostsResponse struct {
	Posts          []*Post
	AfterFullname  string // cursor for the next page, empty on the last page
	BeforeFullname string // cursor for the previous page
}

// CommentsResponse represents a post with its comments and more IDs for loading truncated comments.
type CommentsResponse struct {
	Post     *Post
	Comments []*Comment
	MoreIDs  []string // IDs of additional comments that can be loaded
}
