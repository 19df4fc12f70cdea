package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	graw "github.com/jamesprial/go-reddit-media"
	"github.com/jamesprial/go-reddit-media/internal/config"
	"github.com/jamesprial/go-reddit-media/pkg/media"
	"github.com/jamesprial/go-reddit-media/pkg/types"
)

func (a *App) classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "classify <url>",
		Short:       "Show which media provider a URL belongs to",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{offline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			d, ok := media.Classify(args[0])
			if !ok {
				return fmt.Errorf("no media provider matches %s", args[0])
			}
			fmt.Fprintf(a.Out, "%s\t%+v\n", color.CyanString(d.Provider()), d)
			return nil
		},
	}
}

func (a *App) resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "resolve <url>",
		Short:       "Resolve a media URL into playable image and video URLs",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{offline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			d, ok := media.Classify(args[0])
			if !ok {
				return fmt.Errorf("no media provider matches %s", args[0])
			}
			items, err := a.newResolver().Resolve(cmd.Context(), d).Get()
			if err != nil {
				return err
			}
			for _, item := range items {
				a.printItem("", item)
			}
			return nil
		},
	}
}

func (a *App) feedCmd() *cobra.Command {
	var (
		sort       string
		timeFilter string
		after      string
		limit      int
		withMedia  bool
	)
	cmd := &cobra.Command{
		Use:   "feed [subreddit]",
		Short: "List posts of a subreddit or the front page",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &types.PostsRequest{
				TimeFilter: timeFilter,
				Pagination: types.Pagination{Limit: limit, After: after},
			}
			if len(args) == 1 {
				req.Subreddit = strings.TrimPrefix(args[0], "r/")
			}

			ctx := cmd.Context()
			page, err := a.client.GetListing(ctx, sort, req)
			if err != nil {
				return err
			}

			var resolved []types.Result[[]media.Item]
			if withMedia {
				resolved = a.client.ResolveAll(ctx, page.Posts)
			}

			for i, post := range page.Posts {
				a.printPost(post)
				if resolved == nil {
					continue
				}
				items, err := resolved[i].Get()
				if err != nil {
					fmt.Fprintf(a.Out, "    %s\n", color.RedString(resolved[i].Message()))
					continue
				}
				for _, item := range items {
					a.printItem("    ", item)
				}
			}

			if page.AfterFullname != "" {
				fmt.Fprintf(a.Out, "%s %s\n", color.HiBlackString("next:"), page.AfterFullname)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&sort, "sort", "s", graw.SortHot, "hot | new | top | rising | controversial")
	cmd.Flags().StringVarP(&timeFilter, "time", "t", "", "time filter for top and controversial: hour | day | week | month | year | all")
	cmd.Flags().StringVar(&after, "after", "", "cursor from a previous page")
	cmd.Flags().IntVarP(&limit, "limit", "n", 25, "posts per page (max 100)")
	cmd.Flags().BoolVarP(&withMedia, "media", "m", false, "resolve the media of every post")
	return cmd
}

func (a *App) printPost(post *types.Post) {
	bold := color.New(color.Bold)
	age := ""
	if post.CreatedUTC > 0 {
		age = ", " + humanize.Time(time.Unix(int64(post.CreatedUTC), 0))
	}
	fmt.Fprintf(a.Out, "%s %s\n", color.YellowString("%6d", post.Score), bold.Sprint(post.Title))
	fmt.Fprintf(a.Out, "       %s (u/%s in r/%s%s, %s comments)\n",
		post.Name, post.Author, post.Subreddit, age, humanize.Comma(int64(post.NumComments)))
	if u := post.OutboundURL(); u != "" {
		fmt.Fprintf(a.Out, "       %s\n", color.CyanString(u))
	}
}

func (a *App) printItem(indent string, item media.Item) {
	line := fmt.Sprintf("%s%-5s %s", indent, item.Kind, item.URL)
	if item.Width != nil && item.Height != nil {
		line += fmt.Sprintf(" %dx%d", *item.Width, *item.Height)
	}
	if item.Description != nil {
		line += " " + color.HiBlackString(*item.Description)
	}
	fmt.Fprintln(a.Out, line)
}

func (a *App) commentsCmd() *cobra.Command {
	var (
		sort     string
		maxDepth int
		minScore int
	)
	cmd := &cobra.Command{
		Use:   "comments <subreddit> <post-id>",
		Short: "Print the comment thread of a post",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.client.GetComments(cmd.Context(), &types.CommentsRequest{
				Subreddit: strings.TrimPrefix(args[0], "r/"),
				PostID:    args[1],
				Sort:      sort,
			})
			if err != nil {
				return err
			}

			if resp.Post != nil {
				a.printPost(resp.Post)
				fmt.Fprintln(a.Out)
			}

			it := graw.NewCommentIterator(resp.Comments, &graw.TraversalOptions{
				MaxDepth: maxDepth,
				MinScore: minScore,
			})
			for {
				c, depth, ok := it.Next()
				if !ok {
					break
				}
				indent := strings.Repeat("  ", depth)
				body, _, _ := strings.Cut(c.Body, "\n")
				fmt.Fprintf(a.Out, "%s%s %s %s\n", indent,
					color.GreenString("u/"+c.Author), color.YellowString("(%d)", c.Score), body)
			}

			tree := graw.NewCommentTree(resp.Comments)
			fmt.Fprintf(a.Out, "\n%s comments loaded", humanize.Comma(int64(tree.Count())))
			if n := len(resp.MoreIDs); n > 0 {
				fmt.Fprintf(a.Out, ", %s more not loaded", humanize.Comma(int64(n)))
			}
			fmt.Fprintln(a.Out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&sort, "sort", "s", "", "confidence | top | new | controversial | old | qa")
	cmd.Flags().IntVarP(&maxDepth, "depth", "d", 0, "maximum reply depth to print (0 = all)")
	cmd.Flags().IntVar(&minScore, "min-score", 0, "skip comments scoring below this, with their replies")
	return cmd
}

func (a *App) loginCmd() *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize graw with a Reddit account",
		Long: `Without --code, print the authorization URL to open in a browser. Reddit
redirects to the configured redirect_uri with a code parameter; pass it back
with --code to finish logging in.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if code == "" {
				authURL, state := a.client.AuthorizationURL()
				fmt.Fprintln(a.Out, "Open this URL and approve access:")
				fmt.Fprintln(a.Out, color.CyanString(authURL))
				fmt.Fprintf(a.Out, "Then run: graw login --code <code>  (state %s)\n", state)
				return nil
			}

			creds, err := a.client.ExchangeCode(cmd.Context(), code)
			if err != nil {
				return err
			}
			if err := config.SaveSession(a.SessionPath, creds); err != nil {
				return err
			}
			name := creds.Account
			if name == "" {
				name = "unknown account"
			}
			fmt.Fprintf(a.Out, "%s as %s\n", color.GreenString("Logged in"), name)
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "authorization code from the redirect")
	return cmd
}

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.client.Logout()
			if err := config.RemoveSession(a.SessionPath); err != nil {
				return err
			}
			fmt.Fprintln(a.Out, "Logged out")
			return nil
		},
	}
}

func (a *App) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			me, err := a.client.Me(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.Out, "u/%s  link karma %s, comment karma %s\n",
				me.Name, humanize.Comma(int64(me.LinkKarma)), humanize.Comma(int64(me.CommentKarma)))
			return nil
		},
	}
}

func (a *App) voteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vote <fullname> <1|0|-1>",
		Short: "Upvote, downvote or clear the vote on a post or comment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("vote direction must be 1, 0 or -1: %w", err)
			}
			if err := a.requireLogin(); err != nil {
				return err
			}
			if err := a.client.Vote(cmd.Context(), args[0], dir); err != nil {
				return err
			}
			fmt.Fprintf(a.Out, "Voted %d on %s\n", dir, args[0])
			return nil
		},
	}
}

func (a *App) saveCmd() *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "save <fullname>",
		Short: "Save a post or comment, or unsave it with --undo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			if undo {
				if err := a.client.Unsave(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(a.Out, "Unsaved %s\n", args[0])
				return nil
			}
			if err := a.client.Save(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.Out, "Saved %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "unsave instead")
	return cmd
}
