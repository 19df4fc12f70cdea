// Package server exposes media classification, resolution and subreddit
// feeds over a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	pkgerrs "github.com/jamesprial/go-reddit-media/pkg/errors"
	"github.com/jamesprial/go-reddit-media/pkg/media"
	"github.com/jamesprial/go-reddit-media/pkg/types"
)

// Backend is the part of the Reddit client the server needs.
type Backend interface {
	Resolve(ctx context.Context, d media.Descriptor) types.Result[[]media.Item]
	ResolveAll(ctx context.Context, posts []*types.Post) []types.Result[[]media.Item]
	GetListing(ctx context.Context, sort string, request *types.PostsRequest) (*types.PostsResponse, error)
}

// Response is the envelope of every answer.
type Response struct {
	Code    int    `json:"code"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

// Server serves the API over a gin engine.
type Server struct {
	backend Backend
	port    int
	logger  *slog.Logger
	engine  *gin.Engine
	server  *http.Server
}

// New builds a server for backend. A nil logger discards.
func New(backend Backend, port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{backend: backend, port: port, logger: logger}

	s.engine = gin.New()
	s.engine.Use(gin.Recovery())
	s.engine.Use(s.loggingMiddleware())

	api := s.engine.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/classify", s.handleClassify)
	api.GET("/resolve", s.handleResolve)
	api.GET("/feed", s.handleFeed)
	api.GET("/feed/:subreddit", s.handleFeed)

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, Response{Code: http.StatusNotFound, Message: "not found"})
	})

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens on the configured port until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting server", "port", s.port)

	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Data:    gin.H{"status": "ok"},
		Message: "ok",
	})
}

func (s *Server) handleClassify(c *gin.Context) {
	d, ok := s.classify(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Data:    gin.H{"provider": d.Provider(), "descriptor": d},
		Message: "ok",
	})
}

func (s *Server) handleResolve(c *gin.Context) {
	d, ok := s.classify(c)
	if !ok {
		return
	}

	items, err := s.backend.Resolve(c.Request.Context(), d).Get()
	if err != nil {
		s.logger.Warn("resolve failed", "provider", d.Provider(), "error", err)
		c.JSON(http.StatusBadGateway, Response{Code: http.StatusBadGateway, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Data:    gin.H{"provider": d.Provider(), "items": items},
		Message: "ok",
	})
}

// classify reads the url query parameter and writes the error response when
// it is missing or unrecognized.
func (s *Server) classify(c *gin.Context) (media.Descriptor, bool) {
	raw := c.Query("url")
	if raw == "" {
		c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Message: "url is required"})
		return nil, false
	}
	d, ok := media.Classify(raw)
	if !ok {
		c.JSON(http.StatusNotFound, Response{Code: http.StatusNotFound, Message: "no media provider matches url"})
		return nil, false
	}
	return d, true
}

// postView is the feed representation of a post.
type postView struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Title       string       `json:"title"`
	Author      string       `json:"author"`
	Subreddit   string       `json:"subreddit"`
	URL         string       `json:"url"`
	Permalink   string       `json:"permalink"`
	Score       int          `json:"score"`
	NumComments int          `json:"num_comments"`
	Created     float64      `json:"created_utc"`
	Media       []media.Item `json:"media,omitempty"`
	MediaError  string       `json:"media_error,omitempty"`
}

func (s *Server) handleFeed(c *gin.Context) {
	sort := c.DefaultQuery("sort", "hot")
	req := &types.PostsRequest{
		Subreddit:  c.Param("subreddit"),
		TimeFilter: c.Query("t"),
		Pagination: types.Pagination{After: c.Query("after")},
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Message: "limit must be a number"})
			return
		}
		req.Limit = limit
	}

	ctx := c.Request.Context()
	page, err := s.backend.GetListing(ctx, sort, req)
	if err != nil {
		status := http.StatusBadGateway
		var configErr *pkgerrs.ConfigError
		if errors.As(err, &configErr) {
			status = http.StatusBadRequest
		}
		c.JSON(status, Response{Code: status, Message: err.Error()})
		return
	}

	posts := make([]postView, 0, len(page.Posts))
	for _, p := range page.Posts {
		posts = append(posts, postView{
			ID:          p.ID,
			Name:        p.Name,
			Title:       p.Title,
			Author:      p.Author,
			Subreddit:   p.Subreddit,
			URL:         p.OutboundURL(),
			Permalink:   p.Permalink,
			Score:       p.Score,
			NumComments: p.NumComments,
			Created:     p.CreatedUTC,
		})
	}

	if withMedia, _ := strconv.ParseBool(c.Query("media")); withMedia {
		for i, res := range s.backend.ResolveAll(ctx, page.Posts) {
			if items, err := res.Get(); err != nil {
				posts[i].MediaError = res.Message()
			} else {
				posts[i].Media = items
			}
		}
	}

	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Data:    gin.H{"posts": posts, "after": page.AfterFullname},
		Message: "ok",
	})
}
