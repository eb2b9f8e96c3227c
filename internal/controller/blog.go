package controller

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/techg-platform/techg-client/internal/api"
	"github.com/techg-platform/techg-client/internal/model"
	"github.com/techg-platform/techg-client/internal/realtime"
	"github.com/techg-platform/techg-client/internal/session"
)

// BlogController owns the blog/CMS view. Post bodies arrive as HTML from the
// backend and are sanitized on receipt, before anything renders them.
type BlogController struct {
	api       *api.Client
	channel   Realtime
	sessions  *session.Store
	validate  *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger

	mu       sync.Mutex
	posts    map[string]model.BlogPost
	onUpdate func()
}

// NewBlogController constructs the blog controller.
func NewBlogController(client *api.Client, channel Realtime, sessions *session.Store, validate *validator.Validate, logger zerolog.Logger) *BlogController {
	return &BlogController{
		api:       client,
		channel:   channel,
		sessions:  sessions,
		validate:  validate,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "blog_controller").Logger(),
		posts:     make(map[string]model.BlogPost),
	}
}

// OnUpdate registers the view invalidation callback.
func (c *BlogController) OnUpdate(fn func()) {
	c.mu.Lock()
	c.onUpdate = fn
	c.mu.Unlock()
}

// Start hydrates the post cache and subscribes to the blog events.
func (c *BlogController) Start(ctx context.Context) error {
	c.channel.Subscribe(realtime.EventNewBlog, c.handleUpsert)
	c.channel.Subscribe(realtime.EventBlogUpdated, c.handleUpsert)
	c.channel.Subscribe(realtime.EventBlogDeleted, c.handleDeleted)

	return c.Refresh(ctx)
}

// Refresh re-fetches the post list.
func (c *BlogController) Refresh(ctx context.Context) error {
	var posts []model.BlogPost
	if err := c.api.Get(ctx, "/blog", &posts); err != nil {
		return err
	}

	c.mu.Lock()
	c.posts = make(map[string]model.BlogPost, len(posts))
	for _, post := range posts {
		c.posts[post.ID] = c.sanitize(post)
	}
	c.mu.Unlock()
	c.invalidate()

	return nil
}

// Posts returns the cached posts, newest first.
func (c *BlogController) Posts() []model.BlogPost {
	c.mu.Lock()
	out := make([]model.BlogPost, 0, len(c.posts))
	for _, post := range c.posts {
		out = append(out, post)
	}
	c.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Get fetches one post with its comments.
func (c *BlogController) Get(ctx context.Context, id string) (model.BlogPost, error) {
	var post model.BlogPost
	if err := c.api.Get(ctx, "/blog/"+id, &post); err != nil {
		return model.BlogPost{}, err
	}

	post = c.sanitize(post)

	c.mu.Lock()
	c.posts[post.ID] = post
	c.mu.Unlock()
	c.invalidate()

	return post, nil
}

// Create publishes a new post.
func (c *BlogController) Create(ctx context.Context, req model.BlogCreateRequest) (model.BlogPost, error) {
	if err := c.validate.Struct(req); err != nil {
		return model.BlogPost{}, err
	}

	var post model.BlogPost
	if err := c.api.Post(ctx, "/blog", req, &post); err != nil {
		return model.BlogPost{}, err
	}

	post = c.sanitize(post)
	c.store(post)
	c.channel.Emit(realtime.EventNewBlog, post)
	return post, nil
}

// Update edits an existing post.
func (c *BlogController) Update(ctx context.Context, id string, req model.BlogUpdateRequest) (model.BlogPost, error) {
	if err := c.validate.Struct(req); err != nil {
		return model.BlogPost{}, err
	}

	var post model.BlogPost
	if err := c.api.Put(ctx, "/blog/"+id, req, &post); err != nil {
		return model.BlogPost{}, err
	}

	post = c.sanitize(post)
	c.store(post)
	c.channel.Emit(realtime.EventBlogUpdated, post)
	return post, nil
}

// Delete removes a post.
func (c *BlogController) Delete(ctx context.Context, id string) error {
	if err := c.api.Delete(ctx, "/blog/"+id, nil); err != nil {
		return err
	}

	c.mu.Lock()
	delete(c.posts, id)
	c.mu.Unlock()
	c.invalidate()

	c.channel.Emit(realtime.EventBlogDeleted, map[string]string{"id": id})
	return nil
}

// React toggles the caller's reaction on a post.
func (c *BlogController) React(ctx context.Context, id, reaction string) (model.BlogPost, error) {
	req := model.MessageReactRequest{Reaction: reaction}
	if err := c.validate.Struct(req); err != nil {
		return model.BlogPost{}, err
	}

	var post model.BlogPost
	if err := c.api.Post(ctx, "/blog/"+id+"/react", req, &post); err != nil {
		return model.BlogPost{}, err
	}

	post = c.sanitize(post)
	c.store(post)
	return post, nil
}

// Comment attaches a comment to a post.
func (c *BlogController) Comment(ctx context.Context, id string, req model.CommentCreateRequest) (model.BlogPost, error) {
	if err := c.validate.Struct(req); err != nil {
		return model.BlogPost{}, err
	}

	var post model.BlogPost
	if err := c.api.Post(ctx, "/blog/"+id+"/comment", req, &post); err != nil {
		return model.BlogPost{}, err
	}

	post = c.sanitize(post)
	c.store(post)
	c.channel.Emit(realtime.EventBlogUpdated, post)
	return post, nil
}

func (c *BlogController) sanitize(post model.BlogPost) model.BlogPost {
	post.Title = c.sanitizer.Sanitize(post.Title)
	post.Content = c.sanitizer.Sanitize(post.Content)
	for i := range post.Comments {
		post.Comments[i].Content = c.sanitizer.Sanitize(post.Comments[i].Content)
	}
	return post
}

func (c *BlogController) store(post model.BlogPost) {
	c.mu.Lock()
	c.posts[post.ID] = post
	c.mu.Unlock()
	c.invalidate()
}

func (c *BlogController) handleUpsert(data json.RawMessage) {
	var post model.BlogPost
	if err := json.Unmarshal(data, &post); err != nil {
		c.logger.Warn().Err(err).Msg("invalid blog event payload")
		return
	}
	c.store(c.sanitize(post))
}

func (c *BlogController) handleDeleted(data json.RawMessage) {
	var ref struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &ref); err != nil {
		c.logger.Warn().Err(err).Msg("invalid blog-deleted payload")
		return
	}

	c.mu.Lock()
	delete(c.posts, ref.ID)
	c.mu.Unlock()
	c.invalidate()
}

func (c *BlogController) invalidate() {
	c.mu.Lock()
	fn := c.onUpdate
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}
