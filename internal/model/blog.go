package model

import "time"

// BlogPost is a CMS entry authored by a community member.
type BlogPost struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	AuthorID   string            `json:"author_id"`
	AuthorName string            `json:"author_name"`
	CoverURL   string            `json:"cover_url,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	Reactions  map[string]string `json:"reactions,omitempty"`
	Comments   []Comment         `json:"comments,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Comment is a reader response attached to a blog post.
type Comment struct {
	ID         string    `json:"id"`
	PostID     string    `json:"post_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// BlogCreateRequest is the payload for publishing a post.
type BlogCreateRequest struct {
	Title    string   `json:"title" validate:"required,min=3,max=255"`
	Content  string   `json:"content" validate:"required,min=1"`
	CoverURL string   `json:"cover_url,omitempty" validate:"omitempty,url"`
	Tags     []string `json:"tags,omitempty" validate:"omitempty,dive,max=32"`
}

// BlogUpdateRequest carries partial edits to an existing post.
type BlogUpdateRequest struct {
	Title    *string  `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Content  *string  `json:"content,omitempty" validate:"omitempty,min=1"`
	CoverURL *string  `json:"cover_url,omitempty" validate:"omitempty,url"`
	Tags     []string `json:"tags,omitempty" validate:"omitempty,dive,max=32"`
}

// CommentCreateRequest attaches a comment to a post.
type CommentCreateRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}
