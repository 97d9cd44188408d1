package social

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/friendlog/friendlog/internal/model"
	"github.com/friendlog/friendlog/internal/store"
)

var (
	ErrEmptyTitle = errors.New("title required")
	ErrEmptyBody  = errors.New("body required")
)

// CreatePost inserts the post and appends its id to the author's
// denormalized list in one transaction.
func (c *Coordinator) CreatePost(ctx context.Context, accountID, title, body, image string) (model.Post, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" {
		return model.Post{}, ErrEmptyTitle
	}
	if body == "" {
		return model.Post{}, ErrEmptyBody
	}
	now := time.Now()
	post := model.Post{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      body,
		Image:     strings.TrimSpace(image),
		AccountID: accountID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := c.withRetry(func() error {
		return c.store.CreatePost(ctx, &post)
	})
	if err != nil {
		return model.Post{}, err
	}
	return post, nil
}

func (c *Coordinator) GetPost(ctx context.Context, id string) (model.Post, error) {
	return c.store.GetPost(ctx, id)
}

func (c *Coordinator) ListPosts(ctx context.Context, opts store.PostListOpts) ([]model.Post, error) {
	return c.store.ListPosts(ctx, opts)
}

func (c *Coordinator) ListPostsByAccount(ctx context.Context, accountID string, limit int) ([]model.Post, error) {
	if _, err := c.store.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return c.store.ListPostsByAccount(ctx, accountID, limit)
}

// UpdatePost edits a post the caller owns.
func (c *Coordinator) UpdatePost(ctx context.Context, accountID, postID, title, body, image string) (model.Post, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" {
		return model.Post{}, ErrEmptyTitle
	}
	if body == "" {
		return model.Post{}, ErrEmptyBody
	}
	post, err := c.store.GetPost(ctx, postID)
	if err != nil {
		return model.Post{}, err
	}
	if post.AccountID != accountID {
		return model.Post{}, ErrNotOwner
	}
	err = c.withRetry(func() error {
		return c.store.UpdatePost(ctx, postID, title, body, strings.TrimSpace(image))
	})
	if err != nil {
		return model.Post{}, err
	}
	return c.store.GetPost(ctx, postID)
}

// DeletePost removes a post the caller owns, pulling its id out of the
// author's denormalized list in the same transaction.
func (c *Coordinator) DeletePost(ctx context.Context, accountID, postID string) error {
	post, err := c.store.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AccountID != accountID {
		return ErrNotOwner
	}
	return c.withRetry(func() error {
		return c.store.DeletePost(ctx, postID)
	})
}

// ToggleLike flips the caller's like on a post and reports the new
// state. Toggling twice is always a no-op.
func (c *Coordinator) ToggleLike(ctx context.Context, accountID, postID string) (bool, int, error) {
	if _, err := c.store.GetPost(ctx, postID); err != nil {
		return false, 0, err
	}
	// The caller's token may outlive their account.
	if _, err := c.store.GetAccount(ctx, accountID); err != nil {
		return false, 0, err
	}
	var liked bool
	err := c.withRetry(func() error {
		var err error
		liked, err = c.store.ToggleLike(ctx, accountID, postID)
		return err
	})
	if err != nil {
		return false, 0, err
	}
	count, err := c.store.CountLikes(ctx, postID)
	if err != nil {
		return liked, 0, err
	}
	return liked, count, nil
}

func (c *Coordinator) LikesByPost(ctx context.Context, postID string) ([]model.Like, error) {
	if _, err := c.store.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	return c.store.ListLikesByPost(ctx, postID)
}

func (c *Coordinator) LikesByAccount(ctx context.Context, accountID string) ([]model.Like, error) {
	if _, err := c.store.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return c.store.ListLikesByAccount(ctx, accountID)
}

// CreateComment adds a comment to an existing post.
func (c *Coordinator) CreateComment(ctx context.Context, accountID, postID, body string) (model.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return model.Comment{}, ErrEmptyBody
	}
	if _, err := c.store.GetPost(ctx, postID); err != nil {
		return model.Comment{}, err
	}
	if _, err := c.store.GetAccount(ctx, accountID); err != nil {
		return model.Comment{}, err
	}
	now := time.Now()
	comment := model.Comment{
		ID:        uuid.NewString(),
		Body:      body,
		AccountID: accountID,
		PostID:    postID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := c.withRetry(func() error {
		return c.store.CreateComment(ctx, &comment)
	})
	if err != nil {
		return model.Comment{}, err
	}
	return comment, nil
}

func (c *Coordinator) GetComment(ctx context.Context, id string) (model.Comment, error) {
	return c.store.GetComment(ctx, id)
}

func (c *Coordinator) RecentComments(ctx context.Context, limit int) ([]model.Comment, error) {
	return c.store.ListComments(ctx, limit)
}

func (c *Coordinator) CommentsByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	if _, err := c.store.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	return c.store.ListCommentsByPost(ctx, postID)
}

// UpdateComment edits a comment the caller wrote.
func (c *Coordinator) UpdateComment(ctx context.Context, accountID, commentID, body string) (model.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return model.Comment{}, ErrEmptyBody
	}
	comment, err := c.store.GetComment(ctx, commentID)
	if err != nil {
		return model.Comment{}, err
	}
	if comment.AccountID != accountID {
		return model.Comment{}, ErrNotOwner
	}
	err = c.withRetry(func() error {
		return c.store.UpdateComment(ctx, commentID, body)
	})
	if err != nil {
		return model.Comment{}, err
	}
	return c.store.GetComment(ctx, commentID)
}

// DeleteComment removes a comment. The comment's author may delete it,
// and so may the owner of the post it sits on.
func (c *Coordinator) DeleteComment(ctx context.Context, accountID, commentID string) error {
	comment, err := c.store.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.AccountID != accountID {
		post, err := c.store.GetPost(ctx, comment.PostID)
		if err != nil || post.AccountID != accountID {
			return ErrNotOwner
		}
	}
	return c.withRetry(func() error {
		return c.store.DeleteComment(ctx, commentID)
	})
}
