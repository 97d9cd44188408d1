package store

import (
	"context"
	"errors"

	"github.com/friendlog/friendlog/internal/model"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateEmail   = errors.New("duplicate email")
	ErrDuplicateLike    = errors.New("duplicate like")
	ErrDuplicateRequest = errors.New("duplicate friend request")
	ErrAlreadyFriends   = errors.New("already friends")
	ErrNoRequest        = errors.New("no such friend request")
	// ErrBusy means the store aborted the operation because of contention
	// with a concurrent transaction. Callers may retry.
	ErrBusy = errors.New("transaction busy")
)

// PostListOpts pages the global feed. Cursor is the created_at second
// of the last post seen; CursorID breaks ties between posts created in
// the same second.
type PostListOpts struct {
	Limit    int
	Cursor   int64
	CursorID string
}

type Store interface {
	AccountStore
	FriendStore
	PostStore
	CommentStore
	LikeStore
	Close() error
}

type AccountStore interface {
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id string) (model.Account, error)
	FindAccountByEmail(ctx context.Context, email string) (model.Account, error)
	UpdateAccountProfile(ctx context.Context, id, name, location, bio string) error
	UpdateAccountPicture(ctx context.Context, id, picture string) error
	UpdateAccountPassword(ctx context.Context, id, passwordHash string) error
	ListAccounts(ctx context.Context, limit, offset int) ([]model.Account, error)
	DeleteAccount(ctx context.Context, id string) error
	// ReplacePostRefs overwrites the denormalized posts list on an account.
	// Used by reconciliation only; normal writes go through the post ops.
	ReplacePostRefs(ctx context.Context, id string, postIDs []string) error
}

type FriendStore interface {
	// AddFriendRequest records from's request on to's document. The pair
	// state is evaluated inside the transaction: fails with
	// ErrDuplicateRequest if a request is already pending in either
	// direction, ErrAlreadyFriends if the pair is already linked, and
	// ErrNotFound if either account is missing.
	AddFriendRequest(ctx context.Context, from, to string) error
	// RemoveFriendRequest clears from's pending request on to's document.
	// Fails with ErrNoRequest if nothing is pending.
	RemoveFriendRequest(ctx context.Context, from, to string) error
	// AcceptFriendRequest atomically clears from's request on to's document
	// and adds each account to the other's friends list. The three writes
	// happen in a single transaction: a failure at any point (missing
	// account, vanished request) leaves both documents untouched.
	AcceptFriendRequest(ctx context.Context, from, to string) error
	// RemoveFriendEdge removes friend from owner's friends list only. The
	// caller is responsible for removing the reverse edge and for treating
	// a failure between the two calls as a possibly inconsistent pair.
	RemoveFriendEdge(ctx context.Context, owner, friend string) error
}

type PostStore interface {
	// CreatePost inserts the post and appends its id to the owner's posts
	// list in one transaction. Fails with ErrNotFound if the owner is gone.
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id string) (model.Post, error)
	UpdatePost(ctx context.Context, id, title, body, image string) error
	// DeletePost removes the post and pulls its id from the owner's posts
	// list in one transaction. A missing owner account is tolerated: the
	// post is deleted and the back-reference cleanup is a no-op.
	DeletePost(ctx context.Context, id string) error
	ListPosts(ctx context.Context, opts PostListOpts) ([]model.Post, error)
	ListPostsByAccount(ctx context.Context, accountID string, limit int) ([]model.Post, error)
	// PostIDsByAccount scans the authoritative posts table. Reconciliation
	// compares its result against the denormalized Account.Posts list.
	PostIDsByAccount(ctx context.Context, accountID string) ([]string, error)
}

type CommentStore interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	GetComment(ctx context.Context, id string) (model.Comment, error)
	UpdateComment(ctx context.Context, id, body string) error
	DeleteComment(ctx context.Context, id string) error
	ListCommentsByPost(ctx context.Context, postID string) ([]model.Comment, error)
	ListComments(ctx context.Context, limit int) ([]model.Comment, error)
}

type LikeStore interface {
	// ToggleLike deletes the (account, post) like if present, else inserts
	// it, as one transaction. Returns whether the like now exists.
	ToggleLike(ctx context.Context, accountID, postID string) (liked bool, err error)
	CountLikes(ctx context.Context, postID string) (int, error)
	ListLikesByPost(ctx context.Context, postID string) ([]model.Like, error)
	ListLikesByAccount(ctx context.Context, accountID string) ([]model.Like, error)
}
