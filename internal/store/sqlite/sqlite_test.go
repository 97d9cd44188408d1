package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/friendlog/friendlog/internal/model"
	"github.com/friendlog/friendlog/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return st
}

func newTestAccount(t *testing.T, st *Store, email string) model.Account {
	t.Helper()
	now := time.Now()
	a := model.Account{
		ID:           uuid.NewString(),
		Name:         "Tester",
		Email:        email,
		PasswordHash: "$2a$10$notarealhash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := st.CreateAccount(context.Background(), &a); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

func newTestPost(t *testing.T, st *Store, accountID, title string) model.Post {
	t.Helper()
	now := time.Now()
	p := model.Post{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      "post body",
		AccountID: accountID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := st.CreatePost(context.Background(), &p); err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

func TestPostLifecycle(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	owner := newTestAccount(t, st, "owner@example.com")
	post := newTestPost(t, st, owner.ID, "First Post")

	got, err := st.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if got.Title != "First Post" {
		t.Fatalf("unexpected title: %s", got.Title)
	}

	account, err := st.GetAccount(ctx, owner.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if len(account.Posts) != 1 || account.Posts[0] != post.ID {
		t.Fatalf("expected posts list [%s], got %v", post.ID, account.Posts)
	}

	if err := st.UpdatePost(ctx, post.ID, "Renamed", "new body", ""); err != nil {
		t.Fatalf("update post: %v", err)
	}
	got, _ = st.GetPost(ctx, post.ID)
	if got.Title != "Renamed" || got.Body != "new body" {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := st.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}
	if _, err := st.GetPost(ctx, post.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	account, _ = st.GetAccount(ctx, owner.ID)
	if len(account.Posts) != 0 {
		t.Fatalf("expected empty posts list after delete, got %v", account.Posts)
	}
}

func TestDeletePostMissingOwner(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	owner := newTestAccount(t, st, "gone@example.com")
	post := newTestPost(t, st, owner.ID, "Orphaned")

	if err := st.DeleteAccount(ctx, owner.ID); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if err := st.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("delete post with missing owner: %v", err)
	}
	if _, err := st.GetPost(ctx, post.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListPostsCursor(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	owner := newTestAccount(t, st, "lister@example.com")
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		p := model.Post{
			ID:        uuid.NewString(),
			Title:     fmt.Sprintf("Post %d", i),
			Body:      "body",
			AccountID: owner.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := st.CreatePost(ctx, &p); err != nil {
			t.Fatalf("create post %d: %v", i, err)
		}
	}

	page, err := st.ListPosts(ctx, store.PostListOpts{Limit: 3})
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(page) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(page))
	}
	if page[0].Title != "Post 4" {
		t.Fatalf("expected newest first, got %s", page[0].Title)
	}

	rest, err := st.ListPosts(ctx, store.PostListOpts{Limit: 10, Cursor: page[2].CreatedAt.Unix()})
	if err != nil {
		t.Fatalf("list posts after cursor: %v", err)
	}
	if len(rest) != 2 {
		t.Fatalf("expected 2 posts after cursor, got %d", len(rest))
	}
	if rest[0].Title != "Post 1" {
		t.Fatalf("unexpected page order: %s", rest[0].Title)
	}
}

// Posts created within the same second must not be skipped when a page
// boundary lands between them. The cursor id breaks the tie.
func TestListPostsCursorSameSecond(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	owner := newTestAccount(t, st, "burst@example.com")
	when := time.Now().Add(-time.Hour).Truncate(time.Second)
	for i := 0; i < 4; i++ {
		p := model.Post{
			ID:        uuid.NewString(),
			Title:     fmt.Sprintf("Burst %d", i),
			Body:      "body",
			AccountID: owner.ID,
			CreatedAt: when,
			UpdatedAt: when,
		}
		if err := st.CreatePost(ctx, &p); err != nil {
			t.Fatalf("create post %d: %v", i, err)
		}
	}

	first, err := st.ListPosts(ctx, store.PostListOpts{Limit: 2})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(first))
	}

	last := first[len(first)-1]
	second, err := st.ListPosts(ctx, store.PostListOpts{
		Limit:    10,
		Cursor:   last.CreatedAt.Unix(),
		CursorID: last.ID,
	})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second) != 2 {
		t.Fatalf("expected 2 remaining posts, got %d", len(second))
	}
	seen := map[string]bool{first[0].ID: true, first[1].ID: true}
	for _, p := range second {
		if seen[p.ID] {
			t.Fatalf("post %s returned twice", p.ID)
		}
	}
}

func TestCommentLifecycle(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	owner := newTestAccount(t, st, "author@example.com")
	post := newTestPost(t, st, owner.ID, "Commented")

	now := time.Now()
	c := model.Comment{
		ID:        uuid.NewString(),
		Body:      "nice post",
		AccountID: owner.ID,
		PostID:    post.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := st.CreateComment(ctx, &c); err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if err := st.UpdateComment(ctx, c.ID, "edited"); err != nil {
		t.Fatalf("update comment: %v", err)
	}
	got, err := st.GetComment(ctx, c.ID)
	if err != nil {
		t.Fatalf("get comment: %v", err)
	}
	if got.Body != "edited" {
		t.Fatalf("unexpected body: %s", got.Body)
	}

	list, err := st.ListCommentsByPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(list))
	}

	if err := st.DeleteComment(ctx, c.ID); err != nil {
		t.Fatalf("delete comment: %v", err)
	}
	if err := st.DeleteComment(ctx, c.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestToggleLike(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	owner := newTestAccount(t, st, "liker@example.com")
	post := newTestPost(t, st, owner.ID, "Likable")

	liked, err := st.ToggleLike(ctx, owner.ID, post.ID)
	if err != nil {
		t.Fatalf("toggle like: %v", err)
	}
	if !liked {
		t.Fatal("expected first toggle to like")
	}
	if n, _ := st.CountLikes(ctx, post.ID); n != 1 {
		t.Fatalf("expected 1 like, got %d", n)
	}

	liked, err = st.ToggleLike(ctx, owner.ID, post.ID)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if liked {
		t.Fatal("expected second toggle to unlike")
	}
	if n, _ := st.CountLikes(ctx, post.ID); n != 0 {
		t.Fatalf("expected 0 likes, got %d", n)
	}
}

func TestPostIDsByAccount(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	owner := newTestAccount(t, st, "scan@example.com")
	p1 := newTestPost(t, st, owner.ID, "One")
	p2 := newTestPost(t, st, owner.ID, "Two")

	// Corrupt the denormalized list; the table scan must still be right.
	if err := st.ReplacePostRefs(ctx, owner.ID, []string{"bogus"}); err != nil {
		t.Fatalf("replace post refs: %v", err)
	}
	ids, err := st.PostIDsByAccount(ctx, owner.ID)
	if err != nil {
		t.Fatalf("post ids by account: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %v", ids)
	}
	if !containsID(ids, p1.ID) || !containsID(ids, p2.ID) {
		t.Fatalf("expected %s and %s in %v", p1.ID, p2.ID, ids)
	}
}
