package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/friendlog/friendlog/internal/model"
	"github.com/friendlog/friendlog/internal/store"
)

const postColumns = `id, title, body, image, account_id, created_at, updated_at`

func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		owner, err := getAccountTx(ctx, tx, post.AccountID)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO posts (id, title, body, image, account_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, post.ID, post.Title, post.Body, nullIfEmpty(post.Image), post.AccountID,
			post.CreatedAt.Unix(), post.UpdatedAt.Unix())
		if err != nil {
			return err
		}
		owner.Posts = appendID(owner.Posts, post.ID)
		_, err = tx.ExecContext(ctx, `
UPDATE accounts SET posts = ?, updated_at = ? WHERE id = ?
`, encodeIDs(owner.Posts), time.Now().Unix(), owner.ID)
		return err
	})
}

func (s *Store) GetPost(ctx context.Context, id string) (model.Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	return scanPost(row)
}

func (s *Store) UpdatePost(ctx context.Context, id, title, body, image string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE posts SET title = ?, body = ?, image = ?, updated_at = ? WHERE id = ?
`, title, body, nullIfEmpty(image), time.Now().Unix(), id)
	if err != nil {
		return mapErr(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		post, err := scanPost(tx.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE post_id = ?`, id); err != nil {
			return err
		}

		// A missing owner is tolerated: the back-reference is already gone.
		owner, err := getAccountTx(ctx, tx, post.AccountID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		refs, found := removeID(owner.Posts, id)
		if !found {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
UPDATE accounts SET posts = ?, updated_at = ? WHERE id = ?
`, encodeIDs(refs), time.Now().Unix(), owner.ID)
		return err
	})
}

func (s *Store) ListPosts(ctx context.Context, opts store.PostListOpts) ([]model.Post, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 25
	}
	var rows *sql.Rows
	var err error
	switch {
	case opts.Cursor > 0 && opts.CursorID != "":
		// Tie-break on id so posts sharing the boundary second are not
		// skipped between pages.
		rows, err = s.db.QueryContext(ctx, `
SELECT `+postColumns+` FROM posts
WHERE created_at < ? OR (created_at = ? AND id < ?)
ORDER BY created_at DESC, id DESC LIMIT ?
`, opts.Cursor, opts.Cursor, opts.CursorID, limit)
	case opts.Cursor > 0:
		rows, err = s.db.QueryContext(ctx, `
SELECT `+postColumns+` FROM posts WHERE created_at < ? ORDER BY created_at DESC, id DESC LIMIT ?
`, opts.Cursor, limit)
	default:
		rows, err = s.db.QueryContext(ctx, `
SELECT `+postColumns+` FROM posts ORDER BY created_at DESC, id DESC LIMIT ?
`, limit)
	}
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	return collectPosts(rows)
}

func (s *Store) ListPostsByAccount(ctx context.Context, accountID string, limit int) ([]model.Post, error) {
	if limit <= 0 {
		limit = 25
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT `+postColumns+` FROM posts WHERE account_id = ? ORDER BY created_at DESC, id DESC LIMIT ?
`, accountID, limit)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	return collectPosts(rows)
}

// PostIDsByAccount scans the posts table directly, bypassing the
// denormalized list on the account row. Reconciliation treats this
// as the authoritative answer.
func (s *Store) PostIDsByAccount(ctx context.Context, accountID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id FROM posts WHERE account_id = ? ORDER BY created_at ASC, id ASC
`, accountID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const commentColumns = `id, body, account_id, post_id, created_at, updated_at`

func (s *Store) CreateComment(ctx context.Context, comment *model.Comment) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO comments (id, body, account_id, post_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
`, comment.ID, comment.Body, comment.AccountID, comment.PostID,
		comment.CreatedAt.Unix(), comment.UpdatedAt.Unix())
	return mapErr(err)
}

func (s *Store) GetComment(ctx context.Context, id string) (model.Comment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = ?`, id)
	return scanComment(row)
}

func (s *Store) UpdateComment(ctx context.Context, id, body string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE comments SET body = ?, updated_at = ? WHERE id = ?
`, body, time.Now().Unix(), id)
	if err != nil {
		return mapErr(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return mapErr(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListCommentsByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+commentColumns+` FROM comments WHERE post_id = ? ORDER BY created_at ASC, id ASC
`, postID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	return collectComments(rows)
}

// ListComments returns the newest comments across all posts.
func (s *Store) ListComments(ctx context.Context, limit int) ([]model.Comment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT `+commentColumns+` FROM comments ORDER BY created_at DESC, id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	return collectComments(rows)
}

// ToggleLike drops an existing like or inserts a fresh one, reporting
// whether the post ends up liked by the account.
func (s *Store) ToggleLike(ctx context.Context, accountID, postID string) (bool, error) {
	var liked bool
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM likes WHERE account_id = ? AND post_id = ?
`, accountID, postID)
		if err != nil {
			return err
		}
		if rows, _ := res.RowsAffected(); rows > 0 {
			liked = false
			return nil
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO likes (account_id, post_id, created_at) VALUES (?, ?, ?)
`, accountID, postID, time.Now().Unix())
		if err != nil {
			if isUniqueViolation(err) {
				return store.ErrDuplicateLike
			}
			return err
		}
		liked = true
		return nil
	})
	return liked, err
}

func (s *Store) CountLikes(ctx context.Context, postID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE post_id = ?`, postID).Scan(&n)
	if err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}

func (s *Store) ListLikesByPost(ctx context.Context, postID string) ([]model.Like, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT account_id, post_id, created_at FROM likes WHERE post_id = ? ORDER BY created_at ASC
`, postID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	return collectLikes(rows)
}

func (s *Store) ListLikesByAccount(ctx context.Context, accountID string) ([]model.Like, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT account_id, post_id, created_at FROM likes WHERE account_id = ? ORDER BY created_at ASC
`, accountID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	return collectLikes(rows)
}

func scanPost(scanner interface{ Scan(dest ...any) error }) (model.Post, error) {
	var p model.Post
	var image sql.NullString
	var created, updated int64
	err := scanner.Scan(&p.ID, &p.Title, &p.Body, &image, &p.AccountID, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Post{}, store.ErrNotFound
		}
		return model.Post{}, mapErr(err)
	}
	p.Image = stringOrEmpty(image)
	p.CreatedAt = time.Unix(created, 0)
	p.UpdatedAt = time.Unix(updated, 0)
	return p, nil
}

func collectPosts(rows *sql.Rows) ([]model.Post, error) {
	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func scanComment(scanner interface{ Scan(dest ...any) error }) (model.Comment, error) {
	var c model.Comment
	var created, updated int64
	err := scanner.Scan(&c.ID, &c.Body, &c.AccountID, &c.PostID, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Comment{}, store.ErrNotFound
		}
		return model.Comment{}, mapErr(err)
	}
	c.CreatedAt = time.Unix(created, 0)
	c.UpdatedAt = time.Unix(updated, 0)
	return c, nil
}

func collectComments(rows *sql.Rows) ([]model.Comment, error) {
	var comments []model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func collectLikes(rows *sql.Rows) ([]model.Like, error) {
	var likes []model.Like
	for rows.Next() {
		var l model.Like
		var created int64
		if err := rows.Scan(&l.AccountID, &l.PostID, &created); err != nil {
			return nil, err
		}
		l.CreatedAt = time.Unix(created, 0)
		likes = append(likes, l)
	}
	return likes, rows.Err()
}
