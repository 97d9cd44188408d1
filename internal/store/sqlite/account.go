package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/friendlog/friendlog/internal/model"
	"github.com/friendlog/friendlog/internal/store"
)

const accountColumns = `id, name, email, password_hash, location, bio, picture, friends, friend_requests, posts, created_at, updated_at`

func (s *Store) CreateAccount(ctx context.Context, account *model.Account) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO accounts (id, name, email, password_hash, location, bio, picture, friends, friend_requests, posts, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, account.ID, account.Name, account.Email, account.PasswordHash,
		nullIfEmpty(account.Location), nullIfEmpty(account.Bio), nullIfEmpty(account.Picture),
		encodeIDs(account.Friends), encodeIDs(account.FriendRequests), encodeIDs(account.Posts),
		account.CreatedAt.Unix(), account.UpdatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateEmail
		}
		return mapErr(err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (model.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (s *Store) FindAccountByEmail(ctx context.Context, email string) (model.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	return scanAccount(row)
}

func (s *Store) UpdateAccountProfile(ctx context.Context, id, name, location, bio string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE accounts SET name = ?, location = ?, bio = ?, updated_at = ? WHERE id = ?
`, name, nullIfEmpty(location), nullIfEmpty(bio), time.Now().Unix(), id)
	if err != nil {
		return mapErr(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateAccountPicture(ctx context.Context, id, picture string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE accounts SET picture = ?, updated_at = ? WHERE id = ?
`, nullIfEmpty(picture), time.Now().Unix(), id)
	if err != nil {
		return mapErr(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateAccountPassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?
`, passwordHash, time.Now().Unix(), id)
	if err != nil {
		return mapErr(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListAccounts(ctx context.Context, limit, offset int) ([]model.Account, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT `+accountColumns+` FROM accounts ORDER BY created_at ASC LIMIT ? OFFSET ?
`, limit, offset)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return mapErr(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ReplacePostRefs(ctx context.Context, id string, postIDs []string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE accounts SET posts = ?, updated_at = ? WHERE id = ?
`, encodeIDs(postIDs), time.Now().Unix(), id)
	if err != nil {
		return mapErr(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) AddFriendRequest(ctx context.Context, from, to string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		sender, err := getAccountTx(ctx, tx, from)
		if err != nil {
			return err
		}
		target, err := getAccountTx(ctx, tx, to)
		if err != nil {
			return err
		}
		if containsID(target.Friends, from) || containsID(sender.Friends, to) {
			return store.ErrAlreadyFriends
		}
		if containsID(target.FriendRequests, from) || containsID(sender.FriendRequests, to) {
			return store.ErrDuplicateRequest
		}
		target.FriendRequests = append(target.FriendRequests, from)
		return updateRelations(ctx, tx, target)
	})
}

func (s *Store) RemoveFriendRequest(ctx context.Context, from, to string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		target, err := getAccountTx(ctx, tx, to)
		if err != nil {
			return err
		}
		requests, found := removeID(target.FriendRequests, from)
		if !found {
			return store.ErrNoRequest
		}
		target.FriendRequests = requests
		return updateRelations(ctx, tx, target)
	})
}

func (s *Store) AcceptFriendRequest(ctx context.Context, from, to string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		target, err := getAccountTx(ctx, tx, to)
		if err != nil {
			return err
		}
		requests, found := removeID(target.FriendRequests, from)
		if !found {
			return store.ErrNoRequest
		}
		target.FriendRequests = requests
		target.Friends = appendID(target.Friends, from)
		if err := updateRelations(ctx, tx, target); err != nil {
			return err
		}

		// The requester's side is written second: if the requester vanished
		// the whole transaction rolls back, leaving the recipient untouched.
		requester, err := getAccountTx(ctx, tx, from)
		if err != nil {
			return err
		}
		requester.Friends = appendID(requester.Friends, to)
		return updateRelations(ctx, tx, requester)
	})
}

func (s *Store) RemoveFriendEdge(ctx context.Context, owner, friend string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		account, err := getAccountTx(ctx, tx, owner)
		if err != nil {
			return err
		}
		friends, found := removeID(account.Friends, friend)
		if !found {
			return store.ErrNotFound
		}
		account.Friends = friends
		return updateRelations(ctx, tx, account)
	})
}

func getAccountTx(ctx context.Context, tx *sql.Tx, id string) (model.Account, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func updateRelations(ctx context.Context, tx *sql.Tx, account model.Account) error {
	res, err := tx.ExecContext(ctx, `
UPDATE accounts SET friends = ?, friend_requests = ?, updated_at = ? WHERE id = ?
`, encodeIDs(account.Friends), encodeIDs(account.FriendRequests), time.Now().Unix(), account.ID)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanAccount(scanner interface{ Scan(dest ...any) error }) (model.Account, error) {
	var a model.Account
	var location, bio, picture sql.NullString
	var friends, requests, posts string
	var created, updated int64
	err := scanner.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &location, &bio, &picture,
		&friends, &requests, &posts, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, store.ErrNotFound
		}
		return model.Account{}, mapErr(err)
	}
	a.Location = stringOrEmpty(location)
	a.Bio = stringOrEmpty(bio)
	a.Picture = stringOrEmpty(picture)
	a.Friends = decodeIDs(friends)
	a.FriendRequests = decodeIDs(requests)
	a.Posts = decodeIDs(posts)
	a.CreatedAt = time.Unix(created, 0)
	a.UpdatedAt = time.Unix(updated, 0)
	return a, nil
}
