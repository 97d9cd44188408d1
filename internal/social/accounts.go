package social

import (
	"context"
	"errors"
	"strings"

	"github.com/friendlog/friendlog/internal/model"
)

var ErrEmptyName = errors.New("name required")

func (c *Coordinator) Account(ctx context.Context, id string) (model.Account, error) {
	return c.store.GetAccount(ctx, id)
}

func (c *Coordinator) ListAccounts(ctx context.Context, limit, offset int) ([]model.Account, error) {
	return c.store.ListAccounts(ctx, limit, offset)
}

// UpdateProfile rewrites the mutable profile fields and returns the
// fresh document.
func (c *Coordinator) UpdateProfile(ctx context.Context, id, name, location, bio string) (model.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Account{}, ErrEmptyName
	}
	err := c.withRetry(func() error {
		return c.store.UpdateAccountProfile(ctx, id, name, strings.TrimSpace(location), strings.TrimSpace(bio))
	})
	if err != nil {
		return model.Account{}, err
	}
	return c.store.GetAccount(ctx, id)
}

func (c *Coordinator) UpdatePicture(ctx context.Context, id, picture string) (model.Account, error) {
	err := c.withRetry(func() error {
		return c.store.UpdateAccountPicture(ctx, id, strings.TrimSpace(picture))
	})
	if err != nil {
		return model.Account{}, err
	}
	return c.store.GetAccount(ctx, id)
}
