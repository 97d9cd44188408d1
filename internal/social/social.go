// Package social is the coordinator for the friend graph and the
// content that hangs off it. All writes that touch the denormalized
// back-reference lists on account documents go through here, so that
// the pairing invariants are checked in one place.
package social

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/friendlog/friendlog/internal/model"
	"github.com/friendlog/friendlog/internal/store"
)

var (
	ErrSelfRelation     = errors.New("cannot befriend yourself")
	ErrAlreadyFriends   = errors.New("already friends")
	ErrAlreadyRequested = errors.New("request already pending")
	ErrNoSuchRequest    = errors.New("no pending request")
	ErrNotFriends       = errors.New("not friends")
	ErrNotOwner         = errors.New("not the owner")
	// ErrInconsistentPair reports a friend removal that committed on one
	// side but failed on the other. The graph is observably lopsided
	// until reconciliation runs.
	ErrInconsistentPair = errors.New("friend pair left inconsistent")
	// ErrTxAborted means a write gave up after retrying a busy store.
	ErrTxAborted = errors.New("transaction aborted")
)

type Coordinator struct {
	store store.Store
	log   *logrus.Logger
}

func NewCoordinator(st store.Store, log *logrus.Logger) *Coordinator {
	if log == nil {
		log = logrus.New()
	}
	return &Coordinator{store: st, log: log}
}

// withRetry runs fn, retrying exactly once when the store reports
// contention. A second busy failure surfaces as ErrTxAborted.
func (c *Coordinator) withRetry(fn func() error) error {
	err := fn()
	if !errors.Is(err, store.ErrBusy) {
		return err
	}
	c.log.WithError(err).Warn("store busy, retrying once")
	if err := fn(); err != nil {
		if errors.Is(err, store.ErrBusy) {
			return ErrTxAborted
		}
		return err
	}
	return nil
}

// pairState classifies the relationship between two loaded accounts.
func pairState(a, b model.Account) model.PairState {
	aHasB := containsID(a.Friends, b.ID)
	bHasA := containsID(b.Friends, a.ID)
	if aHasB && bHasA {
		return model.PairFriends
	}
	if aHasB || bHasA {
		// One-sided edge from a failed removal; treat as still friends
		// so removal can be retried.
		return model.PairFriends
	}
	if containsID(b.FriendRequests, a.ID) {
		return model.PairPendingFromFirst
	}
	if containsID(a.FriendRequests, b.ID) {
		return model.PairPendingFromSecond
	}
	return model.PairNone
}

// SendRequest records a pending friend request from one account to
// another. The pair must be in the clean state: no existing friendship
// and no pending request in either direction.
func (c *Coordinator) SendRequest(ctx context.Context, from, to string) error {
	if from == to {
		return ErrSelfRelation
	}
	sender, err := c.store.GetAccount(ctx, from)
	if err != nil {
		return err
	}
	recipient, err := c.store.GetAccount(ctx, to)
	if err != nil {
		return err
	}
	switch pairState(sender, recipient) {
	case model.PairFriends:
		return ErrAlreadyFriends
	case model.PairPendingFromFirst, model.PairPendingFromSecond:
		return ErrAlreadyRequested
	}
	return c.withRetry(func() error {
		err := c.store.AddFriendRequest(ctx, from, to)
		switch {
		case errors.Is(err, store.ErrDuplicateRequest):
			return ErrAlreadyRequested
		case errors.Is(err, store.ErrAlreadyFriends):
			return ErrAlreadyFriends
		}
		return err
	})
}

// Accept turns a pending request into a friendship. Both documents are
// updated in a single transaction: either both sides see the new edge
// or neither does.
func (c *Coordinator) Accept(ctx context.Context, from, to string) error {
	if from == to {
		return ErrSelfRelation
	}
	return c.withRetry(func() error {
		err := c.store.AcceptFriendRequest(ctx, from, to)
		if errors.Is(err, store.ErrNoRequest) {
			return ErrNoSuchRequest
		}
		return err
	})
}

// Reject drops a pending request without creating an edge.
func (c *Coordinator) Reject(ctx context.Context, from, to string) error {
	return c.withRetry(func() error {
		err := c.store.RemoveFriendRequest(ctx, from, to)
		if errors.Is(err, store.ErrNoRequest) {
			return ErrNoSuchRequest
		}
		return err
	})
}

// Remove deletes the friendship edge from both sides as two separate
// single-document writes. If the second write fails the pair is left
// one-sided: the caller gets ErrInconsistentPair and a reconcile run
// will finish the removal later.
func (c *Coordinator) Remove(ctx context.Context, owner, friend string) error {
	if owner == friend {
		return ErrSelfRelation
	}
	err := c.withRetry(func() error {
		return c.store.RemoveFriendEdge(ctx, owner, friend)
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFriends
	}
	if err != nil {
		return err
	}

	err = c.withRetry(func() error {
		return c.store.RemoveFriendEdge(ctx, friend, owner)
	})
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		c.log.WithFields(logrus.Fields{
			"owner":  owner,
			"friend": friend,
		}).WithError(err).Warn("friend removal committed on one side only")
		return ErrInconsistentPair
	}
	return nil
}

// Friends resolves the owner's friend list to full accounts. Dangling
// ids (friends whose accounts were deleted) are skipped, not errors.
func (c *Coordinator) Friends(ctx context.Context, accountID string) ([]model.Account, error) {
	account, err := c.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return c.resolveAccounts(ctx, account.Friends)
}

// PendingRequests resolves the accounts behind the owner's incoming
// friend requests.
func (c *Coordinator) PendingRequests(ctx context.Context, accountID string) ([]model.Account, error) {
	account, err := c.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return c.resolveAccounts(ctx, account.FriendRequests)
}

func (c *Coordinator) resolveAccounts(ctx context.Context, ids []string) ([]model.Account, error) {
	accounts := make([]model.Account, 0, len(ids))
	for _, id := range ids {
		a, err := c.store.GetAccount(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
