package social

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/friendlog/friendlog/internal/store"
)

// ReconcileReport describes what a reconcile run found and fixed for a
// single account document.
type ReconcileReport struct {
	AccountID string `json:"account_id"`

	// Posts list drift against the authoritative posts table.
	MissingPosts  []string `json:"missing_posts,omitempty"` // in table, absent from list
	StalePosts    []string `json:"stale_posts,omitempty"`   // in list, absent from table
	PostsRepaired bool     `json:"posts_repaired"`

	// Friend edges pointing at deleted accounts.
	DanglingFriends []string `json:"dangling_friends,omitempty"`
	// Friend edges the other side does not reciprocate; removal is
	// completed, matching the intent of the interrupted operation.
	OneWayFriends []string `json:"one_way_friends,omitempty"`
	// Pending requests from accounts that no longer exist.
	DanglingRequests []string `json:"dangling_requests,omitempty"`
}

// Clean reports whether the document needed no repair.
func (r ReconcileReport) Clean() bool {
	return len(r.MissingPosts) == 0 && len(r.StalePosts) == 0 &&
		len(r.DanglingFriends) == 0 && len(r.OneWayFriends) == 0 &&
		len(r.DanglingRequests) == 0
}

// Reconcile re-derives an account's denormalized lists from the
// authoritative tables and repairs any drift. It is safe to run at any
// time; on a clean document it writes nothing.
func (c *Coordinator) Reconcile(ctx context.Context, accountID string) (ReconcileReport, error) {
	report := ReconcileReport{AccountID: accountID}

	account, err := c.store.GetAccount(ctx, accountID)
	if err != nil {
		return report, err
	}

	authoritative, err := c.store.PostIDsByAccount(ctx, accountID)
	if err != nil {
		return report, err
	}
	for _, id := range authoritative {
		if !containsID(account.Posts, id) {
			report.MissingPosts = append(report.MissingPosts, id)
		}
	}
	for _, id := range account.Posts {
		if !containsID(authoritative, id) {
			report.StalePosts = append(report.StalePosts, id)
		}
	}
	if len(report.MissingPosts) > 0 || len(report.StalePosts) > 0 {
		err := c.withRetry(func() error {
			return c.store.ReplacePostRefs(ctx, accountID, authoritative)
		})
		if err != nil {
			return report, err
		}
		report.PostsRepaired = true
	}

	for _, friendID := range account.Friends {
		friend, err := c.store.GetAccount(ctx, friendID)
		if errors.Is(err, store.ErrNotFound) {
			report.DanglingFriends = append(report.DanglingFriends, friendID)
			if err := c.dropEdge(ctx, accountID, friendID); err != nil {
				return report, err
			}
			continue
		}
		if err != nil {
			return report, err
		}
		if !containsID(friend.Friends, accountID) {
			report.OneWayFriends = append(report.OneWayFriends, friendID)
			if err := c.dropEdge(ctx, accountID, friendID); err != nil {
				return report, err
			}
		}
	}

	for _, requesterID := range account.FriendRequests {
		_, err := c.store.GetAccount(ctx, requesterID)
		if errors.Is(err, store.ErrNotFound) {
			report.DanglingRequests = append(report.DanglingRequests, requesterID)
			dropErr := c.withRetry(func() error {
				return c.store.RemoveFriendRequest(ctx, requesterID, accountID)
			})
			if dropErr != nil && !errors.Is(dropErr, store.ErrNoRequest) {
				return report, dropErr
			}
			continue
		}
		if err != nil {
			return report, err
		}
	}

	if !report.Clean() {
		c.log.WithFields(logrus.Fields{
			"account":           accountID,
			"missing_posts":     len(report.MissingPosts),
			"stale_posts":       len(report.StalePosts),
			"dangling_friends":  len(report.DanglingFriends),
			"one_way_friends":   len(report.OneWayFriends),
			"dangling_requests": len(report.DanglingRequests),
		}).Info("reconciled account document")
	}
	return report, nil
}

func (c *Coordinator) dropEdge(ctx context.Context, owner, friend string) error {
	err := c.withRetry(func() error {
		return c.store.RemoveFriendEdge(ctx, owner, friend)
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}
