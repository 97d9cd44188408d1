package model

import "time"

// Account is the authoritative record for a registered user. Friends,
// FriendRequests and Posts are denormalized back-reference lists kept on
// the account document for cheap reads; the owning relations (the posts
// table, the peer account's friend list) remain the source of truth and
// the lists are recomputable from them.
type Account struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Location       string    `json:"location,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	Picture        string    `json:"picture,omitempty"`
	Friends        []string  `json:"friends"`
	FriendRequests []string  `json:"friend_requests"`
	Posts          []string  `json:"posts"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Image     string    `json:"image,omitempty"`
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Comment struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	AccountID string    `json:"account_id"`
	PostID    string    `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Like records that an account likes a post. At most one Like exists per
// (account, post) pair; it is toggled, never updated in place.
type Like struct {
	AccountID string    `json:"account_id"`
	PostID    string    `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PairState describes the friend-graph relation between an ordered pair
// of accounts.
type PairState int

const (
	PairNone PairState = iota
	PairPendingFromFirst
	PairPendingFromSecond
	PairFriends
)

func (s PairState) String() string {
	switch s {
	case PairPendingFromFirst:
		return "pending_from_first"
	case PairPendingFromSecond:
		return "pending_from_second"
	case PairFriends:
		return "friends"
	default:
		return "none"
	}
}
