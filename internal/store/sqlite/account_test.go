package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/friendlog/friendlog/internal/model"
	"github.com/friendlog/friendlog/internal/store"
)

func TestAccountLifecycle(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	a := newTestAccount(t, st, "alice@example.com")

	got, err := st.GetAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got.Email != "alice@example.com" {
		t.Fatalf("unexpected email: %s", got.Email)
	}
	if len(got.Friends) != 0 || len(got.FriendRequests) != 0 || len(got.Posts) != 0 {
		t.Fatalf("expected empty relation lists, got %+v", got)
	}

	byEmail, err := st.FindAccountByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if byEmail.ID != a.ID {
		t.Fatalf("expected id %s, got %s", a.ID, byEmail.ID)
	}

	if err := st.UpdateAccountProfile(ctx, a.ID, "Alice", "Lisbon", "hello"); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if err := st.UpdateAccountPicture(ctx, a.ID, "https://example.com/a.png"); err != nil {
		t.Fatalf("update picture: %v", err)
	}
	got, _ = st.GetAccount(ctx, a.ID)
	if got.Name != "Alice" || got.Location != "Lisbon" || got.Bio != "hello" {
		t.Fatalf("profile not applied: %+v", got)
	}
	if got.Picture != "https://example.com/a.png" {
		t.Fatalf("picture not applied: %s", got.Picture)
	}

	if err := st.DeleteAccount(ctx, a.ID); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if _, err := st.GetAccount(ctx, a.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateAccountDuplicateEmail(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	newTestAccount(t, st, "dup@example.com")
	dup := model.Account{
		ID:           "other-id",
		Name:         "Other",
		Email:        "dup@example.com",
		PasswordHash: "$2a$10$notarealhash",
	}
	err := st.CreateAccount(context.Background(), &dup)
	if !errors.Is(err, store.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestFriendRequestFlow(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	alice := newTestAccount(t, st, "alice@example.com")
	bob := newTestAccount(t, st, "bob@example.com")

	if err := st.AddFriendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("add request: %v", err)
	}
	if err := st.AddFriendRequest(ctx, alice.ID, bob.ID); !errors.Is(err, store.ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got %v", err)
	}

	got, _ := st.GetAccount(ctx, bob.ID)
	if len(got.FriendRequests) != 1 || got.FriendRequests[0] != alice.ID {
		t.Fatalf("expected pending request from %s, got %v", alice.ID, got.FriendRequests)
	}

	if err := st.AcceptFriendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	got, _ = st.GetAccount(ctx, bob.ID)
	if len(got.FriendRequests) != 0 {
		t.Fatalf("request not cleared: %v", got.FriendRequests)
	}
	if !containsID(got.Friends, alice.ID) {
		t.Fatalf("bob missing alice in friends: %v", got.Friends)
	}
	other, _ := st.GetAccount(ctx, alice.ID)
	if !containsID(other.Friends, bob.ID) {
		t.Fatalf("alice missing bob in friends: %v", other.Friends)
	}

	if err := st.AcceptFriendRequest(ctx, alice.ID, bob.ID); !errors.Is(err, store.ErrNoRequest) {
		t.Fatalf("expected ErrNoRequest on re-accept, got %v", err)
	}
}

// The pair state is checked inside the write transaction, so a request
// sent against an established friendship is refused no matter what the
// caller saw before entering the transaction.
func TestAddFriendRequestChecksPairStateInTx(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	alice := newTestAccount(t, st, "alice@example.com")
	bob := newTestAccount(t, st, "bob@example.com")

	if err := st.AddFriendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("add request: %v", err)
	}
	if err := st.AddFriendRequest(ctx, bob.ID, alice.ID); !errors.Is(err, store.ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest for reverse request, got %v", err)
	}
	if err := st.AcceptFriendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if err := st.AddFriendRequest(ctx, alice.ID, bob.ID); !errors.Is(err, store.ErrAlreadyFriends) {
		t.Fatalf("expected ErrAlreadyFriends, got %v", err)
	}
	if err := st.AddFriendRequest(ctx, bob.ID, alice.ID); !errors.Is(err, store.ErrAlreadyFriends) {
		t.Fatalf("expected ErrAlreadyFriends in reverse direction, got %v", err)
	}

	got, _ := st.GetAccount(ctx, bob.ID)
	if !containsID(got.Friends, alice.ID) {
		t.Fatalf("friendship lost: %v", got.Friends)
	}
	if len(got.FriendRequests) != 0 {
		t.Fatalf("refused request still recorded: %v", got.FriendRequests)
	}
}

func TestRejectFriendRequest(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	alice := newTestAccount(t, st, "alice@example.com")
	bob := newTestAccount(t, st, "bob@example.com")

	if err := st.RemoveFriendRequest(ctx, alice.ID, bob.ID); !errors.Is(err, store.ErrNoRequest) {
		t.Fatalf("expected ErrNoRequest, got %v", err)
	}
	if err := st.AddFriendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("add request: %v", err)
	}
	if err := st.RemoveFriendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("remove request: %v", err)
	}
	got, _ := st.GetAccount(ctx, bob.ID)
	if len(got.FriendRequests) != 0 {
		t.Fatalf("request not removed: %v", got.FriendRequests)
	}
}

// If the requester's account disappears between request and accept, the
// accept transaction must roll back and leave the recipient's document
// exactly as it was, pending request included.
func TestAcceptRollsBackWhenRequesterGone(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	alice := newTestAccount(t, st, "alice@example.com")
	bob := newTestAccount(t, st, "bob@example.com")

	if err := st.AddFriendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("add request: %v", err)
	}
	if err := st.DeleteAccount(ctx, alice.ID); err != nil {
		t.Fatalf("delete requester: %v", err)
	}

	err := st.AcceptFriendRequest(ctx, alice.ID, bob.ID)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	got, _ := st.GetAccount(ctx, bob.ID)
	if len(got.Friends) != 0 {
		t.Fatalf("recipient gained a friend despite rollback: %v", got.Friends)
	}
	if len(got.FriendRequests) != 1 || got.FriendRequests[0] != alice.ID {
		t.Fatalf("pending request lost despite rollback: %v", got.FriendRequests)
	}
}

func TestRemoveFriendEdge(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	alice := newTestAccount(t, st, "alice@example.com")
	bob := newTestAccount(t, st, "bob@example.com")

	if err := st.AddFriendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("add request: %v", err)
	}
	if err := st.AcceptFriendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if err := st.RemoveFriendEdge(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("remove edge (alice): %v", err)
	}
	got, _ := st.GetAccount(ctx, alice.ID)
	if containsID(got.Friends, bob.ID) {
		t.Fatalf("bob still in alice's friends: %v", got.Friends)
	}
	// Each call removes exactly one side.
	other, _ := st.GetAccount(ctx, bob.ID)
	if !containsID(other.Friends, alice.ID) {
		t.Fatalf("alice unexpectedly removed from bob's friends: %v", other.Friends)
	}

	if err := st.RemoveFriendEdge(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("remove edge (bob): %v", err)
	}
	if err := st.RemoveFriendEdge(ctx, bob.ID, alice.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeat removal, got %v", err)
	}
}
