package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/recpolicy/policyrag/internal/config"
	"github.com/recpolicy/policyrag/internal/core"
	"github.com/recpolicy/policyrag/internal/models"
)

// newTestClient connects to the database named by DATABASE_URL and returns
// the facade. The tests in this file run real queries against a disposable
// database; they skip in short mode and when no database is configured.
func newTestClient(t *testing.T) core.DbClient {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database tests in short mode")
	}
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	cfg := &config.Config{
		DatabaseURL:      url,
		DBMaxOpenConns:   5,
		DBMaxIdleConns:   2,
		DBAcquireTimeout: 5 * time.Second,
	}
	client, err := NewDatabaseClient(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

// seedUser creates a user that is removed again when the test ends.
func seedUser(t *testing.T, client core.DbClient, prefix string) int64 {
	t.Helper()
	ctx := context.Background()
	userID, err := client.CreateUser(ctx, uniqueName(prefix), "pass-123456", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { _ = client.DeleteUser(context.Background(), userID) })
	return userID
}

func TestDeleteUserCascade(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	userID, err := client.CreateUser(ctx, uniqueName("cascade"), "pass-123456", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	chat, err := client.CreateChat(ctx, userID, "notes")
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if _, err := client.AddMessage(ctx, chat.ID, models.SenderUser, "hello"); err != nil {
		t.Fatalf("add user message: %v", err)
	}
	if _, err := client.AddMessage(ctx, chat.ID, models.SenderBot, "hi"); err != nil {
		t.Fatalf("add bot message: %v", err)
	}

	// Children must go first; a populated account would otherwise trip the
	// foreign keys on chats and chat_message.
	if err := client.DeleteUser(ctx, userID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	if _, err := client.GetUserInfo(ctx, userID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUserInfo after delete: err = %v, want ErrNotFound", err)
	}
	if _, err := client.GetChatMessages(ctx, chat.ID, models.HistoryOptions{Sorted: true}); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetChatMessages after delete: err = %v, want ErrNotFound", err)
	}
}

func TestDeleteChatCascadeKeepsUser(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	userID := seedUser(t, client, "chatdel")
	chat, err := client.CreateChat(ctx, userID, "scratch")
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if _, err := client.AddMessage(ctx, chat.ID, models.SenderUser, "bye"); err != nil {
		t.Fatalf("add message: %v", err)
	}

	if err := client.DeleteChat(ctx, chat.ID); err != nil {
		t.Fatalf("delete chat: %v", err)
	}

	if _, err := client.AddMessage(ctx, chat.ID, models.SenderUser, "late"); !errors.Is(err, ErrNotFound) {
		t.Errorf("AddMessage after delete: err = %v, want ErrNotFound", err)
	}
	if _, err := client.GetUserInfo(ctx, userID); err != nil {
		t.Errorf("owner must survive chat deletion: %v", err)
	}
}

func TestCreateChatUnknownUser(t *testing.T) {
	client := newTestClient(t)

	_, err := client.CreateChat(context.Background(), 1<<60, "orphan")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound from the foreign key", err)
	}
}

func TestInsertImageMissingDocumentPersistsNothing(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	before, err := client.GetAllImageDescriptions(ctx)
	if err != nil {
		t.Fatalf("list images: %v", err)
	}

	_, err = client.InsertImage(ctx, 1<<60, models.Image{
		Name:        "ghost.png",
		Extension:   ".png",
		Path:        "/tmp/ghost.png",
		Description: "figure for a document that does not exist",
		PageNo:      1,
	}, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	after, err := client.GetAllImageDescriptions(ctx)
	if err != nil {
		t.Fatalf("list images: %v", err)
	}
	if len(after) != len(before) {
		t.Errorf("image count changed from %d to %d; rejected insert must persist no row", len(before), len(after))
	}
}

func TestAuthenticateInactiveUser(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	username := uniqueName("auth")
	userID, err := client.CreateUser(ctx, username, "pass-123456", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { _ = client.DeleteUser(context.Background(), userID) })

	res, err := client.Authenticate(ctx, username, "pass-123456")
	if err != nil {
		t.Fatalf("authenticate active user: %v", err)
	}
	if res.UserID != userID {
		t.Errorf("UserID = %d, want %d", res.UserID, userID)
	}

	if _, err := client.Authenticate(ctx, username, "wrong-password"); !errors.Is(err, ErrDenied) {
		t.Errorf("wrong password: err = %v, want ErrDenied", err)
	}

	if err := client.DeactivateUser(ctx, userID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := client.Authenticate(ctx, username, "pass-123456"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deactivated user: err = %v, want ErrNotFound", err)
	}

	if err := client.ActivateUser(ctx, userID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if _, err := client.Authenticate(ctx, username, "pass-123456"); err != nil {
		t.Errorf("reactivated user: %v", err)
	}
}

func TestSetActiveIdempotent(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	userID := seedUser(t, client, "toggle")

	for i := 0; i < 2; i++ {
		if err := client.DeactivateUser(ctx, userID); err != nil {
			t.Fatalf("deactivate round %d: %v", i+1, err)
		}
	}
	for i := 0; i < 2; i++ {
		if err := client.ActivateUser(ctx, userID); err != nil {
			t.Fatalf("activate round %d: %v", i+1, err)
		}
	}

	if err := client.DeactivateUser(ctx, 1<<60); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing user: err = %v, want ErrNotFound", err)
	}
}

func TestChatTranscriptRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	userID := seedUser(t, client, "transcript")
	chat, err := client.CreateChat(ctx, userID, "")
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if chat.Title != models.DefaultChatTitle {
		t.Errorf("title = %q, want default %q", chat.Title, models.DefaultChatTitle)
	}

	if _, err := client.AddMessage(ctx, chat.ID, models.SenderUser, "what is covered?"); err != nil {
		t.Fatalf("add message: %v", err)
	}
	if _, err := client.AddMessage(ctx, chat.ID, models.SenderBot, "section 3 lists it"); err != nil {
		t.Fatalf("add message: %v", err)
	}

	h, err := client.GetChatMessages(ctx, chat.ID, models.HistoryOptions{Limit: 10, Formatted: true, Sorted: true, OldestFirst: true})
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if h.Transcript == nil {
		t.Fatal("transcript not built")
	}
	want := "[User]: what is covered?\n\n[LLM]: section 3 lists it\n\n"
	if *h.Transcript != want {
		t.Errorf("transcript = %q, want %q", *h.Transcript, want)
	}
	if len(h.Sorted) != 2 {
		t.Errorf("sorted length = %d, want 2", len(h.Sorted))
	}
}
