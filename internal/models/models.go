package models

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Sender values accepted for chat messages.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Role values accepted for users.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidRole reports whether role is one of the two allowed values.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// User represents an account. Chats is populated by the persistence layer
// when a user is loaded with its conversations; it is nil otherwise.
type User struct {
	ID           int64      `db:"user_id" json:"user_id"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at"`
	IsActive     bool       `db:"is_active" json:"is_active"`

	Chats []Chat `json:"-"`
}

// UserSummary is the read-only view returned for admin listings.
type UserSummary struct {
	ID          int64      `json:"user_id"`
	Username    string     `json:"username"`
	Role        string     `json:"role"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login"`
	IsActive    bool       `json:"is_active"`
	ChatCount   int        `json:"no_of_chats"`
}

// Summary builds the read-only view of this user.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
		IsActive:    u.IsActive,
		ChatCount:   len(u.Chats),
	}
}

// ConversationSnapshot aggregates the messages of every loaded chat, in chat
// order then message order, and builds the requested views.
func (u *User) ConversationSnapshot(opts HistoryOptions) History {
	var msgs []MessageData
	for i := range u.Chats {
		for _, m := range u.Chats[i].Messages {
			msgs = append(msgs, MessageData{Sender: m.Sender, Content: m.Content, Timestamp: m.Timestamp})
		}
	}
	return BuildHistory(msgs, opts)
}

// DefaultChatTitle is used when a chat is created without a name.
const DefaultChatTitle = "--Untitled--"

// Chat is a conversation owned by exactly one user. Messages is populated by
// the persistence layer in insertion order.
type Chat struct {
	ID        int64     `db:"chat_id" json:"chat_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	LastMsg   string    `db:"last_msg" json:"last_msg"`
	CreatedAt time.Time `db:"created_at" json:"timestamp"`

	Messages []ChatMessage `json:"-"`
}

// AppendMessage adds a message to the in-memory chat and refreshes the
// last-message preview. Messages are immutable once created; persisting the
// new row is the caller's responsibility.
func (c *Chat) AppendMessage(sender, content string) ChatMessage {
	msg := ChatMessage{
		ChatID:    c.ID,
		Sender:    sender,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	c.Messages = append(c.Messages, msg)
	c.LastMsg = content
	return msg
}

// MessageView builds the requested views over this chat's messages.
func (c *Chat) MessageView(opts HistoryOptions) History {
	msgs := make([]MessageData, 0, len(c.Messages))
	for _, m := range c.Messages {
		msgs = append(msgs, MessageData{Sender: m.Sender, Content: m.Content, Timestamp: m.Timestamp})
	}
	return BuildHistory(msgs, opts)
}

// ChatMessage is a single immutable message inside a chat.
type ChatMessage struct {
	ID        int64     `db:"message_id" json:"message_id"`
	ChatID    int64     `db:"chat_id" json:"chat_id"`
	Sender    string    `db:"sender" json:"sender"`
	Content   string    `db:"content" json:"content"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// MessageData is the sender/content/timestamp triple exposed by history views.
type MessageData struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryOptions selects which views BuildHistory produces.
type HistoryOptions struct {
	Limit       int  // transcript window; messages beyond it drop out of the transcript only
	Formatted   bool // build the role-tagged transcript
	Sorted      bool // build the timestamp-sorted list
	OldestFirst bool // ascending when true, descending otherwise
}

// History holds the requested views. Transcript is nil when not requested;
// Sorted is nil when not requested and non-nil (possibly empty) when it was,
// so callers can tell "not requested" apart from "no messages".
type History struct {
	Transcript *string       `json:"transcript,omitempty"`
	Sorted     []MessageData `json:"messages,omitempty"`
}

// BuildHistory implements the shared ordering/formatting algorithm.
//
// The transcript takes the last opts.Limit messages in their original
// chronological order and renders each as "[User]: ..." or "[LLM]: ..."
// followed by a blank line. The sorted list stable-sorts the full set by
// timestamp, ties kept in insertion order. The transcript feeds the LLM
// context window, so its shape must not drift.
func BuildHistory(msgs []MessageData, opts HistoryOptions) History {
	var h History

	if opts.Formatted {
		window := msgs
		if opts.Limit > 0 && len(window) > opts.Limit {
			window = window[len(window)-opts.Limit:]
		}
		var b strings.Builder
		for _, m := range window {
			label := "[LLM]"
			if m.Sender == SenderUser {
				label = "[User]"
			}
			b.WriteString(label)
			b.WriteString(": ")
			b.WriteString(m.Content)
			b.WriteString("\n\n")
		}
		s := b.String()
		h.Transcript = &s
	}

	if opts.Sorted {
		sorted := make([]MessageData, len(msgs))
		copy(sorted, msgs)
		if opts.OldestFirst {
			sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })
		} else {
			sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.After(sorted[j].Timestamp) })
		}
		h.Sorted = sorted
	}

	return h
}

// Document represents an ingested file tracked by the store.
type Document struct {
	ID          int64     `db:"document_id" json:"document_id"`
	Name        string    `db:"name" json:"name"`
	Extension   string    `db:"extension" json:"extension"`
	Path        string    `db:"path" json:"path"`
	Description string    `db:"description" json:"description"`
	Vectorized  bool      `db:"vectorized" json:"vectorized"`
	UploadedAt  time.Time `db:"upload_timestamp" json:"upload_timestamp"`

	Images []Image `json:"-"`
}

// NewDocument derives name and extension from the path, matching the
// ingestion flow's behaviour for uploaded files.
func NewDocument(path, description string, vectorized bool) Document {
	name := filepath.Base(path)
	return Document{
		Name:        name,
		Extension:   filepath.Ext(name),
		Path:        path,
		Description: description,
		Vectorized:  vectorized,
	}
}

// AddImage attaches an extracted image to the in-memory document.
func (d *Document) AddImage(name, extension, path, description string, pageNo int) Image {
	img := Image{
		DocumentID:  d.ID,
		Name:        name,
		Extension:   extension,
		Path:        path,
		Description: description,
		PageNo:      pageNo,
		Timestamp:   time.Now().UTC(),
	}
	d.Images = append(d.Images, img)
	return img
}

// MarkVectorized flags the document as present in the vector index.
func (d *Document) MarkVectorized() {
	d.Vectorized = true
}

// Image is a figure extracted from a document page.
type Image struct {
	ID          int64     `db:"image_id" json:"image_id"`
	DocumentID  int64     `db:"document_id" json:"document_id"`
	Name        string    `db:"name" json:"name"`
	Extension   string    `db:"extension" json:"extension"`
	Path        string    `db:"path" json:"path"`
	Description string    `db:"description" json:"description"`
	PageNo      int       `db:"page_no" json:"page_no"`
	Timestamp   time.Time `db:"timestamp" json:"timestamp"`
}

// ImageDescription pairs an image id with its stored description.
type ImageDescription struct {
	ImageID     int64  `json:"image_id"`
	Description string `json:"description"`
}

// AuthResult is returned on successful authentication.
type AuthResult struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

// ChatMeta is the per-chat listing entry returned for a user.
type ChatMeta struct {
	ChatID    int64     `json:"chat_id"`
	ChatName  string    `json:"chat_name"`
	LastMsg   string    `json:"last_msg"`
	Timestamp time.Time `json:"timestamp"`
}

// FormatDocDescriptions renders the prompt-context block consumed by the
// LLM templates: "Document N: <desc>\n" entries joined by "\n". The exact
// shape is load-bearing for the prompt template; do not change it.
func FormatDocDescriptions(descriptions []string) string {
	parts := make([]string, 0, len(descriptions))
	for i, d := range descriptions {
		parts = append(parts, fmt.Sprintf("Document %d: %s\n", i+1, d))
	}
	return strings.Join(parts, "\n")
}
