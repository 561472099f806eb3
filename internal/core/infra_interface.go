package core

import (
	"context"
	"io"

	"github.com/recpolicy/policyrag/internal/models"
)

// DbClient is the persistence facade consumed by the routing layer. Every
// operation runs inside one scoped transaction and reports failures through
// the typed errors in internal/core/database.
type DbClient interface {
	// Users
	CreateUser(ctx context.Context, username, password, role string) (userID int64, err error)
	Authenticate(ctx context.Context, username, password string) (*models.AuthResult, error)
	GetUserInfo(ctx context.Context, userID int64) (*models.UserSummary, error)
	GetAllUsersInfo(ctx context.Context) ([]models.UserSummary, error)
	DeactivateUser(ctx context.Context, userID int64) error
	ActivateUser(ctx context.Context, userID int64) error
	ChangeRole(ctx context.Context, userID int64, role string) error
	ChangePassword(ctx context.Context, userID int64, password string) error
	DeleteUser(ctx context.Context, userID int64) error

	// Chats
	CreateChat(ctx context.Context, userID int64, title string) (*models.Chat, error)
	GetUserChats(ctx context.Context, userID int64) ([]models.ChatMeta, error)
	AddMessage(ctx context.Context, chatID int64, sender, content string) (*models.ChatMessage, error)
	GetChatMessages(ctx context.Context, chatID int64, opts models.HistoryOptions) (models.History, error)
	GetUserConversation(ctx context.Context, userID int64, opts models.HistoryOptions) (models.History, error)
	DeleteChat(ctx context.Context, chatID int64) error

	// Documents
	InsertDocument(ctx context.Context, path, description string, vectorized bool) (documentID int64, err error)
	GetAllDocDescriptions(ctx context.Context) (string, error)
	GetDocumentPath(ctx context.Context, documentID int64) (string, error)
	MarkDocumentVectorized(ctx context.Context, documentID int64) error
	DeleteDocument(ctx context.Context, documentID int64) error

	// Images
	InsertImage(ctx context.Context, documentID int64, img models.Image, embedding []float32) (imageID int64, err error)
	GetImagePath(ctx context.Context, imageID int64) (string, error)
	GetAllImageDescriptions(ctx context.Context) ([]models.ImageDescription, error)
	SearchImagesByEmbedding(ctx context.Context, queryVec []float32, limit int) ([]models.Image, error)

	Close() error
}

// StoredObject is the receipt returned by blob storage.
type StoredObject struct {
	ID   string `json:"file_id"`
	Name string `json:"file_name"`
	Link string `json:"file_link"`
}

// ObjectClient defines interactions with S3 or any object storage.
// It’s abstract so you can replace AWS with MinIO, GCP, etc. easily.
type ObjectClient interface {
	Store(ctx context.Context, folder, name string, data io.Reader, contentType string) (*StoredObject, error)
	Fetch(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}

// ImageRef describes one image pulled out of a document page.
type ImageRef struct {
	Name      string
	Extension string
	Path      string
	Context   string // surrounding text used as the image description
	PageNo    int
}

// DocProcessor is the extraction pipeline contract.
type DocProcessor interface {
	Summarize(ctx context.Context, path string) (string, error)
	ExtractImages(ctx context.Context, path string) ([]ImageRef, error)
}
