package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/recpolicy/policyrag/internal/config"
	"github.com/recpolicy/policyrag/internal/core"
	"github.com/recpolicy/policyrag/internal/core/credential"
	"github.com/recpolicy/policyrag/internal/core/history"
	"github.com/recpolicy/policyrag/internal/models"
)

// DatabaseClient is the persistence facade. It is the only component that
// touches the database; every public operation runs inside one scoped
// transaction acquired from the bounded pool.
type DatabaseClient struct {
	db             *sql.DB
	log            *slog.Logger
	history        *history.Service
	acquireTimeout time.Duration
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	logger.Info("database connected and bootstrapped")

	return &DatabaseClient{
		db:             sqlDB,
		log:            logger,
		history:        history.NewService(),
		acquireTimeout: cfg.DBAcquireTimeout,
	}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// withTx runs fn inside one transaction on one pooled connection. The
// connection is acquired under the pool-exhaustion timeout; commit or
// rollback happens on every exit path so the connection always returns to
// the pool.
func (c *DatabaseClient) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	acquireCtx, cancel := context.WithTimeout(ctx, c.acquireTimeout)
	conn, err := c.db.Conn(acquireCtx)
	cancel()
	if err != nil {
		err = wrapDBError(op, err)
		c.log.Error("connection acquisition failed", "op", op, "error", err)
		return err
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		err = wrapDBError(op, err)
		c.log.Error("begin transaction failed", "op", op, "error", err)
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		err = wrapDBError(op, err)
		c.log.Error("operation failed", "op", op, "error", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		err = wrapDBError(op, err)
		c.log.Error("commit failed", "op", op, "error", err)
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Users

func (c *DatabaseClient) CreateUser(ctx context.Context, username, password, role string) (int64, error) {
	const op = "createUser"
	if username == "" {
		return 0, fmt.Errorf("%w: %s: username is empty", ErrInvalidArgument, op)
	}
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		return 0, fmt.Errorf("%w: %s: role %q", ErrInvalidArgument, op, role)
	}

	record, err := credential.Hash(password)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
	}

	var userID int64
	err = c.withTx(ctx, op, func(tx *sql.Tx) error {
		const q = `
			INSERT INTO users (username, password_hash, role)
			VALUES ($1, $2, $3)
			RETURNING user_id
		`
		return tx.QueryRowContext(ctx, q, username, record, role).Scan(&userID)
	})
	if err != nil {
		return 0, err
	}
	c.log.Info("new user created", "user_id", userID)
	return userID, nil
}

func (c *DatabaseClient) Authenticate(ctx context.Context, username, password string) (*models.AuthResult, error) {
	const op = "authenticate"
	var result models.AuthResult
	err := c.withTx(ctx, op, func(tx *sql.Tx) error {
		const q = `
			SELECT user_id, password_hash, role
			FROM users
			WHERE username = $1 AND is_active = TRUE
		`
		var storedHash string
		err := tx.QueryRowContext(ctx, q, username).Scan(&result.UserID, &storedHash, &result.Role)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: no active user %q", ErrNotFound, username)
		}
		if err != nil {
			return err
		}

		if !credential.Verify(password, storedHash) {
			return fmt.Errorf("%w: password mismatch for %q", ErrDenied, username)
		}

		_, err = tx.ExecContext(ctx, `UPDATE users SET last_login_at = now() WHERE user_id = $1`, result.UserID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrDenied) {
			c.log.Info("authentication denied", "username", username)
		}
		return nil, err
	}
	c.log.Info("authentication successful", "username", username)
	return &result, nil
}

const userSummaryQuery = `
	SELECT u.user_id, u.username, u.role, u.created_at, u.last_login_at, u.is_active,
	       COUNT(c.chat_id)
	FROM users u
	LEFT JOIN chats c ON c.user_id = u.user_id
`

func (c *DatabaseClient) GetUserInfo(ctx context.Context, userID int64) (*models.UserSummary, error) {
	const op = "getUserInfo"
	var s models.UserSummary
	err := c.withTx(ctx, op, func(tx *sql.Tx) error {
		q := userSummaryQuery + ` WHERE u.user_id = $1 GROUP BY u.user_id`
		err := tx.QueryRowContext(ctx, q, userID).Scan(
			&s.ID, &s.Username, &s.Role, &s.CreatedAt, &s.LastLoginAt, &s.IsActive, &s.ChatCount,
		)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *DatabaseClient) GetAllUsersInfo(ctx context.Context) ([]models.UserSummary, error) {
	const op = "getAllUsersInfo"
	out := make([]models.UserSummary, 0)
	err := c.withTx(ctx, op, func(tx *sql.Tx) error {
		q := userSummaryQuery + ` GROUP BY u.user_id ORDER BY u.user_id`
		rows, err := tx.QueryContext(ctx, q)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var s models.UserSummary
			if err := rows.Scan(&s.ID, &s.Username, &s.Role, &s.CreatedAt, &s.LastLoginAt, &s.IsActive, &s.ChatCount); err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// setActive flips the is_active flag. Both transitions are idempotent: the
// update succeeds even when the user is already in the target state.
func (c *DatabaseClient) setActive(ctx context.Context, op string, userID int64, active bool) error {
	return c.withTx(ctx, op, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE users SET is_active = $2 WHERE user_id = $1`, userID, active)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return nil
	})
}

func (c *DatabaseClient) DeactivateUser(ctx context.Context, userID int64) error {
	if err := c.setActive(ctx, "deactivateUser", userID, false); err != nil {
		return err
	}
	c.log.Info("user deactivated", "user_id", userID)
	return nil
}

func (c *DatabaseClient) ActivateUser(ctx context.Context, userID int64) error {
	if err := c.setActive(ctx, "activateUser", userID, true); err != nil {
		return err
	}
	c.log.Info("user activated", "user_id", userID)
	return nil
}

func (c *DatabaseClient) ChangeRole(ctx context.Context, userID int64, role string) error {
	const op = "changeRole"
	if !models.ValidRole(role) {
		return fmt.Errorf("%w: %s: role %q", ErrInvalidArgument, op, role)
	}
	err := c.withTx(ctx, op, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE users SET role = $2 WHERE user_id = $1`, userID, role)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.log.Info("user role changed", "user_id", userID, "role", role)
	return nil
}

func (c *DatabaseClient) ChangePassword(ctx context.Context, userID int64, password string) error {
	const op = "changePassword"
	record, err := credential.Hash(password)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
	}
	err = c.withTx(ctx, op, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE users SET password_hash = $2 WHERE user_id = $1`, userID, record)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.log.Info("user password changed", "user_id", userID)
	return nil
}

// DeleteUser removes a user and everything it owns, child rows first, all in
// one transaction. Accounts are normally soft-disabled instead; this exists
// for admin cleanup.
func (c *DatabaseClient) DeleteUser(ctx context.Context, userID int64) error {
	const op = "deleteUser"
	err := c.withTx(ctx, op, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM chat_message
			WHERE chat_id IN (SELECT chat_id FROM chats WHERE user_id = $1)
		`, userID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM chats WHERE user_id = $1`, userID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, userID)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.log.Info("user deleted", "user_id", userID)
	return nil
}

// ---------------------------------------------------------------------------
// Chats

// CreateChat does not pre-validate the user id; the foreign-key constraint
// rejects unknown owners and the violation surfaces as ErrNotFound.
func (c *DatabaseClient) CreateChat(ctx context.Context, userID int64, title string) (*models.Chat, error) {
	const op = "createChat"
	if title == "" {
		title = models.DefaultChatTitle
	}
	chat := &models.Chat{UserID: userID, Title: title}
	err := c.withTx(ctx, op, func(tx *sql.Tx) error {
		const q = `
			INSERT INTO chats (user_id, title)
			VALUES ($1, $2)
			RETURNING chat_id, created_at
		`
		return tx.QueryRowContext(ctx, q, userID, title).Scan(&chat.ID, &chat.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	c.log.Info("new chat created", "chat_id", chat.ID, "user_id", userID)
	return chat, nil
}

func (c *DatabaseClient) GetUserChats(ctx context.Context, userID int64) ([]models.ChatMeta, error) {
	const op = "getUserChats"
	out := make([]models.ChatMeta, 0)
	err := c.withTx(ctx, op, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE user_id = $1)`, userID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}

		const q = `
			SELECT chat_id, title, last_msg, created_at
			FROM chats
			WHERE user_id = $1
			ORDER BY chat_id
		`
		rows, err := tx.QueryContext(ctx, q, userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var m models.ChatMeta
			if err := rows.Scan(&m.ChatID, &m.ChatName, &m.LastMsg, &m.Timestamp); err != nil {
				return err
			}
			out = append(out, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *DatabaseClient) AddMessage(ctx context.Context, chatID int64, sender, content string) (*models.ChatMessage, error) {
	const op = "addMessage"
	if sender != models.SenderUser && sender != models.SenderBot {
		return nil, fmt.Errorf("%w: %s: sender %q", ErrInvalidArgument, op, sender)
	}
	msg := &models.ChatMessage{ChatID: chatID, Sender: sender, Content: content}
	err := c.withTx(ctx, op, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM chats WHERE chat_id = $1)`, chatID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: chat %d", ErrNotFound, chatID)
		}

		const q = `
			INSERT INTO chat_message (chat_id, sender, content)
			VALUES ($1, $2, $3)
			RETURNING message_id, timestamp
		`
		if err := tx.QueryRowContext(ctx, q, chatID, sender, content).Scan(&msg.ID, &msg.Timestamp); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE chats SET last_msg = $2 WHERE chat_id = $1`, chatID, content)
		return err
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (c *DatabaseClient) GetChatMessages(ctx context.Context, chatID int64, opts models.HistoryOptions) (models.History, error) {
	const op = "getChatMessages"
	var h models.History
	err := c.withTx(ctx, op, func(tx *sql.Tx) error {
		chat := models.Chat{ID: chatID}
		err := tx.QueryRowContext(ctx, `SELECT user_id, title, last_msg, created_at FROM chats WHERE chat_id = $1`, chatID).
			Scan(&chat.UserID, &chat.Title, &chat.LastMsg, &chat.CreatedAt)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: chat %d", ErrNotFound, chatID)
		}
		if err != nil {
			return err
		}

		// message_id order is insertion order; the view algorithm depends on it.
		const q = `
			SELECT message_id, sender, content, timestamp
			FROM chat_message
			WHERE chat_id = $1
			ORDER BY message_id
		`
		rows, err := tx.QueryContext(ctx, q, chatID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var m models.ChatMessage
			m.ChatID = chatID
			if err := rows.Scan(&m.ID, &m.Sender, &m.Content, &m.Timestamp); err != nil {
				return err
			}
			chat.Messages = append(chat.Messages, m)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		h = c.history.ChatView(&chat, opts)
		return nil
	})
	if err != nil {
		return models.History{}, err
	}
	return h, nil
}

func (c *DatabaseClient) GetUserConversation(ctx context.Context, userID int64, opts models.HistoryOptions) (models.History, error) {
	const op = "getUserConversation"
	var h models.History
	err := c.withTx(ctx, op, func(tx *sql.Tx) error {
		user := models.User{ID: userID}
		err := tx.QueryRowContext(ctx, `SELECT username FROM users WHERE user_id = $1`, userID).Scan(&user.Username)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		if err != nil {
			return err
		}

		const q = `
			SELECT m.chat_id, m.message_id, m.sender, m.content, m.timestamp
			FROM chat_message m
			JOIN chats c ON c.chat_id = m.chat_id
			WHERE c.user_id = $1
			ORDER BY m.chat_id, m.message_id
		`
		rows, err := tx.QueryContext(ctx, q, userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var m models.ChatMessage
			if err := rows.Scan(&m.ChatID, &m.ID, &m.Sender, &m.Content, &m.Timestamp); err != nil {
				return err
			}
			if n := len(user.Chats); n == 0 || user.Chats[n-1].ID != m.ChatID {
				user.Chats = append(user.Chats, models.Chat{ID: m.ChatID, UserID: userID})
			}
			last := &user.Chats[len(user.Chats)-1]
			last.Messages = append(last.Messages, m)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		h = c.history.UserView(&user, opts)
		return nil
	})
	if err != nil {
		return models.History{}, err
	}
	return h, nil
}

func (c *DatabaseClient) DeleteChat(ctx context.Context, chatID int64) error {
	const op = "deleteChat"
	err := c.withTx(ctx, op, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chat_message WHERE chat_id = $1`, chatID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM chats WHERE chat_id = $1`, chatID)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("%w: chat %d", ErrNotFound, chatID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.log.Info("chat deleted", "chat_id", chatID)
	return nil
}

// ---------------------------------------------------------------------------
// Documents

func (c *DatabaseClient) InsertDocument(ctx context.Context, path, description string, vectorized bool) (int64, error) {
	const op = "insertDocument"
	doc := models.NewDocument(path, description, vectorized)
	var docID int64
	err := c.withTx(ctx, op, func(tx *sql.Tx) error {
		const q = `
			INSERT INTO documents (name, extension, path, description, vectorized)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING document_id
		`
		return tx.QueryRowContext(ctx, q, doc.Name, doc.Extension, doc.Path, doc.Description, doc.Vectorized).Scan(&docID)
	})
	if err != nil {
		return 0, err
	}
	c.log.Info("new document inserted", "document_id", docID, "name", doc.Name)
	return docID, nil
}

func (c *DatabaseClient) GetAllDocDescriptions(ctx context.Context) (string, error) {
	const op = "getAllDocDescriptions"
	var descriptions []string
	err := c.withTx(ctx, op, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT description FROM documents ORDER BY document_id`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var d string
			if err := rows.Scan(&d); err != nil {
				return err
			}
			descriptions = append(descriptions, d)
		}
		return rows.Err()
	})
	if err != nil {
		return "", err
	}
	return models.FormatDocDescriptions(descriptions), nil
}

func (c *DatabaseClient) GetDocumentPath(ctx context.Context, documentID int64) (string, error) {
	const op = "getDocumentPath"
	var path string
	err := c.withTx(ctx, op, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `SELECT path FROM documents WHERE document_id = $1`, documentID).Scan(&path)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: document %d", ErrNotFound, documentID)
		}
		return err
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

func (c *DatabaseClient) MarkDocumentVectorized(ctx context.Context, documentID int64) error {
	const op = "markDocumentVectorized"
	return c.withTx(ctx, op, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE documents SET vectorized = TRUE WHERE document_id = $1`, documentID)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("%w: document %d", ErrNotFound, documentID)
		}
		return nil
	})
}

func (c *DatabaseClient) DeleteDocument(ctx context.Context, documentID int64) error {
	const op = "deleteDocument"
	err := c.withTx(ctx, op, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM images WHERE document_id = $1`, documentID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE document_id = $1`, documentID)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("%w: document %d", ErrNotFound, documentID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.log.Info("document deleted", "document_id", documentID)
	return nil
}

// ---------------------------------------------------------------------------
// Images

// InsertImage attaches an extracted image to a document. The embedding is
// optional; when present it enables similarity search over descriptions.
// The owning document is checked inside the transaction, so a missing
// document means no row is persisted.
func (c *DatabaseClient) InsertImage(ctx context.Context, documentID int64, img models.Image, embedding []float32) (int64, error) {
	const op = "insertImage"
	var imageID int64
	err := c.withTx(ctx, op, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE document_id = $1)`, documentID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: document %d", ErrNotFound, documentID)
		}

		var vec any
		if embedding != nil {
			vec = pgvector.NewVector(embedding)
		}
		const q = `
			INSERT INTO images (document_id, name, extension, path, description, page_no, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING image_id
		`
		return tx.QueryRowContext(ctx, q,
			documentID, img.Name, img.Extension, img.Path, img.Description, img.PageNo, vec,
		).Scan(&imageID)
	})
	if err != nil {
		return 0, err
	}
	c.log.Info("image inserted", "image_id", imageID, "document_id", documentID)
	return imageID, nil
}

func (c *DatabaseClient) GetImagePath(ctx context.Context, imageID int64) (string, error) {
	const op = "getImagePath"
	var path string
	err := c.withTx(ctx, op, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `SELECT path FROM images WHERE image_id = $1`, imageID).Scan(&path)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: image %d", ErrNotFound, imageID)
		}
		return err
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

func (c *DatabaseClient) GetAllImageDescriptions(ctx context.Context) ([]models.ImageDescription, error) {
	const op = "getAllImageDescriptions"
	out := make([]models.ImageDescription, 0)
	err := c.withTx(ctx, op, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT image_id, description FROM images ORDER BY image_id`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var d models.ImageDescription
			if err := rows.Scan(&d.ImageID, &d.Description); err != nil {
				return err
			}
			out = append(out, d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SearchImagesByEmbedding finds the top-k images whose description embedding
// is closest to the query vector.
func (c *DatabaseClient) SearchImagesByEmbedding(ctx context.Context, queryVec []float32, limit int) ([]models.Image, error) {
	const op = "searchImagesByEmbedding"
	if limit <= 0 {
		limit = 5
	}
	out := make([]models.Image, 0, limit)
	err := c.withTx(ctx, op, func(tx *sql.Tx) error {
		const q = `
			SELECT image_id, document_id, name, extension, path, description, page_no, timestamp
			FROM images
			WHERE embedding IS NOT NULL
			ORDER BY embedding <-> $1
			LIMIT $2
		`
		rows, err := tx.QueryContext(ctx, q, pgvector.NewVector(queryVec), limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var img models.Image
			if err := rows.Scan(&img.ID, &img.DocumentID, &img.Name, &img.Extension, &img.Path, &img.Description, &img.PageNo, &img.Timestamp); err != nil {
				return err
			}
			out = append(out, img)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
