package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/recpolicy/policyrag/internal/core"
	"github.com/recpolicy/policyrag/internal/core/history"
	"github.com/recpolicy/policyrag/internal/core/llm"
	"github.com/recpolicy/policyrag/internal/models"
)

type ChatHandler struct {
	dbclient core.DbClient
	embedder core.EmbeddingProvider
	llm      core.LLMProvider
}

func NewChatHandler(dbclient core.DbClient, emb core.EmbeddingProvider, provider core.LLMProvider) *ChatHandler {
	return &ChatHandler{dbclient: dbclient, embedder: emb, llm: provider}
}

type createChatRequest struct {
	ChatName string `json:"chat_name"`
}

// CreateChat creates a chat for the user named in the path. The owner comes
// from the URL only; a user_id in the body is ignored.
func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	var req createChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	chat, err := h.dbclient.CreateChat(r.Context(), userID, req.ChatName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Chat created successfully.",
		"chat":    map[string]any{"chat_id": chat.ID, "title": chat.Title},
	})
}

func (h *ChatHandler) GetUserChats(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	chats, err := h.dbclient.GetUserChats(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

// GetChatMessages returns the sorted message list and/or transcript for a
// chat. Query parameters mirror the view options; defaults match the chat
// flow (limit=10, formatted and sorted on, oldest first).
func (h *ChatHandler) GetChatMessages(w http.ResponseWriter, r *http.Request) {
	chatID, err := idParam(r, "chatID")
	if err != nil {
		http.Error(w, "invalid chat id", http.StatusBadRequest)
		return
	}

	opts := history.DefaultOptions()
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Limit = n
		}
	}
	if v := q.Get("formatted"); v != "" {
		opts.Formatted = v == "true"
	}
	if v := q.Get("sort"); v != "" {
		opts.Sorted = v == "true"
	}
	if v := q.Get("oldest_first"); v != "" {
		opts.OldestFirst = v == "true"
	}

	hist, err := h.dbclient.GetChatMessages(r.Context(), chatID, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

// GetUserConversation aggregates the message views across every chat the
// user owns.
func (h *ChatHandler) GetUserConversation(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	hist, err := h.dbclient.GetUserConversation(r.Context(), userID, history.DefaultOptions())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	chatID, err := idParam(r, "chatID")
	if err != nil {
		http.Error(w, "invalid chat id", http.StatusBadRequest)
		return
	}

	if err := h.dbclient.DeleteChat(r.Context(), chatID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Chat deleted", "chat_id": chatID})
}

type chatRequest struct {
	UserID int64  `json:"user_id"`
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// Query runs one turn of the conversation: record the user message, classify
// the input against the document context, retrieve matching image content
// when the question targets the documents, generate the reply, record it.
func (h *ChatHandler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "text is empty", http.StatusBadRequest)
		return
	}

	if _, err := h.dbclient.AddMessage(ctx, req.ChatID, models.SenderUser, req.Text); err != nil {
		writeError(w, err)
		return
	}

	hist, err := h.dbclient.GetChatMessages(ctx, req.ChatID, history.DefaultOptions())
	if err != nil {
		writeError(w, err)
		return
	}
	conversation := ""
	if hist.Transcript != nil {
		conversation = *hist.Transcript
	}

	docContext, err := h.dbclient.GetAllDocDescriptions(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	label, err := h.llm.Classify(ctx, req.Text, docContext, conversation)
	if err != nil {
		writeError(w, err)
		return
	}

	var ragAnswer, imageAnswer string
	if label == llm.ClassValidRAG {
		ragAnswer, imageAnswer = h.retrieve(r, req.Text)
	}

	response, err := h.llm.Respond(ctx, core.PromptBundle{
		DocumentContext: docContext,
		UserInput:       req.Text,
		Classification:  label,
		RAGAnswer:       ragAnswer,
		Conversation:    conversation,
	})
	if err != nil || response == "" {
		response = "Oops! Something went wrong."
	}

	if _, err := h.dbclient.AddMessage(ctx, req.ChatID, models.SenderBot, response); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":      req.UserID,
		"text":         req.Text,
		"class":        label,
		"response":     response,
		"image_answer": imageAnswer,
	})
}

// retrieve embeds the question and searches the stored image descriptions.
// Retrieval failures degrade to an empty answer; the reply is then generated
// from the conversation alone.
func (h *ChatHandler) retrieve(r *http.Request, text string) (ragAnswer, imageAnswer string) {
	ctx := r.Context()

	vecs, err := h.embedder.EmbedTexts(ctx, []string{text})
	if err != nil || len(vecs) == 0 {
		return "", ""
	}
	imgs, err := h.dbclient.SearchImagesByEmbedding(ctx, vecs[0], 3)
	if err != nil || len(imgs) == 0 {
		return "", ""
	}

	for _, img := range imgs {
		ragAnswer += img.Description + "\n"
	}
	return ragAnswer, imgs[0].Path
}
