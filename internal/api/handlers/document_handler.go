package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/recpolicy/policyrag/internal/config"
	"github.com/recpolicy/policyrag/internal/core"
	"github.com/recpolicy/policyrag/internal/models"
)

type DocumentHandler struct {
	dbclient     core.DbClient
	objectclient core.ObjectClient
	processor    core.DocProcessor
	embedder     core.EmbeddingProvider
	cfg          *config.Config
	log          *slog.Logger
}

func NewDocumentHandler(dbclient core.DbClient, objectclient core.ObjectClient, processor core.DocProcessor, emb core.EmbeddingProvider, cfg *config.Config, logger *slog.Logger) *DocumentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentHandler{
		dbclient:     dbclient,
		objectclient: objectclient,
		processor:    processor,
		embedder:     emb,
		cfg:          cfg,
		log:          logger,
	}
}

// UploadDocument saves the file locally, mirrors it to blob storage,
// summarizes it, records the document row and registers any extracted page
// images with their description embeddings.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(52 << 20); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	// Base strips any path components a hostile client sent along.
	cleanName := filepath.Base(header.Filename)
	localPath := filepath.Join(h.cfg.DocumentFolder, cleanName)

	out, err := os.Create(localPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("save failed: %v", err), http.StatusInternalServerError)
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		http.Error(w, fmt.Sprintf("save failed: %v", err), http.StatusInternalServerError)
		return
	}
	out.Close()

	contentType := header.Header.Get("Content-Type")
	local, err := os.Open(localPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("reopen failed: %v", err), http.StatusInternalServerError)
		return
	}
	stored, err := h.objectclient.Store(ctx, "Documents", cleanName, local, contentType)
	local.Close()
	if err != nil {
		http.Error(w, fmt.Sprintf("upload failed: %v", err), http.StatusInternalServerError)
		return
	}
	h.log.Info("document mirrored to blob storage", "key", stored.ID)

	summary, err := h.processor.Summarize(ctx, localPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("summary failed: %v", err), http.StatusInternalServerError)
		return
	}

	docID, err := h.dbclient.InsertDocument(ctx, localPath, summary, true)
	if err != nil {
		writeError(w, err)
		return
	}

	imageCount := h.registerImages(r, docID, localPath)

	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "File saved successfully",
		"filename":    header.Filename,
		"document_id": docID,
		"images":      imageCount,
		"blob_link":   stored.Link,
	})
}

// registerImages records extracted page images with description embeddings.
// Failures here are logged and skipped; the document itself is already in.
func (h *DocumentHandler) registerImages(r *http.Request, docID int64, path string) int {
	ctx := r.Context()

	refs, err := h.processor.ExtractImages(ctx, path)
	if err != nil {
		h.log.Warn("image extraction failed", "document_id", docID, "error", err)
		return 0
	}

	count := 0
	for _, ref := range refs {
		var embedding []float32
		if vecs, err := h.embedder.EmbedTexts(ctx, []string{ref.Context}); err == nil && len(vecs) == 1 {
			embedding = vecs[0]
		}
		_, err := h.dbclient.InsertImage(ctx, docID, models.Image{
			Name:        ref.Name,
			Extension:   ref.Extension,
			Path:        ref.Path,
			Description: ref.Context,
			PageNo:      ref.PageNo,
		}, embedding)
		if err != nil {
			h.log.Warn("image insert failed", "document_id", docID, "name", ref.Name, "error", err)
			continue
		}
		count++
	}
	return count
}

// GetDocumentDescriptions returns the prompt-context block built from every
// stored document description.
func (h *DocumentHandler) GetDocumentDescriptions(w http.ResponseWriter, r *http.Request) {
	block, err := h.dbclient.GetAllDocDescriptions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"descriptions": block})
}

// GetImage serves an extracted image by id.
func (h *DocumentHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	imageID, err := idParam(r, "imageID")
	if err != nil {
		http.Error(w, "invalid image id", http.StatusBadRequest)
		return
	}

	path, err := h.dbclient.GetImagePath(r.Context(), imageID)
	if err != nil {
		writeError(w, err)
		return
	}
	if strings.Contains(path, "..") {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)

	disposition := "attachment"
	if r.URL.Query().Get("inline") == "true" {
		disposition = "inline"
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%s", disposition, filepath.Base(path)))

	http.ServeFile(w, r, path)
}
