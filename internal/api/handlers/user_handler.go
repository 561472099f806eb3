package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/recpolicy/policyrag/internal/core"
)

type UserHandler struct {
	dbclient core.DbClient
}

func NewUserHandler(dbclient core.DbClient) *UserHandler {
	return &UserHandler{dbclient: dbclient}
}

func (h *UserHandler) GetUserInfo(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	info, err := h.dbclient.GetUserInfo(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": info})
}

func (h *UserHandler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.dbclient.GetAllUsersInfo(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	totalChats := 0
	for _, u := range users {
		totalChats += u.ChatCount
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users":       users,
		"total_users": len(users),
		"total_chats": totalChats,
	})
}

func (h *UserHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *UserHandler) ActivateUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *UserHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	userID, err := idParam(r, "userID")
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	if active {
		err = h.dbclient.ActivateUser(r.Context(), userID)
	} else {
		err = h.dbclient.DeactivateUser(r.Context(), userID)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	msg := "User deactivated successfully"
	if active {
		msg = "User activated successfully"
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": msg, "user_id": userID})
}

type changeDetailsRequest struct {
	Role     string `json:"role"`
	Password string `json:"password"`
}

// ChangeUserDetails updates role and/or password; empty fields are skipped.
func (h *UserHandler) ChangeUserDetails(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	var req changeDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Role == "" && req.Password == "" {
		http.Error(w, "nothing to change", http.StatusBadRequest)
		return
	}

	if req.Role != "" {
		if err := h.dbclient.ChangeRole(r.Context(), userID, req.Role); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Password != "" {
		if err := h.dbclient.ChangePassword(r.Context(), userID, req.Password); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "User details changed successfully."})
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	if err := h.dbclient.DeleteUser(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "User deleted", "user_id": userID})
}
