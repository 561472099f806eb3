// Package history exposes the conversation-view algorithm to the persistence
// facade with the defaults the chat flow expects.
package history

import (
	"github.com/recpolicy/policyrag/internal/models"
)

// DefaultLimit is the transcript window handed to the LLM.
const DefaultLimit = 10

// DefaultOptions mirror the original call sites: ten-message transcript,
// sorted list, oldest first.
func DefaultOptions() models.HistoryOptions {
	return models.HistoryOptions{
		Limit:       DefaultLimit,
		Formatted:   true,
		Sorted:      true,
		OldestFirst: true,
	}
}

// Service builds ordered and formatted message views for a chat or for a
// whole user. It holds no state; it exists so the facade depends on a named
// collaborator rather than on free functions.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// ChatView builds the requested views over one chat's messages.
func (s *Service) ChatView(chat *models.Chat, opts models.HistoryOptions) models.History {
	return chat.MessageView(opts)
}

// UserView aggregates messages across every chat the user owns.
func (s *Service) UserView(user *models.User, opts models.HistoryOptions) models.History {
	return user.ConversationSnapshot(opts)
}
