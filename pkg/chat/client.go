package chat

import (
	"context"
	"time"
)

// RetrievalFilters narrow the documents the backend may search
type RetrievalFilters struct {
	SourceTypes  []string   `json:"source_type,omitempty"`
	DocumentSets []string   `json:"document_set,omitempty"`
	TimeCutoff   *time.Time `json:"time_cutoff,omitempty"`
}

// IsEmpty reports whether no filter is set
func (f RetrievalFilters) IsEmpty() bool {
	return len(f.SourceTypes) == 0 && len(f.DocumentSets) == 0 && f.TimeCutoff == nil
}

// SendMessageRequest is everything a packet source needs to start a turn
type SendMessageRequest struct {
	Message         string
	ParentMessageID *int
	ChatSessionID   int
	PersonaID       int
	PromptID        int
	Filters         RetrievalFilters
	SearchDocIDs    []int
}

// FeedbackKind is the user's verdict on an answer
type FeedbackKind string

const (
	FeedbackLike    FeedbackKind = "like"
	FeedbackDislike FeedbackKind = "dislike"
)

// FeedbackRequest is sent to the backend when a user rates an answer
type FeedbackRequest struct {
	MessageID int
	Kind      FeedbackKind
	Details   string
}

// PacketSource opens the lazy stream of packet batches for one turn. The
// channel is closed when the stream ends; cancelling ctx stops the producer.
type PacketSource interface {
	SendMessage(ctx context.Context, req SendMessageRequest) (<-chan PacketBatch, error)
}

// SessionService creates and names chat sessions on the backend
type SessionService interface {
	CreateChatSession(ctx context.Context, personaID int) (int, error)
	RenameChatSession(ctx context.Context, sessionID int, firstMessage string) (string, error)
}

// SessionLoader fetches a stored session so it can be resumed
type SessionLoader interface {
	GetChatSession(ctx context.Context, sessionID int) (*BackendChatSession, error)
}

// FeedbackService records a user's rating of an answer
type FeedbackService interface {
	CreateChatMessageFeedback(ctx context.Context, req FeedbackRequest) error
}

// Backend is the full set of collaborators the engine talks to
type Backend interface {
	PacketSource
	SessionService
	SessionLoader
	FeedbackService
}

// DetailedError is implemented by backend errors that carry a displayable detail
type DetailedError interface {
	error
	ErrorDetail() string
}
