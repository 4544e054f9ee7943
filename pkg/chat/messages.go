package chat

import (
	"strings"
	"time"
)

// MessageRole identifies who produced a message in the transcript
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleError     MessageRole = "error"
	RoleSystem    MessageRole = "system"
)

// RetrievalType records how the documents attached to a message were obtained
type RetrievalType string

const (
	RetrievalNone         RetrievalType = "none"
	RetrievalSelectedDocs RetrievalType = "selected-by-user"
	RetrievalSearch       RetrievalType = "searched"
)

// Document is a reference to a retrieved source document
type Document struct {
	DocumentID         string     `json:"document_id"`
	DBDocID            *int       `json:"db_doc_id,omitempty"`
	SemanticIdentifier string     `json:"semantic_identifier"`
	Link               string     `json:"link,omitempty"`
	Blurb              string     `json:"blurb"`
	SourceType         string     `json:"source_type"`
	Score              float64    `json:"score,omitempty"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

// Title returns the best human-readable name for the document
func (d Document) Title() string {
	if d.SemanticIdentifier != "" {
		return d.SemanticIdentifier
	}
	return d.DocumentID
}

// Citations maps a citation marker (e.g. "1") to the database id of the cited document
type Citations map[string]int

// Message is one turn entry in a conversation. A nil ID means the backend has
// not assigned a permanent identifier yet.
type Message struct {
	ID            *int          `json:"message_id"`
	Role          MessageRole   `json:"role"`
	Content       string        `json:"content"`
	RetrievalType RetrievalType `json:"retrieval_type,omitempty"`
	Query         string        `json:"query,omitempty"`
	Documents     []Document    `json:"documents,omitempty"`
	Citations     Citations     `json:"citations,omitempty"`

	// PartialAnswer keeps answer text that arrived before the turn failed
	PartialAnswer string `json:"partial_answer,omitempty"`
}

func NewUserMessage(content string) Message {
	return Message{
		Role:    RoleUser,
		Content: strings.TrimSpace(content),
	}
}

func NewAssistantMessage(content string) Message {
	return Message{
		Role:          RoleAssistant,
		Content:       content,
		RetrievalType: RetrievalNone,
		Citations:     Citations{},
	}
}

func NewErrorMessage(content string) Message {
	return Message{
		Role:    RoleError,
		Content: content,
	}
}

func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

func (m Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}

func (m Message) IsError() bool {
	return m.Role == RoleError
}

func (m Message) IsSystem() bool {
	return m.Role == RoleSystem
}

func (m Message) IsEmpty() bool {
	return strings.TrimSpace(m.Content) == ""
}

// IsProvisional reports whether the backend has not assigned an identifier yet
func (m Message) IsProvisional() bool {
	return m.ID == nil || *m.ID == 0
}

func (m Message) HasDocuments() bool {
	return len(m.Documents) > 0
}

// HasID reports whether the message carries the given permanent identifier
func (m Message) HasID(id int) bool {
	return !m.IsProvisional() && *m.ID == id
}

// Clone returns a deep copy so callers can never alias transcript state
func (m Message) Clone() Message {
	out := m
	if m.ID != nil {
		id := *m.ID
		out.ID = &id
	}
	if m.Documents != nil {
		out.Documents = cloneDocuments(m.Documents)
	}
	if m.Citations != nil {
		out.Citations = make(Citations, len(m.Citations))
		for k, v := range m.Citations {
			out.Citations[k] = v
		}
	}
	return out
}

func (m Message) WithID(id *int) Message {
	out := m.Clone()
	if id == nil {
		out.ID = nil
		return out
	}
	v := *id
	out.ID = &v
	return out
}

func cloneDocuments(docs []Document) []Document {
	if docs == nil {
		return nil
	}
	out := make([]Document, len(docs))
	copy(out, docs)
	for i := range out {
		if docs[i].DBDocID != nil {
			v := *docs[i].DBDocID
			out[i].DBDocID = &v
		}
	}
	return out
}

// IntPtr is a small helper for optional identifiers
func IntPtr(v int) *int {
	return &v
}
