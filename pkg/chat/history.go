package chat

import "time"

// BackendContextDocs wraps the documents the backend stored with a message
type BackendContextDocs struct {
	TopDocuments []Document `json:"top_documents"`
}

// BackendMessage is a message as stored by the backend
type BackendMessage struct {
	MessageID          int                 `json:"message_id"`
	ParentMessage      *int                `json:"parent_message"`
	LatestChildMessage *int                `json:"latest_child_message"`
	Message            string              `json:"message"`
	RephrasedQuery     *string             `json:"rephrased_query"`
	ContextDocs        *BackendContextDocs `json:"context_docs"`
	MessageType        string              `json:"message_type"`
	TimeSent           time.Time           `json:"time_sent"`
	Citations          Citations           `json:"citations"`
}

// BackendChatSession is a stored session with its full message chain
type BackendChatSession struct {
	ChatSessionID int              `json:"chat_session_id"`
	Description   string           `json:"description"`
	PersonaID     int              `json:"persona_id"`
	Messages      []BackendMessage `json:"messages"`
	TimeCreated   time.Time        `json:"time_created"`
}

// FromBackendMessages converts stored messages into transcript messages.
// System messages are dropped. Retrieval type is inferred from the attached
// documents: a rephrased query means a search ran, otherwise the user picked
// them.
func FromBackendMessages(raw []BackendMessage) []Message {
	messages := make([]Message, 0, len(raw))
	for _, bm := range raw {
		if bm.MessageType == string(RoleSystem) {
			continue
		}

		msg := Message{
			ID:        IntPtr(bm.MessageID),
			Role:      MessageRole(bm.MessageType),
			Content:   bm.Message,
			Citations: Citations{},
		}
		for k, v := range bm.Citations {
			msg.Citations[k] = v
		}
		if bm.RephrasedQuery != nil {
			msg.Query = *bm.RephrasedQuery
		}

		var docs []Document
		if bm.ContextDocs != nil {
			docs = bm.ContextDocs.TopDocuments
		}
		switch {
		case len(docs) > 0 && msg.Query != "":
			msg.RetrievalType = RetrievalSearch
		case len(docs) > 0:
			msg.RetrievalType = RetrievalSelectedDocs
		default:
			msg.RetrievalType = RetrievalNone
		}
		msg.Documents = cloneDocuments(docs)

		messages = append(messages, msg)
	}
	return messages
}
