package chat

// Conversation is an immutable view of the message history. Every function in
// this file returns a new value and never mutates its input.
type Conversation struct {
	Messages []Message

	// pending counts trailing messages owned by the in-flight turn (0, 1 or 2)
	pending int
}

func NewConversation() Conversation {
	return Conversation{
		Messages: make([]Message, 0),
	}
}

// NewConversationFromHistory builds a settled conversation from stored messages
func NewConversationFromHistory(messages []Message) Conversation {
	conv := NewConversation()
	for _, msg := range messages {
		conv = AddMessage(conv, msg)
	}
	return conv
}

func AddMessage(conv Conversation, msg Message) Conversation {
	messages := make([]Message, len(conv.Messages)+1)
	copy(messages, conv.Messages)
	messages[len(conv.Messages)] = msg.Clone()

	return Conversation{
		Messages: messages,
		pending:  conv.pending,
	}
}

func GetMessages(conv Conversation) []Message {
	result := make([]Message, len(conv.Messages))
	for i, msg := range conv.Messages {
		result[i] = msg.Clone()
	}
	return result
}

func GetMessageCount(conv Conversation) int {
	return len(conv.Messages)
}

func GetLastMessage(conv Conversation) (Message, bool) {
	if len(conv.Messages) == 0 {
		return Message{}, false
	}
	return conv.Messages[len(conv.Messages)-1], true
}

func GetLastAssistantMessage(conv Conversation) (Message, bool) {
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		msg := conv.Messages[i]
		if msg.IsAssistant() {
			return msg, true
		}
	}
	return Message{}, false
}

func GetLastUserMessage(conv Conversation) (Message, bool) {
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		msg := conv.Messages[i]
		if msg.IsUser() {
			return msg, true
		}
	}
	return Message{}, false
}

func GetMessagesByRole(conv Conversation, role MessageRole) []Message {
	var result []Message
	for _, msg := range conv.Messages {
		if msg.Role == role {
			result = append(result, msg)
		}
	}
	return result
}

func IsEmpty(conv Conversation) bool {
	return len(conv.Messages) == 0
}

// InFlight reports how many trailing messages belong to an unfinished turn
func InFlight(conv Conversation) int {
	return conv.pending
}

// LastSuccessfulMessageID returns the id of the most recent assistant message
// that the backend has stored, which is the parent for the next submission.
func LastSuccessfulMessageID(messages []Message) *int {
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.IsAssistant() && !msg.IsProvisional() {
			id := *msg.ID
			return &id
		}
	}
	return nil
}

// settled returns the conversation without the in-flight turn
func settled(conv Conversation) []Message {
	return conv.Messages[:len(conv.Messages)-conv.pending]
}
