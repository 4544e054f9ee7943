package chat

// AppendProvisional starts a turn by pushing the user's message without an id.
// Any unfinished turn left on the conversation is discarded first.
func AppendProvisional(conv Conversation, userText string) Conversation {
	base := settled(conv)
	messages := make([]Message, len(base), len(base)+2)
	copy(messages, base)
	messages = append(messages, NewUserMessage(userText))

	return Conversation{
		Messages: messages,
		pending:  1,
	}
}

// UpdateTrailing replaces the in-flight turn with a pair rebuilt from the
// snapshot. Calling it repeatedly never grows the history past the pair.
func UpdateTrailing(conv Conversation, snap TurnSnapshot) Conversation {
	base := settled(conv)
	user, reply := buildTurnPair(snap)

	messages := make([]Message, len(base), len(base)+2)
	copy(messages, base)
	messages = append(messages, user, reply)

	return Conversation{
		Messages: messages,
		pending:  2,
	}
}

// Finalize stamps the backend's permanent identifiers onto the in-flight pair
// and settles the turn.
func Finalize(conv Conversation, final FinalMetadata) Conversation {
	if conv.pending != 2 {
		return CloseTurn(conv)
	}

	messages := GetMessages(conv)
	n := len(messages)
	messages[n-2] = messages[n-2].WithID(final.ParentMessageID)
	messages[n-1] = messages[n-1].WithID(&final.MessageID)

	return Conversation{
		Messages: messages,
		pending:  0,
	}
}

// FailTurn replaces the in-flight turn with the user's message followed by an
// error message describing err.
func FailTurn(conv Conversation, userText string, err error) Conversation {
	base := settled(conv)
	text := "Unknown error"
	if err != nil {
		text = err.Error()
	}

	messages := make([]Message, len(base), len(base)+2)
	copy(messages, base)
	messages = append(messages, NewUserMessage(userText), NewErrorMessage(text))

	return Conversation{
		Messages: messages,
		pending:  0,
	}
}

// CloseTurn settles the in-flight turn as-is, leaving identifiers unassigned
func CloseTurn(conv Conversation) Conversation {
	return Conversation{
		Messages: GetMessages(conv),
		pending:  0,
	}
}

func buildTurnPair(snap TurnSnapshot) (Message, Message) {
	user := NewUserMessage(snap.UserText)

	reply := Message{
		Role:          RoleAssistant,
		Content:       snap.Answer,
		RetrievalType: snap.RetrievalType,
		Query:         snap.RephrasedQuery,
		Documents:     cloneDocuments(snap.Documents),
		Citations:     Citations{},
	}
	if reply.RetrievalType == "" {
		reply.RetrievalType = RetrievalNone
	}

	if final := snap.Final; final != nil {
		if final.RephrasedQuery != "" {
			reply.Query = final.RephrasedQuery
		}
		if final.Documents != nil {
			reply.Documents = cloneDocuments(final.Documents)
		}
		for k, v := range final.Citations {
			reply.Citations[k] = v
		}
	}

	if snap.HasError {
		reply.Role = RoleError
		reply.Content = snap.Error
		reply.PartialAnswer = snap.Answer
	}

	return user, reply
}
