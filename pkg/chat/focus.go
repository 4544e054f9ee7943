package chat

import (
	"fmt"
	"sort"
	"strconv"
)

// DocumentFocus selects which message's documents are displayed. It is one of
// NoFocus, FocusMessage or FocusMostRecent.
type DocumentFocus interface {
	focus()
	String() string
}

// NoFocus means no documents are displayed
type NoFocus struct{}

// FocusMessage points at a message by its permanent identifier
type FocusMessage struct {
	ID int
}

// FocusMostRecent defers resolution to whichever assistant turn is newest. It
// is used while the permanent id of a streaming answer is still unknown.
type FocusMostRecent struct{}

func (NoFocus) focus()         {}
func (FocusMessage) focus()    {}
func (FocusMostRecent) focus() {}

func (NoFocus) String() string         { return "none" }
func (f FocusMessage) String() string  { return fmt.Sprintf("message:%d", f.ID) }
func (FocusMostRecent) String() string { return "most-recent" }

// ResolveFocusMessage returns the assistant message whose documents should be
// shown for the given focus.
func ResolveFocusMessage(history []Message, focus DocumentFocus) (Message, bool) {
	switch f := focus.(type) {
	case FocusMessage:
		for i, msg := range history {
			if !msg.HasID(f.ID) {
				continue
			}
			if msg.IsUser() {
				if i+1 < len(history) {
					return history[i+1], true
				}
				return Message{}, false
			}
			return msg, true
		}
		return Message{}, false
	case FocusMostRecent:
		if i := lastAssistantIndex(history); i >= 0 {
			return history[i], true
		}
		return Message{}, false
	default:
		return Message{}, false
	}
}

// ResolveFocusDocuments is a convenience wrapper returning only the documents
func ResolveFocusDocuments(history []Message, focus DocumentFocus) ([]Document, bool) {
	msg, ok := ResolveFocusMessage(history, focus)
	if !ok {
		return nil, false
	}
	return cloneDocuments(msg.Documents), true
}

// IsFocused reports whether message index i is the one being displayed
func IsFocused(history []Message, focus DocumentFocus, i int) bool {
	if i < 0 || i >= len(history) {
		return false
	}
	switch f := focus.(type) {
	case FocusMessage:
		return history[i].HasID(f.ID)
	case FocusMostRecent:
		return i == lastAssistantIndex(history)
	default:
		return false
	}
}

// lastAssistantIndex is the index FocusMostRecent resolves to, or -1
func lastAssistantIndex(history []Message) int {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].IsAssistant() {
			return i
		}
	}
	return -1
}

// ToggleFocus mirrors the "show retrieved documents" control: a focused
// message is unfocused, otherwise the message becomes the focus, falling back
// to the most recent answer when it has no id yet.
func ToggleFocus(history []Message, current DocumentFocus, i int) DocumentFocus {
	if IsFocused(history, current, i) {
		return NoFocus{}
	}
	if i >= 0 && i < len(history) && !history[i].IsProvisional() {
		return FocusMessage{ID: *history[i].ID}
	}
	return FocusMostRecent{}
}

// CitedDocument pairs a citation marker with the document it refers to
type CitedDocument struct {
	Marker   string
	Document Document
}

// CitedDocuments resolves a message's citations against its own documents,
// ordered by marker.
func CitedDocuments(msg Message) []CitedDocument {
	if len(msg.Citations) == 0 || len(msg.Documents) == 0 {
		return nil
	}

	var cited []CitedDocument
	for marker, dbID := range msg.Citations {
		for _, doc := range msg.Documents {
			if doc.DBDocID != nil && *doc.DBDocID == dbID {
				cited = append(cited, CitedDocument{Marker: marker, Document: doc})
				break
			}
		}
	}

	sort.Slice(cited, func(i, j int) bool {
		a, errA := strconv.Atoi(cited[i].Marker)
		b, errB := strconv.Atoi(cited[j].Marker)
		if errA == nil && errB == nil {
			return a < b
		}
		return cited[i].Marker < cited[j].Marker
	})
	return cited
}
