package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/killallgit/scout/pkg/chat"
	"github.com/killallgit/scout/pkg/logger"
)

var (
	// ErrUnknownPacket marks a line that carries none of the known packet fields.
	// Such lines are skipped.
	ErrUnknownPacket = errors.New("unknown packet")

	// ErrAmbiguousPacket marks a line that carries fields of more than one
	// packet kind. The stream is aborted.
	ErrAmbiguousPacket = errors.New("ambiguous packet")
)

type wireDocuments struct {
	TopDocuments   []chat.Document `json:"top_documents"`
	RephrasedQuery *string         `json:"rephrased_query"`
}

type wireFinal struct {
	MessageID      int                      `json:"message_id"`
	ParentMessage  *int                     `json:"parent_message"`
	RephrasedQuery *string                  `json:"rephrased_query"`
	ContextDocs    *chat.BackendContextDocs `json:"context_docs"`
	Citations      chat.Citations           `json:"citations"`
}

// DecodePacket turns one wire object into a typed packet. The kind is decided
// by which field is present: answer_piece, top_documents, error or message_id.
func DecodePacket(line []byte) (chat.Packet, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse packet: %w", err)
	}

	var kinds []string
	for _, key := range []string{"answer_piece", "top_documents", "error", "message_id"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		// a null answer_piece is still an (empty) answer piece
		if key != "answer_piece" && isNull(raw) {
			continue
		}
		kinds = append(kinds, key)
	}

	switch len(kinds) {
	case 0:
		return nil, ErrUnknownPacket
	case 1:
	default:
		return nil, fmt.Errorf("%w: fields %v", ErrAmbiguousPacket, kinds)
	}

	switch kinds[0] {
	case "answer_piece":
		var text *string
		if err := json.Unmarshal(fields["answer_piece"], &text); err != nil {
			return nil, fmt.Errorf("invalid answer_piece: %w", err)
		}
		if text == nil {
			return chat.AnswerPiece{}, nil
		}
		return chat.AnswerPiece{Text: *text}, nil

	case "top_documents":
		var docs wireDocuments
		if err := json.Unmarshal(line, &docs); err != nil {
			return nil, fmt.Errorf("invalid documents packet: %w", err)
		}
		packet := chat.DocumentsFound{Documents: docs.TopDocuments}
		if docs.RephrasedQuery != nil {
			packet.RephrasedQuery = *docs.RephrasedQuery
		}
		return packet, nil

	case "error":
		var msg string
		if err := json.Unmarshal(fields["error"], &msg); err != nil {
			return nil, fmt.Errorf("invalid error packet: %w", err)
		}
		return chat.StreamError{Message: msg}, nil

	default:
		var final wireFinal
		if err := json.Unmarshal(line, &final); err != nil {
			return nil, fmt.Errorf("invalid final packet: %w", err)
		}
		packet := chat.FinalMetadata{
			MessageID:       final.MessageID,
			ParentMessageID: final.ParentMessage,
			Citations:       final.Citations,
		}
		if final.RephrasedQuery != nil {
			packet.RephrasedQuery = *final.RephrasedQuery
		}
		if final.ContextDocs != nil {
			packet.Documents = final.ContextDocs.TopDocuments
		}
		return packet, nil
	}
}

// decodeLines decodes every non-blank line of data into packets. Unknown
// packets are logged and dropped; any other failure aborts.
func decodeLines(data []byte) ([]chat.Packet, error) {
	var packets []chat.Packet
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		packet, err := DecodePacket(line)
		if errors.Is(err, ErrUnknownPacket) {
			logger.Debug("Skipping unknown packet: %s", truncate(line, 120))
			continue
		}
		if err != nil {
			return nil, err
		}
		packets = append(packets, packet)
	}
	return packets, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
