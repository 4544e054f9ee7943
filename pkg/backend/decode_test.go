package backend

import (
	"testing"

	"github.com/killallgit/scout/pkg/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePacket(t *testing.T) {
	tests := []struct {
		name string
		line string
		want chat.Packet
	}{
		{
			name: "answer piece",
			line: `{"answer_piece": "Hel"}`,
			want: chat.AnswerPiece{Text: "Hel"},
		},
		{
			name: "null answer piece",
			line: `{"answer_piece": null}`,
			want: chat.AnswerPiece{},
		},
		{
			name: "documents with rephrased query",
			line: `{"top_documents": [{"document_id": "d1", "semantic_identifier": "Doc One", "blurb": "b", "source_type": "web", "db_doc_id": 7}], "rephrased_query": "what is scout"}`,
			want: chat.DocumentsFound{
				Documents: []chat.Document{{
					DocumentID:         "d1",
					DBDocID:            chat.IntPtr(7),
					SemanticIdentifier: "Doc One",
					Blurb:              "b",
					SourceType:         "web",
				}},
				RephrasedQuery: "what is scout",
			},
		},
		{
			name: "documents with null query",
			line: `{"top_documents": [], "rephrased_query": null}`,
			want: chat.DocumentsFound{Documents: []chat.Document{}},
		},
		{
			name: "stream error",
			line: `{"error": "LLM unavailable"}`,
			want: chat.StreamError{Message: "LLM unavailable"},
		},
		{
			name: "final metadata",
			line: `{"message_id": 12, "parent_message": 11, "message": "Hi", "rephrased_query": "q", "context_docs": {"top_documents": [{"document_id": "d2"}]}, "citations": {"1": 7}, "error": null}`,
			want: chat.FinalMetadata{
				MessageID:       12,
				ParentMessageID: chat.IntPtr(11),
				RephrasedQuery:  "q",
				Documents:       []chat.Document{{DocumentID: "d2"}},
				Citations:       chat.Citations{"1": 7},
			},
		},
		{
			name: "final metadata without context docs",
			line: `{"message_id": 3, "parent_message": null}`,
			want: chat.FinalMetadata{MessageID: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodePacket([]byte(tt.line))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodePacketFailures(t *testing.T) {
	t.Run("unknown packet", func(t *testing.T) {
		_, err := DecodePacket([]byte(`{"heartbeat": true}`))
		assert.ErrorIs(t, err, ErrUnknownPacket)
	})

	t.Run("ambiguous packet", func(t *testing.T) {
		_, err := DecodePacket([]byte(`{"answer_piece": "x", "error": "boom"}`))
		assert.ErrorIs(t, err, ErrAmbiguousPacket)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := DecodePacket([]byte(`{"answer_piece":`))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnknownPacket)
	})

	t.Run("wrong field type", func(t *testing.T) {
		_, err := DecodePacket([]byte(`{"error": 42}`))
		assert.Error(t, err)
	})
}

func TestDecodeLines(t *testing.T) {
	data := []byte("{\"answer_piece\":\"a\"}\n\n{\"ping\":1}\n  {\"answer_piece\":\"b\"}  \n")

	packets, err := decodeLines(data)
	require.NoError(t, err)
	assert.Equal(t, []chat.Packet{chat.AnswerPiece{Text: "a"}, chat.AnswerPiece{Text: "b"}}, packets)

	_, err = decodeLines([]byte("{\"answer_piece\":\"a\"}\nnot json\n"))
	assert.Error(t, err)
}
