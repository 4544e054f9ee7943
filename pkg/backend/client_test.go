package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/killallgit/scout/pkg/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChatSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/create-chat-session", r.URL.Path)
		assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))

		var body map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 4, body["persona_id"])

		json.NewEncoder(w).Encode(map[string]int{"chat_session_id": 99})
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", WithAPIKey("key-123"))
	id, err := client.CreateChatSession(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 99, id)
}

func TestRenameChatSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/chat/rename-chat-session", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(5), body["chat_session_id"])
		assert.Nil(t, body["name"])
		assert.Contains(t, body, "name")
		assert.Equal(t, "hello", body["first_message"])

		json.NewEncoder(w).Encode(map[string]string{"new_name": "Greeting"})
	}))
	defer server.Close()

	name, err := NewClient(server.URL).RenameChatSession(context.Background(), 5, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Greeting", name)
}

func TestGetChatSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/chat/get-chat-session/8", r.URL.Path)
		w.Write([]byte(`{
			"chat_session_id": 8,
			"description": "Greeting",
			"persona_id": 2,
			"messages": [
				{"message_id": 1, "parent_message": null, "message": "sys", "message_type": "system"},
				{"message_id": 2, "parent_message": 1, "message": "hello", "message_type": "user"},
				{"message_id": 3, "parent_message": 2, "message": "Hi [1]", "message_type": "assistant",
				 "rephrased_query": "hello", "context_docs": {"top_documents": [{"document_id": "d1"}]},
				 "citations": {"1": 10}}
			]
		}`))
	}))
	defer server.Close()

	session, err := NewClient(server.URL).GetChatSession(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, 8, session.ChatSessionID)
	assert.Equal(t, 2, session.PersonaID)
	require.Len(t, session.Messages, 3)

	history := chat.FromBackendMessages(session.Messages)
	require.Len(t, history, 2)
	assert.Equal(t, chat.RetrievalSearch, history[1].RetrievalType)
	assert.Equal(t, chat.Citations{"1": 10}, history[1].Citations)
}

func TestCreateChatMessageFeedback(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/create-chat-message-feedback", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := NewClient(server.URL).CreateChatMessageFeedback(context.Background(), chat.FeedbackRequest{
		MessageID: 12,
		Kind:      chat.FeedbackDislike,
		Details:   "wrong doc",
	})
	require.NoError(t, err)
	assert.Equal(t, float64(12), body["chat_message_id"])
	assert.Equal(t, false, body["is_positive"])
	assert.Equal(t, "wrong doc", body["feedback_text"])
}

func TestAPIErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{"detail string", http.StatusBadRequest, `{"detail": "Message not found"}`, "Message not found"},
		{"message field", http.StatusInternalServerError, `{"message": "boom"}`, "boom"},
		{"plain body", http.StatusBadGateway, "upstream down\n", "upstream down"},
		{"detail list", http.StatusUnprocessableEntity, `{"detail": [{"msg": "field required"}]}`, `[{"msg": "field required"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := NewClient(server.URL).CreateChatMessageFeedback(context.Background(), chat.FeedbackRequest{MessageID: 1, Kind: chat.FeedbackLike})
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantDetail, apiErr.ErrorDetail())

			var detailed chat.DetailedError
			assert.True(t, errors.As(err, &detailed))
		})
	}
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, WithTimeout(50*time.Millisecond))
	_, err := client.CreateChatSession(context.Background(), 0)
	assert.Error(t, err)
}
