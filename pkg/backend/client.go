package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/killallgit/scout/pkg/chat"
	"github.com/killallgit/scout/pkg/logger"
)

const defaultTimeout = 60 * time.Second

// Client talks to the search assistant's chat API over HTTP
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	// streamClient has no overall timeout; streams end through ctx
	streamClient *http.Client
}

var _ chat.Backend = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithAPIKey sends key as a bearer token on every request
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithTimeout bounds non-streaming requests
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying transport, mostly for tests
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
		c.streamClient = &http.Client{Transport: hc.Transport}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: defaultTimeout},
		streamClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req.Header)
	return req, nil
}

func (c *Client) authorize(h http.Header) {
	if c.apiKey != "" {
		h.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// do sends a JSON request and decodes the JSON response into out, if given
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// CreateChatSession starts a new session for the persona and returns its id
func (c *Client) CreateChatSession(ctx context.Context, personaID int) (int, error) {
	var resp struct {
		ChatSessionID int `json:"chat_session_id"`
	}
	body := map[string]int{"persona_id": personaID}
	if err := c.do(ctx, http.MethodPost, "/chat/create-chat-session", body, &resp); err != nil {
		return 0, fmt.Errorf("failed to create chat session: %w", err)
	}
	logger.Debug("Created chat session %d for persona %d", resp.ChatSessionID, personaID)
	return resp.ChatSessionID, nil
}

// RenameChatSession asks the backend to name the session from its first message
func (c *Client) RenameChatSession(ctx context.Context, sessionID int, firstMessage string) (string, error) {
	body := struct {
		ChatSessionID int     `json:"chat_session_id"`
		Name          *string `json:"name"`
		FirstMessage  string  `json:"first_message"`
	}{
		ChatSessionID: sessionID,
		FirstMessage:  firstMessage,
	}
	var resp struct {
		NewName string `json:"new_name"`
	}
	if err := c.do(ctx, http.MethodPut, "/chat/rename-chat-session", body, &resp); err != nil {
		return "", fmt.Errorf("failed to name chat session %d: %w", sessionID, err)
	}
	return resp.NewName, nil
}

// GetChatSession fetches a stored session with its messages
func (c *Client) GetChatSession(ctx context.Context, sessionID int) (*chat.BackendChatSession, error) {
	var session chat.BackendChatSession
	path := fmt.Sprintf("/chat/get-chat-session/%d", sessionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &session); err != nil {
		return nil, err
	}
	if session.ChatSessionID == 0 {
		session.ChatSessionID = sessionID
	}
	return &session, nil
}

// CreateChatMessageFeedback records a like or dislike on an answer
func (c *Client) CreateChatMessageFeedback(ctx context.Context, req chat.FeedbackRequest) error {
	body := struct {
		ChatMessageID int    `json:"chat_message_id"`
		IsPositive    bool   `json:"is_positive"`
		FeedbackText  string `json:"feedback_text"`
	}{
		ChatMessageID: req.MessageID,
		IsPositive:    req.Kind == chat.FeedbackLike,
		FeedbackText:  req.Details,
	}
	return c.do(ctx, http.MethodPost, "/chat/create-chat-message-feedback", body, nil)
}
