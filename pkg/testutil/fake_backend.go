package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/killallgit/scout/pkg/chat"
	"github.com/killallgit/scout/pkg/logger"
)

// ScriptedTurn is the stream a FakeBackend replays for one SendMessage call
type ScriptedTurn struct {
	Batches []chat.PacketBatch
	OpenErr error

	// Release, when set, holds the stream open before the first batch
	Release <-chan struct{}
}

// RenameCall records one session naming request
type RenameCall struct {
	SessionID    int
	FirstMessage string
}

// FakeBackend implements chat.Backend for testing. Batches are delivered on an
// unbuffered channel so the consumer handles each one before the next is sent.
type FakeBackend struct {
	mu sync.Mutex

	turns         []ScriptedTurn
	nextSessionID int
	sessions      map[int]*chat.BackendChatSession

	CreateErr   error
	RenameErr   error
	FeedbackErr error

	createCalls []int
	renameCalls []RenameCall
	requests    []chat.SendMessageRequest
	feedback    []chat.FeedbackRequest
	streamIDs   []string
}

var _ chat.Backend = (*FakeBackend)(nil)

// NewFakeBackend creates a fake that hands out session ids starting at firstSessionID
func NewFakeBackend(firstSessionID int) *FakeBackend {
	return &FakeBackend{
		nextSessionID: firstSessionID,
		sessions:      make(map[int]*chat.BackendChatSession),
	}
}

// Script queues the batches for the next turn
func (f *FakeBackend) Script(batches ...chat.PacketBatch) *FakeBackend {
	return f.ScriptTurn(ScriptedTurn{Batches: batches})
}

// ScriptTurn queues a fully described turn
func (f *FakeBackend) ScriptTurn(turn ScriptedTurn) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, turn)
	return f
}

// AddSession makes a stored session available to GetChatSession
func (f *FakeBackend) AddSession(session chat.BackendChatSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.ChatSessionID] = &session
}

func (f *FakeBackend) SendMessage(ctx context.Context, req chat.SendMessageRequest) (<-chan chat.PacketBatch, error) {
	streamID := uuid.New().String()

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.streamIDs = append(f.streamIDs, streamID)
	if len(f.turns) == 0 {
		f.mu.Unlock()
		return nil, fmt.Errorf("fake backend [%s]: no scripted turn for %q", streamID, req.Message)
	}
	turn := f.turns[0]
	f.turns = f.turns[1:]
	f.mu.Unlock()

	if turn.OpenErr != nil {
		logger.Debug("[%s] Fake stream refused: %v", streamID, turn.OpenErr)
		return nil, turn.OpenErr
	}
	logger.Debug("[%s] Fake stream opened with %d batches", streamID, len(turn.Batches))

	out := make(chan chat.PacketBatch)
	go func() {
		defer close(out)
		if turn.Release != nil {
			select {
			case <-turn.Release:
			case <-ctx.Done():
				return
			}
		}
		for _, batch := range turn.Batches {
			select {
			case out <- batch:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (f *FakeBackend) CreateChatSession(ctx context.Context, personaID int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls = append(f.createCalls, personaID)
	if f.CreateErr != nil {
		return 0, f.CreateErr
	}
	id := f.nextSessionID
	f.nextSessionID++
	return id, nil
}

func (f *FakeBackend) RenameChatSession(ctx context.Context, sessionID int, firstMessage string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renameCalls = append(f.renameCalls, RenameCall{SessionID: sessionID, FirstMessage: firstMessage})
	if f.RenameErr != nil {
		return "", f.RenameErr
	}
	return "Session about " + firstMessage, nil
}

func (f *FakeBackend) GetChatSession(ctx context.Context, sessionID int) (*chat.BackendChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("chat session %d not found", sessionID)
	}
	copied := *session
	return &copied, nil
}

func (f *FakeBackend) CreateChatMessageFeedback(ctx context.Context, req chat.FeedbackRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feedback = append(f.feedback, req)
	return f.FeedbackErr
}

// CreateCalls returns the persona ids passed to CreateChatSession
func (f *FakeBackend) CreateCalls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.createCalls...)
}

// RenameCalls returns every naming request received so far
func (f *FakeBackend) RenameCalls() []RenameCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RenameCall(nil), f.renameCalls...)
}

// Requests returns every SendMessage request received so far
func (f *FakeBackend) Requests() []chat.SendMessageRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chat.SendMessageRequest(nil), f.requests...)
}

// Feedback returns every feedback request received so far
func (f *FakeBackend) Feedback() []chat.FeedbackRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chat.FeedbackRequest(nil), f.feedback...)
}

// StreamIDs returns the ids tagging each SendMessage call, in order
func (f *FakeBackend) StreamIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.streamIDs...)
}

// Batch wraps packets into one batch
func Batch(packets ...chat.Packet) chat.PacketBatch {
	return chat.PacketBatch{Packets: packets}
}

// SplitAnswer cuts answer into batches of one AnswerPiece of chunkSize characters
func SplitAnswer(answer string, chunkSize int) []chat.PacketBatch {
	if chunkSize <= 0 {
		chunkSize = 5
	}
	runes := []rune(answer)
	var batches []chat.PacketBatch
	for start := 0; start < len(runes); start += chunkSize {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		batches = append(batches, Batch(chat.AnswerPiece{Text: string(runes[start:end])}))
	}
	return batches
}

// Final builds the closing metadata packet for a turn
func Final(messageID, parentID int) chat.FinalMetadata {
	return chat.FinalMetadata{
		MessageID:       messageID,
		ParentMessageID: chat.IntPtr(parentID),
		Citations:       chat.Citations{},
	}
}
