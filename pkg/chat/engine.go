package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/killallgit/scout/pkg/logger"
	"github.com/killallgit/scout/pkg/process"
)

var (
	ErrTurnInProgress = errors.New("a message is already being answered")
	ErrEmptyMessage   = errors.New("message cannot be empty")
	ErrPersonaLocked  = errors.New("persona cannot change once the session has started")
	ErrNoSession      = errors.New("no active chat session")
)

// Submission is one user message plus the retrieval options chosen for it
type Submission struct {
	Text              string
	Filters           RetrievalFilters
	SelectedDocuments []Document
	PromptID          int
}

// TurnResult describes how a turn ended. Failures inside the turn are part of
// the transcript, not errors returned from Submit.
type TurnResult struct {
	Reply          Message
	Cancelled      bool
	TransportError error
	Final          *FinalMetadata
}

// State is a snapshot of the engine for presentation code. It never aliases
// engine internals.
type State struct {
	SessionID   *int
	PersonaID   int
	History     []Message
	IsStreaming bool
	Phase       process.State
	Focus       DocumentFocus
}

// IsComplete reports whether message i is finished. Only the last message can
// be incomplete, and only while a turn is streaming.
func (s State) IsComplete(i int) bool {
	return i != len(s.History)-1 || !s.IsStreaming
}

// FocusMessage resolves the current document focus against the history
func (s State) FocusMessage() (Message, bool) {
	return ResolveFocusMessage(s.History, s.Focus)
}

// Engine owns one conversation: it drives packet streams, keeps the
// transcript consistent and tracks which documents are in focus. At most one
// turn runs at a time.
type Engine struct {
	backend  Backend
	sessions *SessionManager

	mu        sync.RWMutex
	sessionID *int
	personaID int
	conv      Conversation
	focus     DocumentFocus
	phase     process.State
	streaming bool
	cancel    *CancelToken
	observers []func(State)
}

// Option configures an Engine
type Option func(*Engine)

// WithPersona selects the persona used when the session is created
func WithPersona(id int) Option {
	return func(e *Engine) {
		e.personaID = id
	}
}

// WithSessionManager replaces the default session manager
func WithSessionManager(m *SessionManager) Option {
	return func(e *Engine) {
		e.sessions = m
	}
}

func NewEngine(backend Backend, opts ...Option) *Engine {
	e := &Engine{
		backend: backend,
		conv:    NewConversation(),
		focus:   NoFocus{},
		phase:   process.StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sessions == nil {
		e.sessions = NewSessionManager(backend)
	}
	return e
}

// OnUpdate registers an observer called with a fresh snapshot after every
// batch and at the end of each turn. Observers run on the consumer's
// goroutine and must not call Submit.
func (e *Engine) OnUpdate(fn func(State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, fn)
}

func (e *Engine) Snapshot() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() State {
	var sessionID *int
	if e.sessionID != nil {
		sessionID = IntPtr(*e.sessionID)
	}
	return State{
		SessionID:   sessionID,
		PersonaID:   e.personaID,
		History:     GetMessages(e.conv),
		IsStreaming: e.streaming,
		Phase:       e.phase,
		Focus:       e.focus,
	}
}

func (e *Engine) IsStreaming() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.streaming
}

func (e *Engine) SessionID() *int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.sessionID == nil {
		return nil
	}
	return IntPtr(*e.sessionID)
}

// SetPersona changes the persona. It is only allowed before the session exists.
func (e *Engine) SetPersona(id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sessionID != nil || e.streaming {
		return ErrPersonaLocked
	}
	e.personaID = id
	return nil
}

// SetFocus changes which message's documents are displayed
func (e *Engine) SetFocus(focus DocumentFocus) {
	if focus == nil {
		focus = NoFocus{}
	}
	e.update(func() {
		e.focus = focus
	})
}

// ToggleDocuments flips the document focus for message index i
func (e *Engine) ToggleDocuments(i int) DocumentFocus {
	var next DocumentFocus
	e.update(func() {
		e.focus = ToggleFocus(e.conv.Messages, e.focus, i)
		next = e.focus
	})
	return next
}

// RequestCancel asks the in-flight turn to stop at the next batch boundary.
// It returns false when nothing is streaming.
func (e *Engine) RequestCancel() bool {
	e.mu.Lock()
	if !e.streaming || e.cancel == nil {
		e.mu.Unlock()
		return false
	}
	e.cancel.RequestCancel()
	e.phase = process.StateCancelling
	e.mu.Unlock()

	logger.Debug("Cancel requested for in-flight turn")
	return true
}

// Wait blocks until background work such as session naming has finished
func (e *Engine) Wait() {
	e.sessions.Wait()
}

// Submit runs one full turn: it ensures a session, appends the provisional
// pair, consumes the packet stream and reconciles identifiers at the end.
func (e *Engine) Submit(ctx context.Context, sub Submission) (TurnResult, error) {
	text := strings.TrimSpace(sub.Text)
	if text == "" {
		return TurnResult{}, ErrEmptyMessage
	}

	e.mu.Lock()
	if e.streaming {
		e.mu.Unlock()
		return TurnResult{}, ErrTurnInProgress
	}
	e.streaming = true
	token := NewCancelToken()
	e.cancel = token
	existing := e.sessionID
	personaID := e.personaID
	if existing == nil {
		e.phase = process.StateCreatingSession
	}
	e.mu.Unlock()

	turnID := uuid.NewString()
	logger.Debug("[%s] Submitting message (%d chars)", turnID, len(text))

	sessionID, created, err := e.sessions.EnsureSession(ctx, existing, personaID)
	if err != nil {
		e.update(func() {
			e.streaming = false
			e.cancel = nil
			e.phase = process.StateIdle
		})
		return TurnResult{}, err
	}

	var parentID *int
	e.update(func() {
		e.sessionID = IntPtr(sessionID)
		parentID = LastSuccessfulMessageID(settled(e.conv))
		e.conv = AppendProvisional(e.conv, text)
		e.phase = process.StateSending
	})

	acc := NewTurnAccumulator(text, sub.SelectedDocuments)
	req := SendMessageRequest{
		Message:         text,
		ParentMessageID: parentID,
		ChatSessionID:   sessionID,
		PersonaID:       personaID,
		PromptID:        sub.PromptID,
		Filters:         sub.Filters,
		SearchDocIDs:    selectedDocIDs(sub.SelectedDocuments),
	}

	streamCtx, stopStream := context.WithCancel(ctx)
	cancelled, streamErr := e.stream(streamCtx, req, acc, token)
	stopStream()

	result := TurnResult{Cancelled: cancelled, TransportError: streamErr}
	if streamErr == nil {
		result.Final = acc.Final()
	}

	e.update(func() {
		if streamErr != nil {
			e.conv = FailTurn(e.conv, text, streamErr)
		} else {
			if InFlight(e.conv) == 1 {
				e.conv = UpdateTrailing(e.conv, acc.Snapshot())
			}
			if result.Final != nil {
				e.conv = Finalize(e.conv, *result.Final)
			} else {
				e.conv = CloseTurn(e.conv)
			}
		}

		if final := result.Final; final != nil {
			if created {
				e.focus = FocusMessage{ID: final.MessageID}
			}
			if len(final.Documents) > 0 && acc.RetrievalType() == RetrievalSearch {
				e.focus = FocusMessage{ID: final.MessageID}
			}
		}

		e.streaming = false
		e.cancel = nil
		e.phase = process.StateIdle
		if last, ok := GetLastMessage(e.conv); ok {
			result.Reply = last.Clone()
		}
	})

	switch {
	case streamErr != nil:
		logger.Error("[%s] Turn failed: %v", turnID, streamErr)
	case cancelled:
		logger.Info("[%s] Turn cancelled after %d packets", turnID, acc.PacketCount())
	default:
		logger.Debug("[%s] Turn complete after %d packets", turnID, acc.PacketCount())
	}

	if created {
		e.sessions.NameIfFirstTurn(ctx, sessionID, text)
	}

	return result, nil
}

// stream drains batches into the accumulator, re-rendering the trailing pair
// after each one and polling the cancel token between batches.
func (e *Engine) stream(ctx context.Context, req SendMessageRequest, acc *TurnAccumulator, token *CancelToken) (bool, error) {
	batches, err := e.backend.SendMessage(ctx, req)
	if err != nil {
		return false, err
	}

	for {
		select {
		case batch, ok := <-batches:
			if !ok {
				// sources close their channel when ctx ends
				if err := ctx.Err(); err != nil {
					return false, fmt.Errorf("stream interrupted: %w", err)
				}
				return false, nil
			}
			if batch.Err != nil {
				return false, batch.Err
			}

			moveFocus := acc.ApplyBatch(batch.Packets)
			snap := acc.Snapshot()
			e.update(func() {
				e.conv = UpdateTrailing(e.conv, snap)
				if moveFocus {
					e.focus = FocusMostRecent{}
				}
				if e.phase != process.StateCancelling {
					e.phase = process.StateReceiving
				}
			})

			if token.Consume() {
				return true, nil
			}
		case <-ctx.Done():
			return false, fmt.Errorf("stream interrupted: %w", ctx.Err())
		}
	}
}

// LoadSession replaces the transcript with a stored session so it can be
// continued. The last message becomes the document focus.
func (e *Engine) LoadSession(ctx context.Context, sessionID int) error {
	if e.IsStreaming() {
		return ErrTurnInProgress
	}

	session, err := e.backend.GetChatSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load chat session %d: %w", sessionID, err)
	}

	history := FromBackendMessages(session.Messages)
	e.update(func() {
		e.sessionID = IntPtr(session.ChatSessionID)
		e.personaID = session.PersonaID
		e.conv = NewConversationFromHistory(history)
		e.focus = NoFocus{}
		if last, ok := GetLastMessage(e.conv); ok && !last.IsProvisional() {
			e.focus = FocusMessage{ID: *last.ID}
		}
	})

	logger.Info("Loaded chat session %d with %d messages", session.ChatSessionID, len(history))
	return nil
}

// update applies fn under the lock, then notifies observers outside it
func (e *Engine) update(fn func()) {
	e.mu.Lock()
	fn()
	state := e.snapshotLocked()
	observers := make([]func(State), len(e.observers))
	copy(observers, e.observers)
	e.mu.Unlock()

	for _, observer := range observers {
		observer(state)
	}
}

func selectedDocIDs(docs []Document) []int {
	var ids []int
	for _, doc := range docs {
		if doc.DBDocID != nil {
			ids = append(ids, *doc.DBDocID)
		}
	}
	return ids
}
