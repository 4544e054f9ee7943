package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/killallgit/scout/pkg/logger"
)

const defaultNamingTimeout = 30 * time.Second

// SessionManager creates sessions lazily and names them after their first turn
type SessionManager struct {
	svc           SessionService
	namingTimeout time.Duration
	naming        sync.WaitGroup
}

func NewSessionManager(svc SessionService) *SessionManager {
	return &SessionManager{
		svc:           svc,
		namingTimeout: defaultNamingTimeout,
	}
}

// EnsureSession returns existing unchanged when set, otherwise asks the
// backend for a new session scoped to personaID. created is true only when a
// new session was made by this call.
func (m *SessionManager) EnsureSession(ctx context.Context, existing *int, personaID int) (id int, created bool, err error) {
	if existing != nil {
		return *existing, false, nil
	}

	id, err = m.svc.CreateChatSession(ctx, personaID)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create chat session: %w", err)
	}

	logger.Info("Created chat session %d for persona %d", id, personaID)
	return id, true, nil
}

// NameIfFirstTurn names the session in the background. Failures are logged
// and otherwise ignored; the session simply stays unnamed.
func (m *SessionManager) NameIfFirstTurn(ctx context.Context, sessionID int, firstUserText string) {
	m.naming.Add(1)
	go func() {
		defer m.naming.Done()

		nameCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.namingTimeout)
		defer cancel()

		name, err := m.svc.RenameChatSession(nameCtx, sessionID, firstUserText)
		if err != nil {
			logger.Warn("Failed to name chat session %d: %v", sessionID, err)
			return
		}
		logger.Debug("Chat session %d named %q", sessionID, name)
	}()
}

// Wait blocks until background naming has finished
func (m *SessionManager) Wait() {
	m.naming.Wait()
}
