package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager is the identity gate's server half. It resolves an incoming
// credential to a stable identity (redeeming a supplied token, or opening an
// anonymous session when none is presented), classifies it against the
// operator constant, and owns the per-identity session state.
type Manager struct {
	tokens      *TokenService
	operatorUID string
	logger      *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager. operatorUID is the single identity
// recognised as operator.
func NewManager(tokens *TokenService, operatorUID string, logger *zap.Logger) *Manager {
	return &Manager{
		tokens:      tokens,
		operatorUID: operatorUID,
		logger:      logger,
		sessions:    make(map[string]*Session),
	}
}

// Resolve turns a presented token into a live session. An empty token opens
// an anonymous session with a freshly minted identity; newToken then carries
// the credential the caller must present from now on. A non-empty token that
// fails verification is fatal for the request: no session, no fallback.
func (m *Manager) Resolve(tokenString string) (sess *Session, newToken string, err error) {
	var uid string

	if tokenString != "" {
		uid, err = m.tokens.Verify(tokenString)
		if err != nil {
			return nil, "", err
		}
	} else {
		uid = "anon-" + uuid.NewString()
		newToken, err = m.tokens.Mint(uid)
		if err != nil {
			return nil, "", err
		}
	}

	m.mu.Lock()
	sess, ok := m.sessions[uid]
	if !ok {
		sess = newSession(uid, uid == m.operatorUID)
		m.sessions[uid] = sess
		m.logger.Info("Session opened",
			zap.String("uid", uid),
			zap.Bool("operator", sess.Operator()),
		)
	}
	m.mu.Unlock()

	sess.touch()
	return sess, newToken, nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// evictIdle drops sessions idle past the cutoff. Their carts and checkout
// state go with them; pending store mutations they issued are not cancelled
// and may still land.
func (m *Manager) evictIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for uid, sess := range m.sessions {
		if sess.idleSince(cutoff) {
			delete(m.sessions, uid)
			evicted++
		}
	}
	return evicted
}

// Sweep runs idle eviction periodically until ctx is cancelled.
func (m *Manager) Sweep(ctx context.Context, maxIdle time.Duration) {
	ticker := time.NewTicker(maxIdle / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.evictIdle(maxIdle); n > 0 {
				m.logger.Debug("Evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}
