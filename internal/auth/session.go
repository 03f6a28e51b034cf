package auth

import (
	"context"
	"log/slog"
	"sync"

	"clapper/internal/logging"
)

// Session mirrors the gateway's verified user for the rest of the
// application. Owners call Init once and Reset when done.
type Session struct {
	gateway Gateway
	mirror  Mirror
	logger  *slog.Logger

	mu          sync.RWMutex
	ctx         context.Context
	snapshot    *Snapshot
	unsubscribe func()
}

// NewSession returns an uninitialized session. A nil mirror keeps state in memory.
func NewSession(gateway Gateway, mirror Mirror, logger *slog.Logger) *Session {
	if mirror == nil {
		mirror = &MemoryMirror{}
	}
	return &Session{
		gateway: gateway,
		mirror:  mirror,
		logger:  logging.NewComponentLogger(logger, "auth_session"),
	}
}

// Init restores the mirrored snapshot and subscribes to gateway changes.
// A user already held by the gateway takes precedence over the mirror.
func (s *Session) Init(ctx context.Context) error {
	s.mu.Lock()
	if s.unsubscribe != nil {
		s.mu.Unlock()
		return nil
	}
	s.ctx = context.WithoutCancel(ctx)
	s.mu.Unlock()

	snap, ok, err := s.mirror.Load(ctx)
	if err != nil {
		logging.WarnWithContext(s.logger, "session mirror unreadable", "auth_mirror_load_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "starting signed out"),
		)
	}
	if ok && snap.EmailVerified && snap.UID != "" {
		s.mu.Lock()
		s.snapshot = &snap
		s.mu.Unlock()
	} else if ok {
		s.clearMirror()
	}

	unsubscribe := s.gateway.Subscribe(s.apply)
	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	if current := s.gateway.CurrentUser(); current != nil {
		s.apply(current)
	}
	return nil
}

// Reset unsubscribes and forgets local state. The mirror is left untouched so
// a later Init can restore it.
func (s *Session) Reset() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.snapshot = nil
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Current returns the verified user's snapshot, if any.
func (s *Session) Current() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return Snapshot{}, false
	}
	return *s.snapshot, true
}

// IsAuthenticated reports whether a verified user is present.
func (s *Session) IsAuthenticated() bool {
	_, ok := s.Current()
	return ok
}

// apply handles one gateway push. Unverified users count as signed out.
func (s *Session) apply(user *User) {
	if user == nil || !user.EmailVerified {
		s.mu.Lock()
		hadSnapshot := s.snapshot != nil
		s.snapshot = nil
		s.mu.Unlock()
		s.clearMirror()
		if hadSnapshot {
			s.logger.Debug("session cleared", logging.String(logging.FieldEventType, "auth_session_cleared"))
		}
		return
	}

	snap := user.Snapshot()
	s.mu.Lock()
	s.snapshot = &snap
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.mirror.Save(ctx, snap); err != nil {
		logging.WarnWithContext(s.logger, "session mirror write failed", "auth_mirror_save_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "session will not survive a restart"),
		)
	}
}

func (s *Session) clearMirror() {
	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.mirror.Clear(ctx); err != nil {
		logging.WarnWithContext(s.logger, "session mirror clear failed", "auth_mirror_clear_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "a stale session may be restored on next start"),
		)
	}
}
