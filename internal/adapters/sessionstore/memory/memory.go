package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/port"

	"github.com/google/uuid"
)

type entry struct {
	mu      sync.Mutex
	session domain.UploadSession
	gone    bool
}

// Store keeps in-flight upload sessions in memory, with chunk bytes durably
// staged through a ChunkStage. All offset mutation is serialized per session id
// by the entry lock; cross-session operations only share the short-lived table
// lock.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*entry
	stage    port.ChunkStage
	now      func() time.Time
}

// NewStore creates a session store backed by the given chunk stage.
func NewStore(stage port.ChunkStage) *Store {
	return &Store{
		sessions: make(map[uuid.UUID]*entry),
		stage:    stage,
		now:      time.Now,
	}
}

// Create registers a new session.
func (s *Store) Create(ctx context.Context, session domain.UploadSession) error {
	session.Metadata = maps.Clone(session.Metadata)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	s.sessions[session.ID] = &entry{session: session}
	return nil
}

// Get returns a consistent snapshot of the session. It waits only for the
// duration of an in-flight append on the same id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gone {
		return nil, domain.ErrSessionNotFound
	}
	snap := snapshot(&e.session)
	return &snap, nil
}

// Append applies the offset check-and-set: the chunk lands iff claimedOffset
// equals the current offset, the bytes fit, and the session is still alive.
// The chunk is staged before the offset advances, so an acknowledged offset
// always refers to durably staged bytes.
func (s *Store) Append(ctx context.Context, id uuid.UUID, claimedOffset int64, chunk []byte) (*domain.UploadSession, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gone {
		// Deleted while this append was waiting on the lock.
		return nil, domain.ErrSessionNotFound
	}

	sess := &e.session
	if claimedOffset != sess.Offset {
		return nil, &domain.OffsetConflictError{Expected: sess.Offset, Received: claimedOffset}
	}

	if len(chunk) == 0 {
		if sess.IsComplete() {
			snap := snapshot(sess)
			return &snap, nil
		}
		return nil, fmt.Errorf("%w: empty chunk at offset %d of %d", domain.ErrInvalidLength, sess.Offset, sess.TotalLength)
	}

	if sess.Offset+int64(len(chunk)) > sess.TotalLength {
		return nil, fmt.Errorf("%w: chunk of %d bytes at offset %d overruns declared length %d",
			domain.ErrOffsetConflict, len(chunk), sess.Offset, sess.TotalLength)
	}

	if err := s.stage.WriteAt(id.String(), sess.Offset, chunk); err != nil {
		return nil, err
	}

	sess.Offset += int64(len(chunk))
	if sess.Status == domain.UploadSessionStatusCreated {
		sess.Status = domain.UploadSessionStatusUploading
	}
	if sess.IsComplete() {
		sess.Status = domain.UploadSessionStatusComplete
		completedAt := s.now()
		sess.CompletedAt = &completedAt
	}

	snap := snapshot(sess)
	return &snap, nil
}

// Delete removes the session and its staged bytes. A complete session cannot
// be deleted: its staged bytes now belong to the storage worker, which removes
// them itself after the upload is persisted. An append waiting on the session
// lock observes the deletion and fails with ErrSessionNotFound.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.gone {
		e.mu.Unlock()
		return domain.ErrSessionNotFound
	}
	if e.session.Status == domain.UploadSessionStatusComplete {
		e.mu.Unlock()
		return domain.ErrSessionCompleted
	}
	e.gone = true
	e.session.Status = domain.UploadSessionStatusTerminated
	e.mu.Unlock()

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	return s.stage.Remove(id.String())
}

// FindAllExpired returns snapshots of incomplete sessions past their deadline.
func (s *Store) FindAllExpired(ctx context.Context, now time.Time) ([]domain.UploadSession, error) {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.sessions))
	for _, e := range s.sessions {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	var expired []domain.UploadSession
	for _, e := range entries {
		e.mu.Lock()
		if !e.gone && e.session.Status != domain.UploadSessionStatusComplete && e.session.ExpiresAt.Before(now) {
			expired = append(expired, snapshot(&e.session))
		}
		e.mu.Unlock()
	}
	return expired, nil
}

func (s *Store) lookup(id uuid.UUID) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return e, nil
}

func snapshot(sess *domain.UploadSession) domain.UploadSession {
	snap := *sess
	snap.Metadata = maps.Clone(sess.Metadata)
	if sess.CompletedAt != nil {
		completedAt := *sess.CompletedAt
		snap.CompletedAt = &completedAt
	}
	return snap
}
