package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/Abhi-coder-crypto/Inv-gen/storage"
	"github.com/google/uuid"
)

type session struct {
	userID    models.ID
	expiresAt time.Time
}

// sessionStore keeps sessions in process memory; they do not survive restarts.
// Expired entries are swept periodically.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]session
	stop     chan struct{}
	once     sync.Once
}

func newSessionStore(sweepEvery time.Duration) *sessionStore {
	st := &sessionStore{
		sessions: make(map[string]session),
		stop:     make(chan struct{}),
	}
	go st.sweep(sweepEvery)
	return st
}

func (st *sessionStore) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-st.stop:
			return
		case now := <-ticker.C:
			st.mu.Lock()
			for token, sess := range st.sessions {
				if !now.Before(sess.expiresAt) {
					delete(st.sessions, token)
				}
			}
			st.mu.Unlock()
		}
	}
}

func (st *sessionStore) close() {
	st.once.Do(func() { close(st.stop) })
}

func (st *sessionStore) Create(_ context.Context, userID models.ID, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	st.mu.Lock()
	st.sessions[token] = session{userID: userID, expiresAt: time.Now().Add(ttl)}
	st.mu.Unlock()
	return token, nil
}

func (st *sessionStore) Get(_ context.Context, token string) (models.ID, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[token]
	if !ok {
		return "", storage.ErrSessionNotFound()
	}
	if !time.Now().Before(sess.expiresAt) {
		delete(st.sessions, token)
		return "", storage.ErrSessionNotFound()
	}
	return sess.userID, nil
}

func (st *sessionStore) Destroy(_ context.Context, token string) error {
	st.mu.Lock()
	delete(st.sessions, token)
	st.mu.Unlock()
	return nil
}
