package memory

import (
	"time"

	"text2sql-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

type ISessionRepository interface {
	Save(session *entity.Session)
	Get(sessionID string) (*entity.Session, bool)
	Delete(sessionID string)
}

type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	// Sessions idle for an hour are dropped; expired entries are purged every
	// ten minutes.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *entity.Session) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*entity.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*entity.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
