package tokens

import (
	"sync"

	"github.com/jrsteele09/go-lawfirm-console/internal/errors"
	"github.com/rs/zerolog/log"
)

var _ Store = (*FallbackStore)(nil)

// FallbackStore persists credentials to a Medium and mirrors them in memory.
// While the medium is unavailable, reads are served from the mirror so the
// process keeps one consistent view of its session.
type FallbackStore struct {
	mu       sync.Mutex
	medium   Medium
	mirror   *MemoryStore
	degraded bool
}

func NewFallbackStore(medium Medium) *FallbackStore {
	return &FallbackStore{
		medium: medium,
		mirror: NewMemoryStore(),
	}
}

// NewFileStore is the default persistent store: a file medium behind a fallback.
func NewFileStore(path string, opts ...FileMediumOption) *FallbackStore {
	return NewFallbackStore(NewFileMedium(path, opts...))
}

func (s *FallbackStore) Write(accessToken, refreshToken string) {
	if !validWrite(accessToken, refreshToken, s.medium.String()) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.mirror.Write(accessToken, refreshToken)
	if err := s.medium.Save(Credentials{AccessToken: accessToken, RefreshToken: refreshToken}); err != nil {
		log.Err(err).Str("store", s.medium.String()).Msg("Failed to persist credentials, keeping them in memory")
		s.degraded = true
		return
	}
	s.degraded = false
}

func (s *FallbackStore) Read() Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.degraded {
		return s.mirror.Read()
	}

	creds, err := s.medium.Load()
	switch {
	case err == nil:
		creds = normalise(creds, s.medium.String())
	case errors.Is(err, errors.ErrPartialCredentials), errors.Is(err, errors.ErrSealedStore):
		log.Warn().Err(err).Str("store", s.medium.String()).Msg("Stored credentials unreadable, treating as absent")
		creds = Credentials{}
	default:
		log.Err(err).Str("store", s.medium.String()).Msg("Failed to read credentials, using in-memory copy")
		return s.mirror.Read()
	}

	// Keep the mirror in step with external changes to the medium.
	if creds.Complete() {
		s.mirror.Write(creds.AccessToken, creds.RefreshToken)
	} else {
		s.mirror.Clear()
	}
	return creds
}

func (s *FallbackStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mirror.Clear()
	if err := s.medium.Remove(); err != nil {
		log.Err(err).Str("store", s.medium.String()).Msg("Failed to remove stored credentials")
		// The medium may still hold the old pair; reads must not resurrect it.
		s.degraded = true
		return
	}
	s.degraded = false
}

// Degraded reports whether the store is currently serving from memory only.
func (s *FallbackStore) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}
