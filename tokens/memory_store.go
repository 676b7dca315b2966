package tokens

import "sync"

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps the credentials in process memory only.
type MemoryStore struct {
	mu    sync.RWMutex
	creds Credentials
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Write(accessToken, refreshToken string) {
	if !validWrite(accessToken, refreshToken, "memory") {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = Credentials{AccessToken: accessToken, RefreshToken: refreshToken}
}

func (m *MemoryStore) Read() Credentials {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds
}

func (m *MemoryStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = Credentials{}
}
