package engine

import "sync"

// Memo builds a client on first use and returns the same client until
// Reset. Configuration read by build is captured at first use only.
type Memo struct {
	build func() (API, error)

	mu     sync.Mutex
	client API
}

// NewMemo returns a Memo that constructs clients with build.
func NewMemo(build func() (API, error)) *Memo {
	return &Memo{build: build}
}

// Get returns the memoized client, building it if needed. A failed build
// is not cached.
func (m *Memo) Get() (API, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		return m.client, nil
	}
	c, err := m.build()
	if err != nil {
		return nil, err
	}
	m.client = c
	return c, nil
}

// Reset drops the memoized client so the next Get builds a new one. The
// dropped client is not closed.
func (m *Memo) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.client = nil
}
