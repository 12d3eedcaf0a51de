package local

import "testing"

// NewMemoryStoreForTest opens an in-memory store closed by t.Cleanup.
func NewMemoryStoreForTest(t testing.TB) *Store {
	t.Helper()
	s, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}
