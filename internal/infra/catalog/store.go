package catalog

import (
	"encoding/hex"
	"encoding/json"

	"github.com/zeebo/blake3"

	"vnmcp/internal/domain"
)

// Store is the immutable, load-ordered catalog shared by every request.
type Store struct {
	entries     []domain.Entry
	fingerprint string
}

// NewStore takes ownership of entries; callers must not modify the slice afterwards.
func NewStore(entries []domain.Entry) *Store {
	return &Store{
		entries:     entries,
		fingerprint: fingerprintEntries(entries),
	}
}

// All returns the entries in load order. The slice is shared and must be
// treated as read-only.
func (s *Store) All() []domain.Entry {
	if s == nil {
		return nil
	}
	return s.entries
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Fingerprint identifies the catalog contents.
func (s *Store) Fingerprint() string {
	if s == nil {
		return ""
	}
	return s.fingerprint
}

func fingerprintEntries(entries []domain.Entry) string {
	hasher := blake3.New()
	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			data = []byte(entry.Name + "\x00" + entry.URL)
		}
		_, _ = hasher.Write(data)
		_, _ = hasher.Write([]byte{'\n'})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
