package content

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/die-net/lrucache"
)

// memoized caches the outputs of a deterministic modifier.
type memoized struct {
	modifier Modifier
	cache    *lrucache.LruCache
}

// Memoize wraps a deterministic modifier (or a whole [Chain]) with an
// in-memory LRU cache of up to maxBytes of output, keyed by a hash of the
// input. Failures are not cached. The wrapper is safe for concurrent use when
// the wrapped modifier is.
func Memoize(modifier Modifier, maxBytes int64) Modifier {
	return &memoized{
		modifier: modifier,
		cache:    lrucache.New(maxBytes, 0),
	}
}

func (m *memoized) Name() string { return modifierName(m.modifier) }

func (m *memoized) Modify(input string) (string, error) {
	sum := sha256.Sum256([]byte(input))
	key := hex.EncodeToString(sum[:])
	if cached, ok := m.cache.Get(key); ok {
		return string(cached), nil
	}
	output, err := m.modifier.Modify(input)
	if err != nil {
		return "", err
	}
	m.cache.Set(key, []byte(output))
	return output, nil
}
