package chat

import (
	"math/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID prefixes for generated identifiers.
const (
	prefixMessage   = "msg"
	prefixText      = "text"
	prefixReasoning = "reasoning"
	prefixCall      = "call"
)

// IDFunc returns a fresh identifier carrying prefix.
type IDFunc func(prefix string) string

// NewID returns prefix followed by a lowercase ULID, e.g. "msg_01hx...".
func NewID(prefix string) string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return prefix + "_" + strings.ToLower(ulid.MustNew(ulid.Timestamp(t), entropy).String())
}

func orDefaultIDs(f IDFunc) IDFunc {
	if f == nil {
		return NewID
	}
	return f
}
