// Package ids defines the identifier types shared by every component of
// the pipeline framework: invocation ids, checkpoint ids, and step
// instance ids are all lexicographically sortable ULIDs.
package ids

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID wraps ulid.ULID so the rest of the module never imports the ulid
// package directly.
type ID ulid.ULID

// entropy is monotonic within a millisecond, so successive New calls
// in the same process never compare out of order.
var entropy = &ulid.LockedMonotonicReader{MonotonicReader: ulid.Monotonic(rand.Reader, 0)}

// New generates a new ID from the current time.
func New() ID {
	return ID(ulid.MustNew(ulid.Timestamp(time.Now()), entropy))
}

// Parse parses an ID from its canonical string form.
func Parse(s string) (ID, error) {
	id, err := ulid.Parse(s)
	if err != nil {
		return ID{}, fmt.Errorf("invalid id: %w", err)
	}
	return ID(id), nil
}

// MustParse parses an ID and panics if s is malformed. Intended for
// constants and test fixtures only.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the canonical string form of the ID.
func (id ID) String() string {
	return ulid.ULID(id).String()
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return ulid.ULID(id).Compare(ulid.ULID{}) == 0
}

// Compare orders two IDs, which for ULIDs is also chronological order.
func (id ID) Compare(other ID) int {
	return ulid.ULID(id).Compare(ulid.ULID(other))
}

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + id.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ID{}
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid id JSON: %s", string(data))
	}
	s := string(data[1 : len(data)-1])
	if s == "" {
		*id = ID{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return fmt.Errorf("parsing id JSON: %w", err)
	}
	*id = parsed
	return nil
}
