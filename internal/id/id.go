package id

import (
	"fmt"

	"github.com/google/uuid"
)

// namespace scopes every transaction id this tool derives.
var namespace = uuid.MustParse("6f1c9a52-4d7e-4b8a-9a43-1d2f0c7e5b31")

// TxnID returns the deterministic id of the seq-th transaction of a client
// within a run. The same inputs always give the same id.
func TxnID(seed int64, role string, clientID int64, seq int) string {
	name := fmt.Sprintf("%d/%s/%d/%d", seed, role, clientID, seq)
	return uuid.NewSHA1(namespace, []byte(name)).String()
}

// Validate reports whether s is a well-formed transaction id.
func Validate(s string) error {
	u, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid transaction ID %q: %w", s, err)
	}
	if u.Version() != 5 {
		return fmt.Errorf("invalid transaction ID %q: version %d", s, u.Version())
	}
	return nil
}

// Sequence numbers the transactions of one drop at a time.
type Sequence struct {
	seed     int64
	role     string
	clientID int64
	next     int
}

// NewSequence returns a Sequence for a run seed and role.
func NewSequence(seed int64, role string) *Sequence {
	return &Sequence{seed: seed, role: role}
}

// Bind starts numbering for a client.
func (s *Sequence) Bind(clientID int64) {
	s.clientID = clientID
	s.next = 0
}

// Next returns the id of the next transaction of the bound client.
func (s *Sequence) Next() string {
	id := TxnID(s.seed, s.role, s.clientID, s.next)
	s.next++
	return id
}

// Reset clears the bound client.
func (s *Sequence) Reset() {
	s.clientID = 0
	s.next = 0
}
