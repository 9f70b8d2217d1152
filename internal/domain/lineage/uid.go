package lineage

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/erp/lineage/internal/domain/shared"
)

const (
	// uidSeparator joins the three UID segments. The random alphabet and
	// the entity type tags never contain it, so splitting is unambiguous.
	uidSeparator = "-"

	// randomAlphabet is the compact alphabet for the random segment.
	randomAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// randomLength is the number of alphabet characters in the random
	// segment. 10 characters over a 36-character alphabet carry ~51 bits
	// of entropy, above the 6-byte floor required for collision resistance.
	randomLength = 10
)

// UID is the globally unique, self-describing identifier of a business
// record: {EntityType}-{unix milliseconds}-{random token}. A UID is
// immutable once minted and is never reused, even after the underlying
// record is deleted.
type UID string

// String returns the string representation of the UID
func (u UID) String() string {
	return string(u)
}

// ParsedUID is the decoded form of a UID
type ParsedUID struct {
	EntityType EntityType
	Timestamp  int64 // milliseconds since epoch at mint time
	Random     string
}

// Time returns the mint timestamp of the parsed UID
func (p ParsedUID) Time() time.Time {
	return time.UnixMilli(p.Timestamp)
}

// UID parse errors
var (
	ErrMalformedUID      = shared.NewDomainError("MALFORMED_UID", "UID must have type, timestamp and random segments")
	ErrUnknownEntityType = shared.NewDomainError("UNKNOWN_ENTITY_TYPE", "UID entity type segment is not a known entity type")
	ErrBadTimestamp      = shared.NewDomainError("BAD_TIMESTAMP", "UID timestamp segment is not an integer")
)

// NewUID mints a UID for the given entity type. The timestamp segment is
// the current wall clock in milliseconds; uniqueness rests on the random
// segment, not on timestamp ordering across processes.
func NewUID(entityType EntityType) (UID, error) {
	if !entityType.IsValid() {
		return "", ErrUnknownEntityType
	}
	token, err := randomToken(randomLength)
	if err != nil {
		return "", fmt.Errorf("failed to mint uid: %w", err)
	}
	parts := []string{
		string(entityType),
		strconv.FormatInt(time.Now().UnixMilli(), 10),
		token,
	}
	return UID(strings.Join(parts, uidSeparator)), nil
}

// ParseUID decodes a UID into its segments. It is pure and total: any
// failure is one of the typed errors above, never a panic. Note the
// entity type tags may themselves contain underscores but never the
// separator, so the first two separators delimit the segments.
func ParseUID(uid UID) (ParsedUID, error) {
	segments := strings.SplitN(string(uid), uidSeparator, 3)
	if len(segments) < 3 || segments[0] == "" || segments[1] == "" || segments[2] == "" {
		return ParsedUID{}, ErrMalformedUID
	}

	entityType := EntityType(segments[0])
	if !entityType.IsValid() {
		return ParsedUID{}, ErrUnknownEntityType
	}

	timestamp, err := strconv.ParseInt(segments[1], 10, 64)
	if err != nil {
		return ParsedUID{}, ErrBadTimestamp
	}

	return ParsedUID{
		EntityType: entityType,
		Timestamp:  timestamp,
		Random:     segments[2],
	}, nil
}

// randomToken renders n characters of crypto/rand entropy in the compact
// alphabet
func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = randomAlphabet[int(b)%len(randomAlphabet)]
	}
	return string(buf), nil
}
