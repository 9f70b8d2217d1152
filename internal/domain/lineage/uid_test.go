package lineage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUID_RoundTrip(t *testing.T) {
	for _, entityType := range AllEntityTypes() {
		t.Run(string(entityType), func(t *testing.T) {
			before := time.Now().UnixMilli()
			uid, err := NewUID(entityType)
			require.NoError(t, err)
			after := time.Now().UnixMilli()

			parsed, err := ParseUID(uid)
			require.NoError(t, err)

			assert.Equal(t, entityType, parsed.EntityType)
			assert.GreaterOrEqual(t, parsed.Timestamp, before)
			assert.LessOrEqual(t, parsed.Timestamp, after)
			assert.Len(t, parsed.Random, randomLength)
		})
	}
}

func TestNewUID_RandomAlphabet(t *testing.T) {
	uid, err := NewUID(EntityTypeOrder)
	require.NoError(t, err)

	parsed, err := ParseUID(uid)
	require.NoError(t, err)

	for _, c := range parsed.Random {
		assert.Contains(t, randomAlphabet, string(c))
	}
	// The separator must never leak into a segment
	assert.Equal(t, 2, strings.Count(string(uid), uidSeparator))
}

func TestNewUID_Uniqueness(t *testing.T) {
	const count = 10000
	seen := make(map[UID]struct{}, count)
	for i := 0; i < count; i++ {
		uid, err := NewUID(EntityTypeOrder)
		require.NoError(t, err)
		_, dup := seen[uid]
		require.False(t, dup, "duplicate UID minted: %s", uid)
		seen[uid] = struct{}{}
	}
	assert.Len(t, seen, count)
}

func TestNewUID_UnknownEntityType(t *testing.T) {
	_, err := NewUID(EntityType("INVOICE"))
	assert.ErrorIs(t, err, ErrUnknownEntityType)
}

func TestParseUID(t *testing.T) {
	tests := []struct {
		name    string
		uid     UID
		wantErr error
	}{
		{"valid", "ORDER-1724990000000-AB12CD34EF", nil},
		{"valid underscore type", "PAYMENT_REQUEST-1724990000000-AB12CD34EF", nil},
		{"empty", "", ErrMalformedUID},
		{"one segment", "ORDER", ErrMalformedUID},
		{"two segments", "ORDER-1724990000000", ErrMalformedUID},
		{"empty type", "-1724990000000-AB12CD", ErrMalformedUID},
		{"empty timestamp", "ORDER--AB12CD", ErrMalformedUID},
		{"empty random", "ORDER-1724990000000-", ErrMalformedUID},
		{"unknown type", "INVOICE-1724990000000-AB12CD", ErrUnknownEntityType},
		{"lowercase type", "order-1724990000000-AB12CD", ErrUnknownEntityType},
		{"bad timestamp", "ORDER-yesterday-AB12CD", ErrBadTimestamp},
		{"float timestamp", "ORDER-1724990000.5-AB12CD", ErrBadTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseUID(tt.uid)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, parsed.EntityType.IsValid())
			assert.Equal(t, int64(1724990000000), parsed.Timestamp)
			assert.Equal(t, "AB12CD34EF", parsed.Random)
		})
	}
}

func TestParsedUID_Time(t *testing.T) {
	parsed, err := ParseUID("BILL-1724990000000-AB12CD34EF")
	require.NoError(t, err)
	assert.Equal(t, time.UnixMilli(1724990000000), parsed.Time())
}
