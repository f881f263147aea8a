package id

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootIDIsPrefixed(t *testing.T) {
	rid := NewRootID()
	assert.True(t, Valid(rid.String(), RootPrefix))
	assert.False(t, Valid(rid.String(), ConnPrefix))
	assert.True(t, Valid(NewConnID().String(), ConnPrefix))
}

func TestIDsSortInCreationOrder(t *testing.T) {
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = NewRootID().String()
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	assert.Equal(t, ids, sorted)
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)
	ts, err := Timestamp(NewRootID().String())
	require.NoError(t, err)
	assert.True(t, ts.After(before))

	_, err = Timestamp("root_nope")
	assert.Error(t, err)
}
