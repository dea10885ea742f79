package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Monotonic(t *testing.T) {
	prev := New()
	for i := 0; i < 1000; i++ {
		next := New()
		require.Len(t, next, 26)
		require.Less(t, prev, next)
		prev = next
	}
}

func TestTime_RoundTrip(t *testing.T) {
	before := time.Now().Add(-time.Second)
	got, err := Time(New())
	require.NoError(t, err)
	assert.True(t, got.After(before))

	_, err = Time("not-a-ulid")
	assert.Error(t, err)
}
