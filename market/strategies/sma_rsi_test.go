package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSMARSI(t *testing.T) *SMARSI {
	t.Helper()
	s, err := NewSMARSI(Params{"fast_sma": 2, "slow_sma": 4, "rsi_period": 3})
	require.NoError(t, err)
	return s
}

func TestSMARSI_OversoldEntersLong(t *testing.T) {
	s := newTestSMARSI(t)

	sigs := Generate(s, closes(10, 9, 8, 7, 6, 5))
	assert.Equal(t, []Signal{Flat, Flat, Flat, LongEntry, LongEntry, LongEntry}, sigs)
}

func TestSMARSI_OverboughtExits(t *testing.T) {
	s := newTestSMARSI(t)

	sigs := Generate(s, closes(1, 2, 3, 4, 5, 6))
	assert.Equal(t, []Signal{Flat, Flat, Flat, Exit, Exit, Exit}, sigs)
}

func TestSMARSI_ExitWinsOverEntry(t *testing.T) {
	s := newTestSMARSI(t)

	// The last bar is both a fast-over-slow cross up and an RSI reading
	// above 65; the exit takes precedence.
	sigs := Generate(s, closes(10, 9, 8, 7, 6, 20))
	require.Len(t, sigs, 6)
	assert.Equal(t, LongEntry, sigs[4])
	assert.Equal(t, Exit, sigs[5])
}
