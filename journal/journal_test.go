package journal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memJournal struct {
	trades []TradeRecord
	equity []EquitySnapshot
	closed bool
	err    error
}

func (m *memJournal) RecordTrade(t TradeRecord) error {
	m.trades = append(m.trades, t)
	return m.err
}

func (m *memJournal) RecordEquity(e EquitySnapshot) error {
	m.equity = append(m.equity, e)
	return m.err
}

func (m *memJournal) Close() error {
	m.closed = true
	return m.err
}

func TestMulti(t *testing.T) {
	t.Parallel()

	a := &memJournal{}
	b := &memJournal{}
	j := Multi(a, nil, b)

	require.NoError(t, j.RecordTrade(TradeRecord{Seq: 1}))
	require.NoError(t, j.RecordEquity(EquitySnapshot{Step: 0}))
	require.NoError(t, j.Close())

	for _, m := range []*memJournal{a, b} {
		assert.Len(t, m.trades, 1)
		assert.Len(t, m.equity, 1)
		assert.True(t, m.closed)
	}
}

func TestMultiKeepsGoingOnError(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	a := &memJournal{err: boom}
	b := &memJournal{}
	j := Multi(a, b)

	err := j.RecordTrade(TradeRecord{Seq: 1})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, b.trades, 1)
}
