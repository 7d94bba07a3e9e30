package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
)

func TestMatchScore(t *testing.T) {
	tests := []struct {
		name  string
		query string
		text  string
		min   int
		max   int
	}{
		{"exact", "spar", "spar", 100, 100},
		{"contained", "tesco", "tesco extra", 75, 99},
		{"accent folded", "aruhaz", "lidl áruház", 60, 90},
		{"typo", "tesko", "tesco extra", 60, 90},
		{"unrelated", "netflix", "mol töltőállomás", 0, 59},
		{"empty text", "spar", "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := matchScore(tt.query, tt.text)
			assert.GreaterOrEqual(t, score, tt.min)
			assert.LessOrEqual(t, score, tt.max)
		})
	}
}

func TestStore_Search(t *testing.T) {
	store := newTestStore(t, &memRepository{})
	store.AddTransactions(context.Background(), []common.Transaction{
		candidate("2025-09-01", "TESCO BUDA", -1000),
		candidate("2025-10-01", "TESCO PEST", -2000),
		candidate("2025-10-02", "LIDL ÁRUHÁZ", -3000),
		candidate("2025-10-03", "NETFLIX.COM", -4990),
	})

	hits := store.Search("tesco", 0)
	require.Len(t, hits, 2)
	// Equal scores keep the newest first.
	assert.Equal(t, "TESCO PEST", hits[0].Transaction.Description)

	hits = store.Search("aruhaz", 0)
	require.Len(t, hits, 1)
	assert.Equal(t, "LIDL ÁRUHÁZ", hits[0].Transaction.Description)

	hits = store.Search("netflx", 0)
	require.Len(t, hits, 1)
	assert.Equal(t, "NETFLIX.COM", hits[0].Transaction.Description)

	assert.Len(t, store.Search("tesco", 1), 1)
	assert.Empty(t, store.Search("   ", 0))
}
