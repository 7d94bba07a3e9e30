package categorization

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
)

func TestEngine_Suggest(t *testing.T) {
	engine := NewEngine(DefaultKeywords())

	tests := []struct {
		text string
		want string
	}{
		{"TESCO EXTRA - POS tranzakció", common.CategoryFood},
		{"MOL - Üzemanyag vásárlás", common.CategoryTransport},
		{"LIDL ÁRUHÁZ 0177.SZ.", common.CategoryFood},
		{"ELMŰ számla 2025/10", common.CategoryUtilities},
		{"IKEA Budaörs", common.CategoryShopping},
		{"NETFLIX.COM", common.CategoryEntertainment},
		{"Gyógyszertár Kft.", common.CategoryHealth},
		{"Átutalás - Fizetés", common.CategoryOther},
		{"", common.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.Suggest(tt.text))
		})
	}
}

func TestEngine_LowestOrderWins(t *testing.T) {
	engine := NewEngine([]Keywords{
		{Category: "first", Terms: []string{"market"}},
		{Category: "second", Terms: []string{"super", "market"}},
	})

	// "super" only belongs to second, but "market" is shared and first
	// precedes it in the table.
	assert.Equal(t, "first", engine.Suggest("SUPERMARKET"))
	assert.Equal(t, "second", engine.Suggest("super store"))
}

func TestEngine_Empty(t *testing.T) {
	engine := NewEngine(nil)
	assert.Equal(t, common.CategoryOther, engine.Suggest("anything"))

	engine = NewEngine([]Keywords{{Category: "blank", Terms: []string{"  ", ""}}})
	assert.Equal(t, common.CategoryOther, engine.Suggest("anything"))
}

func TestEngine_ConcurrentSuggest(t *testing.T) {
	engine := NewEngine(DefaultKeywords())

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text, want := "SPAR Bevásárlás", common.CategoryFood
			if i%2 == 1 {
				text, want = "Spotify AB", common.CategoryEntertainment
			}
			if got := engine.Suggest(text); got != want {
				errs <- fmt.Sprintf("%s: got %s", text, got)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Error(e)
	}
}

// Benchmark: automaton against the naive per keyword scan
func BenchmarkSuggest(b *testing.B) {
	table := DefaultKeywords()
	for i := 0; i < 1000; i++ {
		table = append(table, Keywords{
			Category: fmt.Sprintf("cat_%d", i),
			Terms:    []string{fmt.Sprintf("merchant_%d", i)},
		})
	}
	engine := NewEngine(table)
	input := "VÁSÁRLÁS KÁRTYÁVAL, 8460878289, 0000001370659951, Tranzakció: 25.07.31, merchant_999 BUDAPEST"

	b.Run("AhoCorasick", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = engine.Suggest(input)
		}
	})

	b.Run("Naive", func(b *testing.B) {
		lower := strings.ToLower(input)
		for i := 0; i < b.N; i++ {
		search:
			for _, kw := range table {
				for _, term := range kw.Terms {
					if strings.Contains(lower, term) {
						break search
					}
				}
			}
		}
	})
}
