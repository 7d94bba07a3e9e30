package ledger

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
)

// SearchThreshold is the minimum score (0-100) a transaction needs to be
// returned from Search.
const SearchThreshold = 60

// SearchHit is a transaction with its similarity score.
type SearchHit struct {
	Transaction common.Transaction `json:"transaction"`
	Score       int                `json:"score"`
}

// searchTransactions ranks txs against query by merchant and description.
// Ties keep the newest first.
func searchTransactions(txs []common.Transaction, query string, limit int) []SearchHit {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var hits []SearchHit
	for _, tx := range txs {
		score := max(
			matchScore(query, strings.ToLower(tx.Merchant)),
			matchScore(query, strings.ToLower(tx.Description)),
		)
		if score >= SearchThreshold {
			hits = append(hits, SearchHit{Transaction: tx, Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Transaction.Date > hits[j].Transaction.Date
	})

	if limit > 0 && limit < len(hits) {
		hits = hits[:limit]
	}
	return hits
}

// matchScore calculates a similarity score between a lower case query and
// text (0-100). Containment scores highest, then per word accent
// insensitive matches, then per word edit distance to tolerate typos.
func matchScore(query, text string) int {
	if text == "" {
		return 0
	}
	if text == query {
		return 100
	}

	if strings.Contains(text, query) {
		return 75 + (25 * len(query) / len(text))
	}

	queryLen := len([]rune(query))
	best := 0
	for _, word := range strings.Fields(text) {
		wordLen := len([]rune(word))

		// "aruhaz" finds "áruház"
		if queryLen >= 3 && 2*queryLen >= wordLen && fuzzy.MatchNormalizedFold(query, word) {
			best = max(best, min(90, 60+(30*queryLen/wordLen)))
			continue
		}

		maxLen := max(wordLen, queryLen)
		distance := fuzzy.LevenshteinDistance(query, word)
		if distance >= maxLen {
			continue
		}
		best = max(best, 100*(maxLen-distance)/maxLen)
	}
	return best
}
