package parser

import (
	"strings"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
)

// textResult is the outcome of running the line driver over a document.
type textResult struct {
	transactions []common.Transaction
	candidates   int
	// sectionFound reports whether a start marker was seen. Profiles
	// without start markers always report true.
	sectionFound bool
}

// parseLines walks reconstructed statement lines. Inside the section a line
// that opens a transaction finalizes the pending one; any other line is
// folded into the pending transaction, or dropped when none is open.
func (p *Profile) parseLines(lines []string) textResult {
	layout := p.Text
	res := textResult{sectionFound: len(layout.Section.Start) == 0}
	inSection := res.sectionFound

	var pending *Candidate
	flush := func() {
		if pending == nil {
			return
		}
		res.candidates++
		if tx, ok := p.finalize(pending, textMerchantWords); ok {
			res.transactions = append(res.transactions, tx)
		}
		pending = nil
	}

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if !inSection {
			if layout.Section.match(line, layout.Section.Start) {
				inSection = true
				res.sectionFound = true
			}
			continue
		}

		if layout.Section.match(line, layout.Section.End) {
			flush()
			inSection = len(layout.Section.Start) == 0
			continue
		}
		if layout.Section.match(line, layout.Section.Start) || layout.Section.match(line, layout.Section.Skip) {
			continue
		}

		if c, ok := layout.startLine(line); ok {
			flush()
			pending = c
			if pending.Amount.IsZero() && layout.Lookahead != nil && i+1 < len(lines) {
				layout.Lookahead(pending, strings.TrimSpace(lines[i+1]))
			}
			continue
		}

		if pending == nil {
			continue
		}
		if layout.Fold != nil {
			layout.Fold(pending, line)
		} else {
			pending.AddInfo(line)
		}
	}
	flush()
	return res
}

// startLine recognises a transaction opening line:
// [ID] date [value date] description... amount
func (t TextLayout) startLine(line string) (*Candidate, bool) {
	if t.Date == nil {
		return nil, false
	}
	tokens := strings.Fields(line)
	i := 0
	if t.LeadingID != nil {
		if len(tokens) == 0 || !t.LeadingID.MatchString(tokens[0]) {
			return nil, false
		}
		i++
	}
	if i >= len(tokens) {
		return nil, false
	}
	date, ok := t.Date(tokens[i])
	if !ok {
		return nil, false
	}
	i++
	if t.ValueDate && i < len(tokens) {
		if _, ok := t.Date(tokens[i]); ok {
			i++
		}
	}

	rest := tokens[i:]
	findAmount := t.Amount
	if findAmount == nil {
		findAmount = lastAmountToken
	}
	amount, idx := findAmount(rest)
	description := rest
	if idx >= 0 {
		description = rest[:idx]
	}

	return &Candidate{
		Date:        date,
		Description: strings.Join(description, " "),
		Amount:      amount,
	}, true
}
