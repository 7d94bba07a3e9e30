// Package parser turns extracted statement documents into transactions
// using per bank profiles over shared line and row drivers.
package parser

import (
	"log/slog"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
	"github.com/FACorreiaa/family-ledger/internal/domain/import/extractor"
	"github.com/FACorreiaa/family-ledger/internal/domain/import/sniffer"
)

// SuggestFunc returns a provisional category for a description.
type SuggestFunc func(text string) string

// ParseResult contains the transactions parsed from one document.
type ParseResult struct {
	Transactions []common.Transaction
	TotalRows    int
	ParsedRows   int
	SkippedRows  int
	// Bank is the profile that produced the transactions.
	Bank common.Bank
	// Fallback is set when the selected profile could not read the document
	// and the generic layout was used.
	Fallback bool
}

// Parser routes documents to the profile of the selected bank.
type Parser struct {
	profiles map[common.Bank]*Profile
	suggest  SuggestFunc
	logger   *slog.Logger
}

// NewParser creates a parser with the built in profiles. suggest may be nil.
func NewParser(suggest SuggestFunc, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		profiles: DefaultProfiles(),
		suggest:  suggest,
		logger:   logger,
	}
}

// Profile returns the profile for bank, or the generic one.
func (p *Parser) Profile(bank common.Bank) *Profile {
	if prof, ok := p.profiles[bank]; ok {
		return prof
	}
	return p.profiles[common.BankGeneric]
}

// Parse maps an extracted document to transactions. Rows that do not make
// a valid transaction are counted as skipped and otherwise ignored.
func (p *Parser) Parse(doc *extractor.Extracted, bank common.Bank) *ParseResult {
	prof := p.Profile(bank)
	result := &ParseResult{Bank: prof.Bank}
	if doc == nil {
		return result
	}

	switch doc.Format {
	case sniffer.FormatPDF:
		res := prof.parseLines(doc.Lines)
		if !res.sectionFound {
			p.logger.Info("statement section not found, using generic layout",
				"bank", prof.Bank, "lines", len(doc.Lines))
			res = p.Profile(common.BankGeneric).parseLines(doc.Lines)
			result.Fallback = true
			result.Bank = common.BankGeneric
		}
		result.Transactions = res.transactions
		result.TotalRows = res.candidates

	case sniffer.FormatCSV:
		if prof.CSV != nil {
			if cands, ok := prof.CSV(doc.Text, doc.Delimiter); ok {
				result.TotalRows = len(cands)
				for i := range cands {
					if tx, ok := prof.finalize(&cands[i], rowMerchantWords); ok {
						result.Transactions = append(result.Transactions, tx)
					}
				}
				break
			}
		}
		p.fromRows(prof, doc.Rows, result)

	default:
		p.fromRows(prof, doc.Rows, result)
	}

	result.ParsedRows = len(result.Transactions)
	result.SkippedRows = result.TotalRows - result.ParsedRows
	if p.suggest != nil {
		for i := range result.Transactions {
			result.Transactions[i].Category = p.suggest(result.Transactions[i].MatchText())
		}
	}

	p.logger.Debug("statement parsed",
		"bank", result.Bank,
		"format", doc.Format,
		"total_rows", result.TotalRows,
		"parsed_rows", result.ParsedRows,
		"fallback", result.Fallback,
	)
	return result
}

func (p *Parser) fromRows(prof *Profile, rows []common.RawRow, result *ParseResult) {
	res := prof.parseRows(rows)
	result.Transactions = res.transactions
	result.TotalRows = res.candidates
	if res.generic && prof.Bank != common.BankGeneric {
		result.Fallback = true
	}
}
