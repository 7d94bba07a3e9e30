package parser

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
	"github.com/FACorreiaa/family-ledger/internal/domain/import/normalizer"
)

var (
	raiffeisenItemID    = regexp.MustCompile(`^\d{10}$`)
	raiffeisenValueDate = regexp.MustCompile(`^\d{4}\.\d{2}\.\d{2}\.?(?:\s+|$)`)
	raiffeisenIBAN      = regexp.MustCompile(`^[A-Z]{2}\d{2}[A-Z0-9]{10,30}$`)
	// Counterparty names wrap mid word: "... TÁ" followed by "RSA".
	raiffeisenNameTail = regexp.MustCompile(`^\p{Lu}{1,4}$`)
)

const (
	openName    = "name"
	openAccount = "account"
)

var raiffeisenMerchants = append(normalizer.MerchantTable{
	normalizer.MustPattern(`Díj, jutalék`, "Raiffeisen Díj"),
	normalizer.MustPattern(`^Kamat`, "Raiffeisen Kamat"),
}, commonMerchants...)

// RaiffeisenProfile reads Raiffeisen statements, where one transaction
// spans an item line ("<10 digit id> <date> <description> <amount>") and
// the metadata lines below it.
func RaiffeisenProfile() *Profile {
	return &Profile{
		Bank: common.BankRaiffeisen,
		Text: TextLayout{
			Section: Section{
				Start: []string{"Könyvelés"},
				End:   []string{"összes terhelés", "NYITÓEGYENLEG", "ZÁRÓEGYENLEG"},
				Skip:  []string{"Tétel azon"},
			},
			LeadingID: raiffeisenItemID,
			Date:      dateToken,
			Fold:      raiffeisenFold,
		},
		Sheet: SheetLayout{
			HeaderKeywords: []string{"értéknap", "terhelés", "jóváírás"},
			Date:           []string{"értéknap", "dátum", "date"},
			Description:    []string{"megnevezés", "tranzakció megnevezése", "leírás"},
			Debit:          []string{"terhelés", "debit"},
			Credit:         []string{"jóváírás", "credit"},
		},
		Merchants:    raiffeisenMerchants,
		InfoMerchant: true,
		Describe:     raiffeisenDescribe,
	}
}

// raiffeisenFold sorts a metadata line into the candidate fields.
func raiffeisenFold(c *Candidate, line string) {
	if m := raiffeisenValueDate.FindString(line); m != "" {
		line = strings.TrimSpace(line[len(m):])
		if line == "" {
			c.open = ""
			return
		}
	}

	open := c.open
	c.open = ""

	switch {
	case strings.HasPrefix(line, "Referencia:"):
		c.Reference = labelValue(line)
	case strings.HasPrefix(line, "Kedvezményezett neve:"), strings.HasPrefix(line, "Átutaló neve:"):
		c.Counterparty = labelValue(line)
		c.open = openName
	case strings.Contains(line, "számlaszáma:"):
		c.CounterpartyAccount = labelValue(line)
		if c.CounterpartyAccount == "" {
			c.open = openAccount
		}
	case strings.HasPrefix(line, "Közlemény:"):
		c.Memo = labelValue(line)
	case open == openAccount && raiffeisenIBAN.MatchString(line):
		c.CounterpartyAccount = line
	case open == openName && raiffeisenNameTail.MatchString(line):
		c.Counterparty += line
	default:
		c.AddInfo(line)
	}
}

func raiffeisenDescribe(c *Candidate) string {
	desc := normalizer.CleanDescription(c.Description)
	if c.Counterparty != "" {
		desc += " - " + c.Counterparty
	}
	return desc
}

// labelValue returns the text after the first colon.
func labelValue(line string) string {
	_, v, _ := strings.Cut(line, ":")
	return strings.TrimSpace(v)
}
