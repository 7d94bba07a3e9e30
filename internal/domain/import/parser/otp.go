package parser

import (
	"regexp"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
	"github.com/FACorreiaa/family-ledger/internal/domain/import/normalizer"
)

var otpNoise = []*regexp.Regexp{
	regexp.MustCompile(`^VÁSÁRLÁS KÁRTYÁVAL,\s*\d+,\s*\d+,\s*Tranzakció:\s*\d{2}\.\d{2}\.\d{2},\s*`),
	regexp.MustCompile(`^NAPKÖZBENI ÁTUTALÁS,\s*[^,]*,\s*[^,]*,\s*`),
	regexp.MustCompile(`^ADOMÁNY,\s*[^,]*,\s*[^,]*,\s*[^,]*,\s*`),
	regexp.MustCompile(`\s+\d+,\d+EUR.*$`),
	regexp.MustCompile(`\s+-\p{Lu}+.*$`),
}

// otpForeignAmount finds the HUF amount printed after a foreign currency
// conversion: "6,800EUR 0, -2.714".
var otpForeignAmount = regexp.MustCompile(`[\d,]+EUR\s+\d+,?\s*(-?\d+(?:\.\d{3})*(?:,\d{2})?)`)

var otpMerchants = append(normalizer.MerchantTable{
	normalizer.MustPattern(`LIDL ÁRUHÁZ`, "LIDL"),
	normalizer.MustPattern(`OTPdirekt HAVIDÍJ`, "OTP Díj"),
	normalizer.MustPattern(`COGNIZANT TECHNOLOGY`, "Fizetés (Cognizant)"),
	normalizer.MustPattern(`WWF Magyarország`, "WWF Adomány"),
	normalizer.MustPattern(`\bDM \d+`, "DM Drogerie"),
	normalizer.MustPattern(`MÖMAX`, "Mömax"),
	normalizer.MustPattern(`\bCBA\b`, "CBA"),
}, commonMerchants...)

var otpSheet = SheetLayout{
	HeaderKeywords: []string{"dátum", "összeg", "tranzakció"},
	Date:           []string{"dátum", "date", "könyvelés"},
	Description:    []string{"megnevezés", "description", "tranzakció", "leírás"},
	Amount:         []string{"összeg", "amount", "érték"},
}

// OTPProfile reads OTP Bank statements. Transaction lines start with a
// YY.MM.DD booking date and value date.
func OTPProfile() *Profile {
	return &Profile{
		Bank: common.BankOTP,
		Text: TextLayout{
			Section: Section{
				Start: []string{"FORGALMAK", "KÖNYVELÉS/ÉRTÉKNAP"},
				End: []string{
					"IDŐSZAK:", "IDÕSZAK:", "JÓVÁÍRÁSOK ÖSSZESEN:", "TERHELÉSEK ÖSSZESEN:",
					"ZÁRÓ EGYENLEG", "LAP/LAP", "TOVÁBBI SZÁMLAINFORMÁCIÓK",
				},
				Skip: []string{"MEGNEVEZÉS", "ÖSSZEG", "NYITÓ EGYENLEG"},
			},
			Date:      normalizer.ParseShortDate,
			ValueDate: true,
			Lookahead: otpLookahead,
		},
		Sheet:     otpSheet,
		Merchants: otpMerchants,
		Describe:  otpDescribe,
	}
}

// otpLookahead takes the converted amount from the next line when a foreign
// currency card payment prints no amount on its first line.
func otpLookahead(c *Candidate, next string) {
	m := otpForeignAmount.FindStringSubmatch(next)
	if m == nil {
		return
	}
	c.Amount = normalizer.ParseAmount(m[1])
}

func otpDescribe(c *Candidate) string {
	desc := c.Description
	for _, re := range otpNoise {
		desc = re.ReplaceAllString(desc, "")
	}
	return normalizer.CleanDescription(desc)
}

// ErsteProfile reads Erste Bank statements. Lines carry full booking and
// value dates; spreadsheets share the OTP column names.
func ErsteProfile() *Profile {
	return &Profile{
		Bank: common.BankErste,
		Text: TextLayout{
			Section: Section{
				Start: []string{"TRANZAKCIÓK", "KÖNYVELÉSI NAP"},
				End:   []string{"ZÁRÓ EGYENLEG", "ZÁRÓEGYENLEG"},
				Skip:  []string{"NYITÓ EGYENLEG", "NYITÓEGYENLEG"},
			},
			Date:      dateToken,
			ValueDate: true,
		},
		Sheet:     otpSheet,
		Merchants: commonMerchants,
	}
}
