package money

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
)

// TestDataGenerator generates realistic Hungarian statement data using gofakeit.
type TestDataGenerator struct {
	faker *gofakeit.Faker
	from  time.Time
	to    time.Time
}

// NewTestDataGenerator creates a new test data generator with a random seed.
func NewTestDataGenerator() *TestDataGenerator {
	return NewTestDataGeneratorWithSeed(0)
}

// NewTestDataGeneratorWithSeed creates a generator with a specific seed for reproducibility.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(seed),
		from:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		to:    time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

// TestTransaction is a generated statement line. Amounts are in forint and
// dates are ISO.
type TestTransaction struct {
	Date        string
	Description string
	Merchant    string
	Amount      decimal.Decimal
	Category    string
	IsExpense   bool
}

// StatementMerchant is a merchant as printed on a card statement, with the
// category its keywords resolve to.
type StatementMerchant struct {
	Name     string
	Category string
}

var statementMerchants = []StatementMerchant{
	{"TESCO EXTRA", "food"},
	{"LIDL ÁRUHÁZ", "food"},
	{"SPAR MARKET", "food"},
	{"WOLT HUNGARY", "food"},
	{"MOL TÖLTŐÁLLOMÁS", "transport"},
	{"BKK AUTOMATA", "transport"},
	{"ELMŰ ÁRAMSZÁMLA", "utilities"},
	{"TELEKOM HAVI DÍJ", "utilities"},
	{"IKEA BUDAÖRS", "shopping"},
	{"DECATHLON", "shopping"},
	{"NETFLIX.COM", "entertainment"},
	{"SPOTIFY AB", "entertainment"},
	{"BENU GYÓGYSZERTÁR", "health"},
}

var incomeDescriptions = []string{
	"Munkabér átutalás",
	"Családi pótlék",
	"Visszatérítés",
}

// Transaction generates a single random statement line.
func (g *TestDataGenerator) Transaction() TestTransaction {
	if g.faker.Number(1, 10) == 1 {
		return g.IncomeTransaction()
	}
	return g.ExpenseTransaction()
}

// Transactions generates multiple random lines.
func (g *TestDataGenerator) Transactions(count int) []TestTransaction {
	txs := make([]TestTransaction, count)
	for i := 0; i < count; i++ {
		txs[i] = g.Transaction()
	}
	return txs
}

// ExpenseTransaction generates a card purchase.
func (g *TestDataGenerator) ExpenseTransaction() TestTransaction {
	merchant := g.Merchant()
	return TestTransaction{
		Date:        g.Date(),
		Description: fmt.Sprintf("%s %04d", merchant.Name, g.faker.Number(1, 9999)),
		Merchant:    merchant.Name,
		Amount:      g.RandomAmount(500, 60000).Neg(),
		Category:    merchant.Category,
		IsExpense:   true,
	}
}

// IncomeTransaction generates an incoming transfer.
func (g *TestDataGenerator) IncomeTransaction() TestTransaction {
	desc := g.faker.RandomString(incomeDescriptions)
	return TestTransaction{
		Date:        g.Date(),
		Description: desc,
		Merchant:    desc,
		Amount:      g.RandomAmount(100000, 900000),
		Category:    "other",
	}
}

// Merchant picks a statement merchant.
func (g *TestDataGenerator) Merchant() StatementMerchant {
	return statementMerchants[g.faker.Number(0, len(statementMerchants)-1)]
}

// Date returns an ISO date within the generator year.
func (g *TestDataGenerator) Date() string {
	return g.faker.DateRange(g.from, g.to).Format("2006-01-02")
}

// RandomAmount returns a whole forint amount in [lo, hi].
func (g *TestDataGenerator) RandomAmount(lo, hi int) decimal.Decimal {
	if lo > hi {
		lo, hi = hi, lo
	}
	return decimal.NewFromInt(int64(g.faker.Number(lo, hi)))
}

// MonthlyStatement generates a month of lines: one salary, a few utility
// bills and daily purchases.
func (g *TestDataGenerator) MonthlyStatement(year int, month time.Month) []TestTransaction {
	day := func(d int) string {
		return time.Date(year, month, d, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
	}

	txs := []TestTransaction{{
		Date:        day(1),
		Description: "Munkabér átutalás",
		Merchant:    "Munkabér átutalás",
		Amount:      g.RandomAmount(400000, 900000),
		Category:    "other",
	}}

	for _, bill := range []StatementMerchant{statementMerchants[6], statementMerchants[7]} {
		txs = append(txs, TestTransaction{
			Date:        day(g.faker.Number(5, 15)),
			Description: bill.Name,
			Merchant:    bill.Name,
			Amount:      g.RandomAmount(5000, 25000).Neg(),
			Category:    bill.Category,
			IsExpense:   true,
		})
	}

	for d := 1; d <= 28; d++ {
		tx := g.ExpenseTransaction()
		tx.Date = day(d)
		txs = append(txs, tx)
	}
	return txs
}
