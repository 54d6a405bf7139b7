package constants

// DefaultArabicCurrency is applied after validation when no currency was
// extracted and the document contains Arabic text.
const DefaultArabicCurrency = "AED"

// supportedCurrencies is the closed set the validator accepts.
var supportedCurrencies = map[string]struct{}{
	"AED": {},
	"SAR": {},
	"GBP": {},
	"USD": {},
	"QAR": {},
	"EUR": {},
}

func IsSupportedCurrency(code string) bool {
	_, ok := supportedCurrencies[code]
	return ok
}

func SupportedCurrencies() []string {
	return []string{"AED", "SAR", "GBP", "USD", "QAR", "EUR"}
}

// CurrencyKeywords maps each supported currency to the lowercase tokens and
// symbols that mark it on a receipt line. Order is stable so candidate
// extraction stays deterministic.
var CurrencyKeywords = []struct {
	Code     string
	Patterns []string
}{
	{"AED", []string{"aed", "د.إ", "dhs", "dirham"}},
	{"SAR", []string{"sar", "ر.س", "riyal", "ريال"}},
	{"GBP", []string{"gbp", "£", "pound"}},
	{"USD", []string{"usd", "$", "dollar"}},
	{"QAR", []string{"qar", "ر.ق", "qatari"}},
	{"EUR", []string{"eur", "€", "euro"}},
}
