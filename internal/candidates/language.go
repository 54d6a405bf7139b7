package candidates

import "regexp"

// Language classifies the script mix of a document.
type Language string

const (
	LangEnglish Language = "english"
	LangArabic  Language = "arabic"
	LangBoth    Language = "both"
	LangUnknown Language = "unknown"
)

var (
	reArabic = regexp.MustCompile(`[\x{0600}-\x{06FF}]`)
	reLatin  = regexp.MustCompile(`[a-zA-Z]`)
)

// DetectLanguage reports whether the text contains Arabic, Latin, or both.
func DetectLanguage(text string) Language {
	hasArabic := reArabic.MatchString(text)
	hasLatin := reLatin.MatchString(text)

	switch {
	case hasArabic && hasLatin:
		return LangBoth
	case hasArabic:
		return LangArabic
	case hasLatin:
		return LangEnglish
	default:
		return LangUnknown
	}
}

// IsArabic reports whether the language implies Arabic content.
func (l Language) IsArabic() bool {
	return l == LangArabic || l == LangBoth
}
