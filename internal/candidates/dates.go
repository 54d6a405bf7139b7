package candidates

import (
	"regexp"
	"strings"
	"time"
)

var dateKeywords = []string{"date", "invoice date", "bill date", "تاريخ", "التاريخ"}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{4}[-/.]\d{1,2}[-/.]\d{1,2}\b`),
	regexp.MustCompile(`\b\d{1,2}[-/.]\d{1,2}[-/.]\d{4}\b`),
	regexp.MustCompile(`\b\d{1,2}[-/.]\d{1,2}[-/.]\d{2}\b`),
}

// dateLayouts are tried in priority order. Layouts with a two-digit year get
// the century fixed up afterwards.
var dateLayouts = []struct {
	layout   string
	twoDigit bool
}{
	{"2006-1-2", false},
	{"2-1-2006", false},
	{"2-1-06", true},
	{"1-2-2006", false},
	{"1-2-06", true},
}

const daysPerYear = 365

// ParseDate normalizes a raw date token to YYYY-MM-DD. Two-digit years are
// placed in the current century unless that would land more than five years
// in the future, in which case the previous century is used.
func ParseDate(raw string) (string, bool) {
	return parseDateAt(raw, time.Now())
}

func parseDateAt(raw string, now time.Time) (string, bool) {
	cleaned := strings.NewReplacer("/", "-", ".", "-").Replace(raw)

	for _, l := range dateLayouts {
		t, err := time.Parse(l.layout, cleaned)
		if err != nil {
			continue
		}
		if l.twoDigit {
			yy := t.Year() % 100
			year := (now.Year()/100)*100 + yy
			if year > now.Year()+5 {
				year -= 100
			}
			t = time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
		return t.Format("2006-01-02"), true
	}
	return "", false
}

// ExtractDates scans the text for date-shaped tokens and scores them.
// Returns at most 5 candidates, deduped, sorted by score descending.
func ExtractDates(rawText string) []Date {
	return extractDatesAt(rawText, time.Now())
}

func extractDatesAt(rawText string, now time.Time) []Date {
	lines := strings.Split(rawText, "\n")
	var cands []Date

	for idx, line := range lines {
		lower := strings.ToLower(line)

		for _, pat := range datePatterns {
			for _, m := range pat.FindAllString(line, -1) {
				value, ok := parseDateAt(m, now)
				if !ok {
					continue
				}

				score := 0.5
				var evidence []string

				for _, kw := range dateKeywords {
					if strings.Contains(lower, kw) {
						score += 0.3
						evidence = append(evidence, "keyword:"+kw)
						break
					}
				}

				if float64(idx) < float64(len(lines))*0.3 {
					score += 0.1
					evidence = append(evidence, "position:top")
				}

				parsed, _ := time.Parse("2006-01-02", value)
				daysDiff := now.Sub(parsed).Hours() / 24
				if daysDiff < 0 {
					daysDiff = -daysDiff
				}
				switch {
				case daysDiff > daysPerYear*5:
					score -= 0.3
					evidence = append(evidence, "warning:old_date")
				case daysDiff < daysPerYear:
					score += 0.1
					evidence = append(evidence, "recent")
				}

				cands = append(cands, Date{
					Value:    value,
					Score:    clampScore(score),
					Evidence: evidence,
					Line:     strings.TrimSpace(line),
				})
			}
		}
	}

	return sortDedupeTop(cands,
		func(d Date) float64 { return d.Score },
		func(d Date) string { return d.Value },
		5)
}
