// Package describe turns a percentile into reader-facing phrases.
package describe

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultApplicants is the applicant pool used when none is given.
const DefaultApplicants = 10000

// Description is the presentation form of a percentile.
type Description struct {
	Percentile    float64 `json:"percentile"`
	PercentilePct int     `json:"percentile_pct"`
	BandPhrase    string  `json:"band_phrase"`
	StrongerThan  int     `json:"stronger_than"`
	WeakerThan    int     `json:"weaker_than"`
	NApplicants   int     `json:"n_applicants"`
	Statement     string  `json:"statement"`
	Locale        Locale  `json:"locale"`
}

type phrasing struct {
	tag       language.Tag
	top       string
	bottom    string
	statement func(p *message.Printer, stronger, n int) string
}

var phrasings = map[Locale]phrasing{
	English: {
		tag:    language.English,
		top:    "Top %d%%",
		bottom: "Bottom %d%%",
		statement: func(p *message.Printer, stronger, n int) string {
			return p.Sprintf("Stronger than %d of %d applicants", stronger, n)
		},
	},
	Korean: {
		tag:    language.Korean,
		top:    "상위 %d%%",
		bottom: "하위 %d%%",
		statement: func(p *message.Printer, stronger, n int) string {
			return p.Sprintf("지원자 %d명 중 %d명보다 경쟁력이 높습니다", n, stronger)
		},
	},
}

// Describe renders the English description of percentile against an
// applicant pool of nApplicants; non-positive pools use DefaultApplicants.
func Describe(percentile float64, nApplicants int) Description {
	return In(English, percentile, nApplicants)
}

// DescribeKorean is Describe with Korean phrasing.
func DescribeKorean(percentile float64, nApplicants int) Description {
	return In(Korean, percentile, nApplicants)
}

// In renders the description in the given locale. Unknown locales use English.
func In(locale Locale, percentile float64, nApplicants int) Description {
	ph, ok := phrasings[locale]
	if !ok {
		locale, ph = English, phrasings[English]
	}
	if nApplicants <= 0 {
		nApplicants = DefaultApplicants
	}

	pct := int(math.Round(percentile * 100))
	// Both bands report the complement of pct.
	band := fmt.Sprintf(ph.bottom, 100-pct)
	if pct >= 50 {
		band = fmt.Sprintf(ph.top, 100-pct)
	}

	stronger := int(math.Round(percentile*float64(nApplicants)/10)) * 10
	return Description{
		Percentile:    percentile,
		PercentilePct: pct,
		BandPhrase:    band,
		StrongerThan:  stronger,
		WeakerThan:    nApplicants - stronger,
		NApplicants:   nApplicants,
		Statement:     ph.statement(message.NewPrinter(ph.tag), stronger, nApplicants),
		Locale:        locale,
	}
}
