package describe

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Locale selects the phrasing of a Description.
type Locale string

const (
	English Locale = "en"
	Korean  Locale = "ko"
)

var (
	supported = []language.Tag{language.English, language.Korean}
	matcher   = language.NewMatcher(supported)
)

// ParseLocale accepts a BCP 47 tag such as "en", "en-US" or "ko-KR".
// An empty string yields English.
func ParseLocale(s string) (Locale, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return English, nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLocale, s)
	}
	base, _ := tag.Base()
	switch base.String() {
	case "en":
		return English, nil
	case "ko":
		return Korean, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedLocale, s)
}

// MatchLocale picks the best supported locale for an Accept-Language header,
// falling back to English.
func MatchLocale(acceptLanguage string) Locale {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return English
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return English
	}
	if supported[idx] == language.Korean {
		return Korean
	}
	return English
}
