package services

import (
	"fmt"
	"strings"
)

// DefaultLanguage is the language every question bank is authored in.
// Translations overlay it, they never replace it as the baseline.
const DefaultLanguage = "ENGLISH"

var supportedLanguages = map[string]string{
	"ENGLISH": "en",
	"CHINESE": "zh-Hans",
}

// NormalizeLanguage maps arbitrary input to a supported language code,
// falling back to the default for anything unrecognized.
func NormalizeLanguage(language string) string {
	code := strings.ToUpper(strings.TrimSpace(language))
	if _, ok := supportedLanguages[code]; !ok {
		return DefaultLanguage
	}
	return code
}

func normalizeState(state string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(state))
	if code == "" {
		return "", fmt.Errorf("%w: a state code must be provided", ErrValidation)
	}
	return code, nil
}
