// Package phone normalizes lead phone numbers to E.164 for storage.
package phone

import (
	"os"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const fallbackRegion = "US"

// defaultRegion is used for numbers entered without a country prefix.
func defaultRegion() string {
	if region := strings.TrimSpace(os.Getenv("PHONE_DEFAULT_REGION")); region != "" {
		return strings.ToUpper(region)
	}
	return fallbackRegion
}

// NormalizeE164 formats input as E.164. Unparseable or invalid numbers are
// returned trimmed but otherwise untouched so user input is never lost.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion())
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}
