// Package card parses loosely delimited payment card input and formats
// card numbers for display. Parsing enforces shape only; whether the card
// is actually valid is decided by the authorization gateway.
package card

import (
	"fmt"
	"regexp"
	"strings"
)

var delimiter = regexp.MustCompile(`[|/]`)

// Card is a parsed payment instrument. All four fields are non-empty
// after a successful Parse; ExpYear always holds the last two digits.
type Card struct {
	Number   string
	ExpMonth string
	ExpYear  string
	CVC      string
}

// Parse splits raw input of the form CC|MM|YYYY|CVV (slash also accepted
// as a delimiter) into a Card. The number keeps digits only as far as
// whitespace goes: all spaces inside and around it are removed. Years may
// be given with two or four digits; only the last two are kept.
//
// No Luhn check, length check or expiry plausibility check happens here.
func Parse(raw string) (Card, error) {
	parts := delimiter.Split(raw, -1)
	if len(parts) != 4 {
		return Card{}, fmt.Errorf("invalid format, expected CC|MM|YYYY|CVV")
	}

	c := Card{
		Number:   strings.Join(strings.Fields(parts[0]), ""),
		ExpMonth: strings.TrimSpace(parts[1]),
		ExpYear:  strings.TrimSpace(parts[2]),
		CVC:      strings.TrimSpace(parts[3]),
	}
	if len(c.ExpYear) > 2 {
		c.ExpYear = c.ExpYear[len(c.ExpYear)-2:]
	}
	if c.Number == "" || c.ExpMonth == "" || c.ExpYear == "" || c.CVC == "" {
		return Card{}, fmt.Errorf("invalid format, expected CC|MM|YYYY|CVV")
	}
	return c, nil
}

// Mask renders a card number for display: first six characters, a fixed
// six-character mask, last four. Callers must pass a number long enough
// to show both ends; Parse output of realistic card input always is.
func Mask(number string) string {
	if len(number) < 10 {
		return strings.Repeat("x", len(number))
	}
	return number[:6] + "xxxxxx" + number[len(number)-4:]
}
