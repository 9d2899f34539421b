package lab

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DefaultCountry is used when a lab is created without a country.
const DefaultCountry = "GB"

// Lab is a testing facility orders can be sent to.
type Lab struct {
	ID       int64  `json:"-"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Address2 string `json:"address_2"`
	City     string `json:"city"`
	PostCode string `json:"post_code"`
	Country  string `json:"country"`
	Email    string `json:"email"`
	Number   string `json:"number"`
}

// CountryName returns the English name of the lab's country, or the raw
// code when it is not a known region.
func (l *Lab) CountryName() string {
	r, err := language.ParseRegion(l.Country)
	if err != nil {
		return l.Country
	}
	return display.English.Regions().Name(r)
}

// NormalizeCountry upper-cases and trims a country code. ok is false unless
// the result is exactly two ASCII letters.
func NormalizeCountry(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 {
		return code, false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return code, false
		}
	}
	return code, true
}

// ValidCountry reports whether code is an ISO 3166-1 alpha-2 country.
func ValidCountry(code string) bool {
	code, ok := NormalizeCountry(code)
	if !ok {
		return false
	}
	r, err := language.ParseRegion(code)
	return err == nil && r.IsCountry()
}
