package domain

import (
	"sort"
	"strings"
)

// PhoneRule groups the national digits of one calling code.
// Tunisia: {CountryCode: "216", NationalLength: 8, Groups: []int{2, 3, 3}}
// renders +216 XX XXX XXX.
type PhoneRule struct {
	CountryCode    string
	NationalLength int
	Groups         []int
}

// DefaultPhoneRules is the built-in grouping table.
var DefaultPhoneRules = []PhoneRule{
	{CountryCode: "216", NationalLength: 8, Groups: []int{2, 3, 3}},
	{CountryCode: "213", NationalLength: 9, Groups: []int{3, 2, 2, 2}},
	{CountryCode: "212", NationalLength: 9, Groups: []int{1, 2, 2, 2, 2}},
	{CountryCode: "33", NationalLength: 9, Groups: []int{1, 2, 2, 2, 2}},
	{CountryCode: "44", NationalLength: 10, Groups: []int{4, 6}},
	{CountryCode: "1", NationalLength: 10, Groups: []int{3, 3, 4}},
}

// PhoneFormatter renders phone numbers with country-specific grouping.
type PhoneFormatter struct {
	rules          []PhoneRule
	defaultCountry string
}

// NewPhoneFormatter builds a formatter. Numbers without an international
// prefix are read as national numbers of defaultCountry when one is given.
func NewPhoneFormatter(defaultCountry string, rules ...PhoneRule) *PhoneFormatter {
	if len(rules) == 0 {
		rules = DefaultPhoneRules
	}
	sorted := append([]PhoneRule(nil), rules...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].CountryCode) > len(sorted[j].CountryCode)
	})
	return &PhoneFormatter{rules: sorted, defaultCountry: defaultCountry}
}

// Format returns raw grouped per its country rule, or the cleaned digits
// (with "+" when international) when no rule applies.
func (f *PhoneFormatter) Format(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	international := strings.HasPrefix(raw, "+") || strings.HasPrefix(raw, "00")

	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(raw, "00") {
		digits = strings.TrimPrefix(digits, "00")
	}
	if digits == "" {
		return ""
	}

	if international {
		for _, rule := range f.rules {
			national := strings.TrimPrefix(digits, rule.CountryCode)
			if strings.HasPrefix(digits, rule.CountryCode) && len(national) == rule.NationalLength {
				return render(rule, national)
			}
		}
		return "+" + digits
	}

	for _, rule := range f.rules {
		if rule.CountryCode != f.defaultCountry {
			continue
		}
		national := strings.TrimPrefix(digits, "0")
		if len(national) == rule.NationalLength {
			return render(rule, national)
		}
	}
	return digits
}

func render(rule PhoneRule, national string) string {
	parts := []string{"+" + rule.CountryCode}
	pos := 0
	for _, g := range rule.Groups {
		if pos+g > len(national) {
			break
		}
		parts = append(parts, national[pos:pos+g])
		pos += g
	}
	if pos < len(national) {
		parts = append(parts, national[pos:])
	}
	return strings.Join(parts, " ")
}
