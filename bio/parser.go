// Package bio pulls structured fields out of a profile's free-text intro.
package bio

import "regexp"

// Fields are the values recognised in an intro block; "" means not present
type Fields struct {
	Position      string
	Company       string
	Location      string
	MaritalStatus string
}

var (
	jobPattern = regexp.MustCompile(`(?i)(Works at|Broker at|Manager at|Director at|Consultant at|Agent at|Finance at|Mortgage at|Advisor at|Analyst at) ([^\r\n]+)`)

	locationPattern = regexp.MustCompile(`(?i)Lives in ([^\r\n]+)`)

	maritalPattern = regexp.MustCompile(`(?i)(Married|Single|In a relationship|Engaged|Divorced)`)
)

// MaritalWords is the relationship vocabulary, lowercased
var MaritalWords = []string{"married", "single", "in a relationship", "engaged", "divorced"}

// Parse extracts position, company, location and marital status from text.
// Each pattern takes its first match; captured values keep the casing of the
// input and run to the end of their line.
func Parse(text string) Fields {
	var f Fields
	if text == "" {
		return f
	}

	if m := jobPattern.FindStringSubmatch(text); m != nil {
		f.Position = m[1]
		f.Company = m[2]
	}
	if m := locationPattern.FindStringSubmatch(text); m != nil {
		f.Location = m[1]
	}
	if m := maritalPattern.FindStringSubmatch(text); m != nil {
		f.MaritalStatus = m[1]
	}

	return f
}
