package validation

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/goliatone/go-formflow/pkg/schema"
)

// Rule is a named validation rule the form builder can attach to a column in
// addition to the mandatory check.
type Rule string

const (
	RuleNone     Rule = ""
	RuleEmail    Rule = "Email"
	RuleMobile   Rule = "Mobile"
	RulePassword Rule = "Password"
	RuleNumeric  Rule = "Numeric"
	RuleAlphabet Rule = "Alphabet"
	// RuleMaxLength is the advisory length sentinel the builder stores for
	// long-text columns. The limit is enforced server-side; on the client it
	// is a no-op.
	RuleMaxLength Rule = "Length(Max 5000 Characters)"
)

var (
	emailPattern    = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
	mobilePattern   = regexp.MustCompile(`^[0-9]{10}$`)
	numericPattern  = regexp.MustCompile(`^[0-9]+$`)
	alphabetPattern = regexp.MustCompile(`^[A-Za-z ]+$`)
)

// ParseRule resolves a configured rule name. Unrecognised names map to
// RuleNone so they evaluate as informational no-ops.
func ParseRule(raw string) Rule {
	switch Rule(strings.TrimSpace(raw)) {
	case RuleEmail:
		return RuleEmail
	case RuleMobile:
		return RuleMobile
	case RulePassword:
		return RulePassword
	case RuleNumeric:
		return RuleNumeric
	case RuleAlphabet:
		return RuleAlphabet
	case RuleMaxLength:
		return RuleMaxLength
	default:
		return RuleNone
	}
}

// Evaluate decides pass/fail for one column and candidate value, returning a
// human-readable message or "" when the value passes. The value is absent
// when the column was never touched during the session.
//
// Order matters: the mandatory check runs first and short-circuits, then
// optional empty values pass unconditionally so rule errors never fire for
// fields the respondent left blank.
func Evaluate(column schema.ColumnDefinition, value schema.Value, present bool) string {
	if column.Mandatory && (!present || value.IsEmpty()) {
		return column.Name + " is required"
	}
	if !present || value.IsEmpty() {
		return ""
	}

	switch ParseRule(column.ValidationRule) {
	case RuleEmail:
		if !emailPattern.MatchString(value.String()) {
			return column.Name + " must be a valid email address"
		}
	case RuleMobile:
		if !mobilePattern.MatchString(value.String()) {
			return column.Name + " must be a 10 digit mobile number"
		}
	case RulePassword:
		if msg := checkPassword(column.Name, value.String()); msg != "" {
			return msg
		}
	case RuleNumeric:
		if !numericPattern.MatchString(value.String()) {
			return column.Name + " must contain only digits"
		}
	case RuleAlphabet:
		if !alphabetPattern.MatchString(value.String()) {
			return column.Name + " must contain only letters and spaces"
		}
	}
	return ""
}

func checkPassword(name, value string) string {
	if len(value) < 8 {
		return name + " must be at least 8 characters"
	}
	var upper, digit bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !digit {
		return name + " must contain an uppercase letter and a digit"
	}
	return ""
}
