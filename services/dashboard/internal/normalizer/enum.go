package normalizer

import (
	"regexp"
	"strings"
)

var (
	separatorPattern  = regexp.MustCompile(`[-_]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

type heuristic struct {
	match  func(simplified string) bool
	result string
}

func contains(substr string) func(string) bool {
	return func(s string) bool { return strings.Contains(s, substr) }
}

func prefix(p string) func(string) bool {
	return func(s string) bool { return strings.HasPrefix(s, p) }
}

// Checked in order, so "remote contract" maps to Contract.
var heuristics = []heuristic{
	{contains("full"), "Full Time"},
	{contains("part"), "Part Time"},
	{contains("contract"), "Contract"},
	{contains("remote"), "Remote"},
	{prefix("entry"), "Entry"},
	{prefix("junior"), "Entry"},
	{prefix("mid"), "Mid"},
	{prefix("sen"), "Senior"},
}

func simplify(value string) string {
	s := strings.ToLower(value)
	s = separatorPattern.ReplaceAllString(s, " ")
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func indexOf(options []string, value string) int {
	for i, opt := range options {
		if opt == value {
			return i
		}
	}
	return -1
}

// MapToEnum maps a free-form categorical value onto one of options. It never
// returns a value outside options; an empty value or one nothing recognises
// maps to options[0]. With no options it returns "".
func MapToEnum(value string, options []string) string {
	if len(options) == 0 {
		return ""
	}
	if strings.TrimSpace(value) == "" {
		return options[0]
	}

	simplified := simplify(value)
	for _, opt := range options {
		if strings.ToLower(opt) == simplified {
			return opt
		}
	}

	for _, h := range heuristics {
		if h.match(simplified) && indexOf(options, h.result) >= 0 {
			return h.result
		}
	}

	// "london, uk" or "berlin mitte" still name a known city.
	for _, opt := range options {
		if strings.HasPrefix(simplified, strings.ToLower(opt)) {
			return opt
		}
	}

	if indexOf(options, value) >= 0 {
		return value
	}
	return options[0]
}
