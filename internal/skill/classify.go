package skill

import (
	"regexp"
	"strings"
	"unicode"
)

//
// Classification is the resolved taxonomy position for one skill
// code: the domain it belongs to and the category within that
// domain.
//
type Classification struct {
	Domain   Domain
	Category Category
}

//
// Classify resolves a raw skill code (eg. phaw83) to its place in
// the taxonomy. the numeric suffix is an item index and plays no
// part in classification - phaw, phaw1 and phaw83 all resolve the
// same way. ok is false when the cleaned code is not part of the
// taxonomy; unrecognised codes are never given a placeholder
// classification.
//
func Classify(code string) (Classification, bool) {
	cleaned := cleanCode(code)
	category, ok := skillNameToCategory[cleaned]
	if !ok {
		return Classification{}, false
	}
	domain, ok := skillNameToDomain[cleaned]
	if !ok {
		return Classification{}, false
	}
	return Classification{Domain: domain, Category: category}, true
}

// strip the digits out of a skill code and lower-case what is left
func cleanCode(code string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(code) {
		if !unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var skillNamePattern = regexp.MustCompile(`^([a-zA-Z]+)(\d+)`)

//
// TransformSkillName rewrites the alphabetic prefix of a skill code
// into the display form used by the backing store, keeping the
// numeric item suffix (phaw83 -> PhAw83). codes without a numeric
// suffix pass through unchanged, as do prefixes with no display
// mapping.
//
func TransformSkillName(code string) string {
	m := skillNamePattern.FindStringSubmatch(code)
	if m == nil {
		return code
	}
	display, ok := skillNameDisplay[m[1]]
	if !ok {
		display = m[1]
	}
	return display + m[2]
}
