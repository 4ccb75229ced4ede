package skill

import (
	"strings"

	"github.com/tidwall/gjson"
)

// answers that count as a pass. anything else scores zero.
var positiveAnswers = map[string]struct{}{
	"choice one": {},
	"yes":        {},
}

//
// NormalizeAnswer reduces a free-text screener answer to a binary
// correctness value: 1 when the lower-cased answer is in the
// positive set, 0 otherwise.
//
func NormalizeAnswer(answer string) int {
	if _, ok := positiveAnswers[strings.ToLower(answer)]; ok {
		return 1
	}
	return 0
}

//
// BinaryValue normalizes a raw webhook value. values arrive as
// arbitrary json scalars (string, number, boolean, null); only
// strings can match the positive set, every other shape is a
// non-match.
//
func BinaryValue(v gjson.Result) int {
	if v.Type != gjson.String {
		return 0
	}
	return NormalizeAnswer(v.String())
}
