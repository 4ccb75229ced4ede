package skill

import (
	"strings"

	"github.com/labstack/gommon/log"
	"github.com/tidwall/gjson"

	"github.com/nsip/scrn-score/internal/metrics"
)

// webhook keys are compound: <section>.<skill code>[.<extras>]
const keyDelimiter = "."

//
// Preprocess walks a flat webhook payload and files every
// recognisable answer into the store. the second dot-separated part
// of each lower-cased key is taken as the skill code; keys with too
// few parts, and codes outside the taxonomy, are logged and
// skipped. malformed entries are never fatal - preprocessing always
// runs to the end of the payload.
//
func Preprocess(st ScreenerStore, payload gjson.Result) {
	payload.ForEach(func(key, value gjson.Result) bool {
		parts := strings.Split(strings.ToLower(key.String()), keyDelimiter)
		if len(parts) < 2 {
			log.Warnf("invalid screener key format: %s", key.String())
			metrics.ItemsSkipped.Inc()
			return true
		}
		code := parts[1]
		cl, ok := Classify(code)
		if !ok {
			log.Warnf("unrecognised skill code in key: %s", key.String())
			metrics.ItemsSkipped.Inc()
			return true
		}
		st.Add(cl.Domain, cl.Category, code, BinaryValue(value))
		metrics.ItemsProcessed.Inc()
		return true
	})
}

//
// ExtractEmail pulls the beta-test email field out of the webhook
// payload; empty when absent. the email is the only identity signal
// until real authentication is integrated.
//
func ExtractEmail(payload gjson.Result) string {
	email := payload.Get("email").String()
	if email == "" {
		log.Warn("no email found in webhook payload")
	}
	return email
}
