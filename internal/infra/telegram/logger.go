package telegram

import (
	"fmt"
	"strings"

	"signbot/internal/infra/logging"
)

// leveledLogger routes retryablehttp records into the service logger. Request
// URLs carry the bot token, so string values are scrubbed before logging.
type leveledLogger struct {
	token string
}

func (l leveledLogger) scrub(kv []interface{}) []interface{} {
	if l.token == "" {
		return kv
	}
	out := make([]interface{}, len(kv))
	for i, v := range kv {
		s := fmt.Sprint(v)
		if strings.Contains(s, l.token) {
			out[i] = strings.ReplaceAll(s, l.token, "<token>")
			continue
		}
		out[i] = v
	}
	return out
}

func (l leveledLogger) Error(msg string, kv ...interface{}) {
	logging.Error("telegram http: "+msg, l.scrub(kv)...)
}

func (l leveledLogger) Warn(msg string, kv ...interface{}) {
	logging.Warn("telegram http: "+msg, l.scrub(kv)...)
}

func (l leveledLogger) Info(msg string, kv ...interface{}) {
	logging.Debug("telegram http: "+msg, l.scrub(kv)...)
}

func (l leveledLogger) Debug(msg string, kv ...interface{}) {
	logging.Debug("telegram http: "+msg, l.scrub(kv)...)
}
