package logger

import (
	"log/slog"
	"time"
)

// Attribute helpers use the empty Attr pattern for nil safety, so calls like
// log.Info("msg", logger.Error(err)) need no explicit nil checks.

// Error creates an attribute for a single error under the key "error".
// Returns empty Attr for nil errors.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Domain tags a log record with the domain it concerns.
func Domain(domain string) slog.Attr {
	return slog.String("domain", domain)
}

// Code tags a log record with a machine error code.
func Code(code string) slog.Attr {
	return slog.String("code", code)
}

// Environment tags a log record with the ACME environment label.
func Environment(env string) slog.Attr {
	return slog.String("environment", env)
}

// Expiry tags a log record with a certificate expiry timestamp.
func Expiry(t time.Time) slog.Attr {
	return slog.Time("validTo", t)
}

// Version tags a log record with a certificate version.
func Version(v int64) slog.Attr {
	return slog.Int64("certVersion", v)
}
