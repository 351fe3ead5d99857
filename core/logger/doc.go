// Package logger provides structured logging attribute helpers built on Go's
// standard slog package.
//
// The helpers follow the empty Attr pattern for nil safety and give the
// coordinator's log records consistent keys: every domain-scoped event
// carries "domain", failures carry "error" and "code".
//
//	log.Error("certificate issuance failed",
//		logger.Domain("example.com"),
//		logger.Code("caa_mismatch"),
//		logger.Error(err),
//	)
package logger
