// Package logging provides structured logging for the door lock binaries.
//
// It wraps log/slog so every record carries the same service and version
// attributes, in JSON for deployment or text when running at a bench.
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stderr"   # stdout, stderr, discard
//
// Usage:
//
//	logger := logging.New(cfg.Logging, "doorlockd", version)
//	logger.Info("authority serving", "link", cfg.Link.URL)
//
// Never log credential digits. protocol.Credential formats as "*****" so an
// accidental %v is safe, but pass counts and reasons instead.
package logging
