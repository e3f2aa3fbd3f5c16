// Package logger provides structured logging for apiguard using zerolog.
//
// It supports console and JSON output, log level configuration, and
// component-scoped loggers with structured fields. A disabled logger
// (NewNop) discards everything, which backs the client's
// logging_enabled=false setting.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.New(&cfg, "myapp").WithComponent("apiclient")
//	log.Debug("request completed", logger.Fields("status", 200))
package logger
