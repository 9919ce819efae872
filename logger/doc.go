// Package logger provides structured logging for speechkit using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers. Backends fetch their logger by component name so
// every line carries a "component" field:
//
//	log := logger.Get("whispercli")
//	log.Info("recognizer finished", logger.Fields(logger.FieldExitCode, 0))
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  output: "stderr"
package logger
