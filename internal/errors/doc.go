// Package errors provides coded, actionable errors for the live CLI.
//
// Library packages return plain Go errors. The CLI wraps the ones that end
// a command in an *Error so the user sees what failed and how to fix it:
//
//	ERROR L102: Invalid configuration file
//
//	  live.yaml:4
//
//	       3 │ session:
//	  →    4 │   backoff_base: fast
//	       5 │   backoff_ceiling: 60s
//
//	  The configuration file could not be parsed as YAML.
//
//	  Hint: Durations use Go syntax, e.g. 100ms or 1m30s
//
// # Error Codes
//
//   - L100-L119: configuration
//   - L120-L139: command line
//   - L140-L159: connection
//   - L160-L179: snapshot
package errors
