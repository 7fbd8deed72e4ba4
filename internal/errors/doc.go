// Package errors defines the application error taxonomy shared by the
// source readers, exporters and configuration loader.
//
// Every AppError carries a Type used for classification (retry decisions,
// exit messages) and optional key/value Context for structured logging. The
// standard errors.Is and errors.As work through Unwrap.
package errors
