// Package errors provides the classified error primitives used across autopage.
//
// Errors carry a category (config, title, storage, ...), a severity and a
// retry strategy, plus free-form context. The CLI and HTTP adapters translate
// them into exit codes and status codes respectively.
//
// Example usage:
//
//	err := errors.StorageError("insert revision failed").
//		WithContext("page", title.PrefixedText()).
//		WithCause(dbErr).
//		Build()
package errors
