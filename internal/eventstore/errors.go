package eventstore

// Sentinel errors for audit log operations. Errors returned by SQLiteStore
// match these with errors.Is and carry the driver error as their cause.

import (
	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
)

var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = errors.EventStoreError("could not open event store database").Build()

	// ErrInitializeSchemaFailed indicates the database schema could not be initialized.
	ErrInitializeSchemaFailed = errors.EventStoreError("failed to initialize event store schema").Build()

	// ErrEventAppendFailed indicates appending an event failed.
	ErrEventAppendFailed = errors.EventStoreError("failed to append event to store").Build()

	// ErrEventQueryFailed indicates querying events failed.
	ErrEventQueryFailed = errors.EventStoreError("failed to query events from store").Build()

	// ErrEventPruneFailed indicates deleting expired events failed.
	ErrEventPruneFailed = errors.EventStoreError("failed to prune events").Build()

	// ErrUnmarshalPayloadFailed indicates JSON unmarshaling of event payload failed.
	ErrUnmarshalPayloadFailed = errors.EventStoreError("failed to unmarshal event payload").Build()

	// ErrProjectionRebuildFailed indicates rebuilding a projection failed.
	ErrProjectionRebuildFailed = errors.EventStoreError("failed to rebuild projection").Build()
)

func wrap(sentinel *errors.ClassifiedError, cause error) error {
	return errors.WrapError(cause, sentinel.Category(), sentinel.Message()).Build()
}
