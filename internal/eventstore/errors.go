package eventstore

import (
	"git.home.luguber.info/inful/zephyrforge/internal/foundation/errors"
)

// Store methods wrap driver errors with one of these; match with errors.Is.
var (
	ErrDatabaseOpenFailed     = errors.EventStoreError("could not open history database").Build()
	ErrInitializeSchemaFailed = errors.EventStoreError("failed to create history schema").Build()
	ErrEventAppendFailed      = errors.EventStoreError("failed to write run history").Build()
	ErrEventQueryFailed       = errors.EventStoreError("failed to query run history").Build()
	ErrPruneFailed            = errors.EventStoreError("failed to prune run history").Build()
	ErrEventScanFailed        = errors.EventStoreError("failed to read run history rows").Build()
	ErrMarshalPayloadFailed   = errors.EventStoreError("failed to encode run record").Build()
)
