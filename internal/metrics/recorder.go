package metrics

import "time"

// CollectOutcome labels the result of one parser function call.
type CollectOutcome string

const (
	CollectQueued              CollectOutcome = "queued"
	CollectRecursionExceeded   CollectOutcome = "recursion_exceeded"
	CollectEmptyTitle          CollectOutcome = "empty_title"
	CollectEmptyContent        CollectOutcome = "empty_content"
	CollectIgnoredEmptyTitle   CollectOutcome = "ignored_empty_title"
	CollectIgnoredEmptyContent CollectOutcome = "ignored_empty_content"
	CollectOutOfNamespace      CollectOutcome = "out_of_namespace"
	CollectMissingArguments    CollectOutcome = "missing_arguments"
)

// MaterializeOutcome labels what happened to one queued page.
type MaterializeOutcome string

const (
	MaterializeCreated       MaterializeOutcome = "created"
	MaterializeInvalidTitle  MaterializeOutcome = "invalid_title"
	MaterializeCannotExist   MaterializeOutcome = "cannot_exist"
	MaterializeAlreadyExists MaterializeOutcome = "already_exists"
	MaterializeFailed        MaterializeOutcome = "failed"
)

// Recorder defines the observability hooks. Implementations may forward to
// Prometheus or keep counts in memory.
type Recorder interface {
	IncCollect(outcome CollectOutcome)
	IncMaterialize(outcome MaterializeOutcome)
	ObserveMaterializeDuration(d time.Duration)
	ObserveRenderDuration(d time.Duration)
	IncRevisionSaved(newPage bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncCollect(CollectOutcome)                {}
func (NoopRecorder) IncMaterialize(MaterializeOutcome)        {}
func (NoopRecorder) ObserveMaterializeDuration(time.Duration) {}
func (NoopRecorder) ObserveRenderDuration(time.Duration)      {}
func (NoopRecorder) IncRevisionSaved(bool)                    {}

// OrNoop returns r, or NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
