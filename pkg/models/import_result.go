package models

// ImportResult is the terminal outcome of one import pipeline
// invocation. A submission transitions exactly once; retry happens by
// resubmitting the same source URI, which is idempotent.
type ImportResult string

const (
	// ResultSuccess means a new record was committed.
	ResultSuccess ImportResult = "SUCCESS"
	// ResultAlreadyExists means a record for the source URI already
	// existed, either before the invocation or because a concurrent
	// import won the insert race.
	ResultAlreadyExists ImportResult = "ALREADY_ADDED"
	// ResultFailed means the movie could not be resolved; the caller
	// may resubmit later. No partial record is written.
	ResultFailed ImportResult = "FAILED"
)
