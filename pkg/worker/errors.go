package worker

import "fmt"

// stageError is a stage failure tagged with its job error code. Terminal
// failures skip the retry budget entirely; anything else becomes retry_ready
// until attempts run out.
type stageError struct {
	code     string
	terminal bool
	err      error
}

func (e *stageError) Error() string {
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *stageError) Unwrap() error {
	return e.err
}

func terminalErr(code string, err error) *stageError {
	return &stageError{code: code, terminal: true, err: err}
}

func retryableErr(code string, err error) *stageError {
	return &stageError{code: code, err: err}
}

// errAborted signals that another actor finalized the job (cancel or delete)
// while this worker held it. The worker walks away without touching the row.
var errAborted = fmt.Errorf("job no longer owned by this worker")
