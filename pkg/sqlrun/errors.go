package sqlrun

import "fmt"

// ExecError reports a SQL execution failure. For the external program it
// carries the program's exit code; for driver execution the code is the
// SQLSTATE-derived code. The original SQL text is always preserved so the
// pipeline operator can reproduce the failure.
type ExecError struct {
	ExitCode int
	SQL      string
	Err      error
}

func (e *ExecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sql execution failed (exit code %d): %v\nsql: %s", e.ExitCode, e.Err, e.SQL)
	}
	return fmt.Sprintf("sql execution failed (exit code %d)\nsql: %s", e.ExitCode, e.SQL)
}

func (e *ExecError) Unwrap() error { return e.Err }

// ConvError reports a scalar result that could not be converted to the
// requested type.
type ConvError struct {
	Field string
	Type  string
	SQL   string
}

func (e *ConvError) Error() string {
	return fmt.Sprintf("cannot convert %q to %s\nsql: %s", e.Field, e.Type, e.SQL)
}
