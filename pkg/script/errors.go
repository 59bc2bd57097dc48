package script

import "fmt"

// CompileError is returned by New when the source does not parse or refers
// to undefined names.
type CompileError struct {
	Script string
	Err    error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("script %q does not compile: %v", e.Script, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// ValidationError is returned by New when the entry point contract is not
// met.
type ValidationError struct {
	Script string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("script %q is invalid: %s", e.Script, e.Reason)
}

// RuntimeError is a failure during execution. Execute turns it into an
// error snapshot; it is only seen by callers of Run.
type RuntimeError struct {
	Script    string
	Msg       string
	Backtrace string
	Err       error
}

func (e *RuntimeError) Error() string {
	return e.Msg
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}
