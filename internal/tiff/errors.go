package tiff

import "fmt"

// IoError wraps a failure to read enough bytes from the underlying
// buffer, generalizing the teacher's jpgForwardError("reading IFD: %v")
// pattern into a typed, unwrappable error (spec.md §7).
type IoError struct {
	Op    string
	Cause error
}

func (e *IoError) Error() string { return fmt.Sprintf("tiff: io error during %s: %v", e.Op, e.Cause) }
func (e *IoError) Unwrap() error { return e.Cause }

// ParseError reports a structurally invalid IFD: wrong type, bad magic,
// cyclic directory chain, and similar violations of the TIFF container
// grammar rather than a truncated read.
type ParseError struct {
	Op     string
	Reason string
}

func (e *ParseError) Error() string { return fmt.Sprintf("tiff: parse error at %s: %s", e.Op, e.Reason) }
