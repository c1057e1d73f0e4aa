package source

import "fmt"

// MissingSourceError reports a declared required source with no provided
// file path.
type MissingSourceError struct {
	ID    string
	Label string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("missing required source %q (%s)", e.ID, e.Label)
}

// UnsupportedFileError reports a source file rejected during pre-flight
// validation, before any streaming starts.
type UnsupportedFileError struct {
	Path   string
	Reason string
}

func (e *UnsupportedFileError) Error() string {
	return fmt.Sprintf("unsupported file %s: %s", e.Path, e.Reason)
}

// FileTooLargeError reports a source file over the configured size ceiling.
type FileTooLargeError struct {
	Path  string
	Size  int64
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file too large: %s (%.2fMB, limit %dMB)",
		e.Path, float64(e.Size)/1024/1024, e.Limit/1024/1024)
}
