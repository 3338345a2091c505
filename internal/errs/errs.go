// Package errs defines the stable MAG-<CATEGORY>-<NNN> error codes surfaced
// to callers (spec section 6) and the typed, recoverability-partitioned
// error kinds used across the core (spec section 7). Shaped after the
// teacher's internal/errors package: small typed structs with Unwrap, not a
// generic error-wrapping library.
package errs

import (
	"fmt"
	"time"
)

// Code is one of the stable, never-reused MAG-* error codes.
type Code string

const (
	RefSymbolNotFound Code = "MAG-REF-001"
	RefAmbiguous      Code = "MAG-REF-002"
	RefInvalidSpan    Code = "MAG-REF-003"

	QryInvalidSyntax Code = "MAG-QRY-001"
	QryFileNotFound  Code = "MAG-QRY-002"
	QryInvalidParams Code = "MAG-QRY-003"

	IOFileNotFound     Code = "MAG-IO-001"
	IOPermissionDenied Code = "MAG-IO-002"
	IOInvalidPath      Code = "MAG-IO-003"

	VChecksumMismatch Code = "MAG-V-001"
	VSpanInvalid      Code = "MAG-V-002"
	VStoreCorruption  Code = "MAG-V-003"
)

// remediation mirrors the documentation table carried in the original
// Rust source's error_codes.rs, recovered here because the Go rewrite has
// no doc-comment table to fall back on.
var remediation = map[Code]string{
	RefSymbolNotFound:  "verify symbol name and file path; list symbols for the file first",
	RefAmbiguous:       "use a fully-qualified name or canonical FQN to disambiguate",
	RefInvalidSpan:     "check byte offsets are within file bounds and start <= end",
	QryInvalidSyntax:   "check query parameter format",
	QryFileNotFound:    "re-scan or reconcile the file before querying it",
	QryInvalidParams:   "check required arguments for the query",
	IOFileNotFound:     "check the file path and that it still exists on disk",
	IOPermissionDenied: "check file/directory read permissions",
	IOInvalidPath:      "verify path format and root containment",
	VChecksumMismatch:  "re-index the file; stored content hash no longer matches",
	VSpanInvalid:       "re-index; the file changed since the span was recorded",
	VStoreCorruption:   "rebuild the store from source",
}

// Remediation returns the documented one-line hint for a code, or "" if the
// code is unknown.
func Remediation(c Code) string {
	return remediation[c]
}

// CoreError is the caller-facing typed error carrying a stable code.
type CoreError struct {
	Code       Code
	Message    string
	FilePath   string
	SymbolName string
	Underlying error
}

func (e *CoreError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.FilePath != "" {
		msg += fmt.Sprintf(" (file=%s)", e.FilePath)
	}
	if hint := Remediation(e.Code); hint != "" {
		msg += ", " + hint
	}
	return msg
}

func (e *CoreError) Unwrap() error { return e.Underlying }

func New(code Code, message string) *CoreError {
	return &CoreError{Code: code, Message: message}
}

func (e *CoreError) WithFile(path string) *CoreError {
	e.FilePath = path
	return e
}

func (e *CoreError) WithSymbol(name string) *CoreError {
	e.SymbolName = name
	return e
}

// Recoverability partitions (spec section 7).

// Severity classifies a failure by how much of the batch it aborts.
type Severity int

const (
	// SeverityFile is recoverable per-file: logged as a diagnostic, the
	// batch continues (read errors, parse failures, partial UTF-8 spans).
	SeverityFile Severity = iota
	// SeverityBatch skips one file but the batch continues (path escapes
	// root, symlink escape, suspicious traversal, filtered).
	SeverityBatch
	// SeverityFatal aborts the whole batch and should propagate to a
	// non-zero process exit (post-deletion count mismatch, backend I/O
	// error during a write, mutex poisoning, unsupported schema version).
	SeverityFatal
)

// StoreError is a store-fatal error: the batch must abort.
type StoreError struct {
	Code      Code
	Operation string
	Err       error
	At        time.Time
}

func NewStoreError(code Code, op string, err error) *StoreError {
	return &StoreError{Code: code, Operation: op, Err: err, At: time.Now()}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store-fatal during %s: %v", e.Code, e.Operation, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
