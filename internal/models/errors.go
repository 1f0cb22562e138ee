package models

import (
	"fmt"
	"strings"
)

// UnsupportedFormatError reports a file extension no extractor handles.
type UnsupportedFormatError struct {
	Path   string
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q for %s", e.Format, e.Path)
}

// CorruptFileError reports a file that matched a known format but could
// not be parsed.
type CorruptFileError struct {
	Path string
	Err  error
}

func (e *CorruptFileError) Error() string {
	return fmt.Sprintf("corrupt file %s: %v", e.Path, e.Err)
}

func (e *CorruptFileError) Unwrap() error { return e.Err }

// DuplicateDocumentError reports an ingest of an identifier that is
// already registered while the duplicate policy is "reject".
type DuplicateDocumentError struct {
	ID   string
	Name string
}

func (e *DuplicateDocumentError) Error() string {
	return fmt.Sprintf("document %q already loaded (id %s)", e.Name, e.ID)
}

// DocumentNotFoundError reports an operation on an identifier or spoken
// name that matches no registered document.
type DocumentNotFoundError struct {
	ID   string
	Name string
}

func (e *DocumentNotFoundError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("no loaded document matches %q", e.Name)
	}
	return fmt.Sprintf("document %s not found", e.ID)
}

// TargetCandidate is one possible resolution of a spoken document name.
type TargetCandidate struct {
	ID    string
	Name  string
	Score float64
}

// AmbiguousTargetError carries the candidate set when a spoken name does
// not resolve confidently to a single document. The caller is expected to
// ask the user rather than guess.
type AmbiguousTargetError struct {
	Spoken     string
	Candidates []TargetCandidate
}

func (e *AmbiguousTargetError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		names[i] = c.Name
	}
	return fmt.Sprintf("ambiguous target %q: candidates %s", e.Spoken, strings.Join(names, ", "))
}

// IndexWriteError reports a rejected vector index write, typically an
// embedding dimension mismatch.
type IndexWriteError struct {
	DocID  string
	Reason string
}

func (e *IndexWriteError) Error() string {
	return fmt.Sprintf("index write for %s rejected: %s", e.DocID, e.Reason)
}

// SynthesisUnavailable reports that the language model call failed or
// timed out. The session state is untouched; callers degrade to a spoken
// fallback.
type SynthesisUnavailable struct {
	Err error
}

func (e *SynthesisUnavailable) Error() string {
	return fmt.Sprintf("synthesis unavailable: %v", e.Err)
}

func (e *SynthesisUnavailable) Unwrap() error { return e.Err }
