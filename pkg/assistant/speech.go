package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/voxdoc/voxdoc/internal/models"
)

// spoken renders a known domain error as a corrective reply.
func spoken(err error) string {
	var dup *models.DuplicateDocumentError
	var notFound *models.DocumentNotFoundError
	var ambiguous *models.AmbiguousTargetError
	var unsupported *models.UnsupportedFormatError
	var corrupt *models.CorruptFileError
	var indexWrite *models.IndexWriteError

	switch {
	case errors.As(err, &dup):
		return fmt.Sprintf("%s is already loaded. Say delete %s first if you want to reload it.", dup.Name, dup.Name)
	case errors.As(err, &notFound):
		if notFound.Name != "" {
			return fmt.Sprintf("I don't have a document called %s.", notFound.Name)
		}
		return "That document isn't loaded."
	case errors.As(err, &ambiguous):
		if len(ambiguous.Candidates) == 0 {
			return fmt.Sprintf("I couldn't match %q to any loaded document.", ambiguous.Spoken)
		}
		names := make([]string, 0, len(ambiguous.Candidates))
		for _, c := range ambiguous.Candidates {
			names = append(names, c.Name)
		}
		return fmt.Sprintf("Did you mean %s? Please say the full name.", strings.Join(names, ", or "))
	case errors.As(err, &unsupported):
		return fmt.Sprintf("I can't read %s files yet.", strings.TrimPrefix(unsupported.Format, "."))
	case errors.As(err, &corrupt):
		return fmt.Sprintf("I couldn't read %s. The file may be damaged or missing.", corrupt.Path)
	case errors.As(err, &indexWrite):
		return "Something went wrong while indexing that document. Nothing was changed."
	case errors.Is(err, context.Canceled):
		return "Okay, stopped."
	}
	return err.Error()
}

// isSpoken reports whether spoken has a tailored reply for err, as
// opposed to an internal fault the caller should log and surface.
func isSpoken(err error) bool {
	var dup *models.DuplicateDocumentError
	var notFound *models.DocumentNotFoundError
	var ambiguous *models.AmbiguousTargetError
	var unsupported *models.UnsupportedFormatError
	var corrupt *models.CorruptFileError
	var indexWrite *models.IndexWriteError
	return errors.As(err, &dup) ||
		errors.As(err, &notFound) ||
		errors.As(err, &ambiguous) ||
		errors.As(err, &unsupported) ||
		errors.As(err, &corrupt) ||
		errors.As(err, &indexWrite) ||
		errors.Is(err, context.Canceled)
}

// spokenSynthesis handles the synthesis path, where the language model
// being down degrades to an apology rather than a hard failure.
func spokenSynthesis(err error) string {
	if errors.Is(err, context.Canceled) {
		return "Okay, stopped."
	}
	var unavailable *models.SynthesisUnavailable
	if errors.As(err, &unavailable) {
		return "I found relevant passages, but I can't reach the language model to compose an answer right now. Please try again in a moment."
	}
	return spoken(err)
}
