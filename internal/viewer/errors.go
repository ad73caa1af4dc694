package viewer

import (
	"fmt"

	apperrors "github.com/komunitas-inovasi/komunitas/internal/errors"
)

var (
	// ErrPageOutOfRange is returned by navigation when the target page does not exist.
	// The viewer state is left unchanged.
	ErrPageOutOfRange = apperrors.ValidationField("page", "page out of range")

	// ErrExportUnavailable is returned by both exports while the collection is not loaded or empty.
	ErrExportUnavailable = apperrors.Unavailable("no registrants loaded")
)

// FetchError reports that loading the registrant collection failed. The previous collection,
// if any, is kept.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch registrants: %v", e.Err) }

func (e *FetchError) Unwrap() error { return e.Err }

// AttachmentFetchError reports a single attachment that could not be downloaded while building an
// archive. It is logged and the attachment is skipped.
type AttachmentFetchError struct {
	RegistrantID string
	URL          string
	Err          error
}

func (e *AttachmentFetchError) Error() string {
	return fmt.Sprintf("fetch attachment %s for registrant %s: %v", e.URL, e.RegistrantID, e.Err)
}

func (e *AttachmentFetchError) Unwrap() error { return e.Err }

// ArchiveBuildError reports that the archive itself could not be assembled. No file is produced.
type ArchiveBuildError struct {
	Err error
}

func (e *ArchiveBuildError) Error() string { return fmt.Sprintf("build attachment archive: %v", e.Err) }

func (e *ArchiveBuildError) Unwrap() error { return e.Err }
