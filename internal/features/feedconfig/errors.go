package feedconfig

import (
	"errors"
	"fmt"
)

// Fetch steps, one per Graph API read.
const (
	StepReadFeeds           = "read_feeds"
	StepReadFeedMetadata    = "read_feed_metadata"
	StepReadUploadMetadata  = "read_upload_metadata"
	StepReadFeedInformation = "read_feed_information"
)

var (
	// ErrMissingCatalogID means no catalog is connected
	ErrMissingCatalogID = errors.New("no catalog ID")

	// ErrNoFeedConfigured means the catalog has no feed configurations
	ErrNoFeedConfigured = errors.New("no feed nodes for catalog")
)

// FetchError is returned when a Graph API read fails or answers with a non-200 status.
// StatusCode is 0 when the request never got a response.
type FetchError struct {
	Step       string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed (status %d): %v", e.Step, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s failed with status %d", e.Step, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
