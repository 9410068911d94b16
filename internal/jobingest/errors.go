package jobingest

import "fmt"

// Item error kinds.
const (
	KindPage  = "page"
	KindEmbed = "embed"
	KindStore = "store"
)

// ItemError records a page or listing that failed without stopping the cycle.
type ItemError struct {
	Source string `json:"source"`
	Page   int    `json:"page"`
	JobID  string `json:"job_id,omitempty"`
	Kind   string `json:"kind"`
	// Message is Err rendered for reports.
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func newItemError(source string, page int, jobID, kind string, err error) ItemError {
	return ItemError{Source: source, Page: page, JobID: jobID, Kind: kind, Message: err.Error(), Err: err}
}

func (e ItemError) Error() string {
	if e.JobID != "" {
		return fmt.Sprintf("%s error on %s page %d job %s: %v", e.Kind, e.Source, e.Page, e.JobID, e.Err)
	}
	return fmt.Sprintf("%s error on %s page %d: %v", e.Kind, e.Source, e.Page, e.Err)
}

func (e ItemError) Unwrap() error {
	return e.Err
}

// ScrapeAbortedError stops a cycle after too many consecutive page failures,
// or when the source cannot be reached at all. Listings stored before the
// abort remain stored.
type ScrapeAbortedError struct {
	ConsecutiveFailures int
	Reason              string
	LastErr             error
}

func (e *ScrapeAbortedError) Error() string {
	return fmt.Sprintf("scrape aborted after %d consecutive page failures (%s): %v",
		e.ConsecutiveFailures, e.Reason, e.LastErr)
}

func (e *ScrapeAbortedError) Unwrap() error {
	return e.LastErr
}
