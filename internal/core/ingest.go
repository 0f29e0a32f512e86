package core

import "time"

// IngestRun records the counters of one mailbox ingestion pass.
type IngestRun struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Fetched     int       `json:"fetched"`
	Parsed      int       `json:"parsed"`
	Inserted    int       `json:"inserted"`
	Duplicates  int       `json:"duplicates"`
	Excluded    int       `json:"excluded"`
	Unsupported int       `json:"unsupported"`
	Failed      int       `json:"failed"`
	Error       string    `json:"error,omitempty"`
}
