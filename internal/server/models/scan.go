package models

import "time"

// ScanType names the classifier a scan ran through.
type ScanType string

const (
	ScanTypeSQLInjection ScanType = "SQL Injection"
	ScanTypePhishingURL  ScanType = "Phishing URL"
	ScanTypeFileAnalysis ScanType = "File Analysis"
)

// Scan records one classification request made by an account. Input holds
// the submitted query/URL, or the original filename for file scans.
// StorageKey points at the retained sample in object storage, when any.
type Scan struct {
	ID         int64
	AccountID  string
	Type       ScanType
	Input      string
	Result     string
	StorageKey string
	CreatedAt  time.Time
}
