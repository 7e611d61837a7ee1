package models

// Source names the tier a record came from during a check.
type Source string

const (
	SourceNew   Source = "new"
	SourceCache Source = "cache"
	SourceKV    Source = "kv"
)

// ResultMetadata describes how a decision was reached.
type ResultMetadata struct {
	Source    Source `json:"source"`
	KVEnabled bool   `json:"kvEnabled"`
	Escalated bool   `json:"escalated"`
}

// Result is the outcome of a single admission check. A denial is a normal
// result, not an error.
type Result struct {
	Allowed       bool           `json:"allowed"`
	RetryAfterSec int            `json:"retryAfterSec"`
	Remaining     int            `json:"remaining"`
	ResetTime     int64          `json:"resetTime"`
	Metadata      ResultMetadata `json:"metadata"`
}
