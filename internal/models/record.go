// Package models defines the state the rate limiter caches and persists,
// and the result it returns to callers.
package models

import (
	"bytes"
	"encoding/json"
	"slices"

	"webhook-ratelimiter/internal/common/validation"
)

// Metadata describes the request that last touched a record. All fields are
// optional.
type Metadata struct {
	UserAgent       string   `json:"userAgent,omitempty" validate:"omitempty,max=512,printable"`
	Endpoint        string   `json:"endpoint,omitempty" validate:"omitempty,max=256,printable"`
	Flags           []string `json:"flags,omitempty" validate:"max=16,dive,max=64,flag"`
	EscalationLevel int      `json:"escalationLevel,omitempty" validate:"gte=0,lte=10"`
}

// Validate checks length caps and the escalation level range.
func (m *Metadata) Validate() error {
	if m == nil {
		return nil
	}
	return validation.Default().Struct(m)
}

// Clone returns a deep copy.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	c := *m
	c.Flags = slices.Clone(m.Flags)
	return &c
}

// RateLimitRecord is the sliding-window state for one identity.
//
// Timestamps are epoch milliseconds in ascending order. WindowMs and
// MaxRequests hold the policy from the most recent check for the key.
type RateLimitRecord struct {
	Timestamps  []int64   `json:"timestamps"`
	WindowMs    int64     `json:"windowMs"`
	MaxRequests int       `json:"maxRequests"`
	LastAccess  int64     `json:"lastAccess"`
	Metadata    *Metadata `json:"metadata,omitempty"`

	corrupted bool
}

// NewRecord returns a fresh record with no timestamps.
func NewRecord(windowMs int64, maxRequests int, now int64) *RateLimitRecord {
	return &RateLimitRecord{
		Timestamps:  []int64{},
		WindowMs:    windowMs,
		MaxRequests: maxRequests,
		LastAccess:  now,
	}
}

// Corrupted reports whether the record was decoded from JSON whose
// timestamps field was missing or not an array of integers.
func (r *RateLimitRecord) Corrupted() bool {
	return r.corrupted
}

// ResetTimestamps clears the timestamps and the corrupted flag.
func (r *RateLimitRecord) ResetTimestamps() {
	r.Timestamps = []int64{}
	r.corrupted = false
}

// Clone returns a deep copy, including the corrupted flag.
func (r *RateLimitRecord) Clone() *RateLimitRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Timestamps = slices.Clone(r.Timestamps)
	if c.Timestamps == nil && !r.corrupted {
		c.Timestamps = []int64{}
	}
	c.Metadata = r.Metadata.Clone()
	return &c
}

// MarshalJSON always writes timestamps as an array, never null.
func (r RateLimitRecord) MarshalJSON() ([]byte, error) {
	type plain RateLimitRecord
	p := plain(r)
	if p.Timestamps == nil {
		p.Timestamps = []int64{}
	}
	return json.Marshal(p)
}

// UnmarshalJSON decodes a record. A timestamps field that is not a list of
// integers marks the record corrupted instead of failing; any other shape
// error is returned.
func (r *RateLimitRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		Timestamps  json.RawMessage `json:"timestamps"`
		WindowMs    int64           `json:"windowMs"`
		MaxRequests int             `json:"maxRequests"`
		LastAccess  int64           `json:"lastAccess"`
		Metadata    *Metadata       `json:"metadata,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = RateLimitRecord{
		WindowMs:    raw.WindowMs,
		MaxRequests: raw.MaxRequests,
		LastAccess:  raw.LastAccess,
		Metadata:    raw.Metadata,
	}

	trimmed := bytes.TrimSpace(raw.Timestamps)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		r.corrupted = true
		return nil
	}

	var ts []int64
	if err := json.Unmarshal(trimmed, &ts); err != nil {
		r.corrupted = true
		return nil
	}
	r.Timestamps = ts
	return nil
}
