package storage

import (
	"encoding/json"

	"webhook-ratelimiter/internal/common/errors"
	"webhook-ratelimiter/internal/models"
)

// EncodeRecord serializes rec for storage.
func EncodeRecord(rec *models.RateLimitRecord) ([]byte, error) {
	if rec == nil {
		return nil, errors.ValidationError("record must not be nil")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, errors.InternalError("failed to encode record", err)
	}
	return data, nil
}

// DecodeRecord parses a stored value. A value that is not a JSON object is
// reported as a corruption error; a record with unreadable timestamps decodes
// with Corrupted set.
func DecodeRecord(key string, data []byte) (*models.RateLimitRecord, error) {
	var rec models.RateLimitRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.CorruptionError(key, err.Error())
	}
	return &rec, nil
}
