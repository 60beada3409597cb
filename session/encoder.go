package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrCorrupt is returned when a stored session value is not a JSON object
// with a user_id.
var ErrCorrupt = errors.New("session record corrupt")

// encodeRecord builds the stored object. user_id and created_at always win
// over metadata keys of the same name.
func encodeRecord(userID string, createdAt time.Time, metadata map[string]any) ([]byte, error) {
	rec := make(map[string]any, len(metadata)+2)
	for k, v := range metadata {
		rec[k] = v
	}
	rec[fieldUserID] = userID
	rec[fieldCreatedAt] = createdAt.UTC().Format(time.RFC3339Nano)

	return json.Marshal(rec)
}

func decodeRecord(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if rec == nil || rec.UserID() == "" {
		return nil, fmt.Errorf("%w: missing user_id", ErrCorrupt)
	}
	return rec, nil
}
