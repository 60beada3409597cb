package session

import "time"

const (
	fieldUserID    = "user_id"
	fieldCreatedAt = "created_at"
)

// Record is the decoded JSON object stored for a session: user_id,
// created_at and any caller metadata, all at the top level.
type Record map[string]any

// UserID returns the owning user's identifier.
func (r Record) UserID() string {
	v, _ := r[fieldUserID].(string)
	return v
}

// CreatedAt returns the creation timestamp, or false when it is missing or
// unparsable.
func (r Record) CreatedAt() (time.Time, bool) {
	raw, ok := r[fieldCreatedAt].(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// String returns the metadata value for key when it is a string.
func (r Record) String(key string) string {
	v, _ := r[key].(string)
	return v
}
