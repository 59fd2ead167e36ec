package eventstore

import (
	"encoding/json"
	"time"
)

// Record is one stored fact about a run. Seq is assigned by the store and
// orders records across runs.
type Record struct {
	Seq     int64
	RunID   string
	Kind    string
	At      time.Time
	Payload json.RawMessage
	Labels  map[string]string
}

// Decode unmarshals the payload into v.
func (r Record) Decode(v any) error {
	return json.Unmarshal(r.Payload, v)
}
