package worker

import "encoding/json"

// ToMap round-trips a typed output struct (ResearchOutput, DraftOutput,
// ReviewOutput, PublishOutput, ...) through JSON into the generic map
// the task queue persists as JSONB, so handler implementations can
// build a typed value and hand it to taskqueue.Complete without
// duplicating field names by hand.
func ToMap(v any) (Output, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out Output
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Decode is the inverse of ToMap: it re-marshals a generic output map
// and unmarshals it into a typed shape, for orchestrator code that
// needs to inspect e.g. a review's Decision field.
func Decode(m Output, v any) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
