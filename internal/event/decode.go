package event

import "encoding/json"

// DecodePayload decodes an event payload into T.
// In-process payloads are already typed; payloads read back from JSON (SSE, dead letters)
// are maps and go through a JSON round trip.
func DecodePayload[T any](input any) (T, error) {
	if v, ok := input.(T); ok {
		return v, nil
	}
	if p, ok := input.(*T); ok && p != nil {
		return *p, nil
	}
	var result T
	data, err := json.Marshal(input)
	if err != nil {
		return result, err
	}
	return result, json.Unmarshal(data, &result)
}
