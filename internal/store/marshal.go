package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/fuzzkit/internal/ir"
)

// marshalInputs converts crisp inputs to canonical JSON TEXT for storage.
// Non-finite values are rejected.
func marshalInputs(inputs map[string]float64) (string, error) {
	data, err := ir.MarshalCanonical(ir.FloatObject(inputs))
	if err != nil {
		return "", fmt.Errorf("marshal inputs: %w", err)
	}
	return string(data), nil
}

// marshalFirings converts firings to a canonical JSON array.
func marshalFirings(firings []FiringRecord) (string, error) {
	arr := make(ir.IRArray, len(firings))
	for i, f := range firings {
		arr[i] = ir.IRObject{
			"rule":     ir.IRInt(f.Rule),
			"strength": ir.IRFloat(f.Strength),
			"variable": ir.IRString(f.Variable),
			"set":      ir.IRString(f.Set),
		}
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal firings: %w", err)
	}
	return string(data), nil
}

// unmarshalInputs parses canonical JSON TEXT to crisp inputs.
func unmarshalInputs(data string) (map[string]float64, error) {
	inputs := map[string]float64{}
	if data == "" || data == "{}" {
		return inputs, nil
	}
	if err := json.Unmarshal([]byte(data), &inputs); err != nil {
		return nil, fmt.Errorf("unmarshal inputs: %w", err)
	}
	return inputs, nil
}

// unmarshalFirings parses a JSON array of firings.
func unmarshalFirings(data string) ([]FiringRecord, error) {
	firings := []FiringRecord{}
	if data == "" || data == "[]" {
		return firings, nil
	}
	if err := json.Unmarshal([]byte(data), &firings); err != nil {
		return nil, fmt.Errorf("unmarshal firings: %w", err)
	}
	return firings, nil
}
