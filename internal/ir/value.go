package ir

import (
	"slices"
	"unicode/utf16"
)

// IRValue is a sealed interface representing the value types that may appear
// in canonical JSON. Only IRString, IRFloat, IRInt, IRBool, IRArray and
// IRObject implement it; there is no null.
type IRValue interface {
	irValue()
}

// IRString represents a string value.
type IRString string

func (IRString) irValue() {}

// IRFloat represents a finite float64. NaN and ±Inf are rejected at
// marshal time.
type IRFloat float64

func (IRFloat) irValue() {}

// IRInt represents an integer value.
type IRInt int64

func (IRInt) irValue() {}

// IRBool represents a boolean value.
type IRBool bool

func (IRBool) irValue() {}

// IRArray represents an ordered list of IRValue elements.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject represents a map of string keys to IRValue elements.
// Use SortedKeys() for deterministic iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// FloatArray converts a float slice to an IRArray of IRFloat.
func FloatArray(fs []float64) IRArray {
	arr := make(IRArray, len(fs))
	for i, f := range fs {
		arr[i] = IRFloat(f)
	}
	return arr
}

// FloatObject converts a name→float map (e.g. crisp inputs) to an IRObject.
func FloatObject(m map[string]float64) IRObject {
	obj := make(IRObject, len(m))
	for k, v := range m {
		obj[k] = IRFloat(v)
	}
	return obj
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings compares UTF-8 bytes, which orders differently above the BMP.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings by UTF-16 code units.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}
