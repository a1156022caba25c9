package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"unicode/utf16"
)

// JSONValue is a sealed interface for values that can be encoded as
// canonical JSON. Only JSONString, JSONInt, JSONFloat, JSONBool, JSONArray and
// JSONObject implement it. There is no null.
type JSONValue interface {
	jsonValue()
}

// JSONString is a string value.
type JSONString string

// JSONInt is an integer value.
type JSONInt int64

// JSONFloat is a finite floating point value. NaN and infinities are
// rejected by MarshalCanonical.
type JSONFloat float64

// JSONBool is a boolean value.
type JSONBool bool

// JSONArray is an ordered sequence of values.
type JSONArray []JSONValue

// JSONObject maps keys to values. Use SortedKeys for deterministic iteration.
type JSONObject map[string]JSONValue

func (JSONString) jsonValue() {}
func (JSONInt) jsonValue()    {}
func (JSONFloat) jsonValue()  {}
func (JSONBool) jsonValue()   {}
func (JSONArray) jsonValue()  {}
func (JSONObject) jsonValue() {}

// Floats converts a float slice to a JSONArray.
func Floats(vals []float64) JSONArray {
	arr := make(JSONArray, len(vals))
	for i, v := range vals {
		arr[i] = JSONFloat(v)
	}
	return arr
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
func (obj JSONObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings by UTF-16 code units. Go string
// comparison uses UTF-8 bytes, which orders supplementary characters
// differently.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < min(len(a16), len(b16)); i++ {
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
	}
	return 0
}

// MarshalJSON implements json.Marshaler. Keys are emitted in canonical order.
func (obj JSONObject) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(obj)
}

// MarshalJSON implements json.Marshaler.
func (arr JSONArray) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(arr)
}

// UnmarshalJSONValue decodes JSON into a JSONValue. Integral numbers decode
// to JSONInt, other numbers to JSONFloat. null is rejected.
func UnmarshalJSONValue(data []byte) (JSONValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return convertToJSONValue(raw)
}

func convertToJSONValue(v any) (JSONValue, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is not a valid value")
	case bool:
		return JSONBool(val), nil
	case string:
		return JSONString(val), nil
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return JSONInt(n), nil
		}
		f, err := val.Float64()
		if err != nil || math.IsInf(f, 0) {
			return nil, fmt.Errorf("number out of range: %s", val)
		}
		return JSONFloat(f), nil
	case []any:
		arr := make(JSONArray, len(val))
		for i, elem := range val {
			e, err := convertToJSONValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = e
		}
		return arr, nil
	case map[string]any:
		obj := make(JSONObject, len(val))
		for k, elem := range val {
			e, err := convertToJSONValue(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = e
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}
