package models

import (
	"fmt"
	"sort"
	"strings"

	srvErrors "github.com/kubev2v/asset-agent/pkg/errors"
)

const (
	ExtNameKey       = "name"
	ExtPrimaryIPKey  = "ip.1"
	ExtEndpointSpace = "endpoint."

	readOnlyField = "read_only"
)

// ExtAttribute is one extended attribute value with its provenance flags.
type ExtAttribute struct {
	Value    string
	ReadOnly bool
	// WasUpdated marks a value freshly parsed from an inbound payload.
	WasUpdated bool
}

func NewExtAttribute(value string, readOnly bool) ExtAttribute {
	return ExtAttribute{Value: value, ReadOnly: readOnly, WasUpdated: true}
}

type ExtAttributes map[string]ExtAttribute

// IsAlwaysWritable reports whether key ignores the stored read-only flag.
func IsAlwaysWritable(key string) bool {
	return key == ExtNameKey || key == ExtPrimaryIPKey || strings.HasPrefix(key, ExtEndpointSpace)
}

// ApplyWritableOverride clears the read-only flag on allow-listed keys.
func (e ExtAttributes) ApplyWritableOverride() {
	for k, v := range e {
		if IsAlwaysWritable(k) && v.ReadOnly {
			v.ReadOnly = false
			e[k] = v
		}
	}
}

// Values flattens the attributes into a plain key/value map.
func (e ExtAttributes) Values() map[string]string {
	out := make(map[string]string, len(e))
	for k, v := range e {
		out[k] = v.Value
	}
	return out
}

// Keys returns the attribute names sorted, for deterministic iteration.
func (e ExtAttributes) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ShouldOverwrite decides whether an incoming value replaces a stored one.
func ShouldOverwrite(key string, stored, incoming ExtAttribute) bool {
	if !incoming.WasUpdated {
		return false
	}
	if stored.ReadOnly && !IsAlwaysWritable(key) {
		return false
	}
	return true
}

// ParseExtAttributes populates attributes from a decoded JSON or YAML payload.
//
// The payload must be a list whose elements hold exactly two fields: "read_only"
// and the attribute itself, e.g. [{"serial_no": "ABC", "read_only": true}].
func ParseExtAttributes(payload any) (ExtAttributes, error) {
	list, ok := payload.([]any)
	if !ok {
		return nil, srvErrors.NewInvalidFormatError("ext attributes must be a list, got %T", payload)
	}

	ext := make(ExtAttributes, len(list))
	for i, item := range list {
		fields, ok := item.(map[string]any)
		if !ok {
			return nil, srvErrors.NewInvalidFormatError("ext attribute %d must be an object, got %T", i, item)
		}
		if len(fields) != 2 {
			return nil, srvErrors.NewInvalidFormatError("ext attribute %d must have exactly 2 fields, got %d", i, len(fields))
		}

		rawRO, ok := fields[readOnlyField]
		if !ok {
			return nil, srvErrors.NewInvalidFormatError("ext attribute %d has no %q field", i, readOnlyField)
		}
		readOnly, ok := rawRO.(bool)
		if !ok {
			return nil, srvErrors.NewInvalidFormatError("ext attribute %d: %q must be a boolean", i, readOnlyField)
		}

		for key, raw := range fields {
			if key == readOnlyField {
				continue
			}
			value, err := scalarString(raw)
			if err != nil {
				return nil, srvErrors.NewInvalidFormatError("ext attribute %q: %v", key, err)
			}
			ext[key] = NewExtAttribute(value, readOnly)
		}
	}
	return ext, nil
}

func scalarString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(t), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("value must be a scalar, got %T", v)
	}
}
