package history

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Snapshot field names.
const (
	FieldListCount       = "measure_readinglist_listcount"
	FieldItemCount       = "measure_readinglist_itemcount"
	FieldSyncEnabled     = "readinglist_sync"
	FieldShowDefault     = "readinglist_showdefault"
	FieldPrimaryLanguage = "primary_language"
	FieldIsAnon          = "is_anon"
)

// Snapshot is a point-in-time mapping of usage metrics merged with the
// standard event fields.
type Snapshot map[string]any

// Clone returns a shallow copy of s.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// EqualExcluding reports whether s and other hold equal values for every key
// not listed in excluded. Values are compared by their JSON encoding, so a
// count read back from storage as a float equals the live integer.
func (s Snapshot) EqualExcluding(other Snapshot, excluded []string) bool {
	skip := make(map[string]struct{}, len(excluded))
	for _, k := range excluded {
		skip[k] = struct{}{}
	}

	keys := make(map[string]struct{}, len(s)+len(other))
	for k := range s {
		keys[k] = struct{}{}
	}
	for k := range other {
		keys[k] = struct{}{}
	}

	for k := range keys {
		if _, ok := skip[k]; ok {
			continue
		}
		a, inS := s[k]
		b, inOther := other[k]
		if inS != inOther {
			return false
		}
		if !sameValue(a, b) {
			return false
		}
	}
	return true
}

func sameValue(a, b any) bool {
	ea, err := json.Marshal(a)
	if err != nil {
		return false
	}
	eb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(ea) == string(eb)
}
