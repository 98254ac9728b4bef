package bib

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Decode parses a JSON array of reference objects.
func Decode(data []byte) ([]Record, error) {
	var out []Record
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode references: %w", err)
	}
	return out, nil
}

// UnmarshalJSON accepts the loose shapes reference parsers emit: a field may be a
// string, a number, null, or a list of those; person fields may be one object or a list.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Record{Fields: make(map[string][]string)}
	for key, val := range raw {
		switch key {
		case "type":
			vals, err := flexibleStrings(val)
			if err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
			if len(vals) > 0 {
				r.Type = Type(vals[0])
			}
		case "author", "editor":
			people, err := flexiblePeople(val)
			if err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
			if key == "author" {
				r.Author = people
			} else {
				r.Editor = people
			}
		default:
			vals, err := flexibleStrings(val)
			if err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
			if len(vals) > 0 {
				r.Fields[key] = vals
			}
		}
	}
	return nil
}

// MarshalJSON writes the record back in the CSL-like list shape.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+3)
	if r.Type != Other {
		out["type"] = string(r.Type)
	} else {
		out["type"] = nil
	}
	if len(r.Author) > 0 {
		out["author"] = r.Author
	}
	if len(r.Editor) > 0 {
		out["editor"] = r.Editor
	}
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out[k] = r.Fields[k]
	}
	return json.Marshal(out)
}

func flexibleStrings(data []byte) ([]string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	if data[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			s, ok, err := scalar(it)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, s)
			}
		}
		return out, nil
	}
	s, ok, err := scalar(data)
	if err != nil || !ok {
		return nil, err
	}
	return []string{s}, nil
}

func scalar(data []byte) (string, bool, error) {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s, true, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		return n.String(), true, nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		return strconv.FormatBool(b), true, nil
	}
	return "", false, fmt.Errorf("cannot use %s as a string value", string(data))
}

func flexiblePeople(data []byte) ([]Person, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	if data[0] == '{' {
		var p Person
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return []Person{p}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	out := make([]Person, 0, len(items))
	for _, it := range items {
		it = bytes.TrimSpace(it)
		if len(it) > 0 && it[0] == '"' {
			// A bare string is a literal name.
			var s string
			if err := json.Unmarshal(it, &s); err != nil {
				return nil, err
			}
			out = append(out, Person{Literal: s})
			continue
		}
		var p Person
		if err := json.Unmarshal(it, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
