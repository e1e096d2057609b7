// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package arr

import "encoding/json"

// Item is one library or lookup resource as the target reports it. Add
// payloads are built by mutating a lookup result in place, so the full
// document is kept rather than a typed projection.
type Item map[string]any

// Tag is one entry of the target's tag vocabulary.
type Tag struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// ID returns the item's numeric id, 0 when absent.
func (i Item) ID() int {
	return i.Int("id")
}

// Str returns a string field, empty when absent or not a string.
func (i Item) Str(key string) string {
	if v, ok := i[key].(string); ok {
		return v
	}
	return ""
}

// Int returns a numeric field, 0 when absent. JSON numbers decode as
// float64, but tag mutations store native ints; both are accepted.
func (i Item) Int(key string) int {
	switch v := i[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	}
	return 0
}

// TagIDs returns the item's tag ids.
func (i Item) TagIDs() []int {
	raw, ok := i["tags"].([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(raw))
	for _, v := range raw {
		switch n := v.(type) {
		case float64:
			out = append(out, int(n))
		case int:
			out = append(out, n)
		}
	}
	return out
}

// HasTag reports whether the item carries the tag id.
func (i Item) HasTag(id int) bool {
	for _, t := range i.TagIDs() {
		if t == id {
			return true
		}
	}
	return false
}

// SetTagIDs replaces the item's tag ids.
func (i Item) SetTagIDs(ids []int) {
	tags := make([]any, 0, len(ids))
	for _, id := range ids {
		tags = append(tags, id)
	}
	i["tags"] = tags
}

// AddTagID appends a tag id if not already present.
func (i Item) AddTagID(id int) {
	if i.HasTag(id) {
		return
	}
	i.SetTagIDs(append(i.TagIDs(), id))
}

// RemoveTagID drops a tag id.
func (i Item) RemoveTagID(id int) {
	ids := i.TagIDs()
	out := ids[:0]
	for _, t := range ids {
		if t != id {
			out = append(out, t)
		}
	}
	i.SetTagIDs(out)
}
