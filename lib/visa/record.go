package visa

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Entry is a structured item of a category, a form, a link or a physician.
type Entry struct {
	Name             string `json:"Name,omitempty"`
	Link             string `json:"Link,omitempty"`
	Description      string `json:"Description,omitempty"`
	Purpose          string `json:"Purpose,omitempty"`
	Address          string `json:"Address,omitempty"`
	Phone            string `json:"Phone,omitempty"`
	InstructionsLink string `json:"InstructionsLink,omitempty"`
}

// Content is the value of a single category, either plain text lines
// or structured entries, never both.
type Content struct {
	lines   []string
	entries []Entry
}

func TextContent(lines ...string) Content {
	return Content{lines: slices.Clone(lines)}
}

func EntryContent(entries ...Entry) Content {
	return Content{entries: slices.Clone(entries)}
}

func (c Content) IsEntries() bool {
	return c.entries != nil
}

func (c Content) Lines() []string {
	return slices.Clone(c.lines)
}

func (c Content) Entries() []Entry {
	return slices.Clone(c.entries)
}

func (c Content) Len() int {
	if c.entries != nil {
		return len(c.entries)
	}
	return len(c.lines)
}

func (c Content) Equal(other Content) bool {
	if c.IsEntries() != other.IsEntries() {
		return c.Len() == 0 && other.Len() == 0
	}
	return slices.Equal(c.lines, other.lines) &&
		slices.Equal(c.entries, other.entries)
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.entries != nil {
		return json.Marshal(c.entries)
	}
	if c.lines == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.lines)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	err := json.Unmarshal(data, &items)
	if err != nil {
		return fmt.Errorf("category content must be a list: %w", err)
	}
	if len(items) == 0 {
		*c = Content{lines: []string{}}
		return nil
	}

	first := bytes.TrimSpace(items[0])
	switch {
	case len(first) > 0 && first[0] == '"':
		var lines []string
		err = json.Unmarshal(data, &lines)
		if err != nil {
			return fmt.Errorf("category content mixes text and entries: %w", err)
		}
		*c = Content{lines: lines}
	case len(first) > 0 && first[0] == '{':
		var entries []Entry
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&entries)
		if err != nil {
			return fmt.Errorf("invalid category entries: %w", err)
		}
		*c = Content{entries: entries}
	default:
		return fmt.Errorf("category content items must be strings or objects, got %s", first)
	}
	return nil
}

// Record is the full set of category data known for a country / visa type
// pair. it is never mutated after construction.
type Record struct {
	content map[CategoryKey]Content
}

// NewRecord copies the given content, invalid keys are dropped.
func NewRecord(content map[CategoryKey]Content) Record {
	r := Record{content: make(map[CategoryKey]Content, len(content))}
	for k, v := range content {
		if !k.Valid() {
			continue
		}
		r.content[k] = Content{
			lines:   slices.Clone(v.lines),
			entries: slices.Clone(v.entries),
		}
	}
	return r
}

func (r Record) Get(key CategoryKey) (Content, bool) {
	c, ok := r.content[key]
	return c, ok
}

func (r Record) Has(key CategoryKey) bool {
	_, ok := r.content[key]
	return ok
}

func (r Record) Len() int {
	return len(r.content)
}

func (r Record) IsEmpty() bool {
	return len(r.content) == 0
}

// Categories returns the keys present in canonical order.
func (r Record) Categories() []CategoryKey {
	var out []CategoryKey
	for _, c := range AllCategories() {
		if r.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (r Record) Equal(other Record) bool {
	if r.Len() != other.Len() {
		return false
	}
	for k, v := range r.content {
		o, ok := other.content[k]
		if !ok || !v.Equal(o) {
			return false
		}
	}
	return true
}

// MarshalJSON writes categories in canonical order so that the encoding
// of a record is stable, content hashes depend on it.
func (r Record) MarshalJSON() ([]byte, error) {
	buf := bytes.NewBufferString("{")
	for i, c := range r.Categories() {
		if i > 0 {
			buf.WriteByte(',')
		}
		err := writeMember(buf, c, r.content[c])
		if err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}
	content := make(map[CategoryKey]Content, len(raw))
	for name, value := range raw {
		key, err := ParseCategory(name)
		if err != nil {
			return err
		}
		var c Content
		err = json.Unmarshal(value, &c)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		content[key] = c
	}
	*r = Record{content: content}
	return nil
}

func writeMember(buf *bytes.Buffer, key CategoryKey, content Content) error {
	name, err := json.Marshal(key.String())
	if err != nil {
		return err
	}
	value, err := content.MarshalJSON()
	if err != nil {
		return err
	}
	buf.Write(name)
	buf.WriteByte(':')
	buf.Write(value)
	return nil
}
