package visa

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Result is the projection of a Record onto the categories a caller asked
// for. it remembers the order in which categories were first requested.
type Result struct {
	order   []CategoryKey
	content map[CategoryKey]Content
}

func newResult(capacity int) Result {
	return Result{
		order:   make([]CategoryKey, 0, capacity),
		content: make(map[CategoryKey]Content, capacity),
	}
}

func (r *Result) set(key CategoryKey, content Content) {
	if r.content == nil {
		r.content = make(map[CategoryKey]Content)
	}
	if _, exists := r.content[key]; !exists {
		r.order = append(r.order, key)
	}
	r.content[key] = content
}

func (r Result) Get(key CategoryKey) (Content, bool) {
	c, ok := r.content[key]
	return c, ok
}

func (r Result) Has(key CategoryKey) bool {
	_, ok := r.content[key]
	return ok
}

func (r Result) Len() int {
	return len(r.order)
}

func (r Result) IsEmpty() bool {
	return len(r.order) == 0
}

// Categories returns the keys in insertion order.
func (r Result) Categories() []CategoryKey {
	return slices.Clone(r.order)
}

func (r Result) Equal(other Result) bool {
	if !slices.Equal(r.order, other.order) {
		return false
	}
	for _, k := range r.order {
		if !r.content[k].Equal(other.content[k]) {
			return false
		}
	}
	return true
}

func (r Result) MarshalJSON() ([]byte, error) {
	buf := bytes.NewBufferString("{")
	for i, c := range r.order {
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

// UnmarshalJSON keeps the member order of the document.
func (r *Result) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*r = newResult(0)
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("result must be a json object")
	}

	out := newResult(0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		key, err := ParseCategory(name)
		if err != nil {
			return err
		}
		var c Content
		err = dec.Decode(&c)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		out.set(key, c)
	}
	_, err = dec.Token()
	if err != nil {
		return err
	}
	*r = out
	return nil
}
