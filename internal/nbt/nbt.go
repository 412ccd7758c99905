// Package nbt wraps textual compound tags (SNBT) such as
// `{Damage:10,display:{Name:"x"}}` attached to item stacks.
//
// Parsing and printing go through github.com/Tnze/go-mc/nbt: the text is
// encoded to binary NBT once, and the binary form is kept for printing while
// the decoded form serves lookups and comparison. A Compound is immutable, so
// stacks can share one.
package nbt

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	mcnbt "github.com/Tnze/go-mc/nbt"
)

// SyntaxError reports a tag that could not be read.
type SyntaxError struct {
	Text string
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("nbt: %s in %q", e.Msg, e.Text)
}

type Compound struct {
	raw  mcnbt.RawMessage
	text string
	vals map[string]any
}

// Parse reads a textual compound tag. The root must be a compound.
func Parse(text string) (*Compound, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		return nil, &SyntaxError{Text: text, Msg: "expected a compound {...}"}
	}
	var buf bytes.Buffer
	if err := mcnbt.NewEncoder(&buf).Encode(mcnbt.StringifiedMessage(text), ""); err != nil {
		return nil, &SyntaxError{Text: text, Msg: err.Error()}
	}
	var raw mcnbt.RawMessage
	if _, err := mcnbt.NewDecoder(&buf).Decode(&raw); err != nil {
		return nil, &SyntaxError{Text: text, Msg: err.Error()}
	}
	if raw.Type != mcnbt.TagCompound {
		return nil, &SyntaxError{Text: text, Msg: "expected a compound {...}"}
	}
	vals := map[string]any{}
	if err := raw.Unmarshal(&vals); err != nil {
		return nil, &SyntaxError{Text: text, Msg: err.Error()}
	}
	return &Compound{raw: raw, text: raw.String(), vals: vals}, nil
}

func (c *Compound) Len() int {
	if c == nil {
		return 0
	}
	return len(c.vals)
}

// Get returns the decoded value under key: int8, int16, int32, int64,
// float32, float64, string, map[string]any for compounds, []any for lists,
// or a slice for the typed arrays.
func (c *Compound) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.vals[key]
	return v, ok
}

// Equal reports whether both compounds hold the same keys and typed values,
// ignoring key order. A nil compound equals an empty one.
func (c *Compound) Equal(o *Compound) bool {
	if c.Len() == 0 || o.Len() == 0 {
		return c.Len() == o.Len()
	}
	return reflect.DeepEqual(c.vals, o.vals)
}

// String renders the tag as SNBT, keys in their original order.
func (c *Compound) String() string {
	if c == nil {
		return "{}"
	}
	return c.text
}
