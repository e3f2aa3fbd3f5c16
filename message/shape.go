package message

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Shape is the decoded form of a backend "message" field. It is one of
// Str, List or Tree.
type Shape interface {
	appendTo(dst []string) []string
}

// Str is a plain string message.
type Str string

// List is an array of messages, kept in document order.
type List []string

// Field is one entry of a Tree.
type Field struct {
	Name  string
	Value Shape
}

// Tree maps field names to nested messages, in document order.
type Tree []Field

func (s Str) appendTo(dst []string) []string {
	if s == "" {
		return dst
	}
	return append(dst, string(s))
}

func (l List) appendTo(dst []string) []string {
	for _, s := range l {
		if s != "" {
			dst = append(dst, s)
		}
	}
	return dst
}

func (t Tree) appendTo(dst []string) []string {
	for _, f := range t {
		if f.Value != nil {
			dst = f.Value.appendTo(dst)
		}
	}
	return dst
}

// Flatten returns every leaf string of s in encounter order.
func Flatten(s Shape) []string {
	if s == nil {
		return nil
	}
	return s.appendTo(nil)
}

// Join flattens s and joins the leaves with ", ".
func Join(s Shape) string {
	return strings.Join(Flatten(s), ", ")
}

// ParseShape decodes a raw JSON value into a Shape. Numbers, booleans and
// nulls carry no message and are dropped. It returns false when raw is not
// valid JSON or holds no message at all.
func ParseShape(raw json.RawMessage) (Shape, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	s, err := parseValue(dec)
	if err != nil || s == nil {
		return nil, false
	}
	return s, true
}

// BodyMessage extracts the top-level "message" field of a JSON object body.
func BodyMessage(body []byte) (Shape, bool) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, false
	}
	raw, ok := obj["message"]
	if !ok {
		return nil, false
	}
	return ParseShape(raw)
}

func parseValue(dec *json.Decoder) (Shape, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case string:
		return Str(v), nil
	case json.Delim:
		switch v {
		case '{':
			return parseObject(dec)
		case '[':
			return parseArray(dec)
		}
		return nil, fmt.Errorf("message: unexpected delimiter %q", v)
	default:
		return nil, nil
	}
}

func parseObject(dec *json.Decoder) (Shape, error) {
	tree := Tree{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		val, err := parseValue(dec)
		if err != nil {
			return nil, err
		}
		if val != nil {
			tree = append(tree, Field{Name: key, Value: val})
		}
	}
	if err := closeDelim(dec); err != nil {
		return nil, err
	}
	return tree, nil
}

func parseArray(dec *json.Decoder) (Shape, error) {
	list := List{}
	for dec.More() {
		val, err := parseValue(dec)
		if err != nil {
			return nil, err
		}
		list = append(list, Flatten(val)...)
	}
	if err := closeDelim(dec); err != nil {
		return nil, err
	}
	return list, nil
}

func closeDelim(dec *json.Decoder) error {
	_, err := dec.Token()
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
