package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Categories is an ordered key -> bucket object. It serializes as a JSON
// object whose keys keep slice order.
type Categories []Bucket

func (c Categories) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, b := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalRaw(b.Key)
		if err != nil {
			return nil, err
		}
		if b.Articles == nil {
			b.Articles = []Article{}
		}
		body, err := marshalRaw(b)
		if err != nil {
			return nil, fmt.Errorf("bucket %s: %w", b.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c *Categories) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("categories: expected object")
	}

	out := Categories{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return errors.New("categories: expected key")
		}
		var b Bucket
		if err := dec.Decode(&b); err != nil {
			return fmt.Errorf("categories %s: %w", key, err)
		}
		b.Key = key
		if b.Articles == nil {
			b.Articles = []Article{}
		}
		out = append(out, b)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = out
	return nil
}

// Marshal serializes db as indented JSON. Non-ASCII text and HTML
// characters are written literally.
func Marshal(db *Database) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(db); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Unmarshal parses a literal produced by Marshal.
func Unmarshal(data []byte) (*Database, error) {
	var db Database
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

func marshalRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
