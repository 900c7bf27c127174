package document

import (
	"encoding/json"
	"fmt"
	"io"
)

// DecodeJSON reads one JSON document into the native node tree. Numbers are
// kept as json.Number so integer parameters survive untruncated.
func DecodeJSON(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding JSON document: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decoding JSON document: trailing data after root value")
	}
	return doc, nil
}
