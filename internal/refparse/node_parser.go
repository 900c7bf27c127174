package refparse

import (
	"fmt"
	"strings"
)

// DefaultMarker is the map key that designates an instance-request node.
const DefaultMarker = "$mirror"

// Descriptor is the parsed form of one instance-request node.
type Descriptor struct {
	// Schema identifies the class, optionally with an "@version" suffix
	// already split off into Version.
	Schema  string
	Version string

	// Instance is the singleton name, empty for inline requests.
	Instance string

	// Params holds every sibling key of the marker, unresolved.
	Params map[string]any
}

// NodeParser recognizes instance-request nodes. Parse returns (nil, nil)
// when the node carries no marker; a malformed marker is an error.
type NodeParser interface {
	Parse(node map[string]any) (*Descriptor, error)
}

// MarkerParser is the default NodeParser for the "$mirror" grammar:
// the marker value is "<schema>", "<schema>:<instance>", or either form with
// an "@<version>" suffix on the schema.
type MarkerParser struct {
	marker string
}

// NewMarkerParser builds a MarkerParser. An empty marker selects
// DefaultMarker.
func NewMarkerParser(marker string) *MarkerParser {
	if marker == "" {
		marker = DefaultMarker
	}
	return &MarkerParser{marker: marker}
}

// Marker returns the marker key this parser recognizes.
func (p *MarkerParser) Marker() string { return p.marker }

// Parse implements NodeParser.
func (p *MarkerParser) Parse(node map[string]any) (*Descriptor, error) {
	raw, ok := node[p.marker]
	if !ok {
		return nil, nil
	}
	ref, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("value of %q must be a string, got %T", p.marker, raw)
	}
	if ref == "" {
		return nil, fmt.Errorf("value of %q must not be empty", p.marker)
	}

	desc := &Descriptor{Params: make(map[string]any, len(node)-1)}
	for key, val := range node {
		if key == p.marker {
			continue
		}
		desc.Params[key] = val
	}

	id := ref
	if i := strings.IndexByte(ref, ':'); i >= 0 {
		id = ref[:i]
		desc.Instance = ref[i+1:]
		if desc.Instance == "" {
			return nil, fmt.Errorf("instance name after %q must not be empty", id+":")
		}
	}
	desc.Schema = id
	if i := strings.IndexByte(id, '@'); i >= 0 {
		desc.Schema = id[:i]
		desc.Version = id[i+1:]
	}
	if desc.Schema == "" {
		return nil, fmt.Errorf("schema in %q must not be empty", ref)
	}
	return desc, nil
}
