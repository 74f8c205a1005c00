package datafile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
)

// ErrUnsupportedFormat is returned for documents with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Decode parses a document into a generic tree, choosing the format from the
// file extension. An empty document decodes to an empty map.
func Decode(name string, data []byte) (map[string]any, error) {
	out := map[string]any{}
	if len(bytes.TrimSpace(data)) == 0 {
		return out, nil
	}

	var err error
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yml", ".yaml":
		err = yaml.Unmarshal(data, &out)
	case ".json":
		err = json.Unmarshal(data, &out)
	case ".toml":
		err = toml.Unmarshal(data, &out)
	default:
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
