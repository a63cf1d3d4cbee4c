package metadata

import (
	"encoding/json"
	"fmt"
	"os"

	"favarchive/pkg/errors"
	"favarchive/pkg/storage"
)

// Write stores the full record of p, derived paths included, at its metadata
// path as indented JSON. An existing file is overwritten.
func Write(p storage.HydratedPost) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrorTypeParsing, err, "failed to marshal metadata")
	}

	if err := os.WriteFile(p.MetadataPath, data, 0644); err != nil {
		return errors.Wrap(errors.ErrorTypeIO, err, "failed to write metadata file")
	}

	return nil
}

// Load reads a record written by Write
func Load(path string) (*storage.HydratedPost, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeIO, err, "failed to read metadata file")
	}

	var p storage.HydratedPost
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeParsing, err, fmt.Sprintf("failed to unmarshal metadata %s", path))
	}

	return &p, nil
}
