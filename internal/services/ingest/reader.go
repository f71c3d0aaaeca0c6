package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"diligence/internal/domain/company"
	"diligence/pkg/errors"
)

// Reader loads company source profiles from a directory of JSON files.
type Reader struct {
	dir string
}

// NewReader creates a reader rooted at the given directory.
func NewReader(dir string) (*Reader, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "input sources directory not found: %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "%s is not a directory", dir)
	}

	return &Reader{dir: dir}, nil
}

// ReadProfile loads and validates a company's profile. The name may be given
// with or without the .json extension.
func (r *Reader) ReadProfile(name string) (*company.Profile, error) {
	file := name
	if !strings.HasSuffix(file, ".json") {
		file += ".json"
	}

	path := filepath.Join(r.dir, file)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrNotFound, "company file not found: %s", path)
		}
		return nil, errors.Wrapf(err, "read company file %s", path)
	}

	var profile company.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "invalid JSON in %s: %v", file, err)
	}

	if err := profile.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid profile in %s", file)
	}

	return &profile, nil
}

// ListAvailable returns the company names that have profiles, sorted.
func (r *Reader) ListAvailable() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read input sources directory %s", r.dir)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)

	return names, nil
}

// FormatSources renders a profile's company sources as a bullet list for
// prompt embedding, optionally filtered by source type.
func FormatSources(profile *company.Profile, sourceType company.SourceType) string {
	sources := profile.CompanySources
	if sourceType != "" {
		sources = profile.SourcesOfType(sourceType)
	}

	if len(sources) == 0 {
		if sourceType != "" {
			return fmt.Sprintf("No %s sources found.", sourceType)
		}
		return "No sources found."
	}

	lines := make([]string, 0, len(sources))
	for _, s := range sources {
		lines = append(lines, fmt.Sprintf("- %s: %s (%s)", s.Source, s.Identifier, s.Description))
	}
	return strings.Join(lines, "\n")
}
