package imageio

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"planar-recognizer/internal/domain/entity"
)

// LoadManifest читает JSON-манифест каталога.
func LoadManifest(path string) ([]entity.ReferenceSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var sources []entity.ReferenceSource
	if err := json.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	var errs []error
	for i, src := range sources {
		if src.Name == "" {
			errs = append(errs, fmt.Errorf("entry %d: name is empty", i))
		}
		if src.URL == "" {
			errs = append(errs, fmt.Errorf("entry %d (%q): url is empty", i, src.Name))
		}
		if src.Width < 0 || src.Height < 0 {
			errs = append(errs, fmt.Errorf("entry %d (%q): negative size", i, src.Name))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return sources, nil
}
