package norm

import (
	"encoding/json"
	"fmt"
	"os"

	tt "github.com/gnoverse/canopy/internal/types"
	"github.com/google/uuid"
)

// LoadDataset reads a JSON array of unit records. Units missing an id
// get a generated one so every output record stays addressable.
func LoadDataset(path string) ([]tt.Unit, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading dataset %s: %w", path, err)
	}

	var units []tt.Unit
	if err := json.Unmarshal(content, &units); err != nil {
		return nil, fmt.Errorf("error parsing dataset %s: %w", path, err)
	}

	for i := range units {
		if units[i].ID == "" {
			units[i].ID = uuid.NewString()
		}
	}
	return units, nil
}

// WriteJSON writes the result records as an indented JSON array.
func WriteJSON(path string, results []tt.UnitResult) error {
	content, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("error writing results %s: %w", path, err)
	}
	return nil
}
