// Package seed holds the static fixtures the store starts from.
//
// The JSON files are embedded into the binary; their RFC 3339 timestamp
// strings decode straight into time.Time.
package seed

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/aanand-mishra/activity-registry/internal/storage"
	"github.com/aanand-mishra/activity-registry/internal/types"
)

//go:embed data/*.json
var files embed.FS

// Data is the decoded fixture set.
type Data struct {
	Students   []types.Student
	Activities []types.Activity
}

// Load decodes the embedded fixtures.
func Load() (Data, error) {
	var data Data
	if err := decode("data/activities.json", &data.Activities); err != nil {
		return Data{}, err
	}
	if err := decode("data/students.json", &data.Students); err != nil {
		return Data{}, err
	}
	return data, nil
}

func decode(name string, dst any) error {
	raw, err := files.ReadFile(name)
	if err != nil {
		return fmt.Errorf("seed: read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("seed: decode %s: %w", name, err)
	}
	return nil
}

// Apply loads data into store, activities first, keeping the fixture
// ids and timestamps.
func Apply(store storage.Storage, data Data) error {
	for _, a := range data.Activities {
		if _, err := store.CreateActivity(a); err != nil {
			return fmt.Errorf("seed: activity %s: %w", a.ID, err)
		}
	}
	for _, s := range data.Students {
		if _, err := store.CreateStudent(s); err != nil {
			return fmt.Errorf("seed: student %s: %w", s.ID, err)
		}
	}
	return nil
}
