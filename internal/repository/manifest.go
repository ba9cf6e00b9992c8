package repository

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mbrombin/fvs/core"
)

// StateSummary is the manifest's record of one state: the message it
// was committed with and when, per §6's repo.json schema.
type StateSummary struct {
	Message   string  `json:"message"`
	Timestamp float64 `json:"timestamp"`
}

// Manifest is the repository-wide manifest, repo.json. Its States
// map uses int keys; encoding/json already renders and parses these
// as quoted decimal strings, so unlike the original Python
// implementation no manual string<->int conversion pass is needed.
type Manifest struct {
	ActiveStateID int                  `json:"id"`
	States        map[int]StateSummary `json:"states"`
	Compression   bool                 `json:"compression"`
}

func newManifest() *Manifest {
	return &Manifest{ActiveStateID: -1, States: map[int]StateSummary{}}
}

func loadManifest(paths core.Paths) (*Manifest, error) {
	if !core.FileExists(paths.ManifestPath()) {
		return newManifest(), nil
	}

	data, err := os.ReadFile(paths.ManifestPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	m := newManifest()
	if len(data) > 0 {
		if err := json.Unmarshal(data, m); err != nil {
			return nil, fmt.Errorf("failed to parse manifest: %w", err)
		}
	}
	if m.States == nil {
		m.States = map[int]StateSummary{}
	}
	return m, nil
}

func (m *Manifest) save(paths core.Paths) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(paths.ManifestPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
