// Package seed loads sample gadgets from YAML.
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/anshc022/imf-gadget-api/internal/server/models"
	"github.com/anshc022/imf-gadget-api/internal/server/scoring"
	"gopkg.in/yaml.v3"
)

//go:embed gadgets.yaml
var defaultGadgets []byte

// File is the document layout of a seed file.
type File struct {
	Gadgets []Record `yaml:"gadgets"`
}

// Record describes one gadget. Dates are given as offsets before the time
// of seeding, e.g. "72h".
type Record struct {
	Name               string         `yaml:"name"`
	Status             models.Status  `yaml:"status"`
	Category           string         `yaml:"category"`
	Description        string         `yaml:"description"`
	Reliability        *float64       `yaml:"reliability"`
	PowerLevel         *int           `yaml:"powerLevel"`
	MissionCount       int            `yaml:"missionCount"`
	LastMissionAgo     string         `yaml:"lastMissionAgo"`
	DecommissionedAgo  string         `yaml:"decommissionedAgo"`
	DecommissionReason string         `yaml:"decommissionReason"`
	TechnicalSpecs     map[string]any `yaml:"technicalSpecs"`
}

// Default returns the embedded sample inventory.
func Default() (File, error) {
	return Parse(defaultGadgets)
}

// Load reads a seed file from disk.
func Load(path string) (File, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return File{}, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a seed document.
func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return f, nil
}

// Build converts the records into gadgets stamped relative to now. Missing
// values take the defaults of a freshly created gadget.
func (f File) Build(now time.Time) ([]models.Gadget, error) {
	out := make([]models.Gadget, 0, len(f.Gadgets))
	for i, r := range f.Gadgets {
		g, err := r.gadget(now)
		if err != nil {
			return nil, fmt.Errorf("gadget %d (%q): %w", i, r.Name, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func (r Record) gadget(now time.Time) (models.Gadget, error) {
	due := scoring.NextRoutineMaintenance(now)
	g := models.Gadget{
		Name:                r.Name,
		Status:              r.Status,
		Category:            r.Category,
		Reliability:         models.DefaultReliability,
		PowerLevel:          models.MaxPowerLevel,
		MissionCount:        r.MissionCount,
		LastMaintenanceDate: &now,
		NextMaintenanceDue:  &due,
		TechnicalSpecs:      r.TechnicalSpecs,
	}
	if r.Description != "" {
		d := r.Description
		g.Description = &d
	}
	if r.Reliability != nil {
		g.Reliability = *r.Reliability
	}
	if r.PowerLevel != nil {
		g.PowerLevel = *r.PowerLevel
	}

	if r.LastMissionAgo != "" {
		at, err := ago(now, r.LastMissionAgo)
		if err != nil {
			return g, fmt.Errorf("lastMissionAgo: %w", err)
		}
		g.LastMissionDate = &at
	}
	if r.DecommissionedAgo != "" {
		at, err := ago(now, r.DecommissionedAgo)
		if err != nil {
			return g, fmt.Errorf("decommissionedAgo: %w", err)
		}
		g.DecommissionedAt = &at
	}
	if r.DecommissionReason != "" {
		reason := r.DecommissionReason
		g.DecommissionReason = &reason
	}

	return g, nil
}

func ago(now time.Time, s string) (time.Time, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Time{}, err
	}
	if d < 0 {
		return time.Time{}, fmt.Errorf("offset %q must not be negative", s)
	}
	return now.Add(-d), nil
}
