package batch

import (
	"encoding/json"
	"os"

	"projwarp/internal/projection"
)

// ManifestEntry represents one rendered projection in the output manifest.
type ManifestEntry struct {
	Projection      string   `json:"projection"`
	Label           string   `json:"label"`
	Family          string   `json:"family"`
	Description     string   `json:"description"`
	Characteristics []string `json:"characteristics"`
	ClipAngle       float64  `json:"clip_angle,omitempty"`
	Inverse         bool     `json:"inverse"`
	Image           string   `json:"image"`
	Thumbnail       string   `json:"thumbnail,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
}

// WriteManifest writes manifest.json for the successful results, in result
// order.
func WriteManifest(path string, catalog *projection.Catalog, results []Result) error {
	entries := make([]ManifestEntry, 0, len(results))
	for _, r := range results {
		if !r.Success {
			continue
		}
		d, err := catalog.Get(r.Projection)
		if err != nil {
			return err
		}
		entries = append(entries, ManifestEntry{
			Projection:      d.ID,
			Label:           d.Label,
			Family:          d.Family.String(),
			Description:     d.Description,
			Characteristics: d.Characteristics,
			ClipAngle:       d.ClipAngle,
			Inverse:         d.Inverse != nil,
			Image:           r.Image,
			Thumbnail:       r.Thumbnail,
			Warnings:        r.Warnings,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
