package models

// LayerEntry maps a display name to a simplified GeoJSON path relative to
// the layer store root
type LayerEntry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Stage string `json:"stage,omitempty"`
	Bytes int64  `json:"bytes,omitempty"`
}

// LayerIndex is the ordered display-name → path index served to the web map
type LayerIndex struct {
	Layers []LayerEntry `json:"layers"`
}

// Lookup finds an entry by display name or by path
func (i LayerIndex) Lookup(name string) (LayerEntry, bool) {
	for _, e := range i.Layers {
		if e.Name == name || e.Path == name {
			return e, true
		}
	}
	return LayerEntry{}, false
}

// PublishedLayer records a simplified layer uploaded to object storage
type PublishedLayer struct {
	Path        string `json:"path" db:"path"`
	RunID       string `json:"run_id,omitempty" db:"run_id"`
	Bucket      string `json:"bucket" db:"bucket"`
	Bytes       int64  `json:"bytes" db:"bytes"`
	PublishedAt int64  `json:"published_at" db:"published_at"`
}
