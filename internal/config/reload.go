// internal/config/reload.go
package config

// Reloader re-resolves the configuration from its backing file on
// demand. The monitoring loop calls Reload once per reload interval
// and keeps working with its previous snapshot when the file has
// gone bad.
type Reloader struct {
	path string
}

func NewReloader(path string) *Reloader {
	return &Reloader{path: path}
}

// Reload loads, normalizes and validates a fresh snapshot.
func (r *Reloader) Reload() (*Config, error) {
	cfg, err := Load(r.path)
	if err != nil {
		return nil, err
	}
	Normalize(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
