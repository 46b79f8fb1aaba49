// Package manifest reads the YAML or TOML file that declares which components a
// modhost process runs and turns it into component specs.
//
// A manifest looks like:
//
//	components:
//	  - id: clock
//	  - id: store
//	    factory: kv
//	    reload_key: store
//	    settings:
//	      file: data/store.yaml
//	  - id: heartbeat
//	    depends_on: [clock]
//	    requires_gate: true
//
// The factory defaults to the entry's id. Entries are enabled unless they
// set enabled: false. Files ending in .toml are read as TOML with the same
// keys, using [[components]] tables.
package manifest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/modhost/internal/component"
	"github.com/Iron-Ham/modhost/internal/errors"
)

// Manifest is the parsed manifest file.
type Manifest struct {
	Components []Entry `yaml:"components" toml:"components"`
}

// Format is a manifest encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf picks the encoding from a file name. Anything that is not .toml
// is read as YAML.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Entry declares one component.
type Entry struct {
	ID           string         `yaml:"id" toml:"id"`
	Factory      string         `yaml:"factory,omitempty" toml:"factory"`
	DependsOn    []string       `yaml:"depends_on,omitempty" toml:"depends_on"`
	ReloadKey    string         `yaml:"reload_key,omitempty" toml:"reload_key"`
	RequiresGate bool           `yaml:"requires_gate,omitempty" toml:"requires_gate"`
	Enabled      *bool          `yaml:"enabled,omitempty" toml:"enabled"`
	Settings     map[string]any `yaml:"settings,omitempty" toml:"settings"`
	// Generation is bumped to request an in-place reload of a reloadable
	// component without changing anything else.
	Generation int `yaml:"generation,omitempty" toml:"generation"`
}

// IsEnabled reports whether the entry should be loaded.
func (e Entry) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

// FactoryName returns the catalog name used to build the entry.
func (e Entry) FactoryName() string {
	if e.Factory != "" {
		return e.Factory
	}
	return e.ID
}

// Parse decodes manifest YAML. Unknown keys are rejected.
func Parse(data []byte) (*Manifest, error) {
	return ParseFormat(data, FormatYAML)
}

// ParseFormat decodes a manifest in the given format. Unknown keys are
// rejected in both formats.
func ParseFormat(data []byte, format Format) (*Manifest, error) {
	var m Manifest
	if len(bytes.TrimSpace(data)) == 0 {
		return &m, nil
	}

	switch format {
	case FormatTOML:
		meta, err := toml.Decode(string(data), &m)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrManifestInvalid, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: unknown key %q", errors.ErrManifestInvalid, undecoded[0].String())
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// A document holding only comments decodes to io.EOF.
		if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %w", errors.ErrManifestInvalid, err)
		}
	}
	return &m, nil
}

// Load reads and parses the manifest at path in the format its extension
// names.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := ParseFormat(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Validate checks that every entry has a unique, non-empty id, that reload
// keys are unique and, when cat is non-nil, that its factory exists. All
// problems are reported together.
func (m *Manifest) Validate(cat *Catalog) error {
	var errs []error
	seen := make(map[string]bool, len(m.Components))
	keys := make(map[string]string, len(m.Components))

	for i, e := range m.Components {
		field := fmt.Sprintf("components[%d]", i)
		id := strings.TrimSpace(e.ID)
		switch {
		case id == "":
			errs = append(errs, errors.NewValidationError("id is required").WithField(field+".id"))
			continue
		case id != e.ID:
			errs = append(errs, errors.NewValidationError("id must not have surrounding spaces").
				WithField(field+".id").WithValue(e.ID))
		case seen[id]:
			errs = append(errs, errors.NewValidationError("duplicate component id").
				WithField(field+".id").WithValue(id))
		}
		seen[id] = true

		if e.ReloadKey != "" {
			if owner, dup := keys[e.ReloadKey]; dup {
				errs = append(errs, errors.NewValidationError("reload key already used by "+owner).
					WithField(field+".reload_key").WithValue(e.ReloadKey))
			} else {
				keys[e.ReloadKey] = id
			}
		}

		if cat != nil {
			if _, ok := cat.Lookup(e.FactoryName()); !ok {
				errs = append(errs, errors.NewValidationError("unknown factory").
					WithField(field+".factory").WithValue(e.FactoryName()).
					WithCause(errors.ErrUnknownFactory))
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", errors.ErrManifestInvalid, errors.Join(errs...))
}

// Enabled returns the enabled entries in file order.
func (m *Manifest) Enabled() []Entry {
	out := make([]Entry, 0, len(m.Components))
	for _, e := range m.Components {
		if e.IsEnabled() {
			out = append(out, e)
		}
	}
	return out
}

// Entry returns the entry with the given id.
func (m *Manifest) Entry(id string) (Entry, bool) {
	for _, e := range m.Components {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Specs turns the enabled entries into component specs using cat.
func (m *Manifest) Specs(cat *Catalog) ([]component.Spec, error) {
	specs := make([]component.Spec, 0, len(m.Components))
	for _, e := range m.Enabled() {
		s, err := cat.Spec(e)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}
