//*****************************************************************************
// Copyright 2024-2025 The SiteForge Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//*****************************************************************************

package sdk

import (
	"archive/zip"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// ManifestName is the fixed-name descriptor every plugin archive carries at
// its root.
const ManifestName = "plugin.yaml"

// Plugin kinds. A native plugin runs inside the host process through a
// registered entry point; a standalone plugin runs as a child process.
const (
	PluginKindNative     = "native"
	PluginKindStandalone = "standalone"
)

var pluginIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// StringList accepts either a single YAML scalar or a sequence of scalars.
type StringList []string

func (s *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var single string
		if err := value.Decode(&single); err != nil {
			return err
		}
		*s = StringList{single}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := value.Decode(&many); err != nil {
			return err
		}
		*s = StringList(many)
		return nil
	default:
		return fmt.Errorf("expected scalar or sequence, got yaml kind %d", value.Kind)
	}
}

// ScanSpec names the components and entities the plugin declares. The host
// registers exactly what is listed here, nothing is discovered implicitly.
type ScanSpec struct {
	Components StringList `yaml:"components"`
	Entities   StringList `yaml:"entities"`
}

// PlatformSpec maps a GOOS/GOARCH pair to the executable inside the archive
// that serves it. Only standalone plugins carry platform entries.
type PlatformSpec struct {
	OS         string `yaml:"os"`
	Arch       string `yaml:"arch"`
	Executable string `yaml:"executable"`
}

// DependencyRef is one parsed entry of the manifest dependency list.
type DependencyRef struct {
	ID         string
	Constraint *semver.Constraints
}

// Manifest is the plugin descriptor parsed from plugin.yaml.
type Manifest struct {
	ID           string         `yaml:"id"`
	Name         string         `yaml:"name"`
	Version      string         `yaml:"version"`
	Author       string         `yaml:"author"`
	Description  string         `yaml:"description"`
	Kind         string         `yaml:"kind"`
	EntryPoint   string         `yaml:"entry_point"`
	APIBase      string         `yaml:"api_base"`
	Scan         ScanSpec       `yaml:"scan"`
	Dependencies StringList     `yaml:"dependencies"`
	Platforms    []PlatformSpec `yaml:"platforms"`
}

// ReadManifest decodes a manifest from a reader.
func ReadManifest(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// ParseManifest opens the archive at path and decodes its root plugin.yaml.
// The archive is opened read-only and closed before returning, so the caller
// holds no lock on it afterwards.
func ParseManifest(archivePath string) (*Manifest, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open plugin archive: %w", err)
	}
	defer func() { _ = zr.Close() }()

	for _, f := range zr.File {
		if f.Name != ManifestName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open manifest entry: %w", err)
		}
		m, err := ReadManifest(rc)
		_ = rc.Close()
		if err != nil {
			return nil, err
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, fmt.Errorf("archive has no %s at its root", ManifestName)
}

// Validate checks the structural invariants of the manifest.
func (m *Manifest) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("manifest id is required")
	}
	if !pluginIDPattern.MatchString(m.ID) {
		return fmt.Errorf("manifest id %q is not a valid plugin id", m.ID)
	}
	if m.Name == "" {
		return fmt.Errorf("manifest name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("manifest version is required")
	}
	if _, err := semver.NewVersion(m.Version); err != nil {
		return fmt.Errorf("manifest version %q is not semver: %w", m.Version, err)
	}
	switch m.Kind {
	case "", PluginKindNative, PluginKindStandalone:
	default:
		return fmt.Errorf("manifest kind %q is not supported", m.Kind)
	}
	if m.EffectiveKind() == PluginKindNative && m.EntryPoint == "" {
		return fmt.Errorf("native plugin requires an entry_point")
	}
	if m.EffectiveKind() == PluginKindStandalone && len(m.Platforms) == 0 {
		return fmt.Errorf("standalone plugin requires at least one platform entry")
	}
	if _, err := m.ParsedDependencies(); err != nil {
		return err
	}
	return nil
}

// EffectiveKind resolves the default kind for manifests that omit it.
func (m *Manifest) EffectiveKind() string {
	if m.Kind == "" {
		return PluginKindNative
	}
	return m.Kind
}

// RoutePrefix is the path segment the plugin's routes mount under. Defaults
// to the plugin id.
func (m *Manifest) RoutePrefix() string {
	base := strings.Trim(m.APIBase, "/")
	if base == "" {
		return m.ID
	}
	return base
}

// ParsedDependencies parses the dependency list. Entries are either a bare
// plugin id or "id:constraint" with a semver constraint expression.
func (m *Manifest) ParsedDependencies() ([]DependencyRef, error) {
	refs := make([]DependencyRef, 0, len(m.Dependencies))
	for _, raw := range m.Dependencies {
		id, constraintExpr, found := strings.Cut(raw, ":")
		id = strings.TrimSpace(id)
		if id == "" || !pluginIDPattern.MatchString(id) {
			return nil, fmt.Errorf("dependency %q has an invalid plugin id", raw)
		}
		ref := DependencyRef{ID: id}
		if found {
			c, err := semver.NewConstraint(strings.TrimSpace(constraintExpr))
			if err != nil {
				return nil, fmt.Errorf("dependency %q has an invalid version constraint: %w", raw, err)
			}
			ref.Constraint = c
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// ExecutableFor returns the archive-relative executable path for the given
// platform, empty if the plugin does not support it.
func (m *Manifest) ExecutableFor(goos, goarch string) string {
	for _, p := range m.Platforms {
		if p.OS == goos && p.Arch == goarch {
			return p.Executable
		}
	}
	return ""
}
