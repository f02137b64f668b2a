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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func validManifest() *Manifest {
	return &Manifest{
		ID:         "blog",
		Name:       "Blog",
		Version:    "1.0.0",
		Kind:       PluginKindNative,
		EntryPoint: "siteforge.blog",
	}
}

func TestStringListAcceptsScalarAndSequence(t *testing.T) {
	var scalar struct {
		Components StringList `yaml:"components"`
	}
	if err := yaml.Unmarshal([]byte("components: PostHandler\n"), &scalar); err != nil {
		t.Fatalf("scalar form failed: %v", err)
	}
	if len(scalar.Components) != 1 || scalar.Components[0] != "PostHandler" {
		t.Errorf("scalar form parsed as %v", scalar.Components)
	}

	var list struct {
		Components StringList `yaml:"components"`
	}
	input := "components:\n  - PostRepository\n  - PostService\n"
	if err := yaml.Unmarshal([]byte(input), &list); err != nil {
		t.Fatalf("sequence form failed: %v", err)
	}
	if len(list.Components) != 2 || list.Components[1] != "PostService" {
		t.Errorf("sequence form parsed as %v", list.Components)
	}

	var bad struct {
		Components StringList `yaml:"components"`
	}
	if err := yaml.Unmarshal([]byte("components:\n  key: value\n"), &bad); err == nil {
		t.Error("mapping form should be rejected")
	}
}

func TestManifestValidate(t *testing.T) {
	if err := validManifest().Validate(); err != nil {
		t.Fatalf("valid manifest rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Manifest)
	}{
		{"empty id", func(m *Manifest) { m.ID = "" }},
		{"uppercase id", func(m *Manifest) { m.ID = "Blog" }},
		{"id with slash", func(m *Manifest) { m.ID = "blog/extra" }},
		{"empty name", func(m *Manifest) { m.Name = "" }},
		{"empty version", func(m *Manifest) { m.Version = "" }},
		{"non-semver version", func(m *Manifest) { m.Version = "latest" }},
		{"unknown kind", func(m *Manifest) { m.Kind = "embedded" }},
		{"native without entry point", func(m *Manifest) { m.EntryPoint = "" }},
		{"standalone without platforms", func(m *Manifest) {
			m.Kind = PluginKindStandalone
			m.EntryPoint = ""
		}},
		{"bad dependency id", func(m *Manifest) { m.Dependencies = StringList{"Bad Id"} }},
		{"bad dependency constraint", func(m *Manifest) { m.Dependencies = StringList{"base:not-a-range"} }},
	}
	for _, tc := range cases {
		m := validManifest()
		tc.mutate(m)
		if err := m.Validate(); err == nil {
			t.Errorf("%s: expected validation failure", tc.name)
		}
	}
}

func TestManifestKindDefaultsToNative(t *testing.T) {
	m := validManifest()
	m.Kind = ""
	if m.EffectiveKind() != PluginKindNative {
		t.Errorf("got kind %q", m.EffectiveKind())
	}
	if err := m.Validate(); err != nil {
		t.Errorf("defaulted kind should validate: %v", err)
	}
}

func TestRoutePrefix(t *testing.T) {
	m := validManifest()
	if got := m.RoutePrefix(); got != "blog" {
		t.Errorf("default prefix %q, want plugin id", got)
	}
	m.APIBase = "/content/blog/"
	if got := m.RoutePrefix(); got != "content/blog" {
		t.Errorf("prefix %q, want trimmed api base", got)
	}
}

func TestParsedDependencies(t *testing.T) {
	m := validManifest()
	m.Dependencies = StringList{"base", "media: >=1.2.0, <2.0.0"}

	refs, err := m.ParsedDependencies()
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("got %d refs", len(refs))
	}
	if refs[0].ID != "base" || refs[0].Constraint != nil {
		t.Errorf("bare ref parsed as %+v", refs[0])
	}
	if refs[1].ID != "media" || refs[1].Constraint == nil {
		t.Fatalf("constrained ref parsed as %+v", refs[1])
	}
}

func TestExecutableFor(t *testing.T) {
	m := validManifest()
	m.Kind = PluginKindStandalone
	m.EntryPoint = ""
	m.Platforms = []PlatformSpec{
		{OS: "linux", Arch: "amd64", Executable: "bin/blog-linux"},
		{OS: "windows", Arch: "amd64", Executable: "bin/blog.exe"},
	}

	if got := m.ExecutableFor("linux", "amd64"); got != "bin/blog-linux" {
		t.Errorf("got %q", got)
	}
	if got := m.ExecutableFor("darwin", "arm64"); got != "" {
		t.Errorf("unsupported platform resolved to %q", got)
	}
}

func writeArchive(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plugin.sfp")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseManifest(t *testing.T) {
	archive := writeArchive(t, map[string]string{
		ManifestName: "id: blog\nname: Blog\nversion: 1.0.0\nentry_point: siteforge.blog\n",
	})
	m, err := ParseManifest(archive)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if m.ID != "blog" || m.Version != "1.0.0" {
		t.Errorf("parsed manifest %+v", m)
	}

	// The archive must be released after parsing so install can copy it.
	if err := os.Remove(archive); err != nil {
		t.Errorf("archive still held open: %v", err)
	}
}

func TestParseManifestMissing(t *testing.T) {
	archive := writeArchive(t, map[string]string{"readme.txt": "no manifest here"})
	if _, err := ParseManifest(archive); err == nil || !strings.Contains(err.Error(), ManifestName) {
		t.Errorf("expected missing-manifest error, got %v", err)
	}
}
