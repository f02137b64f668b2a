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

// Package loader gives each plugin an isolated view of its archive and of
// the host container. One Loader owns one open archive, the plugin-local
// bean namespace, and the child process of a standalone plugin. Closing the
// loader releases all three.
package loader

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	goplugin "github.com/hashicorp/go-plugin"
	"github.com/siteforge/siteforge/internal/container"
	"github.com/siteforge/siteforge/internal/logger"
	"github.com/siteforge/siteforge/sdk"
)

// RestrictedPrefixes name the host bean namespaces plugins may never
// resolve, regardless of what the parent container holds.
var RestrictedPrefixes = []string{
	"host.internal.",
	"host.security.",
	"host.crypto.",
	"sys.unsafe.",
}

// ErrRestricted is returned when a plugin looks up a bean in a restricted
// namespace.
var ErrRestricted = errors.New("component name is restricted")

// ErrClosed is returned by operations on a closed loader.
var ErrClosed = errors.New("loader is closed")

// NormalizeAssetPath turns an archive entry path into a safe relative path:
// leading slashes are stripped and ".", ".." and empty segments are dropped.
func NormalizeAssetPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	segments := strings.Split(p, "/")
	kept := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		kept = append(kept, seg)
	}
	return strings.Join(kept, "/")
}

// Loader is the isolated runtime context of one loaded plugin.
type Loader struct {
	mu sync.Mutex

	archivePath string
	manifest    *sdk.Manifest
	parent      *container.Container

	zr      *zip.ReadCloser
	workDir string
	client  *goplugin.Client
	local   map[string]interface{}
	closed  bool
}

// Open opens the archive, parses and validates its manifest, and keeps the
// archive open until Close. The parent container backs component lookups
// that miss the plugin-local namespace.
func Open(archivePath string, parent *container.Container) (*Loader, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open plugin archive %s: %w", archivePath, err)
	}

	var manifest *sdk.Manifest
	for _, f := range zr.File {
		if f.Name != sdk.ManifestName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			_ = zr.Close()
			return nil, fmt.Errorf("failed to open manifest entry: %w", err)
		}
		manifest, err = sdk.ReadManifest(rc)
		_ = rc.Close()
		if err != nil {
			_ = zr.Close()
			return nil, err
		}
		break
	}
	if manifest == nil {
		_ = zr.Close()
		return nil, fmt.Errorf("archive %s has no %s at its root", archivePath, sdk.ManifestName)
	}
	if err := manifest.Validate(); err != nil {
		_ = zr.Close()
		return nil, err
	}

	return &Loader{
		archivePath: archivePath,
		manifest:    manifest,
		parent:      parent,
		zr:          zr,
		local:       make(map[string]interface{}),
	}, nil
}

// Manifest returns the parsed plugin manifest.
func (l *Loader) Manifest() *sdk.Manifest {
	return l.manifest
}

// ArchivePath returns the path of the open archive.
func (l *Loader) ArchivePath() string {
	return l.archivePath
}

// Instantiate constructs the plugin instance. Native plugins resolve their
// registered entry point; standalone plugins get their platform executable
// extracted and started as a child process.
func (l *Loader) Instantiate() (sdk.SitePlugin, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrClosed
	}

	if l.manifest.EffectiveKind() == sdk.PluginKindNative {
		fn, ok := sdk.LookupEntryPoint(l.manifest.EntryPoint)
		if !ok {
			return nil, fmt.Errorf("entry point %q of plugin %s is not registered", l.manifest.EntryPoint, l.manifest.ID)
		}
		instance := fn()
		if instance == nil {
			return nil, fmt.Errorf("entry point %q of plugin %s returned nil", l.manifest.EntryPoint, l.manifest.ID)
		}
		return instance, nil
	}

	relExec := l.manifest.ExecutableFor(runtime.GOOS, runtime.GOARCH)
	if relExec == "" {
		return nil, fmt.Errorf("plugin %s has no executable for %s/%s", l.manifest.ID, runtime.GOOS, runtime.GOARCH)
	}

	execPath, err := l.extractLocked(relExec)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(execPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to mark plugin executable: %w", err)
	}

	l.client = goplugin.NewClient(&goplugin.ClientConfig{
		HandshakeConfig: sdk.Handshake,
		Plugins:         sdk.PluginMap(nil),
		Cmd:             exec.Command(execPath),
		Logger: hclog.New(&hclog.LoggerOptions{
			Name:  "plugin." + l.manifest.ID,
			Level: hclog.Warn,
		}),
	})

	rpcClient, err := l.client.Client()
	if err != nil {
		l.client.Kill()
		l.client = nil
		return nil, fmt.Errorf("failed to start plugin %s: %w", l.manifest.ID, err)
	}
	raw, err := rpcClient.Dispense(sdk.PluginTypeSite)
	if err != nil {
		l.client.Kill()
		l.client = nil
		return nil, fmt.Errorf("failed to dispense plugin %s: %w", l.manifest.ID, err)
	}
	instance, ok := raw.(sdk.SitePlugin)
	if !ok {
		l.client.Kill()
		l.client = nil
		return nil, fmt.Errorf("plugin %s does not implement the site plugin contract", l.manifest.ID)
	}
	return instance, nil
}

// RegisterLocal binds a bean in the plugin-local namespace.
func (l *Loader) RegisterLocal(name string, bean interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.local[name] = bean
}

// LookupComponent resolves a bean the way the plugin sees it: restricted
// namespaces are denied, the plugin-local namespace wins over the parent
// container.
func (l *Loader) LookupComponent(name string) (interface{}, error) {
	if hasRestrictedPrefix(name) {
		return nil, fmt.Errorf("%w: %s", ErrRestricted, name)
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, ErrClosed
	}
	if bean, ok := l.local[name]; ok {
		l.mu.Unlock()
		return bean, nil
	}
	l.mu.Unlock()

	if l.parent != nil {
		if bean, ok := l.parent.Get(name); ok {
			return bean, nil
		}
	}
	return nil, fmt.Errorf("component %s is not registered", name)
}

// Asset reads an archive entry by its normalized path.
func (l *Loader) Asset(path string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrClosed
	}

	want := NormalizeAssetPath(path)
	for _, f := range l.zr.File {
		if NormalizeAssetPath(f.Name) != want {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open asset %s: %w", path, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read asset %s: %w", path, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("asset %s is not in the archive", path)
}

// extractLocked writes one archive entry into the loader's work directory
// and returns its absolute path. Caller holds l.mu.
func (l *Loader) extractLocked(entry string) (string, error) {
	if l.workDir == "" {
		dir, err := os.MkdirTemp("", "siteforge-plugin-"+l.manifest.ID+"-")
		if err != nil {
			return "", fmt.Errorf("failed to create plugin work directory: %w", err)
		}
		l.workDir = dir
	}

	want := NormalizeAssetPath(entry)
	for _, f := range l.zr.File {
		if NormalizeAssetPath(f.Name) != want {
			continue
		}
		dst := filepath.Join(l.workDir, filepath.FromSlash(want))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return "", fmt.Errorf("failed to create extraction directory: %w", err)
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open archive entry %s: %w", entry, err)
		}
		out, err := os.Create(dst)
		if err != nil {
			_ = rc.Close()
			return "", fmt.Errorf("failed to create extracted file: %w", err)
		}
		_, err = io.Copy(out, rc)
		_ = rc.Close()
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return "", fmt.Errorf("failed to extract %s: %w", entry, err)
		}
		return dst, nil
	}
	return "", fmt.Errorf("archive entry %s is not in the archive", entry)
}

// Close releases everything the loader owns: the child process, the open
// archive and the work directory. Close is idempotent.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true

	if l.client != nil {
		l.client.Kill()
		l.client = nil
	}

	var firstErr error
	if err := l.zr.Close(); err != nil {
		firstErr = err
	}
	if l.workDir != "" {
		if err := os.RemoveAll(l.workDir); err != nil && firstErr == nil {
			firstErr = err
		}
		l.workDir = ""
	}
	l.local = make(map[string]interface{})

	if firstErr != nil {
		logger.PluginLogger(l.manifest.ID).Warn("loader close finished with error", "error", firstErr)
	}
	return firstErr
}

func hasRestrictedPrefix(name string) bool {
	for _, p := range RestrictedPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
