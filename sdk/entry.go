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
	"fmt"
	"sync"
)

// EntryPointFunc constructs a fresh plugin instance. Each activation gets
// its own instance, never a shared one.
type EntryPointFunc func() SitePlugin

var (
	entryMu     sync.RWMutex
	entryPoints = make(map[string]EntryPointFunc)
)

// RegisterEntryPoint registers a named constructor for a native plugin
// compiled into the host binary. Bundled plugins call this from an init
// function and name the entry point in their manifest. Registering the same
// name twice panics.
func RegisterEntryPoint(name string, fn EntryPointFunc) {
	if name == "" || fn == nil {
		panic("sdk: entry point name and constructor are required")
	}
	entryMu.Lock()
	defer entryMu.Unlock()
	if _, exists := entryPoints[name]; exists {
		panic(fmt.Sprintf("sdk: entry point %q is already registered", name))
	}
	entryPoints[name] = fn
}

// LookupEntryPoint resolves a registered entry point by name.
func LookupEntryPoint(name string) (EntryPointFunc, bool) {
	entryMu.RLock()
	defer entryMu.RUnlock()
	fn, ok := entryPoints[name]
	return fn, ok
}
