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

import "testing"

type entryTestPlugin struct {
	BasePlugin
}

func TestEntryPointRegistration(t *testing.T) {
	RegisterEntryPoint("test.entry.basic", func() SitePlugin { return &entryTestPlugin{} })

	fn, ok := LookupEntryPoint("test.entry.basic")
	if !ok {
		t.Fatal("registered entry point not found")
	}
	if fn() == nil {
		t.Error("entry point returned nil")
	}

	if _, ok := LookupEntryPoint("test.entry.unknown"); ok {
		t.Error("unknown entry point resolved")
	}
}

func TestEntryPointDuplicatePanics(t *testing.T) {
	RegisterEntryPoint("test.entry.dup", func() SitePlugin { return &entryTestPlugin{} })

	defer func() {
		if recover() == nil {
			t.Error("duplicate registration should panic")
		}
	}()
	RegisterEntryPoint("test.entry.dup", func() SitePlugin { return &entryTestPlugin{} })
}
