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

package version

// SiteForgeVersion is the version of the SiteForge host. Overridden at build
// time with -ldflags "-X github.com/siteforge/siteforge/version.SiteForgeVersion=...".
var SiteForgeVersion = "0.6.0"

// SpecVersion is the version segment used in API route paths.
var SpecVersion = "v0.6"
