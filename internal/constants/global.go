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

package constants

const (
	// AppName is the product name used in route paths and the CLI binary.
	AppName = "siteforge"

	// DefaultHost is the default bind address of the admin API.
	DefaultHost = "127.0.0.1"

	// DefaultHTTPPort is the default admin API port.
	DefaultHTTPPort = "16780"

	// DefaultHTTPPort80 and DefaultHTTPSPort are scheme defaults used when
	// parsing the SITEFORGE_HOST environment variable.
	DefaultHTTPPort80 = "80"
	DefaultHTTPSPort  = "443"
)
