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

// Package container holds the live runtime state plugins mutate: the named
// bean registry and the versioned route table. Both are safe for concurrent
// use and support clean removal, which the host HTTP framework alone cannot
// provide.
package container

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/siteforge/siteforge/sdk"
)

// Container is a named bean registry. Registration is idempotent for the
// same instance and conflicts for a different one, so repeated activation
// passes are safe.
type Container struct {
	mu    sync.RWMutex
	beans map[string]interface{}
}

func NewContainer() *Container {
	return &Container{beans: make(map[string]interface{})}
}

// Register binds a bean under a unique name. Registering the same instance
// under the same name again is a no-op.
func (c *Container) Register(name string, bean interface{}) error {
	if name == "" {
		return fmt.Errorf("bean name is required")
	}
	if bean == nil {
		return fmt.Errorf("bean %s is nil", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.beans[name]; ok {
		if existing == bean {
			return nil
		}
		return fmt.Errorf("bean %s is already registered with a different instance", name)
	}
	c.beans[name] = bean
	return nil
}

// Destroy removes a bean. Removing an absent name is a no-op.
func (c *Container) Destroy(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.beans, name)
}

// Get resolves a bean by name.
func (c *Container) Get(name string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	bean, ok := c.beans[name]
	return bean, ok
}

// GetByType assigns the first bean assignable to *target into target, where
// target is a pointer to an interface or struct pointer type. Names are
// scanned in sorted order so the result is deterministic.
func (c *Container) GetByType(target interface{}) bool {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return false
	}
	want := v.Elem().Type()

	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.beans))
	for name := range c.beans {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		bean := c.beans[name]
		bt := reflect.TypeOf(bean)
		if bt != nil && bt.AssignableTo(want) {
			v.Elem().Set(reflect.ValueOf(bean))
			return true
		}
	}
	return false
}

// Names returns a sorted snapshot of registered bean names.
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.beans))
	for name := range c.beans {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered beans.
func (c *Container) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.beans)
}

// Autowire hands the host services handle to beans that want it.
func (c *Container) Autowire(bean interface{}, host sdk.HostServices) {
	if aware, ok := bean.(sdk.HostAware); ok && host != nil {
		aware.SetHost(host)
	}
}
