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

// Package event is the in-process lifecycle event bus. The plugin manager
// publishes install/activate/deactivate/uninstall events and the websocket
// endpoint streams them to editor sessions.
package event

import (
	"sync"
	"time"
)

// Lifecycle event names.
const (
	PluginInstalled   = "plugin.installed"
	PluginActivated   = "plugin.activated"
	PluginDeactivated = "plugin.deactivated"
	PluginUninstalled = "plugin.uninstalled"
	PluginFailed      = "plugin.failed"
)

// Event is one bus message.
type Event struct {
	Name    string                 `json:"name"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Time    time.Time              `json:"time"`
}

const subscriberBuffer = 16

// Bus fans events out to subscribers. Slow subscribers drop events rather
// than block the publisher.
type Bus struct {
	mu          sync.Mutex
	nextID      int
	subscribers map[int]chan Event
}

func NewBus() *Bus {
	return &Bus{subscribers: make(map[int]chan Event)}
}

// Publish delivers an event to every current subscriber.
func (b *Bus) Publish(name string, payload map[string]interface{}) {
	evt := Event{Name: name, Payload: payload, Time: time.Now()}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Subscribe registers a new subscriber and returns its id and channel.
func (b *Bus) Subscribe() (int, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	ch := make(chan Event, subscriberBuffer)
	b.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown ids are
// a no-op.
func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
	}
}
