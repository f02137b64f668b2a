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

package event

import "testing"

func TestBusFansOut(t *testing.T) {
	b := NewBus()
	_, ch1 := b.Subscribe()
	_, ch2 := b.Subscribe()

	b.Publish(PluginActivated, map[string]interface{}{"plugin_id": "blog"})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case evt := <-ch:
			if evt.Name != PluginActivated || evt.Payload["plugin_id"] != "blog" {
				t.Errorf("subscriber %d got %+v", i, evt)
			}
		default:
			t.Errorf("subscriber %d received nothing", i)
		}
	}
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	b := NewBus()
	_, ch := b.Subscribe()

	// Publish does not block even when nobody drains the channel.
	for i := 0; i < subscriberBuffer*2; i++ {
		b.Publish(PluginInstalled, nil)
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
			continue
		default:
		}
		break
	}
	if received != subscriberBuffer {
		t.Errorf("received %d events, want the buffer size %d", received, subscriberBuffer)
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus()
	id, ch := b.Subscribe()
	b.Unsubscribe(id)

	if _, open := <-ch; open {
		t.Error("channel still open after unsubscribe")
	}

	// Unknown and repeated ids are no-ops.
	b.Unsubscribe(id)
	b.Unsubscribe(9999)
	b.Publish(PluginFailed, nil)
}
