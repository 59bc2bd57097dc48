package bridge

import (
	"fmt"
	"sort"
	"strings"
)

// Capability is the name of one host function a script may call.
type Capability string

const (
	CapabilityGet           Capability = "get"
	CapabilityPostText      Capability = "post_text"
	CapabilityPostJSON      Capability = "post_json"
	CapabilityRemoteCommand Capability = "remote_command"
)

var allCapabilities = []Capability{
	CapabilityGet,
	CapabilityPostText,
	CapabilityPostJSON,
	CapabilityRemoteCommand,
}

type Capabilities map[Capability]struct{}

// AllCapabilities returns a set with every host function enabled.
func AllCapabilities() Capabilities {
	c := make(Capabilities, len(allCapabilities))
	for _, name := range allCapabilities {
		c[name] = struct{}{}
	}
	return c
}

// ParseCapabilities builds a set from configured names. An empty list
// enables everything.
func ParseCapabilities(names []string) (Capabilities, error) {
	if len(names) == 0 {
		return AllCapabilities(), nil
	}

	known := AllCapabilities()
	c := make(Capabilities, len(names))
	for _, n := range names {
		name := Capability(strings.TrimSpace(n))
		if !known.Has(name) {
			return nil, fmt.Errorf("unknown capability %q", n)
		}
		c[name] = struct{}{}
	}
	return c, nil
}

func (c Capabilities) Has(name Capability) bool {
	_, ok := c[name]
	return ok
}

func (c Capabilities) List() []string {
	out := make([]string, 0, len(c))
	for name := range c {
		out = append(out, string(name))
	}
	sort.Strings(out)
	return out
}
