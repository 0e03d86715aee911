/*
Copyright © 2025 Logicos Software

properties.go implements ordered property maps and path lookup.
*/
package value

import (
	"strings"
)

// Properties is an ordered, string-keyed map of values used by the
// introspection commands.
type Properties struct {
	keys   []string
	values map[string]Value
}

// NewProperties returns an empty property map.
func NewProperties() *Properties {
	return &Properties{values: make(map[string]Value)}
}

// Set adds or replaces a property. New keys keep insertion order.
func (p *Properties) Set(key string, v Value) {
	if v == nil {
		return
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = v
}

// Try computes a property, storing a failure Result under key when compute
// returns an error. Property computation never fails as a whole.
func (p *Properties) Try(key string, src Source, compute func() (Value, error)) {
	v, err := compute()
	if err != nil {
		p.Set(key, NewFailure(src.Derive(key), err))
		return
	}
	p.Set(key, v)
}

// Get returns the property stored under key.
func (p *Properties) Get(key string) (Value, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Lookup resolves a dot separated path through nested property maps.
// Keys are matched case-insensitively when no exact key exists.
func (p *Properties) Lookup(path string) (Value, bool) {
	cur := p
	var v Value
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			continue
		}
		next, ok := cur.Get(seg)
		if !ok {
			next, ok = cur.getFold(seg)
		}
		if !ok {
			return nil, false
		}
		v = next
		cur = next.Properties()
	}
	return v, v != nil
}

func (p *Properties) getFold(key string) (Value, bool) {
	for _, k := range p.keys {
		if strings.EqualFold(k, key) {
			return p.values[k], true
		}
	}
	return nil, false
}

// Keys returns the property names in insertion order.
func (p *Properties) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len returns the number of properties.
func (p *Properties) Len() int {
	return len(p.keys)
}

// Each calls fn for every property in order.
func (p *Properties) Each(fn func(key string, v Value)) {
	for _, k := range p.keys {
		fn(k, p.values[k])
	}
}
