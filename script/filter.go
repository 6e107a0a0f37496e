// Package script compiles tengo descriptor filters. A filter script sees the
// descriptor through a handful of globals and decides by assigning `keep`.
//
//	name, category   string
//	tags             array of strings
//	mode             "distance_independent" | "distance_dependent" | "radial"
//	forward          local forward root motion
//	stationary       true when the clip carries no displacement
//	has_window       true when the clip has a warp window
//	has_tag(t)       helper
package script

import (
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/motionwarp/motion"
	"github.com/milk9111/motionwarp/prefabs"
)

const filterPrelude = `
keep := true
has_tag := func(t) {
	for x in tags {
		if x == t {
			return true
		}
	}
	return false
}
`

// Filter is a compiled descriptor predicate.
type Filter struct {
	name     string
	compiled *tengo.Compiled
}

// Compile builds a filter from tengo source.
func Compile(name string, src []byte) (*Filter, error) {
	script := tengo.NewScript(append([]byte(filterPrelude), src...))
	for global, zero := range map[string]any{
		"name":       "",
		"category":   "",
		"tags":       []any{},
		"mode":       "",
		"forward":    0.0,
		"stationary": false,
		"has_window": false,
	} {
		if err := script.Add(global, zero); err != nil {
			return nil, fmt.Errorf("script: %s: add %s: %w", name, global, err)
		}
	}
	script.SetImports(stdlib.GetModuleMap("math", "text"))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", name, err)
	}
	return &Filter{name: name, compiled: compiled}, nil
}

// Load compiles a filter from prefabs/scripts.
func Load(name string) (*Filter, error) {
	src, err := prefabs.LoadScript(name)
	if err != nil {
		return nil, fmt.Errorf("script: load %s: %w", name, err)
	}
	return Compile(name, src)
}

func (f *Filter) Name() string {
	return f.name
}

// Eval runs the script against one descriptor.
func (f *Filter) Eval(d *motion.Descriptor) (bool, error) {
	if f == nil {
		return true, nil
	}
	if d == nil {
		return false, nil
	}

	tags := make([]any, 0, len(d.Tags))
	for _, t := range d.Tags {
		tags = append(tags, t)
	}

	c := f.compiled.Clone()
	for global, v := range map[string]any{
		"name":       d.Name,
		"category":   d.Category,
		"tags":       tags,
		"mode":       d.Mode(),
		"forward":    d.TotalRootMotion.Z(),
		"stationary": d.IsStationary(),
		"has_window": d.Window != nil,
	} {
		if err := c.Set(global, v); err != nil {
			return false, fmt.Errorf("script: %s: set %s: %w", f.name, global, err)
		}
	}
	if err := c.Run(); err != nil {
		return false, fmt.Errorf("script: run %s on %s: %w", f.name, d.Name, err)
	}
	return c.Get("keep").Bool(), nil
}

// Predicate adapts the filter for motion.Catalog.Filter and the selector.
// Descriptors that make the script fail are dropped and reported to onErr.
func (f *Filter) Predicate(onErr func(error)) func(*motion.Descriptor) bool {
	return func(d *motion.Descriptor) bool {
		keep, err := f.Eval(d)
		if err != nil {
			if onErr != nil {
				onErr(err)
			}
			return false
		}
		return keep
	}
}
