// Package plugins implements §4.12's external scanner registry: a small
// contract any third-party scanner integration (ZAP, Nuclei, a custom
// fuzzer) could implement to have its findings merged alongside the
// fixed probe suite's. Wiring an actual external tool is out of scope
// (§1); this package ships the contract plus one trivial reference
// plugin proving it compiles and runs end to end.
package plugins

import (
	"github.com/blackcoderx/apisentinel/internal/httpclient"
	"github.com/blackcoderx/apisentinel/internal/model"
)

// Plugin is an external scanner integration a worker can invoke
// alongside the probe suite for one chunk.
type Plugin interface {
	Name() string
	Run(snapshot model.SpecSnapshot, client *httpclient.Client, baseURL string) ([]model.Finding, error)
}

// Registry maps plugin names to instances. The zero value is ready to
// use.
type Registry struct {
	plugins map[string]Plugin
}

// NewRegistry builds an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{plugins: map[string]Plugin{}}
}

// Register adds a plugin under its own Name(), overwriting any previous
// registration for that name.
func (r *Registry) Register(p Plugin) {
	if r.plugins == nil {
		r.plugins = map[string]Plugin{}
	}
	r.plugins[p.Name()] = p
}

// Get returns the plugin registered under name, if any.
func (r *Registry) Get(name string) (Plugin, bool) {
	p, ok := r.plugins[name]
	return p, ok
}

// All returns every registered plugin, in no particular order.
func (r *Registry) All() []Plugin {
	out := make([]Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, p)
	}
	return out
}

// RunAll invokes every registered plugin against one chunk and
// concatenates their findings. A single plugin's error is recorded
// against its name but does not stop the others from running.
func RunAll(r *Registry, snapshot model.SpecSnapshot, client *httpclient.Client, baseURL string) ([]model.Finding, map[string]error) {
	var findings []model.Finding
	errs := map[string]error{}

	for _, p := range r.All() {
		found, err := p.Run(snapshot, client, baseURL)
		if err != nil {
			errs[p.Name()] = err
			continue
		}
		findings = append(findings, found...)
	}

	return findings, errs
}
