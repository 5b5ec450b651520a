// Package helper reports which external protocol helper binaries are installed.
package helper

import (
	"os"
	"path/filepath"
	"strings"
)

// Well-known helper plugin names.
const (
	PluginHysteria = "hysteria-plugin"
	PluginTUIC     = "tuic-plugin"
)

// Registry looks helpers up in one plugin directory.
type Registry struct {
	dir string
}

func NewRegistry(dir string) *Registry {
	return &Registry{dir: dir}
}

// Compatible reports whether the named helper exists as an executable file.
func (r *Registry) Compatible(plugin string) bool {
	if r == nil || r.dir == "" {
		return false
	}
	name := strings.TrimSpace(plugin)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return false
	}
	info, err := os.Stat(filepath.Join(r.dir, name))
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}
