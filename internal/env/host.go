package env

import "sort"

// Host variables forwarded to the toolchain when present. Nothing else from
// the calling process reaches the child.
var passthroughKeys = []string{
	"PATH",
	"HOME",
	"GOPROXY",
	"GONOSUMDB",
	"GOPRIVATE",
	"GOFLAGS",
	"HTTP_PROXY",
	"HTTPS_PROXY",
	"NO_PROXY",
	"DOCKER_HOST",
	"DOCKER_CONFIG",
}

// HostOnlyKeys are meaningful to processes on the host (the toolchain in
// direct mode, or the docker client) but must not be forwarded into a
// container.
var HostOnlyKeys = map[string]bool{
	"PATH":              true,
	"HOME":              true,
	"DOCKER_HOST":       true,
	"DOCKER_CONFIG":     true,
	"GIT_CONFIG_GLOBAL": true,
}

// HostEnvironment is an explicit snapshot of the host variables the engine
// cares about. It replaces direct reads of the process environment.
type HostEnvironment struct {
	vars map[string]string
}

// FromLookup captures the enumerated variables using lookup
// (typically os.LookupEnv). GOPATH is captured too so the cache layout can
// honor an existing module cache.
func FromLookup(lookup func(string) (string, bool)) HostEnvironment {
	h := HostEnvironment{vars: make(map[string]string)}
	for _, k := range append([]string{"GOPATH"}, passthroughKeys...) {
		if v, ok := lookup(k); ok && v != "" {
			h.vars[k] = v
		}
	}
	return h
}

// FromMap builds a HostEnvironment from literal values. Unknown keys are kept
// but only enumerated ones are ever forwarded.
func FromMap(m map[string]string) HostEnvironment {
	h := HostEnvironment{vars: make(map[string]string, len(m))}
	for k, v := range m {
		if v != "" {
			h.vars[k] = v
		}
	}
	return h
}

// Get returns the value of key and whether it is set.
func (h HostEnvironment) Get(key string) (string, bool) {
	v, ok := h.vars[key]
	return v, ok
}

// Keys returns the captured keys in sorted order.
func (h HostEnvironment) Keys() []string {
	keys := make([]string, 0, len(h.vars))
	for k := range h.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
