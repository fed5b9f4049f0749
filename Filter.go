package routing

import (
	"strings"

	"github.com/spf13/cast"
)

// FilterFunc is a filter callable. Returning in.Continue() (or nil) lets
// the request go on; anything else short-circuits it.
type FilterFunc func(in *In) *Out

// FilterOptions are the options a filter was registered with.
type FilterOptions map[string]interface{}

// FilterDescriptor is what a controller stores for every registered filter.
type FilterDescriptor struct {
	Filter     string        `json:"filter"`
	Parameters []string      `json:"parameters"`
	Options    FilterOptions `json:"options"`
}

const instanceFilterPrefix = "@"

// ParseFilterString splits "name:p1,p2" into its name and parameters.
// Only the first colon separates the name.
func ParseFilterString(raw string) (name string, params []string) {
	i := strings.Index(raw, ":")
	if i == -1 {
		return raw, []string{}
	}
	return raw[:i], strings.Split(raw[i+1:], ",")
}

func (o FilterOptions) Only() []string {
	return o.stringList("only")
}

func (o FilterOptions) Except() []string {
	return o.stringList("except")
}

// On lists the HTTP methods the filter is restricted to.
func (o FilterOptions) On() []string {
	return o.stringList("on")
}

func (o FilterOptions) GetString(key string) string {
	if o == nil {
		return ""
	}
	return cast.ToString(o[key])
}

func (o FilterOptions) stringList(key string) []string {
	if o == nil {
		return nil
	}
	v, ok := o[key]
	if !ok || v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		// "index|show" is accepted as well as a list
		out := make([]string, 0)
		for _, p := range strings.Split(s, "|") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return cast.ToStringSlice(v)
}

// AppliesTo reports whether the options allow the filter to run for the
// given action and HTTP method. An empty method skips the "on" check.
func (o FilterOptions) AppliesTo(action, httpMethod string) bool {
	if only := o.Only(); len(only) > 0 && !containsFold(only, action) {
		return false
	}
	if containsFold(o.Except(), action) {
		return false
	}
	if on := o.On(); len(on) > 0 && httpMethod != "" && !containsFold(on, httpMethod) {
		return false
	}
	return true
}

func (d FilterDescriptor) IsInstance() bool {
	return strings.HasPrefix(d.Filter, instanceFilterPrefix)
}

// String returns the descriptor in the "name:p1,p2" form.
func (d FilterDescriptor) String() string {
	if len(d.Parameters) == 0 {
		return d.Filter
	}
	return d.Filter + ":" + strings.Join(d.Parameters, ",")
}

func containsFold(haystack []string, needle string) bool {
	for _, v := range haystack {
		if strings.EqualFold(v, needle) {
			return true
		}
	}
	return false
}

func cloneDescriptors(src []FilterDescriptor) []FilterDescriptor {
	out := make([]FilterDescriptor, len(src))
	copy(out, src)
	return out
}

//
// stock filters
//

func NoCacheFilter(in *In) *Out {
	if in.W != nil {
		hh := in.W.Header()
		hh.Set("Cache-Control", "no-cache, no-store, must-revalidate")
		hh.Set("Pragma", "no-cache")
		hh.Set("Expires", "0")
	}
	return in.Continue()
}

func ServedByProxyFilter(in *In) *Out {
	if in.R == nil {
		return in.Continue()
	}
	if v := in.R.Header.Get("X-Real-IP"); v != "" {
		in.R.RemoteAddr = v
	} else if v := in.R.Header.Get("X-Forwarded-For"); v != "" {
		in.R.RemoteAddr = v
	}
	return in.Continue()
}

var stockFilters = map[string]FilterFunc{
	"nocache": NoCacheFilter,
	"proxy":   ServedByProxyFilter,
}

// RegisterStockFilters registers the ready-made named filters on f.
func RegisterStockFilters(f Filterer) {
	for name, fn := range stockFilters {
		f.Filter(name, fn)
	}
}
