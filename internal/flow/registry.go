package flow

import (
	"strings"

	"honeydesk/internal/session"
)

// Registry holds the flows the engine can start, keyed by name and trigger.
type Registry struct {
	byName map[session.FlowName]*Flow
	flows  []*Flow
}

func NewRegistry(flows ...*Flow) *Registry {
	r := &Registry{byName: map[session.FlowName]*Flow{}}
	for _, f := range flows {
		r.Add(f)
	}
	return r
}

// Add registers f, replacing a flow of the same name.
func (r *Registry) Add(f *Flow) {
	if old, ok := r.byName[f.Name]; ok {
		for i, x := range r.flows {
			if x == old {
				r.flows = append(r.flows[:i], r.flows[i+1:]...)
				break
			}
		}
	}
	r.byName[f.Name] = f
	r.flows = append(r.flows, f)
}

func (r *Registry) Get(name session.FlowName) (*Flow, bool) {
	f, ok := r.byName[name]
	return f, ok
}

// Match finds the flow triggered by token. Exact triggers win over prefixes.
func (r *Registry) Match(token string) (*Flow, string, bool) {
	for _, f := range r.flows {
		for _, t := range f.Triggers {
			if !strings.HasSuffix(t, ":") && t == token {
				return f, "", true
			}
		}
	}
	for _, f := range r.flows {
		for _, t := range f.Triggers {
			if strings.HasSuffix(t, ":") && strings.HasPrefix(token, t) {
				return f, strings.TrimPrefix(token, t), true
			}
		}
	}
	return nil, "", false
}
