// Package policy implements the Strategy pattern for grace-window rules.
// Each policy decides when the "just unlocked" marker is revoked.
package policy

import (
	"fmt"
	"sort"
)

// Policy names accepted by the grace_policy setting.
const (
	KeepThroughLauncher = "keep_through_launcher"
	RevokeOnLauncher    = "revoke_on_launcher"
)

// GracePolicy defines when the one-shot unlock grace is revoked.
type GracePolicy interface {
	// Name returns the setting value that selects this policy.
	Name() string

	// ShouldRevoke reports whether lastUnlocked must be cleared when appID
	// comes to the foreground. isLauncher is the host's launcher answer for appID.
	ShouldRevoke(appID, lastUnlocked string, isLauncher bool) bool
}

// Registry holds the known grace policies.
type Registry struct {
	policies map[string]GracePolicy
}

// NewRegistry creates a registry with all built-in policies.
func NewRegistry() *Registry {
	r := &Registry{
		policies: make(map[string]GracePolicy),
	}
	r.Register(KeepThroughLauncherPolicy{})
	r.Register(RevokeOnLauncherPolicy{})
	return r
}

// Register adds a policy to the registry.
func (r *Registry) Register(p GracePolicy) {
	r.policies[p.Name()] = p
}

// Get returns a policy by name.
func (r *Registry) Get(name string) (GracePolicy, bool) {
	p, ok := r.policies[name]
	return p, ok
}

// Resolve returns the named policy, or the default policy for unknown names.
func (r *Registry) Resolve(name string) GracePolicy {
	if p, ok := r.policies[name]; ok {
		return p
	}
	return KeepThroughLauncherPolicy{}
}

// List returns all policy names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate returns an error for names no policy answers to.
func (r *Registry) Validate(name string) error {
	if _, ok := r.policies[name]; !ok {
		return fmt.Errorf("unknown grace policy %q (want one of %v)", name, r.List())
	}
	return nil
}
