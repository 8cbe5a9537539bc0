package domain

import "fmt"

// Scope is the persistence partitioning policy.
type Scope string

const (
	// ScopeGlobal keeps one blob shared by all workspaces.
	ScopeGlobal Scope = "global"
	// ScopeWorkspace keeps one blob per workspace root.
	ScopeWorkspace Scope = "per-workspace"
)

// ParseScope validates a scope value. "workspace" is accepted as an alias.
func ParseScope(s string) (Scope, error) {
	switch s {
	case string(ScopeGlobal):
		return ScopeGlobal, nil
	case string(ScopeWorkspace), "workspace":
		return ScopeWorkspace, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidScope, s)
	}
}
