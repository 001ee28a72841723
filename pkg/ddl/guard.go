// Package ddl generates and executes schema statements for managed tables,
// refusing destructive operations on names outside the managed namespace.
package ddl

import (
	"fmt"
	"strings"

	"github.com/inferlab/ddstore/pkg/config"
)

// NamespaceError reports an attempt to run a guarded operation against a
// table outside the managed namespace. No SQL is issued and no subprocess is
// spawned when this is returned.
type NamespaceError struct {
	Table  string
	Prefix string
}

func (e *NamespaceError) Error() string {
	return fmt.Sprintf("security violation: table %q is outside the managed namespace (names must start with %q)", e.Table, e.Prefix)
}

// Guard restricts destructive operations to internally managed tables,
// identified by a shared name prefix.
type Guard struct {
	Prefix string
}

// NewGuard returns a guard for the given prefix, falling back to the default
// managed prefix when empty.
func NewGuard(prefix string) Guard {
	if prefix == "" {
		prefix = config.DefaultNamespacePrefix
	}
	return Guard{Prefix: prefix}
}

// CheckTableNamespace returns a NamespaceError unless name begins with the
// managed prefix. This runs before any statement text is generated.
func (g Guard) CheckTableNamespace(name string) error {
	if !strings.HasPrefix(name, g.Prefix) {
		return &NamespaceError{Table: name, Prefix: g.Prefix}
	}
	return nil
}
