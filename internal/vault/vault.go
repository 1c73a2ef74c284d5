// Package vault stores registry exports away from the local database. Items
// are addressed by host ID and name and carry a version so a host can tell
// whether the vault is ahead of it.
package vault

import (
	"fmt"
	"strings"
)

// validateKey rejects host IDs and item names that could escape their
// directory or prefix.
func validateKey(hostID, name string) error {
	for _, part := range []struct{ what, value string }{{"host id", hostID}, {"name", name}} {
		if part.value == "" {
			return fmt.Errorf("%s must not be empty", part.what)
		}
		if part.value == "." || part.value == ".." || strings.ContainsAny(part.value, `/\`) {
			return fmt.Errorf("invalid %s: %q", part.what, part.value)
		}
	}
	return nil
}
