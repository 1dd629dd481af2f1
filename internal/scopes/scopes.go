package scopes

import (
	"fmt"
	"strings"

	"github.com/keychain-connect/backend/internal/controller"
	"github.com/keychain-connect/backend/internal/models"
)

// Wildcard grants every method on a target.
const Wildcard = "*"

// Normalize pads targets to felt width and trims methods so that scopes
// can be compared and de-duplicated.
func Normalize(in []models.Scope) []models.Scope {
	out := make([]models.Scope, 0, len(in))
	for _, s := range in {
		out = append(out, models.Scope{
			Target:      controller.PadHash(s.Target),
			Method:      strings.TrimSpace(s.Method),
			Description: strings.TrimSpace(s.Description),
		})
	}
	return out
}

// Validate checks an already normalized scope list. An empty list is a
// plain connect without session policies.
func Validate(list []models.Scope) error {
	seen := make(map[string]struct{}, len(list))
	for i, s := range list {
		if !controller.IsFelt(s.Target) {
			return fmt.Errorf("scope %d: invalid target %q", i, s.Target)
		}
		if s.Method == "" {
			return fmt.Errorf("scope %d: method is required", i)
		}
		key := s.Target + "/" + s.Method
		if _, dup := seen[key]; dup {
			return fmt.Errorf("scope %d: duplicate %s", i, key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Allows reports whether granted permits calling method on target.
func Allows(granted []models.Scope, target, method string) bool {
	target = controller.PadHash(target)
	for _, s := range granted {
		if controller.PadHash(s.Target) != target {
			continue
		}
		if s.Method == Wildcard || s.Method == method {
			return true
		}
	}
	return false
}
