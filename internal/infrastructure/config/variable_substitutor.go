package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/plinth-dev/plinth/internal/application/ports"
)

// Placeholder pattern: {{ env "NAME" }} or {{ secret "name" }}
var placeholderPattern = regexp.MustCompile(`\{\{\s*(env|secret)\s+"([a-zA-Z0-9_.-]+)"\s*\}\}`)

// VariableSubstitutor expands placeholders in project values such as
// network URLs.
type VariableSubstitutor struct {
	resolver ports.CredentialResolver
	lookup   func(string) (string, bool)
}

// NewVariableSubstitutor creates a new variable substitutor. A nil
// resolver leaves {{ secret }} placeholders untouched.
func NewVariableSubstitutor(resolver ports.CredentialResolver) *VariableSubstitutor {
	return &VariableSubstitutor{
		resolver: resolver,
		lookup:   os.LookupEnv,
	}
}

// SubstituteString replaces {{ env "NAME" }} with the environment variable
// and {{ secret "name" }} with the resolved credential.
// Substitution is a single pass: values are never re-expanded.
func (s *VariableSubstitutor) SubstituteString(str string) (string, error) {
	var lastErr error

	result := placeholderPattern.ReplaceAllStringFunc(str, func(match string) string {
		if lastErr != nil {
			return match
		}
		submatches := placeholderPattern.FindStringSubmatch(match)
		if len(submatches) < 3 {
			lastErr = fmt.Errorf("invalid placeholder: %s", match)
			return match
		}
		kind, name := submatches[1], submatches[2]

		switch kind {
		case "env":
			value, ok := s.lookup(name)
			if !ok {
				lastErr = fmt.Errorf("environment variable %s is not set", name)
				return match
			}
			return value
		default:
			if s.resolver == nil {
				return match
			}
			value, err := s.resolver.Resolve(name)
			if err != nil {
				lastErr = fmt.Errorf("resolving secret %s: %w", name, err)
				return match
			}
			return value
		}
	})

	if lastErr != nil {
		return "", lastErr
	}
	return result, nil
}
