package sensitivedata

import (
	"errors"
	"sort"
	"strings"

	"github.com/plinth-dev/plinth/internal/application/ports"
)

// redactedError keeps the original error reachable through errors.Is/As
// while printing the scrubbed message.
type redactedError struct {
	cause error
	msg   string
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.cause }

// SafeError wraps an error, redacting any tracked values in the message.
// Longer values are replaced first.
func SafeError(err error, provider ports.SensitiveValueProvider) error {
	if err == nil {
		return nil
	}
	if provider == nil {
		return err
	}

	secrets := provider.AllValues()
	sort.Slice(secrets, func(i, j int) bool { return len(secrets[i]) > len(secrets[j]) })

	msg := err.Error()
	for _, secret := range secrets {
		if secret != "" && strings.Contains(msg, secret) {
			msg = strings.ReplaceAll(msg, secret, "[REDACTED]")
		}
	}

	if msg == err.Error() {
		return err // No redaction needed, return original error to preserve type
	}

	return &redactedError{cause: err, msg: msg}
}

// IsRedacted reports whether err was rewritten by SafeError.
func IsRedacted(err error) bool {
	var r *redactedError
	return errors.As(err, &r)
}
