package ports

// SensitiveValueProvider tracks and provides all sensitive values for protection.
// This is a PORT - the application defines what it needs, infrastructure provides it.
type SensitiveValueProvider interface {
	// Track registers a sensitive value to be protected (redacted).
	Track(value string)

	// AllValues returns all tracked sensitive values.
	AllValues() []string
}

// CredentialResolver resolves named credentials (mnemonics, private keys).
// Implementations automatically track resolved values for redaction.
type CredentialResolver interface {
	// Resolve returns the credential value by name.
	Resolve(name string) (string, error)
}

// Redactor scrubs secrets from text before it is logged or persisted.
type Redactor interface {
	ScrubString(input string) string
}
