// Package redaction scrubs credentials and other secrets from text before
// it reaches logs, the journal or the terminal.
package redaction

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/spf13/viper"
	"github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
)

// Redactor handles sanitization of sensitive data.
// All fields are read-only after construction, making it safe for concurrent use.
type Redactor struct {
	provider ports.SensitiveValueProvider
	patterns []pattern
	hashMode bool
	salt     string

	// Gitleaks detector for secret detection.
	// If nil, only regex patterns and tracked values apply.
	gitleaksDetector *detect.Detector
}

// pattern is a compiled rule. When the expression has a group named
// "secret" only that group is replaced, so an RPC URL keeps its host.
type pattern struct {
	re    *regexp.Regexp
	group int
}

func compilePattern(expr string) (pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return pattern{}, err
	}
	return pattern{re: re, group: re.SubexpIndex("secret")}, nil
}

// Config holds the configuration for the Redactor.
type Config struct {
	// Custom patterns to redact. A group named "secret" narrows the
	// replacement, e.g. `quicknode\.pro/(?P<secret>[0-9a-f]{40})`.
	Patterns []string
	// If true, replace with hash instead of [REDACTED]
	HashMode bool
	// Salt for hashing. If empty, hash is deterministic but unsalted.
	Salt string
	// If true, disable gitleaks detector and use only custom patterns
	DisableGitleaks bool
}

// New creates a new Redactor with the given configuration.
func New(cfg Config) (*Redactor, error) {
	return NewWithProvider(cfg, nil)
}

// NewWithProvider creates a Redactor that also scrubs every value tracked
// by provider, such as resolved mnemonics and derived private keys.
func NewWithProvider(cfg Config, provider ports.SensitiveValueProvider) (*Redactor, error) {
	r := &Redactor{
		provider: provider,
		hashMode: cfg.HashMode,
		salt:     cfg.Salt,
		patterns: make([]pattern, 0, len(cfg.Patterns)+len(defaultPatterns)),
	}

	if !cfg.DisableGitleaks {
		detector, err := newGitleaksDetector()
		if err != nil {
			slog.Warn("gitleaks detector unavailable, using regex patterns only", "error", err)
		} else {
			r.gitleaksDetector = detector
		}
	}

	for _, expr := range defaultPatterns {
		p, err := compilePattern(expr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile default pattern %s: %w", expr, err)
		}
		r.patterns = append(r.patterns, p)
	}

	for _, expr := range cfg.Patterns {
		p, err := compilePattern(expr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile custom pattern %s: %w", expr, err)
		}
		r.patterns = append(r.patterns, p)
	}

	return r, nil
}

// newGitleaksDetector creates a new gitleaks detector with default configuration.
func newGitleaksDetector() (*detect.Detector, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(strings.NewReader(config.DefaultConfig)); err != nil {
		return nil, fmt.Errorf("failed to read gitleaks config: %w", err)
	}

	var vc config.ViperConfig
	if err := v.Unmarshal(&vc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gitleaks config: %w", err)
	}

	cfg, err := vc.Translate()
	if err != nil {
		return nil, fmt.Errorf("failed to translate gitleaks config: %w", err)
	}

	return detect.NewDetector(cfg), nil
}

// ScrubString replaces sensitive values in a string.
// Tracked values go first, then gitleaks findings, then regex patterns.
func (r *Redactor) ScrubString(input string) string {
	if input == "" {
		return ""
	}

	result := r.scrubTracked(input)

	if r.gitleaksDetector != nil {
		findings := r.gitleaksDetector.Detect(detect.Fragment{Raw: result})
		for _, finding := range findings {
			if finding.Secret == "" {
				continue
			}
			result = strings.ReplaceAll(result, finding.Secret, r.replacement(finding.Secret))
		}
	}

	for _, p := range r.patterns {
		result = r.applyPattern(p, result)
	}

	return result
}

func (r *Redactor) applyPattern(p pattern, input string) string {
	if p.group < 0 {
		return p.re.ReplaceAllStringFunc(input, r.replacement)
	}

	matches := p.re.FindAllStringSubmatchIndex(input, -1)
	if matches == nil {
		return input
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[2*p.group], m[2*p.group+1]
		if start < 0 || start == end || isMarker(input[start:end]) {
			continue
		}
		b.WriteString(input[last:start])
		b.WriteString(r.replacement(input[start:end]))
		last = end
	}
	b.WriteString(input[last:])
	return b.String()
}

// ScrubError returns err's message scrubbed. Nil yields "".
func (r *Redactor) ScrubError(err error) string {
	if err == nil {
		return ""
	}
	return r.ScrubString(err.Error())
}

// scrubTracked replaces tracked values longest first, so a value that
// contains another is removed whole.
func (r *Redactor) scrubTracked(input string) string {
	if r.provider == nil {
		return input
	}
	tracked := r.provider.AllValues()
	sort.Slice(tracked, func(i, j int) bool { return len(tracked[i]) > len(tracked[j]) })

	result := input
	for _, secret := range tracked {
		if secret != "" && strings.Contains(result, secret) {
			result = strings.ReplaceAll(result, secret, r.replacement(secret))
		}
	}
	return result
}

// isMarker reports whether s was already replaced by an earlier pass.
func isMarker(s string) bool {
	return s == "[REDACTED]" || strings.HasPrefix(s, "[hmac:")
}

func (r *Redactor) replacement(secret string) string {
	if r.hashMode {
		return r.hash(secret)
	}
	return "[REDACTED]"
}

// hash returns a truncated HMAC-SHA256 hash of the secret.
// Format: [hmac:a1b2c3d4e5f6g7h8]
//
// The salt is the HMAC key; truncation keeps correlation possible
// without exposing the full digest.
func (r *Redactor) hash(secret string) string {
	mac := hmac.New(sha256.New, []byte(r.salt))
	mac.Write([]byte(secret))
	sum := mac.Sum(nil)

	return fmt.Sprintf("[hmac:%s]", hex.EncodeToString(sum)[:16])
}

// defaultPatterns covers secrets that show up around EVM tooling.
// Gitleaks handles the generic token formats.
var defaultPatterns = []string{
	// PEM private keys
	`-----BEGIN [A-Z ]+ PRIVATE KEY-----`,
	// Key or mnemonic assignments, e.g. echoed back in RPC error bodies
	`(?i)\b(?:private[_-]?key|mnemonic|seed[_-]?phrase)\s*[:=]\s*\S+`,
	// Hosted RPC endpoints carry the project key in the path
	`(?i)infura\.io/(?:ws/)?v3/(?P<secret>[0-9a-f]{32})`,
	`(?i)alchemy(?:api)?\.(?:com|io)/(?:v2|nft/v\d)/(?P<secret>[A-Za-z0-9_-]{16,})`,
	// Credentials embedded in a URL
	`(?i)\b[a-z][a-z0-9+.-]*://[^/\s:@]+:(?P<secret>[^@\s/]+)@`,
	// Explorer API keys in query strings
	`(?i)[?&]api[_-]?key=(?P<secret>[^&\s"']+)`,
}

// Ensure interface compliance
var _ ports.Redactor = (*Redactor)(nil)
