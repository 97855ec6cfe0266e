package redaction

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/plinth-dev/plinth/internal/infrastructure/sensitivedata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPatternRedactor(t *testing.T, patterns ...string) *Redactor {
	t.Helper()
	r, err := New(Config{Patterns: patterns, DisableGitleaks: true})
	require.NoError(t, err)
	return r
}

func TestWriter_WithRedactor(t *testing.T) {
	buf := &bytes.Buffer{}
	writer := NewWriter(buf, newPatternRedactor(t, `secret`, `password`))

	testData := []byte("Connecting with secret credentials and password=12345")
	n, err := writer.Write(testData)
	require.NoError(t, err)
	assert.Equal(t, len(testData), n, "should return original length")

	output := buf.String()
	assert.Contains(t, output, "[REDACTED]")
	assert.NotContains(t, output, "secret")
	assert.NotContains(t, output, "password")
}

func TestWriter_WithoutRedactor(t *testing.T) {
	buf := &bytes.Buffer{}
	writer := NewWriter(buf, nil)

	testData := []byte("This contains secret data")
	n, err := writer.Write(testData)
	require.NoError(t, err)
	assert.Equal(t, len(testData), n)
	assert.Equal(t, string(testData), buf.String())
}

func TestWriter_SlogHandler(t *testing.T) {
	provider := sensitivedata.NewProvider()
	provider.Track(devMnemonic)
	r, err := NewWithProvider(Config{DisableGitleaks: true}, provider)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(NewWriter(buf, r), nil))
	logger.Error("account derivation failed", "error", "invalid mnemonic "+devMnemonic)

	assert.Contains(t, buf.String(), "account derivation failed")
	assert.NotContains(t, buf.String(), "junk")
}

func TestWriter_ThreadSafety(t *testing.T) {
	buf := &bytes.Buffer{}
	writer := NewWriter(buf, newPatternRedactor(t, `secret`))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = writer.Write([]byte("secret data\n"))
			}
		}()
	}
	wg.Wait()

	output := buf.String()
	assert.NotContains(t, output, "secret data")
	assert.Contains(t, output, "[REDACTED]")
}

func TestWriter_EmptyWrite(t *testing.T) {
	buf := &bytes.Buffer{}
	writer := NewWriter(buf, newPatternRedactor(t, `secret`))

	n, err := writer.Write([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, "", buf.String())
}
