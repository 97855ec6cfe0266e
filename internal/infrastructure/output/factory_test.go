package output

import (
	"bytes"
	"testing"

	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatterFactory_Create(t *testing.T) {
	factory := NewFormatterFactory()
	buf := &bytes.Buffer{}

	tests := []struct {
		name        string
		format      string
		options     ports.FormatterOptions
		wantErr     bool
		wantType    interface{}
		errContains string
	}{
		{
			name:     "table format",
			format:   "table",
			wantType: &TableFormatter{},
		},
		{
			name:     "json format",
			format:   "json",
			options:  ports.FormatterOptions{Indent: true},
			wantType: &JSONFormatter{},
		},
		{
			name:     "yaml format",
			format:   "yaml",
			wantType: &YAMLFormatter{},
		},
		{
			name:        "unknown format",
			format:      "sarif",
			wantErr:     true,
			errContains: "unknown format: sarif",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter, err := factory.Create(tt.format, buf, tt.options)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}

			require.NoError(t, err)
			assert.NotNil(t, formatter)
			assert.IsType(t, tt.wantType, formatter)
		})
	}
}

func TestFormatterFactory_TableColor(t *testing.T) {
	factory := NewFormatterFactory()

	f, err := factory.Create("table", &bytes.Buffer{}, ports.FormatterOptions{})
	require.NoError(t, err)
	assert.False(t, f.(*TableFormatter).EnableColor)

	f, err = factory.Create("table", &bytes.Buffer{}, ports.FormatterOptions{Color: true})
	require.NoError(t, err)
	assert.True(t, f.(*TableFormatter).EnableColor)
}

func TestFormatterFactory_SupportedFormats(t *testing.T) {
	factory := NewFormatterFactory()
	formats := factory.SupportedFormats()

	assert.Equal(t, []string{"table", "json", "yaml"}, formats)
}
