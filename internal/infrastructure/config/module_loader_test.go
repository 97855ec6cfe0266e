package config

import (
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenModule = `
name: albert
description: token and vault
parameters:
  default: testnet
  sets:
    testnet:
      supply: {ether: "1000"}
      owner: {account: 1}
    mainnet:
      supply: {ether: "1000000"}
      owner: {account: 0}
steps:
  - label: token
    contract: Token
    args: ["Albert", "ALB", {param: supply}]
    tags: [core]
  - label: vault
    contract: Vault
    from: {account: 0}
    args:
      - {step: token}
      - {param: owner}
      - [1, 2, 3]
      - {tuple: {fee: 30, enabled: true}}
      - {tuple: ["0xabc", -7]}
    after: [token]
`

func TestLoadModuleFromReader_Valid(t *testing.T) {
	m, err := NewModuleLoader().LoadModuleFromReader(strings.NewReader(tokenModule))
	require.NoError(t, err)

	assert.Equal(t, "albert", m.Name)
	assert.Equal(t, "token and vault", m.Description)
	assert.Equal(t, []string{"token", "vault"}, m.Labels())
	assert.Equal(t, "testnet", m.Parameters.Default)
	assert.Equal(t, []string{"mainnet", "testnet"}, m.Parameters.Names())

	token, ok := m.Step("token")
	require.True(t, ok)
	require.Len(t, token.Args, 3)
	assert.Equal(t, entities.Literal("Albert"), token.Args[0])
	assert.Equal(t, entities.ParamRef("supply"), token.Args[2])
	assert.Equal(t, []string{"core"}, token.Tags)

	vault, ok := m.Step("vault")
	require.True(t, ok)
	require.NotNil(t, vault.From)
	assert.Equal(t, entities.AccountRef(0), *vault.From)
	assert.Equal(t, entities.StepRef("token"), vault.Args[0])
	assert.Equal(t, entities.List(entities.Literal(1), entities.Literal(2), entities.Literal(3)), vault.Args[2])

	named := vault.Args[3]
	require.Equal(t, entities.ArgTuple, named.Kind)
	require.Len(t, named.Fields, 2)
	assert.Equal(t, "fee", named.Fields[0].Name)
	assert.Equal(t, "enabled", named.Fields[1].Name)

	positional := vault.Args[4]
	require.Len(t, positional.Fields, 2)
	assert.Empty(t, positional.Fields[0].Name)
	assert.Equal(t, 0, positional.Fields[1].Value.Value.(*big.Int).Cmp(big.NewInt(-7)))

	assert.Equal(t, []string{"token"}, vault.Dependencies())

	supply := m.Parameters.Sets["testnet"]["supply"]
	want, _ := new(big.Int).SetString("1000000000000000000000", 10)
	assert.Equal(t, 0, supply.Value.(*big.Int).Cmp(want))
}

func TestValidateModuleSchema_Numbers(t *testing.T) {
	// 2^53+1 is not exactly representable as float64
	supply := "name: m\nsteps:\n  - label: a\n    contract: A\n    args: [9007199254740993]\n"
	require.NoError(t, validateModuleSchema([]byte(supply)))

	fractional := "name: m\nsteps:\n  - label: a\n    contract: A\n    args: [{account: 1.5}]\n"
	err := validateModuleSchema([]byte(fractional))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "module validation failed")
}

func TestLoadModuleFromReader_SchemaErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing steps",
			yaml:    "name: m\n",
			wantErr: "module validation failed",
		},
		{
			name:    "unknown step field",
			yaml:    "name: m\nsteps:\n  - label: a\n    contract: A\n    depends: [b]\n",
			wantErr: "module validation failed",
		},
		{
			name:    "missing contract",
			yaml:    "name: m\nsteps:\n  - label: a\n",
			wantErr: "module validation failed",
		},
		{
			name:    "unknown argument form",
			yaml:    "name: m\nsteps:\n  - label: a\n    contract: A\n    args: [{contract: B}]\n",
			wantErr: "module validation failed",
		},
		{
			name:    "negative account",
			yaml:    "name: m\nsteps:\n  - label: a\n    contract: A\n    args: [{account: -1}]\n",
			wantErr: "module validation failed",
		},
		{
			name:    "from must be an account",
			yaml:    "name: m\nsteps:\n  - label: a\n    contract: A\n    from: {step: b}\n",
			wantErr: "module validation failed",
		},
		{
			name:    "empty document",
			yaml:    "",
			wantErr: "module validation failed",
		},
		{
			name:    "ether with too many decimals",
			yaml:    "name: m\nsteps:\n  - label: a\n    contract: A\n    args: [{ether: \"0.0000000000000000001\"}]\n",
			wantErr: "more than 18 decimals",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewModuleLoader().LoadModuleFromReader(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadModule_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "albert.yaml")
	require.NoError(t, os.WriteFile(path, []byte(tokenModule), 0o600))

	m, err := NewModuleLoader().LoadModule(path)
	require.NoError(t, err)
	assert.Equal(t, "albert", m.Name)

	_, err = NewModuleLoader().LoadModule(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestParseArgument(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    entities.Argument
		wantErr string
	}{
		{name: "string", input: "hello", want: entities.Literal("hello")},
		{name: "bool", input: true, want: entities.Literal(true)},
		{name: "uint64", input: uint64(42), want: entities.Literal(42)},
		{name: "int64", input: int64(-3), want: entities.Literal(-3)},
		{name: "integral float", input: float64(10), want: entities.Literal(10)},
		{name: "fractional float", input: 1.5, wantErr: "not an integer"},
		{name: "null", input: nil, wantErr: "null"},
		{name: "plain map", input: map[string]any{"step": "a"}, want: entities.StepRef("a")},
		{name: "two keys", input: map[string]any{"step": "a", "param": "b"}, wantErr: "exactly one key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseArgument(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.String(), got.String())
			assert.Equal(t, tt.want.Kind, got.Kind)
		})
	}
}
