package entities_test

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEther(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "1", want: "1000000000000000000"},
		{in: "1.5", want: "1500000000000000000"},
		{in: "1000000000", want: "1000000000000000000000000000"},
		{in: "0.0000000000000000001", wantErr: true},
		{in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			arg, err := entities.Ether(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, arg.Value.(*big.Int).String())
		})
	}
}

func TestArgument_Refs(t *testing.T) {
	t.Parallel()

	arg := entities.Tuple(
		entities.TupleField{Name: "registry", Value: entities.StepRef("registry")},
		entities.TupleField{Name: "owners", Value: entities.List(entities.AccountRef(0), entities.AccountRef(2))},
		entities.TupleField{Name: "name", Value: entities.ParamRef("tokenName")},
		entities.TupleField{Name: "cap", Value: entities.Literal(1000)},
	)

	assert.Equal(t, []string{"registry"}, arg.StepRefs())
	assert.Equal(t, []int{0, 2}, arg.AccountRefs())
	assert.Equal(t, []string{"tokenName"}, arg.ParamRefs())
	assert.False(t, arg.IsResolved())
	assert.Equal(t, `(registry: step(registry), owners: [account(0), account(2)], name: param(tokenName), cap: 1000)`, arg.String())
}

func TestArgument_Substitute(t *testing.T) {
	t.Parallel()

	arg := entities.List(entities.StepRef("token"), entities.AccountRef(1), entities.Literal(true))
	out, err := arg.Substitute(func(ref entities.Argument) (entities.Argument, error) {
		switch ref.Kind {
		case entities.ArgStep:
			return entities.Literal("0xtoken"), nil
		case entities.ArgAccount:
			return entities.Literal(fmt.Sprintf("0xaccount%d", ref.Index)), nil
		}
		return entities.Argument{}, fmt.Errorf("unexpected %s", ref.Kind)
	})
	require.NoError(t, err)
	assert.True(t, out.IsResolved())
	assert.Equal(t, "0xtoken", out.Items[0].Value)
	assert.Equal(t, "0xaccount1", out.Items[1].Value)
	assert.Equal(t, true, out.Items[2].Value)

	// the original is untouched
	assert.Equal(t, entities.ArgStep, arg.Items[0].Kind)
}

func TestStepDeclaration_Dependencies(t *testing.T) {
	t.Parallel()

	from := entities.AccountRef(1)
	step := entities.StepDeclaration{
		Label:    "market",
		Contract: "Market",
		Args:     []entities.Argument{entities.StepRef("token"), entities.List(entities.StepRef("registry"), entities.StepRef("token"))},
		From:     &from,
		After:    []string{"oracle"},
	}
	assert.Equal(t, []string{"oracle", "registry", "token"}, step.Dependencies())
}
