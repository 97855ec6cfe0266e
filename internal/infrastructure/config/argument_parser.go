package config

import (
	"fmt"
	"math"
	"math/big"

	"github.com/goccy/go-yaml"
	"github.com/plinth-dev/plinth/internal/domain/entities"
)

// ParseArgument converts a decoded YAML value into an Argument.
//
// Accepted forms:
//
//	"text", 42, true          literals
//	[a, b]                    list
//	{step: LABEL}             instance handle of another step
//	{account: N}              Nth account of the network
//	{param: KEY}              key of the selected parameter set
//	{ether: "1.5"}            amount * 10^18
//	{tuple: {name: v, ...}}   named tuple; {tuple: [v, ...]} is positional
//
// Maps must be decoded with yaml.UseOrderedMap so tuple fields keep
// their declared order.
func ParseArgument(v any) (entities.Argument, error) {
	switch x := v.(type) {
	case nil:
		return entities.Argument{}, fmt.Errorf("argument is null")
	case string, bool:
		return entities.Literal(x), nil
	case int, int64, uint64, *big.Int:
		return entities.Literal(x), nil
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return entities.Argument{}, fmt.Errorf("number %v is not an integer", x)
		}
		if math.Abs(x) > 1<<53 {
			return entities.Argument{}, fmt.Errorf("number %v is too large to be exact, write it as a string", x)
		}
		return entities.Literal(int64(x)), nil
	case []any:
		items := make([]entities.Argument, 0, len(x))
		for i, elem := range x {
			item, err := ParseArgument(elem)
			if err != nil {
				return entities.Argument{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items = append(items, item)
		}
		return entities.List(items...), nil
	case yaml.MapSlice:
		return parseReference(x)
	case map[string]any:
		if len(x) != 1 {
			return entities.Argument{}, fmt.Errorf("argument object must have exactly one key, got %d", len(x))
		}
		for k, val := range x {
			return parseReference(yaml.MapSlice{{Key: k, Value: val}})
		}
	}
	return entities.Argument{}, fmt.Errorf("unsupported argument type %T", v)
}

func parseReference(m yaml.MapSlice) (entities.Argument, error) {
	if len(m) != 1 {
		return entities.Argument{}, fmt.Errorf("argument object must have exactly one key, got %d", len(m))
	}
	key, ok := m[0].Key.(string)
	if !ok {
		return entities.Argument{}, fmt.Errorf("argument key %v is not a string", m[0].Key)
	}
	val := m[0].Value

	switch key {
	case "step":
		label, ok := val.(string)
		if !ok || label == "" {
			return entities.Argument{}, fmt.Errorf("step reference must be a label")
		}
		return entities.StepRef(label), nil
	case "param":
		name, ok := val.(string)
		if !ok || name == "" {
			return entities.Argument{}, fmt.Errorf("param reference must be a key name")
		}
		return entities.ParamRef(name), nil
	case "account":
		idx, err := toIndex(val)
		if err != nil {
			return entities.Argument{}, fmt.Errorf("account reference: %w", err)
		}
		return entities.AccountRef(idx), nil
	case "ether":
		switch amount := val.(type) {
		case string:
			return entities.Ether(amount)
		case int, int64, uint64, float64:
			return entities.Ether(fmt.Sprint(amount))
		default:
			return entities.Argument{}, fmt.Errorf("ether amount must be a number or string")
		}
	case "tuple":
		return parseTuple(val)
	default:
		return entities.Argument{}, fmt.Errorf("unknown argument form %q", key)
	}
}

func parseTuple(v any) (entities.Argument, error) {
	var fields []entities.TupleField
	switch x := v.(type) {
	case yaml.MapSlice:
		for _, item := range x {
			name, ok := item.Key.(string)
			if !ok {
				return entities.Argument{}, fmt.Errorf("tuple field name %v is not a string", item.Key)
			}
			arg, err := ParseArgument(item.Value)
			if err != nil {
				return entities.Argument{}, fmt.Errorf("tuple field %s: %w", name, err)
			}
			fields = append(fields, entities.TupleField{Name: name, Value: arg})
		}
	case []any:
		for i, elem := range x {
			arg, err := ParseArgument(elem)
			if err != nil {
				return entities.Argument{}, fmt.Errorf("tuple field %d: %w", i, err)
			}
			fields = append(fields, entities.TupleField{Value: arg})
		}
	default:
		return entities.Argument{}, fmt.Errorf("tuple must be a map or a list, got %T", v)
	}
	return entities.Tuple(fields...), nil
}

func toIndex(v any) (int, error) {
	switch n := v.(type) {
	case int:
		if n >= 0 {
			return n, nil
		}
	case int64:
		if n >= 0 && n <= math.MaxInt32 {
			return int(n), nil
		}
	case uint64:
		if n <= math.MaxInt32 {
			return int(n), nil
		}
	case float64:
		if n >= 0 && n == math.Trunc(n) && n <= math.MaxInt32 {
			return int(n), nil
		}
	}
	return 0, fmt.Errorf("index must be a non-negative integer, got %v", v)
}
