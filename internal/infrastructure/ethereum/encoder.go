package ethereum

import (
	"bytes"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/domain/entities"
)

// ABIEncoder implements ports.ArgumentEncoder with go-ethereum's abi package.
type ABIEncoder struct{}

// NewABIEncoder creates a new encoder.
func NewABIEncoder() *ABIEncoder {
	return &ABIEncoder{}
}

// EncodeConstructor ABI-encodes resolved arguments for the contract's
// constructor. The result is appended to the creation bytecode.
func (e *ABIEncoder) EncodeConstructor(abiJSON []byte, args []entities.Argument) ([]byte, error) {
	if len(bytes.TrimSpace(abiJSON)) == 0 {
		if len(args) > 0 {
			return nil, fmt.Errorf("contract has no ABI but %d constructor arguments were given", len(args))
		}
		return nil, nil
	}

	parsed, err := abi.JSON(bytes.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("parse ABI: %w", err)
	}

	inputs := parsed.Constructor.Inputs
	if len(inputs) != len(args) {
		return nil, fmt.Errorf("constructor takes %d arguments, %d given", len(inputs), len(args))
	}
	if len(inputs) == 0 {
		return nil, nil
	}

	values := make([]any, len(args))
	for i, arg := range args {
		name := inputs[i].Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		v, err := toABIValue(arg, inputs[i].Type)
		if err != nil {
			return nil, fmt.Errorf("argument %s (%s): %w", name, inputs[i].Type.String(), err)
		}
		values[i] = v
	}

	packed, err := parsed.Pack("", values...)
	if err != nil {
		return nil, fmt.Errorf("pack constructor arguments: %w", err)
	}
	return packed, nil
}

// toABIValue converts a resolved argument into the Go value abi.Pack
// expects for t.
func toABIValue(arg entities.Argument, t abi.Type) (any, error) {
	if !arg.IsResolved() {
		return nil, fmt.Errorf("unresolved %s reference", arg.Kind)
	}

	switch t.T {
	case abi.AddressTy:
		s, ok := arg.Value.(string)
		if !ok || !common.IsHexAddress(s) {
			return nil, fmt.Errorf("expected an address, got %s", arg)
		}
		return common.HexToAddress(s), nil

	case abi.IntTy, abi.UintTy:
		n, err := toBigInt(arg)
		if err != nil {
			return nil, err
		}
		if err := checkIntRange(n, t); err != nil {
			return nil, err
		}
		return nativeInt(n, t), nil

	case abi.BoolTy:
		switch v := arg.Value.(type) {
		case bool:
			return v, nil
		case string:
			switch strings.ToLower(v) {
			case "true":
				return true, nil
			case "false":
				return false, nil
			}
		}
		return nil, fmt.Errorf("expected a boolean, got %s", arg)

	case abi.StringTy:
		s, ok := arg.Value.(string)
		if !ok || arg.Kind != entities.ArgLiteral {
			return nil, fmt.Errorf("expected a string, got %s", arg)
		}
		return s, nil

	case abi.BytesTy:
		return toBytes(arg)

	case abi.FixedBytesTy:
		b, err := toBytes(arg)
		if err != nil {
			return nil, err
		}
		if len(b) > t.Size {
			return nil, fmt.Errorf("%d bytes do not fit bytes%d", len(b), t.Size)
		}
		out := reflect.New(t.GetType()).Elem()
		reflect.Copy(out, reflect.ValueOf(b))
		return out.Interface(), nil

	case abi.SliceTy:
		if arg.Kind != entities.ArgList {
			return nil, fmt.Errorf("expected a list, got %s", arg)
		}
		out := reflect.MakeSlice(t.GetType(), len(arg.Items), len(arg.Items))
		for i, item := range arg.Items {
			v, err := toABIValue(item, *t.Elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out.Index(i).Set(reflect.ValueOf(v))
		}
		return out.Interface(), nil

	case abi.ArrayTy:
		if arg.Kind != entities.ArgList {
			return nil, fmt.Errorf("expected a list, got %s", arg)
		}
		if len(arg.Items) != t.Size {
			return nil, fmt.Errorf("expected %d items, got %d", t.Size, len(arg.Items))
		}
		out := reflect.New(t.GetType()).Elem()
		for i, item := range arg.Items {
			v, err := toABIValue(item, *t.Elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out.Index(i).Set(reflect.ValueOf(v))
		}
		return out.Interface(), nil

	case abi.TupleTy:
		return toTuple(arg, t)

	default:
		return nil, fmt.Errorf("unsupported ABI type %s", t.String())
	}
}

func toTuple(arg entities.Argument, t abi.Type) (any, error) {
	var fields []entities.TupleField
	switch arg.Kind {
	case entities.ArgTuple:
		fields = arg.Fields
	case entities.ArgList:
		for _, item := range arg.Items {
			fields = append(fields, entities.TupleField{Value: item})
		}
	default:
		return nil, fmt.Errorf("expected a tuple, got %s", arg)
	}
	if len(fields) != len(t.TupleElems) {
		return nil, fmt.Errorf("tuple has %d fields, %d given", len(t.TupleElems), len(fields))
	}

	named := len(fields) > 0 && fields[0].Name != ""
	byName := make(map[string]entities.Argument, len(fields))
	if named {
		for _, f := range fields {
			if f.Name == "" {
				return nil, fmt.Errorf("tuple mixes named and positional fields")
			}
			byName[f.Name] = f.Value
		}
	}

	out := reflect.New(t.GetType()).Elem()
	for i, elem := range t.TupleElems {
		value := fields[i].Value
		fieldName := t.TupleRawNames[i]
		if named {
			v, ok := byName[fieldName]
			if !ok {
				return nil, fmt.Errorf("tuple field %q missing", fieldName)
			}
			value = v
		}
		v, err := toABIValue(value, *elem)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fieldName, err)
		}
		out.Field(i).Set(reflect.ValueOf(v))
	}
	return out.Interface(), nil
}

func toBigInt(arg entities.Argument) (*big.Int, error) {
	switch v := arg.Value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case string:
		s := strings.TrimSpace(v)
		base := 10
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			s, base = s[2:], 16
		}
		n, ok := new(big.Int).SetString(s, base)
		if !ok {
			return nil, fmt.Errorf("expected an integer, got %q", v)
		}
		return n, nil
	}
	return nil, fmt.Errorf("expected an integer, got %s", arg)
}

func checkIntRange(n *big.Int, t abi.Type) error {
	if t.T == abi.UintTy {
		if n.Sign() < 0 {
			return fmt.Errorf("%s is negative", n)
		}
		if n.BitLen() > t.Size {
			return fmt.Errorf("%s overflows uint%d", n, t.Size)
		}
		return nil
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
	low := new(big.Int).Neg(limit)
	high := new(big.Int).Sub(limit, big.NewInt(1))
	if n.Cmp(low) < 0 || n.Cmp(high) > 0 {
		return fmt.Errorf("%s overflows int%d", n, t.Size)
	}
	return nil
}

// nativeInt returns the Go type go-ethereum uses for t: int8..int64 and
// uint8..uint64 map to native integers, wider sizes to *big.Int.
func nativeInt(n *big.Int, t abi.Type) any {
	goType := t.GetType()
	switch goType.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return reflect.ValueOf(n.Int64()).Convert(goType).Interface()
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return reflect.ValueOf(n.Uint64()).Convert(goType).Interface()
	default:
		return n
	}
}

func toBytes(arg entities.Argument) ([]byte, error) {
	s, ok := arg.Value.(string)
	if !ok {
		return nil, fmt.Errorf("expected 0x-prefixed hex bytes, got %s", arg)
	}
	if s == "0x" || s == "" {
		return []byte{}, nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("expected 0x-prefixed hex bytes: %w", err)
	}
	return b, nil
}

// Ensure interface compliance
var _ ports.ArgumentEncoder = (*ABIEncoder)(nil)
