package entities

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// ArgumentKind discriminates the Argument variants.
type ArgumentKind int

const (
	// ArgLiteral is a scalar literal: string, *big.Int or bool.
	ArgLiteral ArgumentKind = iota
	// ArgStep references another step's instance handle.
	ArgStep
	// ArgAccount references the Nth account of the active network.
	ArgAccount
	// ArgParam references a key of the selected parameter set.
	ArgParam
	// ArgList is an ordered list of arguments.
	ArgList
	// ArgTuple is an ordered tuple (struct) of named or positional fields.
	ArgTuple
)

func (k ArgumentKind) String() string {
	switch k {
	case ArgLiteral:
		return "literal"
	case ArgStep:
		return "step"
	case ArgAccount:
		return "account"
	case ArgParam:
		return "param"
	case ArgList:
		return "list"
	case ArgTuple:
		return "tuple"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// TupleField is one field of a tuple argument. Name is empty for
// positional tuples.
type TupleField struct {
	Name  string
	Value Argument
}

// Argument is a constructor argument. Composite arguments may contain
// references anywhere inside them.
type Argument struct {
	Value  any
	Ref    string
	Items  []Argument
	Fields []TupleField
	Index  int
	Kind   ArgumentKind
}

// Literal creates a scalar literal. Integers of any Go integer type are
// normalized to *big.Int.
func Literal(v any) Argument {
	switch n := v.(type) {
	case int:
		v = big.NewInt(int64(n))
	case int32:
		v = big.NewInt(int64(n))
	case int64:
		v = big.NewInt(n)
	case uint:
		v = new(big.Int).SetUint64(uint64(n))
	case uint32:
		v = new(big.Int).SetUint64(uint64(n))
	case uint64:
		v = new(big.Int).SetUint64(n)
	case *big.Int:
		v = new(big.Int).Set(n)
	}
	return Argument{Kind: ArgLiteral, Value: v}
}

// StepRef references the handle produced by the step with the given label.
func StepRef(label string) Argument {
	return Argument{Kind: ArgStep, Ref: label}
}

// AccountRef references the account at index i.
func AccountRef(i int) Argument {
	return Argument{Kind: ArgAccount, Index: i}
}

// ParamRef references a parameter key.
func ParamRef(key string) Argument {
	return Argument{Kind: ArgParam, Ref: key}
}

// List creates a list argument.
func List(items ...Argument) Argument {
	return Argument{Kind: ArgList, Items: items}
}

// Tuple creates a tuple argument.
func Tuple(fields ...TupleField) Argument {
	return Argument{Kind: ArgTuple, Fields: fields}
}

// weiPerEther is 10^18.
var weiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Ether converts a decimal amount of ether into a wei literal.
// "1.5" becomes 1500000000000000000. Amounts finer than one wei are rejected.
func Ether(amount string) (Argument, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(amount))
	if !ok {
		return Argument{}, fmt.Errorf("invalid ether amount %q", amount)
	}
	r.Mul(r, new(big.Rat).SetInt(weiPerEther))
	if !r.IsInt() {
		return Argument{}, fmt.Errorf("ether amount %q has more than 18 decimals", amount)
	}
	return Literal(new(big.Int).Set(r.Num())), nil
}

// StepRefs returns every step label referenced inside the argument.
func (a Argument) StepRefs() []string {
	var out []string
	a.walk(func(x Argument) {
		if x.Kind == ArgStep {
			out = append(out, x.Ref)
		}
	})
	return out
}

// ParamRefs returns every parameter key referenced inside the argument.
func (a Argument) ParamRefs() []string {
	var out []string
	a.walk(func(x Argument) {
		if x.Kind == ArgParam {
			out = append(out, x.Ref)
		}
	})
	return out
}

// AccountRefs returns every account index referenced inside the argument.
func (a Argument) AccountRefs() []int {
	var out []int
	a.walk(func(x Argument) {
		if x.Kind == ArgAccount {
			out = append(out, x.Index)
		}
	})
	return out
}

// IsResolved reports whether the argument contains no references.
func (a Argument) IsResolved() bool {
	resolved := true
	a.walk(func(x Argument) {
		if x.Kind == ArgStep || x.Kind == ArgAccount || x.Kind == ArgParam {
			resolved = false
		}
	})
	return resolved
}

func (a Argument) walk(fn func(Argument)) {
	fn(a)
	for _, item := range a.Items {
		item.walk(fn)
	}
	for _, f := range a.Fields {
		f.Value.walk(fn)
	}
}

// Substitute returns a copy of the argument where every reference has
// been replaced by the result of fn. Literals are returned unchanged.
func (a Argument) Substitute(fn func(ref Argument) (Argument, error)) (Argument, error) {
	switch a.Kind {
	case ArgStep, ArgAccount, ArgParam:
		return fn(a)
	case ArgList:
		items := make([]Argument, len(a.Items))
		for i, item := range a.Items {
			s, err := item.Substitute(fn)
			if err != nil {
				return Argument{}, err
			}
			items[i] = s
		}
		return List(items...), nil
	case ArgTuple:
		fields := make([]TupleField, len(a.Fields))
		for i, f := range a.Fields {
			s, err := f.Value.Substitute(fn)
			if err != nil {
				return Argument{}, err
			}
			fields[i] = TupleField{Name: f.Name, Value: s}
		}
		return Tuple(fields...), nil
	default:
		return a, nil
	}
}

// String renders the argument for plans and logs.
func (a Argument) String() string {
	switch a.Kind {
	case ArgLiteral:
		switch v := a.Value.(type) {
		case string:
			return fmt.Sprintf("%q", v)
		case *big.Int:
			return v.String()
		default:
			return fmt.Sprintf("%v", v)
		}
	case ArgStep:
		return "step(" + a.Ref + ")"
	case ArgAccount:
		return fmt.Sprintf("account(%d)", a.Index)
	case ArgParam:
		return "param(" + a.Ref + ")"
	case ArgList:
		parts := make([]string, len(a.Items))
		for i, item := range a.Items {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ArgTuple:
		parts := make([]string, len(a.Fields))
		for i, f := range a.Fields {
			if f.Name != "" {
				parts[i] = f.Name + ": " + f.Value.String()
			} else {
				parts[i] = f.Value.String()
			}
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return a.Kind.String()
	}
}

// sortedUnique returns the distinct strings of in, sorted.
func sortedUnique(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
