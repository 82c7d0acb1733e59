// Package abi implements the textual ABI type grammar used by contract-call
// mocks, the argument tokens those mocks are keyed by, and the structural
// check that binds the two together.
package abi

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/0xmhha/matchstick-go/types"
)

// TypeKind identifies the shape of an ABI type
type TypeKind uint8

const (
	AddressTy TypeKind = iota
	BoolTy
	BytesTy
	StringTy
	IntTy
	UintTy
	SliceTy      // T[]
	ArrayTy      // T[K]
	FixedBytesTy // bytesK
	TupleTy      // (T1,T2,...)
)

// Type is a parsed ABI type.
// Size is the bit width for IntTy/UintTy, the byte width for FixedBytesTy
// and the element count for ArrayTy.
type Type struct {
	Kind       TypeKind
	Size       int
	Elem       *Type
	Components []Type
}

var (
	intRe        = regexp.MustCompile(`^int\d+$`)
	uintRe       = regexp.MustCompile(`^uint\d+$`)
	sliceRe      = regexp.MustCompile(`\[\]$`)
	fixedBytesRe = regexp.MustCompile(`^bytes\d+$`)
	arrayRe      = regexp.MustCompile(`\[\d+\]$`)
	tupleRe      = regexp.MustCompile(`^\(.+\)$`)
)

// ParseType parses a single ABI type such as "uint256", "address[2]" or
// "(bool,(string,bytes32)[])". Malformed input is harness-fatal.
func ParseType(s string) (Type, error) {
	t := strings.TrimSpace(s)
	switch t {
	case "address":
		return Type{Kind: AddressTy}, nil
	case "bool":
		return Type{Kind: BoolTy}, nil
	case "bytes":
		return Type{Kind: BytesTy}, nil
	case "string":
		return Type{Kind: StringTy}, nil
	}

	switch {
	case intRe.MatchString(t):
		size, err := strconv.Atoi(t[len("int"):])
		if err != nil {
			return Type{}, types.Fatalf("invalid int width in ABI type %q: %w", s, err)
		}
		return Type{Kind: IntTy, Size: size}, nil

	case uintRe.MatchString(t):
		size, err := strconv.Atoi(t[len("uint"):])
		if err != nil {
			return Type{}, types.Fatalf("invalid uint width in ABI type %q: %w", s, err)
		}
		return Type{Kind: UintTy, Size: size}, nil

	case sliceRe.MatchString(t):
		elem, err := ParseType(t[:len(t)-2])
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: SliceTy, Elem: &elem}, nil

	case fixedBytesRe.MatchString(t):
		size, err := strconv.Atoi(t[len("bytes"):])
		if err != nil {
			return Type{}, types.Fatalf("invalid bytes width in ABI type %q: %w", s, err)
		}
		return Type{Kind: FixedBytesTy, Size: size}, nil

	case arrayRe.MatchString(t):
		open := strings.LastIndex(t, "[")
		elem, err := ParseType(t[:open])
		if err != nil {
			return Type{}, err
		}
		size, err := strconv.Atoi(t[open+1 : len(t)-1])
		if err != nil {
			return Type{}, types.Fatalf("invalid array size in ABI type %q: %w", s, err)
		}
		return Type{Kind: ArrayTy, Size: size, Elem: &elem}, nil

	case tupleRe.MatchString(t):
		components, err := ParseTypes(t[1 : len(t)-1])
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: TupleTy, Components: components}, nil
	}

	return Type{}, types.Fatalf("unrecognized ABI type %q", s)
}

// ParseTypes parses a comma separated type list such as the parameter list
// of a function signature. A blank list has no types.
func ParseTypes(list string) ([]Type, error) {
	parts := SplitTypes(list)
	out := make([]Type, 0, len(parts))
	for _, p := range parts {
		t, err := ParseType(p)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// SplitTypes splits a type list on commas that are not nested inside
// parentheses, so "(a,b),c" yields ["(a,b)", "c"].
func SplitTypes(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}

	var (
		parts []string
		depth int
		start int
	)
	for i, r := range list {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, list[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, list[start:])
}

// String returns the canonical textual form of t
func (t Type) String() string {
	switch t.Kind {
	case AddressTy:
		return "address"
	case BoolTy:
		return "bool"
	case BytesTy:
		return "bytes"
	case StringTy:
		return "string"
	case IntTy:
		return "int" + strconv.Itoa(t.Size)
	case UintTy:
		return "uint" + strconv.Itoa(t.Size)
	case SliceTy:
		return t.Elem.String() + "[]"
	case ArrayTy:
		return t.Elem.String() + "[" + strconv.Itoa(t.Size) + "]"
	case FixedBytesTy:
		return "bytes" + strconv.Itoa(t.Size)
	case TupleTy:
		parts := make([]string, len(t.Components))
		for i, c := range t.Components {
			parts[i] = c.String()
		}
		return "(" + strings.Join(parts, ",") + ")"
	}
	return "unknown"
}
