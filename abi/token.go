package abi

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/0xmhha/matchstick-go/types"
)

// tt256 is 2^256, the modulus of a 32-byte word
var tt256 = new(big.Int).Lsh(big.NewInt(1), 256)

// TokenKind identifies the runtime kind of a call argument or return value
type TokenKind uint8

const (
	AddressToken TokenKind = iota
	FixedBytesToken
	BytesToken
	IntToken
	UintToken
	BoolToken
	StringToken
	FixedArrayToken
	ArrayToken
	TupleToken
)

var tokenKindNames = [...]string{
	AddressToken:    "address",
	FixedBytesToken: "fixedBytes",
	BytesToken:      "bytes",
	IntToken:        "int",
	UintToken:       "uint",
	BoolToken:       "bool",
	StringToken:     "string",
	FixedArrayToken: "fixedArray",
	ArrayToken:      "array",
	TupleToken:      "tuple",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return "unknown"
}

// Token is a decoded contract-call argument or return value
type Token struct {
	Kind    TokenKind
	Address common.Address
	Bytes   []byte
	Int     *big.Int
	Bool    bool
	Str     string
	Elems   []Token
}

// NewAddress returns an address token
func NewAddress(a common.Address) Token { return Token{Kind: AddressToken, Address: a} }

// NewFixedBytes returns a fixed-width bytes token
func NewFixedBytes(b []byte) Token {
	return Token{Kind: FixedBytesToken, Bytes: append([]byte{}, b...)}
}

// NewBytes returns a dynamic bytes token
func NewBytes(b []byte) Token { return Token{Kind: BytesToken, Bytes: append([]byte{}, b...)} }

// NewInt returns a signed integer token
func NewInt(i *big.Int) Token { return Token{Kind: IntToken, Int: new(big.Int).Set(i)} }

// NewUint returns an unsigned integer token
func NewUint(i *big.Int) Token { return Token{Kind: UintToken, Int: new(big.Int).Set(i)} }

// NewBool returns a boolean token
func NewBool(b bool) Token { return Token{Kind: BoolToken, Bool: b} }

// NewString returns a string token
func NewString(s string) Token { return Token{Kind: StringToken, Str: s} }

// NewFixedArray returns a fixed-length array token
func NewFixedArray(elems ...Token) Token { return Token{Kind: FixedArrayToken, Elems: elems} }

// NewArray returns a dynamic array token
func NewArray(elems ...Token) Token { return Token{Kind: ArrayToken, Elems: elems} }

// NewTuple returns a tuple token
func NewTuple(elems ...Token) Token { return Token{Kind: TupleToken, Elems: elems} }

// IntFromWord decodes a 32-byte big-endian two's complement word as a signed integer
func IntFromWord(word []byte) *big.Int {
	x := new(big.Int).SetBytes(word)
	if x.Bit(255) == 1 {
		x.Sub(x, tt256)
	}
	return x
}

// UintFromWord decodes a 32-byte big-endian word as an unsigned integer
func UintFromWord(word []byte) *big.Int {
	return new(big.Int).SetBytes(word)
}

// Word encodes an integer as a 32-byte big-endian two's complement word
func Word(i *big.Int) []byte {
	return math.PaddedBigBytes(math.U256(new(big.Int).Set(i)), 32)
}

// TypeCheck reports whether t structurally conforms to ty. Integer widths
// are not compared. A fixed bytes token fits any fixed bytes type at least
// as wide as its payload.
func (t Token) TypeCheck(ty Type) bool {
	switch t.Kind {
	case AddressToken:
		return ty.Kind == AddressTy
	case BytesToken:
		return ty.Kind == BytesTy
	case IntToken:
		return ty.Kind == IntTy
	case UintToken:
		return ty.Kind == UintTy
	case BoolToken:
		return ty.Kind == BoolTy
	case StringToken:
		return ty.Kind == StringTy
	case FixedBytesToken:
		return ty.Kind == FixedBytesTy && ty.Size >= len(t.Bytes)
	case ArrayToken:
		if ty.Kind != SliceTy {
			return false
		}
		return allCheck(t.Elems, *ty.Elem)
	case FixedArrayToken:
		if ty.Kind != ArrayTy || ty.Size != len(t.Elems) {
			return false
		}
		return allCheck(t.Elems, *ty.Elem)
	case TupleToken:
		if ty.Kind != TupleTy || len(ty.Components) != len(t.Elems) {
			return false
		}
		for i, e := range t.Elems {
			if !e.TypeCheck(ty.Components[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func allCheck(elems []Token, ty Type) bool {
	for _, e := range elems {
		if !e.TypeCheck(ty) {
			return false
		}
	}
	return true
}

// String returns the canonical textual form of t. Call identities are built
// from this form, so it must be stable for equal tokens.
func (t Token) String() string {
	switch t.Kind {
	case AddressToken:
		return strings.ToLower(t.Address.Hex())
	case FixedBytesToken, BytesToken:
		return hexutil.Encode(t.Bytes)
	case IntToken, UintToken:
		if t.Int == nil {
			return "0"
		}
		return t.Int.String()
	case BoolToken:
		if t.Bool {
			return "true"
		}
		return "false"
	case StringToken:
		return t.Str
	case FixedArrayToken, ArrayToken:
		return "[" + joinTokens(t.Elems) + "]"
	case TupleToken:
		return "(" + joinTokens(t.Elems) + ")"
	}
	return ""
}

func joinTokens(elems []Token) string {
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = e.String()
	}
	return strings.Join(parts, ",")
}

// Equal reports whether t and o are the same kind with the same payload
func (t Token) Equal(o Token) bool {
	if t.Kind != o.Kind || len(t.Elems) != len(o.Elems) {
		return false
	}
	for i := range t.Elems {
		if !t.Elems[i].Equal(o.Elems[i]) {
			return false
		}
	}
	switch t.Kind {
	case FixedArrayToken, ArrayToken, TupleToken:
		return true
	}
	return t.String() == o.String()
}

// ToValue converts t to a store value: addresses and byte strings become
// Bytes, integers become BigInt, and sequences become List.
func (t Token) ToValue() types.Value {
	switch t.Kind {
	case AddressToken:
		return types.Bytes(t.Address.Bytes())
	case FixedBytesToken, BytesToken:
		return types.Bytes(t.Bytes)
	case IntToken, UintToken:
		return types.BigInt(t.Int)
	case BoolToken:
		return types.Bool(t.Bool)
	case StringToken:
		return types.String(t.Str)
	case FixedArrayToken, ArrayToken, TupleToken:
		elems := make([]types.Value, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = e.ToValue()
		}
		return types.List(elems...)
	}
	return types.Null()
}
