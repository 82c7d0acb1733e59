// Package types defines the store value model shared by the mock host environment.
package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

// Kind identifies the variant held by a Value
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindInt8
	KindBigDecimal
	KindBool
	KindList
	KindBytes
	KindBigInt
	KindTimestamp
)

var kindNames = [...]string{
	KindNull:       "Null",
	KindString:     "String",
	KindInt:        "Int",
	KindInt8:       "Int8",
	KindBigDecimal: "BigDecimal",
	KindBool:       "Bool",
	KindList:       "List",
	KindBytes:      "Bytes",
	KindBigInt:     "BigInt",
	KindTimestamp:  "Timestamp",
}

// String returns the variant name
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a tagged union of every value an entity field may hold.
// The zero Value is Null.
type Value struct {
	kind  Kind
	str   string
	num   int64
	flag  bool
	bytes []byte
	big   *big.Int
	dec   decimal.Decimal
	list  []Value
}

// Null returns the Null value
func Null() Value { return Value{} }

// String returns a String value
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int returns a 32-bit Int value
func Int(i int32) Value { return Value{kind: KindInt, num: int64(i)} }

// Int8 returns a 64-bit Int8 value
func Int8(i int64) Value { return Value{kind: KindInt8, num: i} }

// Timestamp returns a Timestamp value in microseconds since the epoch
func Timestamp(us int64) Value { return Value{kind: KindTimestamp, num: us} }

// Bool returns a Bool value
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// Bytes returns a Bytes value holding a copy of b
func Bytes(b []byte) Value {
	return Value{kind: KindBytes, bytes: append([]byte{}, b...)}
}

// BigInt returns a BigInt value holding a copy of i
func BigInt(i *big.Int) Value {
	if i == nil {
		i = new(big.Int)
	}
	return Value{kind: KindBigInt, big: new(big.Int).Set(i)}
}

// BigDecimal returns a BigDecimal value holding d
func BigDecimal(d decimal.Decimal) Value {
	return Value{kind: KindBigDecimal, dec: d}
}

// ParseBigDecimal parses a decimal string such as "12.50" or "-1e-3"
func ParseBigDecimal(s string) (Value, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Value{}, fmt.Errorf("invalid big decimal %q: %w", s, err)
	}
	return Value{kind: KindBigDecimal, dec: d}, nil
}

// List returns a List value of the given elements
func List(elems ...Value) Value {
	return Value{kind: KindList, list: append([]Value{}, elems...)}
}

// Kind returns the variant of v
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is Null
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the string held by a String value
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsBytes returns the bytes held by a Bytes value
func (v Value) AsBytes() ([]byte, bool) { return v.bytes, v.kind == KindBytes }

// AsInt returns the integer held by an Int, Int8 or Timestamp value
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt, KindInt8, KindTimestamp:
		return v.num, true
	}
	return 0, false
}

// AsBool returns the boolean held by a Bool value
func (v Value) AsBool() (bool, bool) { return v.flag, v.kind == KindBool }

// AsBigInt returns the integer held by a BigInt value
func (v Value) AsBigInt() (*big.Int, bool) {
	if v.kind != KindBigInt {
		return nil, false
	}
	return new(big.Int).Set(v.big), true
}

// AsBigDecimal returns the decimal held by a BigDecimal value
func (v Value) AsBigDecimal() (decimal.Decimal, bool) {
	if v.kind != KindBigDecimal {
		return decimal.Zero, false
	}
	return v.dec, true
}

// AsList returns the elements of a List value
func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

// String returns the canonical string form of v. Identity comparisons
// (entity ids, call argument keys, assertion values) use this form.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindString:
		return v.str
	case KindInt, KindInt8, KindTimestamp:
		return strconv.FormatInt(v.num, 10)
	case KindBigDecimal:
		return v.dec.String()
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindBytes:
		return hexutil.Encode(v.bytes)
	case KindBigInt:
		return v.big.String()
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return ""
}

// Equal reports whether v and o hold the same variant and value
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindBigInt:
		return v.big.Cmp(o.big) == 0
	case KindBigDecimal:
		return v.dec.Equal(o.dec)
	}
	return v.String() == o.String()
}

// Clone returns a deep copy of v
func (v Value) Clone() Value {
	switch v.kind {
	case KindBytes:
		return Bytes(v.bytes)
	case KindBigInt:
		return BigInt(v.big)
	case KindBigDecimal:
		return BigDecimal(v.dec)
	case KindList:
		elems := make([]Value, len(v.list))
		for i, e := range v.list {
			elems[i] = e.Clone()
		}
		return Value{kind: KindList, list: elems}
	}
	return v
}

// MarshalJSON encodes v as {"type": <kind>, "data": <value>}
func (v Value) MarshalJSON() ([]byte, error) {
	var data interface{}
	switch v.kind {
	case KindNull:
		data = nil
	case KindBool:
		data = v.flag
	case KindInt, KindInt8, KindTimestamp:
		data = v.num
	case KindList:
		data = v.list
	default:
		data = v.String()
	}
	return json.Marshal(struct {
		Type string      `json:"type"`
		Data interface{} `json:"data"`
	}{Type: v.kind.String(), Data: data})
}

// Entity is a record of field name to value
type Entity map[string]Value

// ID returns the string form of the entity's id field, if present
func (e Entity) ID() (string, bool) {
	v, ok := e["id"]
	if !ok || v.IsNull() {
		return "", false
	}
	return v.String(), true
}

// Clone returns a deep copy of e
func (e Entity) Clone() Entity {
	if e == nil {
		return nil
	}
	out := make(Entity, len(e))
	for k, v := range e {
		out[k] = v.Clone()
	}
	return out
}

// Equal reports whether e and o hold the same fields with equal values
func (e Entity) Equal(o Entity) bool {
	if len(e) != len(o) {
		return false
	}
	for k, v := range e {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Fields returns the entity's field names in sorted order
func (e Entity) Fields() []string {
	names := make([]string, 0, len(e))
	for k := range e {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
