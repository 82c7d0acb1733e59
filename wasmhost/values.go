package wasmhost

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/0xmhha/matchstick-go/abi"
	"github.com/0xmhha/matchstick-go/ethcall"
	"github.com/0xmhha/matchstick-go/types"
)

// BigInt values are little-endian two's complement byte arrays

func fromSignedLE(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i, c := range b {
		be[len(b)-1-i] = c
	}
	n := new(big.Int).SetBytes(be)
	if len(b) > 0 && b[len(b)-1]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(8*len(b))))
	}
	return n
}

func toSignedLE(n *big.Int) []byte {
	magnitude := n
	if n.Sign() < 0 {
		// -2^(8k-1) fits in k bytes
		magnitude = new(big.Int).Not(n)
	}
	size := magnitude.BitLen()/8 + 1

	v := new(big.Int).Set(n)
	if n.Sign() < 0 {
		v.Add(v, new(big.Int).Lsh(big.NewInt(1), uint(8*size)))
	}
	be := v.FillBytes(make([]byte, size))
	le := make([]byte, size)
	for i, c := range be {
		le[size-1-i] = c
	}
	return le
}

func (h *heap) readBigInt(ptr uint32) (*big.Int, error) {
	b, err := h.readTypedArray(ptr)
	if err != nil {
		return nil, err
	}
	return fromSignedLE(b), nil
}

func (h *heap) writeBigInt(ctx context.Context, n *big.Int) (uint32, error) {
	return h.writeTypedArray(ctx, idBigInt, toSignedLE(n))
}

// readBigDecimal reads a {digits, exp} decimal worth digits * 10^exp
func (h *heap) readBigDecimal(ptr uint32) (decimal.Decimal, error) {
	f, err := h.fields(ptr, 2)
	if err != nil {
		return decimal.Zero, err
	}
	digits, err := h.readBigInt(f[0])
	if err != nil {
		return decimal.Zero, err
	}
	exp, err := h.readBigInt(f[1])
	if err != nil {
		return decimal.Zero, err
	}
	if !exp.IsInt64() || exp.Int64() < math.MinInt32 || exp.Int64() > math.MaxInt32 {
		return decimal.Zero, fmt.Errorf("big decimal exponent %s out of range", exp)
	}
	return decimal.NewFromBigInt(digits, int32(exp.Int64())), nil
}

// decimalParts splits d into digits and a base-10 exponent with no
// trailing zeros in digits
func decimalParts(d decimal.Decimal) (*big.Int, int64) {
	digits := d.Coefficient()
	exp := int64(d.Exponent())
	if digits.Sign() == 0 {
		return digits, 0
	}
	ten := big.NewInt(10)
	q, r := new(big.Int), new(big.Int)
	for {
		q.QuoRem(digits, ten, r)
		if r.Sign() != 0 {
			break
		}
		digits.Set(q)
		exp++
	}
	return digits, exp
}

func (h *heap) writeBigDecimal(ctx context.Context, d decimal.Decimal) (uint32, error) {
	digits, exp := decimalParts(d)
	dp, err := h.writeBigInt(ctx, digits)
	if err != nil {
		return 0, err
	}
	ep, err := h.writeBigInt(ctx, big.NewInt(exp))
	if err != nil {
		return 0, err
	}
	return h.alloc(ctx, idBigDecimal, u32s(dp, ep))
}

func (h *heap) readStoreValue(ptr uint32) (types.Value, error) {
	kind, payload, err := h.readEnum(ptr)
	if err != nil {
		return types.Value{}, err
	}
	p := uint32(payload)

	switch kind {
	case storeString:
		s, err := h.readString(p)
		return types.String(s), err
	case storeInt:
		return types.Int(int32(uint32(payload))), nil
	case storeBigDecimal:
		f, err := h.readBigDecimal(p)
		if err != nil {
			return types.Value{}, err
		}
		return types.BigDecimal(f), nil
	case storeBool:
		return types.Bool(payload != 0), nil
	case storeArray:
		ptrs, err := h.readArray(p)
		if err != nil {
			return types.Value{}, err
		}
		elems := make([]types.Value, len(ptrs))
		for i, ep := range ptrs {
			if elems[i], err = h.readStoreValue(ep); err != nil {
				return types.Value{}, err
			}
		}
		return types.List(elems...), nil
	case storeNull:
		return types.Null(), nil
	case storeBytes:
		b, err := h.readTypedArray(p)
		return types.Bytes(b), err
	case storeBigInt:
		n, err := h.readBigInt(p)
		return types.BigInt(n), err
	case storeInt8:
		return types.Int8(int64(payload)), nil
	case storeTimestamp:
		return types.Timestamp(int64(payload)), nil
	}
	return types.Value{}, fmt.Errorf("unknown store value kind %d", kind)
}

func (h *heap) writeStoreValue(ctx context.Context, v types.Value) (uint32, error) {
	var (
		kind    uint32
		payload uint64
		ptr     uint32
		err     error
	)
	switch v.Kind() {
	case types.KindNull:
		kind = storeNull
	case types.KindString:
		s, _ := v.AsString()
		kind = storeString
		ptr, err = h.writeString(ctx, s)
	case types.KindInt:
		n, _ := v.AsInt()
		kind, payload = storeInt, uint64(uint32(int32(n)))
	case types.KindInt8:
		n, _ := v.AsInt()
		kind, payload = storeInt8, uint64(n)
	case types.KindTimestamp:
		n, _ := v.AsInt()
		kind, payload = storeTimestamp, uint64(n)
	case types.KindBool:
		b, _ := v.AsBool()
		kind = storeBool
		if b {
			payload = 1
		}
	case types.KindBytes:
		b, _ := v.AsBytes()
		kind = storeBytes
		ptr, err = h.writeBytes(ctx, b)
	case types.KindBigInt:
		n, _ := v.AsBigInt()
		kind = storeBigInt
		ptr, err = h.writeBigInt(ctx, n)
	case types.KindBigDecimal:
		f, _ := v.AsBigDecimal()
		kind = storeBigDecimal
		ptr, err = h.writeBigDecimal(ctx, f)
	case types.KindList:
		elems, _ := v.AsList()
		ptrs := make([]uint32, len(elems))
		for i, e := range elems {
			if ptrs[i], err = h.writeStoreValue(ctx, e); err != nil {
				return 0, err
			}
		}
		kind = storeArray
		ptr, err = h.writeArray(ctx, idArrayStoreValue, ptrs)
	default:
		return 0, fmt.Errorf("cannot write store value of kind %s", v.Kind())
	}
	if err != nil {
		return 0, err
	}
	if ptr != 0 {
		payload = uint64(ptr)
	}
	return h.writeEnum(ctx, idStoreValue, kind, payload)
}

// readEntity reads a TypedMap<string, Value>
func (h *heap) readEntity(ptr uint32) (types.Entity, error) {
	f, err := h.fields(ptr, 1)
	if err != nil {
		return nil, err
	}
	entries, err := h.readArray(f[0])
	if err != nil {
		return nil, err
	}
	e := make(types.Entity, len(entries))
	for _, ep := range entries {
		kv, err := h.fields(ep, 2)
		if err != nil {
			return nil, err
		}
		key, err := h.readString(kv[0])
		if err != nil {
			return nil, err
		}
		if e[key], err = h.readStoreValue(kv[1]); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// writeEntity writes e as a TypedMap<string, Value> with its fields in
// sorted order
func (h *heap) writeEntity(ctx context.Context, e types.Entity) (uint32, error) {
	fields := e.Fields()
	entries := make([]uint32, len(fields))
	for i, name := range fields {
		kp, err := h.writeString(ctx, name)
		if err != nil {
			return 0, err
		}
		vp, err := h.writeStoreValue(ctx, e[name])
		if err != nil {
			return 0, err
		}
		if entries[i], err = h.alloc(ctx, idTypedMapEntryStringStoreValue, u32s(kp, vp)); err != nil {
			return 0, err
		}
	}
	arr, err := h.writeArray(ctx, idArrayTypedMapEntryStringStoreValue, entries)
	if err != nil {
		return 0, err
	}
	return h.alloc(ctx, idTypedMapStringStoreValue, u32s(arr))
}

func (h *heap) writeEntities(ctx context.Context, es []types.Entity) (uint32, error) {
	ptrs := make([]uint32, len(es))
	for i, e := range es {
		p, err := h.writeEntity(ctx, e)
		if err != nil {
			return 0, err
		}
		ptrs[i] = p
	}
	return h.writeArray(ctx, idArrayTypedMapStringStoreValue, ptrs)
}

func (h *heap) readToken(ptr uint32) (abi.Token, error) {
	kind, payload, err := h.readEnum(ptr)
	if err != nil {
		return abi.Token{}, err
	}
	p := uint32(payload)

	switch kind {
	case ethAddress:
		b, err := h.readTypedArray(p)
		if err != nil {
			return abi.Token{}, err
		}
		if len(b) != common.AddressLength {
			return abi.Token{}, fmt.Errorf("address must be %d bytes, got %d", common.AddressLength, len(b))
		}
		return abi.NewAddress(common.BytesToAddress(b)), nil
	case ethFixedBytes:
		b, err := h.readTypedArray(p)
		return abi.NewFixedBytes(b), err
	case ethBytes:
		b, err := h.readTypedArray(p)
		return abi.NewBytes(b), err
	case ethInt, ethUint:
		n, err := h.readBigInt(p)
		if err != nil {
			return abi.Token{}, err
		}
		if kind == ethInt {
			return abi.NewInt(n), nil
		}
		return abi.NewUint(n), nil
	case ethBool:
		return abi.NewBool(payload != 0), nil
	case ethString:
		s, err := h.readString(p)
		return abi.NewString(s), err
	case ethFixedArray, ethArray, ethTuple:
		elems, err := h.readTokens(p)
		if err != nil {
			return abi.Token{}, err
		}
		switch kind {
		case ethFixedArray:
			return abi.NewFixedArray(elems...), nil
		case ethArray:
			return abi.NewArray(elems...), nil
		}
		return abi.NewTuple(elems...), nil
	}
	return abi.Token{}, fmt.Errorf("unknown ethereum value kind %d", kind)
}

func (h *heap) readTokens(ptr uint32) ([]abi.Token, error) {
	ptrs, err := h.readArray(ptr)
	if err != nil {
		return nil, err
	}
	out := make([]abi.Token, len(ptrs))
	for i, p := range ptrs {
		if out[i], err = h.readToken(p); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (h *heap) writeToken(ctx context.Context, t abi.Token) (uint32, error) {
	var (
		kind    uint32
		payload uint64
		ptr     uint32
		err     error
	)
	switch t.Kind {
	case abi.AddressToken:
		kind = ethAddress
		ptr, err = h.writeBytes(ctx, t.Address.Bytes())
	case abi.FixedBytesToken:
		kind = ethFixedBytes
		ptr, err = h.writeBytes(ctx, t.Bytes)
	case abi.BytesToken:
		kind = ethBytes
		ptr, err = h.writeBytes(ctx, t.Bytes)
	case abi.IntToken:
		kind = ethInt
		ptr, err = h.writeBigInt(ctx, t.Int)
	case abi.UintToken:
		kind = ethUint
		ptr, err = h.writeBigInt(ctx, t.Int)
	case abi.BoolToken:
		kind = ethBool
		if t.Bool {
			payload = 1
		}
	case abi.StringToken:
		kind = ethString
		ptr, err = h.writeString(ctx, t.Str)
	case abi.FixedArrayToken, abi.ArrayToken, abi.TupleToken:
		kind = map[abi.TokenKind]uint32{
			abi.FixedArrayToken: ethFixedArray,
			abi.ArrayToken:      ethArray,
			abi.TupleToken:      ethTuple,
		}[t.Kind]
		ptr, err = h.writeTokens(ctx, t.Elems)
	default:
		return 0, fmt.Errorf("cannot write ethereum value of kind %s", t.Kind)
	}
	if err != nil {
		return 0, err
	}
	if ptr != 0 {
		payload = uint64(ptr)
	}
	return h.writeEnum(ctx, idEthereumValue, kind, payload)
}

func (h *heap) writeTokens(ctx context.Context, ts []abi.Token) (uint32, error) {
	ptrs := make([]uint32, len(ts))
	for i, t := range ts {
		p, err := h.writeToken(ctx, t)
		if err != nil {
			return 0, err
		}
		ptrs[i] = p
	}
	return h.writeArray(ctx, idArrayEthereumValue, ptrs)
}

// readContractCall reads a SmartContractCall:
// {contractName, contractAddress, functionName, functionSignature, functionParams}
func (h *heap) readContractCall(ptr uint32) (ethcall.Call, error) {
	f, err := h.fields(ptr, 5)
	if err != nil {
		return ethcall.Call{}, err
	}
	addr, err := h.readTypedArray(f[1])
	if err != nil {
		return ethcall.Call{}, err
	}
	name, err := h.readString(f[2])
	if err != nil {
		return ethcall.Call{}, err
	}
	sig, err := h.readString(f[3])
	if err != nil {
		return ethcall.Call{}, err
	}
	args, err := h.readTokens(f[4])
	if err != nil {
		return ethcall.Call{}, err
	}
	return ethcall.Call{Address: common.BytesToAddress(addr), Name: name, Signature: sig, Args: args}, nil
}

// writeJSON writes a value produced by a json.Decoder with UseNumber as a
// JSONValue. Object members are written in sorted key order.
func (h *heap) writeJSON(ctx context.Context, v interface{}) (uint32, error) {
	var (
		kind    uint32
		payload uint64
		ptr     uint32
		err     error
	)
	switch v := v.(type) {
	case nil:
		kind = jsonNull
	case bool:
		kind = jsonBool
		if v {
			payload = 1
		}
	case json.Number:
		kind = jsonNumber
		ptr, err = h.writeString(ctx, v.String())
	case float64:
		kind = jsonNumber
		ptr, err = h.writeString(ctx, strconv.FormatFloat(v, 'f', -1, 64))
	case string:
		kind = jsonString
		ptr, err = h.writeString(ctx, v)
	case []interface{}:
		ptrs := make([]uint32, len(v))
		for i, e := range v {
			if ptrs[i], err = h.writeJSON(ctx, e); err != nil {
				return 0, err
			}
		}
		kind = jsonArray
		ptr, err = h.writeArray(ctx, idArrayJSONValue, ptrs)
	case map[string]interface{}:
		kind = jsonObject
		ptr, err = h.writeJSONObject(ctx, v)
	default:
		return 0, fmt.Errorf("cannot write JSON value of type %T", v)
	}
	if err != nil {
		return 0, err
	}
	if ptr != 0 {
		payload = uint64(ptr)
	}
	return h.writeEnum(ctx, idJSONValue, kind, payload)
}

func (h *heap) writeJSONObject(ctx context.Context, obj map[string]interface{}) (uint32, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]uint32, len(keys))
	for i, k := range keys {
		kp, err := h.writeString(ctx, k)
		if err != nil {
			return 0, err
		}
		vp, err := h.writeJSON(ctx, obj[k])
		if err != nil {
			return 0, err
		}
		if entries[i], err = h.alloc(ctx, idTypedMapEntryStringJSONValue, u32s(kp, vp)); err != nil {
			return 0, err
		}
	}
	arr, err := h.writeArray(ctx, idArrayTypedMapEntryStringJSONValue, entries)
	if err != nil {
		return 0, err
	}
	return h.alloc(ctx, idTypedMapStringJSONValue, u32s(arr))
}

// f64 reinterprets a float result for the wasm stack
func f64(f float64) uint64 { return math.Float64bits(f) }
