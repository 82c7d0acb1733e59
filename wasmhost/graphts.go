package wasmhost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"github.com/tetratelabs/wazero/api"

	"github.com/0xmhha/matchstick-go/types"
)

var errDivisionByZero = errors.New("attempted to divide by zero")

func (i *Instance) bytesArg(args []uint64, pos int) ([]byte, error) {
	return i.heap.readTypedArray(arg32(args, pos))
}

func (i *Instance) bigIntArg(args []uint64, pos int) (*big.Int, error) {
	return i.heap.readBigInt(arg32(args, pos))
}

func (i *Instance) bigDecimalArg(args []uint64, pos int) (decimal.Decimal, error) {
	return i.heap.readBigDecimal(arg32(args, pos))
}

func (i *Instance) returnString(ctx context.Context, s string) (uint64, error) {
	p, err := i.heap.writeString(ctx, s)
	return uint64(p), err
}

func (i *Instance) returnBytes(ctx context.Context, b []byte) (uint64, error) {
	p, err := i.heap.writeBytes(ctx, b)
	return uint64(p), err
}

func (i *Instance) returnBigInt(ctx context.Context, n *big.Int) (uint64, error) {
	p, err := i.heap.writeBigInt(ctx, n)
	return uint64(p), err
}

func (i *Instance) returnBigDecimal(ctx context.Context, d decimal.Decimal) (uint64, error) {
	p, err := i.heap.writeBigDecimal(ctx, d)
	return uint64(p), err
}

// bytesToString decodes UTF-8 lossily and drops trailing NUL characters
func bytesToString(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
	b, err := inst.bytesArg(args, 0)
	if err != nil {
		return 0, err
	}
	s := strings.TrimRight(strings.ToValidUTF8(string(b), "�"), "\x00")
	return inst.returnString(ctx, s)
}

func bytesToHex(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
	b, err := inst.bytesArg(args, 0)
	if err != nil {
		return 0, err
	}
	return inst.returnString(ctx, hexutil.Encode(b))
}

func bigIntToString(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
	n, err := inst.bigIntArg(args, 0)
	if err != nil {
		return 0, err
	}
	return inst.returnString(ctx, n.String())
}

func bigIntToHex(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
	n, err := inst.bigIntArg(args, 0)
	if err != nil {
		return 0, err
	}
	return inst.returnString(ctx, hexutil.EncodeBig(n))
}

func stringToH160(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
	s, err := inst.heap.readString(arg32(args, 0))
	if err != nil {
		return 0, err
	}
	if !common.IsHexAddress(s) {
		return 0, fmt.Errorf("Failed to convert string to Address/H160: '%s'", s)
	}
	return inst.returnBytes(ctx, common.HexToAddress(s).Bytes())
}

func bytesToBase58(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
	b, err := inst.bytesArg(args, 0)
	if err != nil {
		return 0, err
	}
	return inst.returnString(ctx, base58.Encode(b))
}

func keccak256(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
	b, err := inst.bytesArg(args, 0)
	if err != nil {
		return 0, err
	}
	return inst.returnBytes(ctx, crypto.Keccak256(b))
}

func jsonFromBytes(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
	b, err := inst.bytesArg(args, 0)
	if err != nil {
		return 0, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return 0, fmt.Errorf("failed to parse JSON: %w", err)
	}
	p, err := inst.heap.writeJSON(ctx, v)
	return uint64(p), err
}

func jsonToI64(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	s, err := inst.heap.readString(arg32(args, 0))
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("JSON value is not an i64: %w", err)
	}
	return api.EncodeI64(n), nil
}

func jsonToU64(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	s, err := inst.heap.readString(arg32(args, 0))
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("JSON value is not a u64: %w", err)
	}
	return n, nil
}

func jsonToF64(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	s, err := inst.heap.readString(arg32(args, 0))
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("JSON value is not an f64: %w", err)
	}
	return f64(f), nil
}

func jsonToBigInt(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
	s, err := inst.heap.readString(arg32(args, 0))
	if err != nil {
		return 0, err
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return 0, fmt.Errorf("JSON value is not a big integer: %s", s)
	}
	return inst.returnBigInt(ctx, n)
}

type bigIntBinary func(x, y *big.Int) (*big.Int, error)

func bigIntOp(op bigIntBinary) hostFunc {
	return func(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
		x, err := inst.bigIntArg(args, 0)
		if err != nil {
			return 0, err
		}
		y, err := inst.bigIntArg(args, 1)
		if err != nil {
			return 0, err
		}
		z, err := op(x, y)
		if err != nil {
			return 0, err
		}
		return inst.returnBigInt(ctx, z)
	}
}

func bigIntPlus(x, y *big.Int) (*big.Int, error)  { return new(big.Int).Add(x, y), nil }
func bigIntMinus(x, y *big.Int) (*big.Int, error) { return new(big.Int).Sub(x, y), nil }
func bigIntTimes(x, y *big.Int) (*big.Int, error) { return new(big.Int).Mul(x, y), nil }
func bigIntBitOr(x, y *big.Int) (*big.Int, error) { return new(big.Int).Or(x, y), nil }

func bigIntBitAnd(x, y *big.Int) (*big.Int, error) { return new(big.Int).And(x, y), nil }

// bigIntDividedBy truncates toward zero
func bigIntDividedBy(x, y *big.Int) (*big.Int, error) {
	if y.Sign() == 0 {
		return nil, errDivisionByZero
	}
	return new(big.Int).Quo(x, y), nil
}

// bigIntMod takes the sign of the dividend
func bigIntMod(x, y *big.Int) (*big.Int, error) {
	if y.Sign() == 0 {
		return nil, errDivisionByZero
	}
	return new(big.Int).Rem(x, y), nil
}

func bigIntPow(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
	x, err := inst.bigIntArg(args, 0)
	if err != nil {
		return 0, err
	}
	exp := big.NewInt(int64(uint8(arg32(args, 1))))
	return inst.returnBigInt(ctx, new(big.Int).Exp(x, exp, nil))
}

func bigIntLeftShift(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
	x, err := inst.bigIntArg(args, 0)
	if err != nil {
		return 0, err
	}
	return inst.returnBigInt(ctx, new(big.Int).Lsh(x, uint(uint8(arg32(args, 1)))))
}

func bigIntRightShift(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
	x, err := inst.bigIntArg(args, 0)
	if err != nil {
		return 0, err
	}
	return inst.returnBigInt(ctx, new(big.Int).Rsh(x, uint(uint8(arg32(args, 1)))))
}

func bigIntFromString(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
	s, err := inst.heap.readString(arg32(args, 0))
	if err != nil {
		return 0, err
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return 0, fmt.Errorf("failed to parse BigInt from string: %s", s)
	}
	return inst.returnBigInt(ctx, n)
}

func bigIntDividedByDecimal(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
	x, err := inst.bigIntArg(args, 0)
	if err != nil {
		return 0, err
	}
	y, err := inst.bigDecimalArg(args, 1)
	if err != nil {
		return 0, err
	}
	z, err := bigDecimalDividedBy(decimal.NewFromBigInt(x, 0), y)
	if err != nil {
		return 0, err
	}
	return inst.returnBigDecimal(ctx, z)
}

type bigDecimalBinary func(x, y decimal.Decimal) (decimal.Decimal, error)

func bigDecimalOp(op bigDecimalBinary) hostFunc {
	return func(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
		x, err := inst.bigDecimalArg(args, 0)
		if err != nil {
			return 0, err
		}
		y, err := inst.bigDecimalArg(args, 1)
		if err != nil {
			return 0, err
		}
		z, err := op(x, y)
		if err != nil {
			return 0, err
		}
		return inst.returnBigDecimal(ctx, z)
	}
}

// decimalSignificantDigits bounds the precision of BigDecimal arithmetic results
const decimalSignificantDigits = 34

// adjustedExponent returns the power of ten of the most significant digit of d
func adjustedExponent(d decimal.Decimal) int64 {
	return int64(d.NumDigits()) + int64(d.Exponent()) - 1
}

// roundSignificant rounds d half-even to at most decimalSignificantDigits
// significant digits
func roundSignificant(d decimal.Decimal) decimal.Decimal {
	excess := d.NumDigits() - decimalSignificantDigits
	if d.IsZero() || excess <= 0 {
		return d
	}
	return d.RoundBank(-(d.Exponent() + int32(excess)))
}

func bigDecimalPlus(x, y decimal.Decimal) (decimal.Decimal, error) {
	return roundSignificant(x.Add(y)), nil
}

func bigDecimalMinus(x, y decimal.Decimal) (decimal.Decimal, error) {
	return roundSignificant(x.Sub(y)), nil
}

func bigDecimalTimes(x, y decimal.Decimal) (decimal.Decimal, error) {
	return roundSignificant(x.Mul(y)), nil
}

func bigDecimalDividedBy(x, y decimal.Decimal) (decimal.Decimal, error) {
	if y.IsZero() {
		return decimal.Zero, errDivisionByZero
	}
	if x.IsZero() {
		return decimal.Zero, nil
	}
	// two guard digits beyond the quotient's significant digits
	places := decimalSignificantDigits + 2 + adjustedExponent(y) - adjustedExponent(x)
	return roundSignificant(x.DivRound(y, int32(places))), nil
}

func bigDecimalEquals(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	x, err := inst.bigDecimalArg(args, 0)
	if err != nil {
		return 0, err
	}
	y, err := inst.bigDecimalArg(args, 1)
	if err != nil {
		return 0, err
	}
	return boolResult(x.Equal(y)), nil
}

func bigDecimalToString(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
	x, err := inst.bigDecimalArg(args, 0)
	if err != nil {
		return 0, err
	}
	return inst.returnString(ctx, types.BigDecimal(x).String())
}

func bigDecimalFromString(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
	s, err := inst.heap.readString(arg32(args, 0))
	if err != nil {
		return 0, err
	}
	v, err := types.ParseBigDecimal(s)
	if err != nil {
		return 0, err
	}
	d, _ := v.AsBigDecimal()
	return inst.returnBigDecimal(ctx, d)
}
