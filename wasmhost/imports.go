package wasmhost

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tetratelabs/wazero/api"

	"github.com/0xmhha/matchstick-go/types"
)

// hostFunc implements one guest import. args holds the raw wasm parameters;
// the returned value is ignored for imports without a result.
type hostFunc func(ctx context.Context, inst *Instance, args []uint64) (uint64, error)

// hostFuncs binds import names to their implementation. The import module
// name is not significant.
var hostFuncs = map[string]hostFunc{
	// test registration
	"_registerTest":     registerTest,
	"_registerDescribe": registerDescribe,
	"_registerHook":     registerHook,

	// assertions
	"_assert.fieldEquals":                 assertFieldEquals,
	"_assert.fieldEqualsWithMessage":      assertFieldEquals,
	"_assert.equals":                      assertEquals,
	"_assert.equalsWithMessage":           assertEquals,
	"_assert.notInStore":                  assertNotInStore,
	"_assert.notInStoreWithMessage":       assertNotInStore,
	"_assert.dataSourceCount":             assertDataSourceCount,
	"_assert.dataSourceCountWithMessage":  assertDataSourceCount,
	"_assert.dataSourceExists":            assertDataSourceExists,
	"_assert.dataSourceExistsWithMessage": assertDataSourceExists,

	// store
	"store.get":          storeGet,
	"store.get_in_block": storeGetInBlock,
	"store.loadRelated":  storeLoadRelated,
	"store.set":          storeSet,
	"store.remove":       storeRemove,
	"mockInBlockStore":   mockInBlockStore,
	"clearStore":         clearStore,
	"clearInBlockStore":  clearInBlockStore,
	"countEntities":      countEntities,
	"logStore":           logStore,
	"logEntity":          logEntity,

	// contract calls
	"mockFunction":  mockFunction,
	"ethereum.call": ethereumCall,

	// data sources
	"dataSource.create":              dataSourceCreate,
	"dataSource.createWithContext":   dataSourceCreateWithContext,
	"dataSource.address":             dataSourceAddress,
	"dataSource.network":             dataSourceNetwork,
	"dataSource.context":             dataSourceContext,
	"dataSourceMock.setReturnValues": dataSourceSetReturnValues,
	"logDataSources":                 logDataSources,

	// files
	"mockIpfsFile": mockIPFSFile,
	"ipfs.cat":     ipfsCat,
	"ipfs.map":     ipfsMap,
	"readFile":     readFile,

	// runtime
	"log.log": logLog,
	"abort":   abort,
	"gas":     gas,

	// graph-ts support
	"typeConversion.bytesToString":  bytesToString,
	"typeConversion.bytesToHex":     bytesToHex,
	"typeConversion.bigIntToString": bigIntToString,
	"typeConversion.bigIntToHex":    bigIntToHex,
	"typeConversion.stringToH160":   stringToH160,
	"typeConversion.bytesToBase58":  bytesToBase58,
	"crypto.keccak256":              keccak256,
	"json.fromBytes":                jsonFromBytes,
	"json.toI64":                    jsonToI64,
	"json.toU64":                    jsonToU64,
	"json.toF64":                    jsonToF64,
	"json.toBigInt":                 jsonToBigInt,
	"bigInt.plus":                   bigIntOp(bigIntPlus),
	"bigInt.minus":                  bigIntOp(bigIntMinus),
	"bigInt.times":                  bigIntOp(bigIntTimes),
	"bigInt.dividedBy":              bigIntOp(bigIntDividedBy),
	"bigInt.mod":                    bigIntOp(bigIntMod),
	"bigInt.bitOr":                  bigIntOp(bigIntBitOr),
	"bigInt.bitAnd":                 bigIntOp(bigIntBitAnd),
	"bigInt.pow":                    bigIntPow,
	"bigInt.leftShift":              bigIntLeftShift,
	"bigInt.rightShift":             bigIntRightShift,
	"bigInt.fromString":             bigIntFromString,
	"bigInt.dividedByDecimal":       bigIntDividedByDecimal,
	"bigDecimal.plus":               bigDecimalOp(bigDecimalPlus),
	"bigDecimal.minus":              bigDecimalOp(bigDecimalMinus),
	"bigDecimal.times":              bigDecimalOp(bigDecimalTimes),
	"bigDecimal.dividedBy":          bigDecimalOp(bigDecimalDividedBy),
	"bigDecimal.equals":             bigDecimalEquals,
	"bigDecimal.toString":           bigDecimalToString,
	"bigDecimal.fromString":         bigDecimalFromString,
}

// unsupported binds an import the harness does not implement. The module
// still links; calling the import is harness-fatal.
func unsupported(module, name string) hostFunc {
	return func(context.Context, *Instance, []uint64) (uint64, error) {
		return 0, types.Fatalf("host function `%s.%s` is not supported", module, name)
	}
}

func arg32(args []uint64, i int) uint32 { return api.DecodeU32(args[i]) }

func boolResult(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// strings reads the string arguments at the given positions
func (i *Instance) strings(args []uint64, positions ...int) ([]string, error) {
	out := make([]string, len(positions))
	for n, pos := range positions {
		s, err := i.heap.readString(arg32(args, pos))
		if err != nil {
			return nil, err
		}
		out[n] = s
	}
	return out, nil
}

// optionalString reads a string argument that may be null
func (i *Instance) optionalString(args []uint64, pos int) (*string, error) {
	if arg32(args, pos) == 0 {
		return nil, nil
	}
	s, err := i.heap.readString(arg32(args, pos))
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func registerTest(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	name, err := inst.heap.readString(arg32(args, 0))
	if err != nil {
		return 0, err
	}
	inst.host.RegisterTest(name, args[1] != 0, arg32(args, 2))
	return 0, nil
}

func registerDescribe(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	name, err := inst.heap.readString(arg32(args, 0))
	if err != nil {
		return 0, err
	}
	inst.host.RegisterDescribe(name, arg32(args, 1))
	return 0, nil
}

func registerHook(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	role, err := inst.heap.readString(arg32(args, 1))
	if err != nil {
		return 0, err
	}
	inst.host.RegisterHook(arg32(args, 0), role)
	return 0, nil
}

// The WithMessage variants take the message as their last argument

func assertFieldEquals(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	s, err := inst.strings(args, 0, 1, 2, 3)
	if err != nil {
		return 0, err
	}
	if len(args) > 4 {
		msg, err := inst.heap.readString(arg32(args, 4))
		if err != nil {
			return 0, err
		}
		return boolResult(inst.host.FieldEqualsWithMessage(s[0], s[1], s[2], s[3], msg)), nil
	}
	return boolResult(inst.host.FieldEquals(s[0], s[1], s[2], s[3])), nil
}

func assertEquals(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	expected, err := inst.heap.readToken(arg32(args, 0))
	if err != nil {
		return 0, err
	}
	actual, err := inst.heap.readToken(arg32(args, 1))
	if err != nil {
		return 0, err
	}
	if len(args) > 2 {
		msg, err := inst.heap.readString(arg32(args, 2))
		if err != nil {
			return 0, err
		}
		return boolResult(inst.host.EqualsWithMessage(expected, actual, msg)), nil
	}
	return boolResult(inst.host.Equals(expected, actual)), nil
}

func assertNotInStore(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	s, err := inst.strings(args, 0, 1)
	if err != nil {
		return 0, err
	}
	if len(args) > 2 {
		msg, err := inst.heap.readString(arg32(args, 2))
		if err != nil {
			return 0, err
		}
		return boolResult(inst.host.NotInStoreWithMessage(s[0], s[1], msg)), nil
	}
	return boolResult(inst.host.NotInStore(s[0], s[1])), nil
}

func assertDataSourceCount(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	template, err := inst.heap.readString(arg32(args, 0))
	if err != nil {
		return 0, err
	}
	expected := int(int32(arg32(args, 1)))
	if len(args) > 2 {
		msg, err := inst.heap.readString(arg32(args, 2))
		if err != nil {
			return 0, err
		}
		return boolResult(inst.host.DataSourceCountWithMessage(template, expected, msg)), nil
	}
	return boolResult(inst.host.DataSourceCount(template, expected)), nil
}

func assertDataSourceExists(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	s, err := inst.strings(args, 0, 1)
	if err != nil {
		return 0, err
	}
	if len(args) > 2 {
		msg, err := inst.heap.readString(arg32(args, 2))
		if err != nil {
			return 0, err
		}
		return boolResult(inst.host.DataSourceExistsWithMessage(s[0], s[1], msg)), nil
	}
	return boolResult(inst.host.DataSourceExists(s[0], s[1])), nil
}

func storeGet(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
	s, err := inst.strings(args, 0, 1)
	if err != nil {
		return 0, err
	}
	e, ok := inst.host.StoreGet(s[0], s[1])
	if !ok {
		return 0, nil
	}
	p, err := inst.heap.writeEntity(ctx, e)
	return uint64(p), err
}

func storeGetInBlock(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
	s, err := inst.strings(args, 0, 1)
	if err != nil {
		return 0, err
	}
	e, ok := inst.host.StoreGetInBlock(s[0], s[1])
	if !ok {
		return 0, nil
	}
	p, err := inst.heap.writeEntity(ctx, e)
	return uint64(p), err
}

func storeLoadRelated(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
	s, err := inst.strings(args, 0, 1, 2)
	if err != nil {
		return 0, err
	}
	p, err := inst.heap.writeEntities(ctx, inst.host.LoadRelated(s[0], s[1], s[2]))
	return uint64(p), err
}

func storeSet(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	s, err := inst.strings(args, 0, 1)
	if err != nil {
		return 0, err
	}
	data, err := inst.heap.readEntity(arg32(args, 2))
	if err != nil {
		return 0, err
	}
	return 0, inst.host.StoreSet(s[0], s[1], data)
}

func storeRemove(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	s, err := inst.strings(args, 0, 1)
	if err != nil {
		return 0, err
	}
	return 0, inst.host.StoreRemove(s[0], s[1])
}

func mockInBlockStore(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	s, err := inst.strings(args, 0, 1)
	if err != nil {
		return 0, err
	}
	data, err := inst.heap.readEntity(arg32(args, 2))
	if err != nil {
		return 0, err
	}
	return 0, inst.host.MockInBlockStore(s[0], s[1], data)
}

func clearStore(_ context.Context, inst *Instance, _ []uint64) (uint64, error) {
	inst.host.ClearStore()
	return 0, nil
}

func clearInBlockStore(_ context.Context, inst *Instance, _ []uint64) (uint64, error) {
	inst.host.ClearInBlockStore()
	return 0, nil
}

func countEntities(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	entityType, err := inst.heap.readString(arg32(args, 0))
	if err != nil {
		return 0, err
	}
	return api.EncodeI32(inst.host.CountEntities(entityType)), nil
}

func logStore(_ context.Context, inst *Instance, _ []uint64) (uint64, error) {
	return 0, inst.host.LogStore()
}

func logEntity(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	s, err := inst.strings(args, 0, 1)
	if err != nil {
		return 0, err
	}
	return 0, inst.host.LogEntity(s[0], s[1], args[2] != 0)
}

func mockFunction(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	addr, err := inst.heap.readTypedArray(arg32(args, 0))
	if err != nil {
		return 0, err
	}
	s, err := inst.strings(args, 1, 2)
	if err != nil {
		return 0, err
	}
	fnArgs, err := inst.heap.readTokens(arg32(args, 3))
	if err != nil {
		return 0, err
	}
	returns, err := inst.heap.readTokens(arg32(args, 4))
	if err != nil {
		return 0, err
	}
	return 0, inst.host.MockFunction(common.BytesToAddress(addr), s[0], s[1], fnArgs, returns, args[5] != 0)
}

// ethereumCall returns the mocked values, or null for a mocked revert
func ethereumCall(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
	call, err := inst.heap.readContractCall(arg32(args, 0))
	if err != nil {
		return 0, err
	}
	values, reverted, err := inst.host.EthereumCall(call)
	if err != nil || reverted {
		return 0, err
	}
	p, err := inst.heap.writeTokens(ctx, values)
	return uint64(p), err
}

func dataSourceCreate(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	name, err := inst.heap.readString(arg32(args, 0))
	if err != nil {
		return 0, err
	}
	params, err := inst.heap.readStrings(arg32(args, 1))
	if err != nil {
		return 0, err
	}
	return 0, inst.host.DataSourceCreate(name, params)
}

func dataSourceCreateWithContext(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	name, err := inst.heap.readString(arg32(args, 0))
	if err != nil {
		return 0, err
	}
	params, err := inst.heap.readStrings(arg32(args, 1))
	if err != nil {
		return 0, err
	}
	dsCtx, err := inst.heap.readEntity(arg32(args, 2))
	if err != nil {
		return 0, err
	}
	return 0, inst.host.DataSourceCreateWithContext(name, params, dsCtx)
}

func dataSourceAddress(ctx context.Context, inst *Instance, _ []uint64) (uint64, error) {
	p, err := inst.heap.writeBytes(ctx, inst.host.DataSourceAddress())
	return uint64(p), err
}

func dataSourceNetwork(ctx context.Context, inst *Instance, _ []uint64) (uint64, error) {
	p, err := inst.heap.writeString(ctx, inst.host.DataSourceNetwork())
	return uint64(p), err
}

func dataSourceContext(ctx context.Context, inst *Instance, _ []uint64) (uint64, error) {
	p, err := inst.heap.writeEntity(ctx, inst.host.DataSourceContext())
	return uint64(p), err
}

func dataSourceSetReturnValues(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	s, err := inst.strings(args, 0, 1)
	if err != nil {
		return 0, err
	}
	dsCtx, err := inst.heap.readEntity(arg32(args, 2))
	if err != nil {
		return 0, err
	}
	inst.host.SetDataSourceReturnValues(s[0], s[1], dsCtx)
	return 0, nil
}

func logDataSources(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	template, err := inst.heap.readString(arg32(args, 0))
	if err != nil {
		return 0, err
	}
	return 0, inst.host.LogDataSources(template)
}

func mockIPFSFile(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	s, err := inst.strings(args, 0, 1)
	if err != nil {
		return 0, err
	}
	inst.host.MockIPFSFile(s[0], s[1])
	return 0, nil
}

func ipfsCat(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
	hash, err := inst.heap.readString(arg32(args, 0))
	if err != nil {
		return 0, err
	}
	data, err := inst.host.IPFSCat(hash)
	if err != nil {
		return 0, err
	}
	p, err := inst.heap.writeBytes(ctx, data)
	return uint64(p), err
}

// ipfsMap ignores its flags argument
func ipfsMap(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
	s, err := inst.strings(args, 0, 1)
	if err != nil {
		return 0, err
	}
	userData, err := inst.heap.readStoreValue(arg32(args, 2))
	if err != nil {
		return 0, err
	}
	return 0, inst.host.IPFSMap(ctx, s[0], s[1], userData)
}

func readFile(ctx context.Context, inst *Instance, args []uint64) (uint64, error) {
	path, err := inst.heap.readString(arg32(args, 0))
	if err != nil {
		return 0, err
	}
	data, err := inst.host.ReadFile(path)
	if err != nil {
		return 0, err
	}
	p, err := inst.heap.writeBytes(ctx, data)
	return uint64(p), err
}

func logLog(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	msg, err := inst.heap.readString(arg32(args, 1))
	if err != nil {
		return 0, err
	}
	return 0, inst.host.Log(arg32(args, 0), msg)
}

// abort fails the running test. Message and file name may be null.
func abort(_ context.Context, inst *Instance, args []uint64) (uint64, error) {
	msg, err := inst.optionalString(args, 0)
	if err != nil {
		return 0, err
	}
	file, err := inst.optionalString(args, 1)
	if err != nil {
		return 0, err
	}
	message, fileName := "(unknown)", "(unknown)"
	if msg != nil {
		message = *msg
	}
	if file != nil {
		fileName = *file
	}
	return 0, fmt.Errorf("Mapping aborted at %s, line %d, column %d, with message: %s",
		fileName, arg32(args, 2), arg32(args, 3), message)
}

func gas(context.Context, *Instance, []uint64) (uint64, error) { return 0, nil }
