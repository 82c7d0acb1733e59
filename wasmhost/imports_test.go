package wasmhost

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"

	"github.com/0xmhha/matchstick-go/abi"
	"github.com/0xmhha/matchstick-go/host"
	"github.com/0xmhha/matchstick-go/schema"
	"github.com/0xmhha/matchstick-go/suite"
	"github.com/0xmhha/matchstick-go/types"
)

const gravatarSchema = `
type Gravatar @entity {
  id: ID!
  displayName: String!
}
`

func newStoreInstance(t *testing.T) *Instance {
	t.Helper()
	idx, err := schema.Parse("schema.graphql", gravatarSchema)
	require.NoError(t, err)
	return &Instance{heap: newTestHeap(t), host: host.New(host.Config{Schema: idx}, nil)}
}

func TestStoreImports(t *testing.T) {
	ctx := context.Background()
	inst := newStoreInstance(t)

	data, err := inst.heap.writeEntity(ctx, types.Entity{
		"id":          types.String("0x1"),
		"displayName": types.String("First"),
	})
	require.NoError(t, err)

	_, err = callHost(t, inst, "store.set", stringPtr(t, inst, "Gravatar"), stringPtr(t, inst, "0x1"), uint64(data))
	require.NoError(t, err)

	count, err := callHost(t, inst, "countEntities", stringPtr(t, inst, "Gravatar"))
	require.NoError(t, err)
	assert.Equal(t, int32(1), api.DecodeI32(count))

	ret, err := callHost(t, inst, "store.get", stringPtr(t, inst, "Gravatar"), stringPtr(t, inst, "0x1"))
	require.NoError(t, err)
	e, err := inst.heap.readEntity(api.DecodeU32(ret))
	require.NoError(t, err)
	assert.Equal(t, "First", e["displayName"].String())

	ret, err = callHost(t, inst, "store.get", stringPtr(t, inst, "Gravatar"), stringPtr(t, inst, "0x2"))
	require.NoError(t, err)
	assert.Zero(t, ret, "a missing entity is null")

	ok, err := callHost(t, inst, "_assert.fieldEquals",
		stringPtr(t, inst, "Gravatar"), stringPtr(t, inst, "0x1"),
		stringPtr(t, inst, "displayName"), stringPtr(t, inst, "First"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ok)

	_, err = callHost(t, inst, "store.remove", stringPtr(t, inst, "Gravatar"), stringPtr(t, inst, "0x1"))
	require.NoError(t, err)

	_, err = callHost(t, inst, "store.remove", stringPtr(t, inst, "Gravatar"), stringPtr(t, inst, "0x1"))
	require.Error(t, err)
	assert.False(t, types.IsFatal(err))
}

func TestStoreSetMissingFieldFails(t *testing.T) {
	ctx := context.Background()
	inst := newStoreInstance(t)

	data, err := inst.heap.writeEntity(ctx, types.Entity{"id": types.String("0x1")})
	require.NoError(t, err)

	_, err = callHost(t, inst, "store.set", stringPtr(t, inst, "Gravatar"), stringPtr(t, inst, "0x1"), uint64(data))
	require.Error(t, err)
	assert.False(t, types.IsFatal(err))
	assert.Contains(t, err.Error(), "displayName")
}

func TestEthereumCallImports(t *testing.T) {
	ctx := context.Background()
	inst := newStoreInstance(t)

	addr := common.HexToAddress("0x89205A3A3b2A69De6Dbf7f01ED13B2108B2c43e7")
	args := []abi.Token{abi.NewUint(big.NewInt(1))}
	argsPtr, err := inst.heap.writeTokens(ctx, args)
	require.NoError(t, err)
	retPtr, err := inst.heap.writeTokens(ctx, []abi.Token{abi.NewString("First")})
	require.NoError(t, err)

	fn, sig := "gravatarName", "gravatarName(uint256):(string)"
	_, err = callHost(t, inst, "mockFunction",
		bytesPtr(t, inst, addr.Bytes()), stringPtr(t, inst, fn), stringPtr(t, inst, sig),
		uint64(argsPtr), uint64(retPtr), 0)
	require.NoError(t, err)

	call := func(name string) (uint64, error) {
		p, err := inst.heap.alloc(ctx, 22, u32s(
			api.DecodeU32(stringPtr(t, inst, "Gravity")),
			api.DecodeU32(bytesPtr(t, inst, addr.Bytes())),
			api.DecodeU32(stringPtr(t, inst, name)),
			api.DecodeU32(stringPtr(t, inst, sig)),
			argsPtr,
		))
		require.NoError(t, err)
		return callHost(t, inst, "ethereum.call", uint64(p))
	}

	ret, err := call(fn)
	require.NoError(t, err)
	values, err := inst.heap.readTokens(api.DecodeU32(ret))
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "First", values[0].Str)

	_, err = call("gravatarOwner")
	require.Error(t, err)
	assert.True(t, types.IsFatal(err), "an unmocked call is fatal")

	_, err = callHost(t, inst, "mockFunction",
		bytesPtr(t, inst, addr.Bytes()), stringPtr(t, inst, fn), stringPtr(t, inst, sig),
		uint64(argsPtr), uint64(retPtr), 1)
	require.NoError(t, err)
	ret, err = call(fn)
	require.NoError(t, err)
	assert.Zero(t, ret, "a reverted call is null")
}

func TestRegistrationImports(t *testing.T) {
	inst := newStoreInstance(t)

	_, err := callHost(t, inst, "_registerDescribe", stringPtr(t, inst, "Gravatar"), 3)
	require.NoError(t, err)
	_, err = callHost(t, inst, "_registerHook", 4, stringPtr(t, inst, "beforeEach"))
	require.NoError(t, err)

	assert.Equal(t, []suite.Registration{
		{Name: "Gravatar", FuncIndex: 3, Role: suite.RoleDescribe},
		{FuncIndex: 4, Role: suite.RoleBeforeEach},
	}, inst.Registrations())
}

func TestDataSourceImports(t *testing.T) {
	ctx := context.Background()
	inst := newStoreInstance(t)

	dsCtx, err := inst.heap.writeEntity(ctx, types.Entity{"owner": types.String("0xabc")})
	require.NoError(t, err)
	_, err = callHost(t, inst, "dataSourceMock.setReturnValues",
		stringPtr(t, inst, "0x90cba2bbb19ecc291a12066fd8329d65fa1f1947"), stringPtr(t, inst, "goerli"), uint64(dsCtx))
	require.NoError(t, err)

	ret, err := callHost(t, inst, "dataSource.network")
	require.NoError(t, err)
	network, err := inst.heap.readString(api.DecodeU32(ret))
	require.NoError(t, err)
	assert.Equal(t, "goerli", network)

	ret, err = callHost(t, inst, "dataSource.address")
	require.NoError(t, err)
	addr, err := inst.heap.readTypedArray(api.DecodeU32(ret))
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x90cba2bbb19ecc291a12066fd8329d65fa1f1947").Bytes(), addr)

	ret, err = callHost(t, inst, "dataSource.context")
	require.NoError(t, err)
	e, err := inst.heap.readEntity(api.DecodeU32(ret))
	require.NoError(t, err)
	assert.Equal(t, "0xabc", e["owner"].String())
}

func TestLogImport(t *testing.T) {
	inst := newStoreInstance(t)

	_, err := callHost(t, inst, "log.log", 3, stringPtr(t, inst, "hello"))
	assert.NoError(t, err)

	_, err = callHost(t, inst, "log.log", 0, stringPtr(t, inst, "boom"))
	require.Error(t, err)
	assert.True(t, types.IsFatal(err))
}
