package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/matchstick-go/suite"
	"github.com/0xmhha/matchstick-go/types"
)

func TestRegistrations(t *testing.T) {
	c, _ := newTestContext(t)

	c.RegisterTest("handles new gravatar", false, 3)
	c.RegisterDescribe("Gravatar", 4)
	c.RegisterHook(5, "beforeEach")
	c.RegisterTest("throws", true, 6)

	assert.Equal(t, []suite.Registration{
		{Name: "handles new gravatar", FuncIndex: 3, Role: suite.RoleTest},
		{Name: "Gravatar", FuncIndex: 4, Role: suite.RoleDescribe},
		{FuncIndex: 5, Role: suite.RoleBeforeEach},
		{Name: "throws", ShouldFail: true, FuncIndex: 6, Role: suite.RoleTest},
	}, c.Registrations())

	regs := c.Registrations()
	regs[0].Name = "mutated"
	assert.Equal(t, "handles new gravatar", c.Registrations()[0].Name)
}

func TestLog(t *testing.T) {
	c, out := newTestContext(t)

	require.NoError(t, c.Log(3, "hello"))
	assert.Equal(t, "💬 hello\n", out.String())

	err := c.Log(0, "boom")
	require.Error(t, err)
	assert.True(t, types.IsFatal(err))
	assert.Contains(t, out.String(), "🆘 boom")

	err = c.Log(9, "unknown level")
	assert.True(t, types.IsFatal(err))
}

func TestStoreOperations(t *testing.T) {
	c, _ := newTestContext(t)

	require.NoError(t, c.StoreSet("Gravatar", "g1", gravatar("g1", "Cap")))
	got, ok := c.StoreGet("Gravatar", "g1")
	require.True(t, ok)
	assert.Equal(t, "Cap", got["displayName"].String())
	assert.Equal(t, int32(1), c.CountEntities("Gravatar"))

	_, ok = c.StoreGetInBlock("Gravatar", "g1")
	assert.False(t, ok)

	require.NoError(t, c.MockInBlockStore("Gravatar", "g2", gravatar("g2", "Block")))
	_, ok = c.StoreGetInBlock("Gravatar", "g2")
	assert.True(t, ok)
	assert.Equal(t, int32(1), c.CountEntities("Gravatar"), "the cache is not counted")

	require.NoError(t, c.StoreSet("Tag", "t1", types.Entity{"id": types.String("t1"), "gravatar": types.String("g1")}))
	related := c.LoadRelated("Gravatar", "g1", "tags")
	require.Len(t, related, 1)
	assert.Equal(t, "t1", related[0]["id"].String())

	err := c.StoreSet("Gravatar", "g3", types.Entity{"id": types.String("g3")})
	require.Error(t, err)
	assert.False(t, types.IsFatal(err))

	require.NoError(t, c.StoreRemove("Gravatar", "g1"))
	assert.Error(t, c.StoreRemove("Gravatar", "g1"))

	c.ClearInBlockStore()
	_, ok = c.StoreGetInBlock("Gravatar", "g2")
	assert.False(t, ok)

	c.ClearStore()
	assert.Equal(t, int32(0), c.CountEntities("Tag"))
}
