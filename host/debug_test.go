package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/matchstick-go/types"
)

func TestLogStore(t *testing.T) {
	c, out := newTestContext(t)
	require.NoError(t, c.StoreSet("Gravatar", "g1", gravatar("g1", "Cap")))

	require.NoError(t, c.LogStore())
	got := out.String()
	assert.Contains(t, got, `"Gravatar": {`)
	assert.Contains(t, got, `"type": "String"`)
	assert.Contains(t, got, `"data": "Cap"`)
}

func TestLogEntity(t *testing.T) {
	c, out := newTestContext(t)
	require.NoError(t, c.StoreSet("Gravatar", "g1", gravatar("g1", "Cap")))
	require.NoError(t, c.StoreSet("Tag", "t1", types.Entity{"id": types.String("t1"), "gravatar": types.String("g1")}))

	require.NoError(t, c.LogEntity("Gravatar", "g1", false))
	assert.Contains(t, out.String(), `"displayName"`)
	assert.NotContains(t, out.String(), `"tags"`)

	out.Reset()
	require.NoError(t, c.LogEntity("Gravatar", "g1", true))
	assert.Contains(t, out.String(), `"tags": [`)
	assert.Contains(t, out.String(), `"data": "t1"`)

	err := c.LogEntity("Ghost", "g1", false)
	require.Error(t, err)
	assert.True(t, types.IsFatal(err))
	assert.Contains(t, err.Error(), `(logEntity) Entity "Ghost" does not match any of the schema definitions`)
}

func TestLogDataSources(t *testing.T) {
	c, out := newTestContext(t)
	require.NoError(t, c.DataSourceCreate("GraphTokenLockWallet", []string{"0xa16081f360e3847006db660bae1c6d1b2e17ec2a"}))

	require.NoError(t, c.LogDataSources("GraphTokenLockWallet"))
	got := out.String()
	assert.Contains(t, got, `"0xa16081f360e3847006db660bae1c6d1b2e17ec2a": {`)
	assert.Contains(t, got, `"kind": "ethereum/contract"`)
	assert.Contains(t, got, `"name": "GraphTokenLockWallet"`)

	err := c.LogDataSources("Unknown")
	assert.True(t, types.IsFatal(err))
}
