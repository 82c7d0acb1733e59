package host

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/matchstick-go/templates"
	"github.com/0xmhha/matchstick-go/types"
)

func TestDataSourceDefaults(t *testing.T) {
	c, out := newTestContext(t)

	assert.Equal(t, common.Address{}.Bytes(), c.DataSourceAddress())
	assert.Contains(t, out.String(), "No mocked Eth address or Ipfs CID found, so fallback to Eth Zero address")
	assert.Equal(t, "mainnet", c.DataSourceNetwork())
	assert.Empty(t, c.DataSourceContext())
}

func TestDataSourceReturnValues(t *testing.T) {
	c, _ := newTestContext(t)
	ctx := types.Entity{"tokenId": types.String("1")}

	tests := []struct {
		name    string
		address string
		want    []byte
	}{
		{"ethereum address", "0xa16081f360e3847006db660bae1c6d1b2e17ec2a", common.HexToAddress("0xa16081f360e3847006db660bae1c6d1b2e17ec2a").Bytes()},
		{"explicit zero address", "0x0000000000000000000000000000000000000000", make([]byte, common.AddressLength)},
		{"ipfs cid", "QmaXzZhcYnsisuue5WRdQDH6FDvqkLQX1NckLqBYeYYEfm", []byte("QmaXzZhcYnsisuue5WRdQDH6FDvqkLQX1NckLqBYeYYEfm")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.SetDataSourceReturnValues(tt.address, "goerli", ctx)
			assert.Equal(t, tt.want, c.DataSourceAddress())
			assert.Equal(t, "goerli", c.DataSourceNetwork())
		})
	}

	got := c.DataSourceContext()
	assert.True(t, got.Equal(ctx))
	got["tokenId"] = types.String("2")
	assert.Equal(t, "1", c.DataSourceContext()["tokenId"].String())
}

func TestDataSourceCreate(t *testing.T) {
	c, _ := newTestContext(t)

	err := c.DataSourceCreate("Unknown", []string{"0x01"})
	require.Error(t, err)
	assert.True(t, types.IsFatal(err))
	assert.ErrorIs(t, err, templates.ErrUnknownTemplate)

	ctx := types.Entity{"contextVal": types.Int(325)}
	require.NoError(t, c.DataSourceCreateWithContext("GravatarMetadata", []string{"QmHash"}, ctx))
	instances, ok := c.Templates().Instances("GravatarMetadata")
	require.True(t, ok)
	require.Len(t, instances, 1)
	assert.Equal(t, "file/ipfs", instances[0].Kind)
	assert.True(t, instances[0].Context.Equal(ctx))
}
