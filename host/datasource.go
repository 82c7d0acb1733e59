package host

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/0xmhha/matchstick-go/types"
)

// DefaultNetwork is returned by dataSource.network() until a test mocks it
const DefaultNetwork = "mainnet"

// zeroAddress is the textual zero address, accepted as an explicit mock
const zeroAddress = "0x0000000000000000000000000000000000000000"

// dataSourceValues are the mocked return values of dataSource.address(),
// dataSource.network() and dataSource.context()
type dataSourceValues struct {
	set     bool
	address string
	network string
	context types.Entity
}

func (d dataSourceValues) clone() dataSourceValues {
	d.context = d.context.Clone()
	return d
}

// SetDataSourceReturnValues implements dataSourceMock.setReturnValues
func (c *Context) SetDataSourceReturnValues(address, network string, ctx types.Entity) {
	c.dataSource = dataSourceValues{
		set:     true,
		address: address,
		network: network,
		context: ctx.Clone(),
	}
}

// DataSourceAddress implements dataSource.address. A mocked value that
// parses as a non-zero Ethereum address, or is exactly the zero address, is
// returned as 20 address bytes; any other value is treated as an IPFS CID
// and returned as its raw bytes. Without a mock the zero address is returned
// and an Error line is written.
func (c *Context) DataSourceAddress() []byte {
	if !c.dataSource.set {
		c.console.Error("No mocked Eth address or Ipfs CID found, so fallback to Eth Zero address")
		return common.Address{}.Bytes()
	}

	value := c.dataSource.address
	if common.IsHexAddress(value) {
		if addr := common.HexToAddress(value); addr != (common.Address{}) || value == zeroAddress {
			return addr.Bytes()
		}
	}
	return []byte(value)
}

// DataSourceNetwork implements dataSource.network
func (c *Context) DataSourceNetwork() string {
	if !c.dataSource.set {
		return DefaultNetwork
	}
	return c.dataSource.network
}

// DataSourceContext implements dataSource.context
func (c *Context) DataSourceContext() types.Entity {
	if !c.dataSource.set || c.dataSource.context == nil {
		return types.Entity{}
	}
	return c.dataSource.context.Clone()
}

// DataSourceCreate implements dataSource.create
func (c *Context) DataSourceCreate(name string, params []string) error {
	return c.templates.Create(name, params, nil)
}

// DataSourceCreateWithContext implements dataSource.createWithContext
func (c *Context) DataSourceCreateWithContext(name string, params []string, ctx types.Entity) error {
	return c.templates.Create(name, params, ctx)
}
