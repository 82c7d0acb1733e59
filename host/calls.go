package host

import (
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/0xmhha/matchstick-go/abi"
	"github.com/0xmhha/matchstick-go/ethcall"
)

// MockFunction implements mockFunction
func (c *Context) MockFunction(address common.Address, name, signature string, args, returns []abi.Token, reverts bool) error {
	if err := c.calls.MockFunction(address, name, signature, args, returns, reverts); err != nil {
		return err
	}
	c.logger.Debug("contract call mocked",
		zap.Stringer("address", address),
		zap.String("signature", signature),
		zap.Bool("reverts", reverts),
	)
	return nil
}

// EthereumCall implements ethereum.call. reverted is true when the matching
// mock simulates a revert.
func (c *Context) EthereumCall(call ethcall.Call) (values []abi.Token, reverted bool, err error) {
	return c.calls.Call(call)
}
