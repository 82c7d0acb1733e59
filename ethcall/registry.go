// Package ethcall implements the contract-call mock registry: mocked
// ethereum.call results keyed by contract address, function and arguments.
package ethcall

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/0xmhha/matchstick-go/abi"
	"github.com/0xmhha/matchstick-go/types"
)

// Common errors
var (
	// ErrSignatureMismatch is matched by SignatureMismatchError
	ErrSignatureMismatch = errors.New("function name does not match signature")

	// ErrArityMismatch is matched by ArityMismatchError
	ErrArityMismatch = errors.New("argument count mismatch")

	// ErrParameterMismatch is matched by ParameterMismatchError
	ErrParameterMismatch = errors.New("argument type mismatch")

	// ErrUnmockedCall is wrapped by the fatal error returned for a call with no mock
	ErrUnmockedCall = errors.New("unmocked contract call")
)

// SignatureMismatchError is returned when the function name does not prefix the signature
type SignatureMismatchError struct {
	Name      string
	Signature string
}

func (e *SignatureMismatchError) Error() string {
	return fmt.Sprintf("createMockedFunction: function name `%s` should match the name in the function signature `%s`", e.Name, e.Signature)
}

func (e *SignatureMismatchError) Is(target error) bool { return target == ErrSignatureMismatch }

// ArityMismatchError is returned when the argument count differs from the signature
type ArityMismatchError struct {
	Name     string
	Expected int
	Received int
}

func (e *ArityMismatchError) Error() string {
	return fmt.Sprintf("%s expected %d arguments, but received %d", e.Name, e.Expected, e.Received)
}

func (e *ArityMismatchError) Is(target error) bool { return target == ErrArityMismatch }

// ParameterMismatchError is returned when an argument does not conform to
// its declared type. Position is 1-based.
type ParameterMismatchError struct {
	Name     string
	Position int
	Expected abi.Type
	Received abi.Token
}

func (e *ParameterMismatchError) Error() string {
	return fmt.Sprintf("createMockedFunction `%s` parameters mismatch at position %d:\nExpected: %s\nRecieved: %s(%s)\n",
		e.Name, e.Position, e.Expected, e.Received.Kind, e.Received)
}

func (e *ParameterMismatchError) Is(target error) bool { return target == ErrParameterMismatch }

// Call is a resolved ethereum.call request
type Call struct {
	Address   common.Address
	Name      string
	Signature string
	Args      []abi.Token
}

type entry struct {
	returns []abi.Token
	reverts bool
}

// Registry maps call identities to mocked results. It is not safe for
// concurrent use.
type Registry struct {
	mocks map[string]entry
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{mocks: make(map[string]entry)}
}

// Identity concatenates the contract address, function name, signature and
// the canonical form of every argument
func Identity(address common.Address, name, signature string, args []abi.Token) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(address.Hex()))
	b.WriteString(name)
	b.WriteString(signature)
	for _, a := range args {
		b.WriteString(a.String())
	}
	return b.String()
}

// ParamList extracts the parameter list of a signature such as
// "transfer(address,(uint256,bool)):(bool)", yielding "address,(uint256,bool)"
func ParamList(name, signature string) string {
	rest := strings.TrimPrefix(signature, name+"(")
	depth := 1
	for i, r := range rest {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return rest[:i]
			}
		}
	}
	return rest
}

// MockFunction registers the result of a contract call. The signature must
// start with name, the argument count must match the declared parameters
// and every argument must conform to its parameter type; on any mismatch
// nothing is registered. Malformed parameter types are harness-fatal.
// A later mock with the same identity replaces an earlier one.
func (r *Registry) MockFunction(address common.Address, name, signature string, args, returns []abi.Token, reverts bool) error {
	if before, _, _ := strings.Cut(signature, "("); before != name {
		return &SignatureMismatchError{Name: name, Signature: signature}
	}

	params, err := abi.ParseTypes(ParamList(name, signature))
	if err != nil {
		return err
	}
	if len(params) != len(args) {
		return &ArityMismatchError{Name: name, Expected: len(params), Received: len(args)}
	}

	for i, ty := range params {
		if !args[i].TypeCheck(ty) {
			return &ParameterMismatchError{Name: name, Position: i + 1, Expected: ty, Received: args[i]}
		}
	}

	id := Identity(address, name, signature, args)
	if reverts {
		r.mocks[id] = entry{reverts: true}
		return nil
	}
	r.mocks[id] = entry{returns: append([]abi.Token(nil), returns...)}
	return nil
}

// Call looks up the mocked result of c. A mocked revert yields reverted
// true and no values. A call with no mock is harness-fatal.
func (r *Registry) Call(c Call) (values []abi.Token, reverted bool, err error) {
	e, ok := r.mocks[Identity(c.Address, c.Name, c.Signature, c.Args)]
	if !ok {
		return nil, false, types.Fatalf("Could not find a mocked function with the following parameters, address: %s, name: %s, signature %s (selector %s), params: [%s]: %w",
			strings.ToLower(c.Address.Hex()), c.Name, c.Signature, Selector(c.Name, c.Signature), joinArgs(c.Args), ErrUnmockedCall)
	}
	if e.reverts {
		return nil, true, nil
	}
	return append([]abi.Token(nil), e.returns...), false, nil
}

// Len returns the number of registered mocks
func (r *Registry) Len() int { return len(r.mocks) }

// Snapshot returns a copy of the registered mocks
func (r *Registry) Snapshot() map[string]Result {
	out := make(map[string]Result, len(r.mocks))
	for id, e := range r.mocks {
		out[id] = Result{Values: append([]abi.Token(nil), e.returns...), Reverts: e.reverts}
	}
	return out
}

// Restore replaces the registered mocks with snap
func (r *Registry) Restore(snap map[string]Result) {
	r.mocks = make(map[string]entry, len(snap))
	for id, res := range snap {
		r.mocks[id] = entry{returns: append([]abi.Token(nil), res.Values...), reverts: res.Reverts}
	}
}

// Result is a registered mock as exposed by Snapshot
type Result struct {
	Values  []abi.Token
	Reverts bool
}

// Selector returns the 4-byte function selector of a signature in hex
func Selector(name, signature string) string {
	params, err := abi.ParseTypes(ParamList(name, signature))
	if err != nil {
		return "unknown"
	}
	canonical := make([]string, len(params))
	for i, t := range params {
		canonical[i] = t.String()
	}
	hash := crypto.Keccak256([]byte(name + "(" + strings.Join(canonical, ",") + ")"))
	return hexutil.Encode(hash[:4])
}

func joinArgs(args []abi.Token) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Kind.String() + "(" + a.String() + ")"
	}
	return strings.Join(parts, ", ")
}
