package chainservice

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

/*
Token is a generic ERC20 reader bound to one token address. The same
code path serves the YUM token and the vault share token, only the
address differs.
*/
type Token struct {
	addr     common.Address
	contract *bind.BoundContract
}

func newToken(addr common.Address, backend bind.ContractBackend, parsed abi.ABI) *Token {
	return &Token{
		addr:     addr,
		contract: bind.NewBoundContract(addr, parsed, backend, backend, backend),
	}
}

//Address the bound token address
func (t *Token) Address() common.Address {
	return t.addr
}

//BalanceOf read the token balance of account
func (t *Token) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	var out []interface{}
	err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

//Decimals read the token's decimal exponent
func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	var out []interface{}
	err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, "decimals")
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

//TotalSupply read the token's total supply
func (t *Token) TotalSupply(ctx context.Context) (*big.Int, error) {
	var out []interface{}
	err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, "totalSupply")
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

//Allowance read the (owner, spender) allowance
func (t *Token) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	var out []interface{}
	err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
