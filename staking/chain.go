package staking

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/yumprotocol/yumstake-monitoring/params"
)

//GasOptions optional caller supplied gas overrides, zero values mean
//the node/wallet default applies
type GasOptions struct {
	GasLimit             uint64   `json:"gas_limit"`
	MaxFeePerGas         *big.Int `json:"max_fee_per_gas"`
	MaxPriorityFeePerGas *big.Int `json:"max_priority_fee_per_gas"`
}

//WithGasMargin add the configured safety margin over a simulated estimate
func WithGasMargin(estimate uint64) uint64 {
	return estimate * uint64(100+params.GasMarginPercent) / 100
}

//PendingTx a transaction accepted by the node, Wait blocks until it is
//mined and fails when the receipt reports a revert
type PendingTx interface {
	Hash() common.Hash
	Wait(ctx context.Context) error
}

/*
Chain is everything the lifecycle controller needs from the two
contracts. chainservice implements it against a real node, tests
implement it in memory.
*/
type Chain interface {
	//Account the connected wallet, false while none is unlocked
	Account() (common.Address, bool)

	//read side, token
	Decimals(ctx context.Context) (uint8, error)
	TokenBalance(ctx context.Context, account common.Address) (*big.Int, error)
	Allowance(ctx context.Context, owner common.Address) (*big.Int, error)

	//read side, vault
	VaultBalance(ctx context.Context, account common.Address) (*big.Int, error)
	VaultTotalSupply(ctx context.Context) (*big.Int, error)
	PendingRequests(ctx context.Context, account common.Address) ([]UnstakingRequest, error)
	CooldownPeriod(ctx context.Context) (time.Duration, error)
	ExchangeRate(ctx context.Context) (*big.Int, error)
	StakedAmount(ctx context.Context, account common.Address) (*big.Int, error)

	//pre flight dry runs, the returned estimate feeds the gas margin policy
	SimulateDeposit(ctx context.Context, assets *big.Int) (uint64, error)
	SimulateRequestRedeem(ctx context.Context, shares *big.Int) (uint64, error)

	//write side
	Approve(ctx context.Context, amount *big.Int, opts GasOptions) (PendingTx, error)
	Deposit(ctx context.Context, assets *big.Int, receiver common.Address, opts GasOptions) (PendingTx, error)
	RequestRedeem(ctx context.Context, shares *big.Int, opts GasOptions) (PendingTx, error)
	CancelRequest(ctx context.Context, id *big.Int, opts GasOptions) (PendingTx, error)
	Redeem(ctx context.Context, receiver, owner common.Address, id *big.Int, opts GasOptions) (PendingTx, error)
}
