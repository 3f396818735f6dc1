package chainservice

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/labstack/gommon/log"

	"github.com/yumprotocol/yumstake-monitoring/staking"
)

/*
ChainService implements staking.Chain against a live node. Reads are
always fresh, the only cached value is the token's decimal exponent,
which is immutable contract metadata.
*/
type ChainService struct {
	client  *ethclient.Client
	key     *ecdsa.PrivateKey
	account common.Address
	chainID *big.Int

	token      *Token
	vaultToken *Token
	vault      *bind.BoundContract
	vaultABI   abi.ABI
	vaultAddr  common.Address

	mu             sync.Mutex
	decimals       uint8
	decimalsLoaded bool
}

//NewChainService create a chain service, key may be nil for a read only session
func NewChainService(client *ethclient.Client, key *ecdsa.PrivateKey, tokenAddr, vaultAddr common.Address) (*ChainService, error) {
	chainID, err := client.ChainID(context.Background())
	if err != nil {
		return nil, fmt.Errorf("cannot read chain id: %s", err)
	}
	erc20Parsed, err := abi.JSON(strings.NewReader(ERC20ABI))
	if err != nil {
		return nil, fmt.Errorf("erc20 abi: %s", err)
	}
	vaultParsed, err := abi.JSON(strings.NewReader(VaultABI))
	if err != nil {
		return nil, fmt.Errorf("vault abi: %s", err)
	}
	cs := &ChainService{
		client:     client,
		key:        key,
		chainID:    chainID,
		token:      newToken(tokenAddr, client, erc20Parsed),
		vaultToken: newToken(vaultAddr, client, erc20Parsed),
		vault:      bind.NewBoundContract(vaultAddr, vaultParsed, client, client, client),
		vaultABI:   vaultParsed,
		vaultAddr:  vaultAddr,
	}
	if key != nil {
		cs.account = crypto.PubkeyToAddress(key.PublicKey)
		log.Infof("chain service connected, account=%s chainid=%s", cs.account.Hex(), chainID)
	} else {
		log.Info("chain service connected without an account, writes disabled")
	}
	return cs, nil
}

//Account the connected wallet account
func (cs *ChainService) Account() (common.Address, bool) {
	return cs.account, cs.key != nil
}

//Decimals the token's decimal exponent, read once then cached
func (cs *ChainService) Decimals(ctx context.Context) (uint8, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.decimalsLoaded {
		return cs.decimals, nil
	}
	d, err := cs.token.Decimals(ctx)
	if err != nil {
		return 0, err
	}
	cs.decimals = d
	cs.decimalsLoaded = true
	return d, nil
}

//TokenBalance YUM balance of account
func (cs *ChainService) TokenBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	return cs.token.BalanceOf(ctx, account)
}

//Allowance YUM allowance of (owner, vault)
func (cs *ChainService) Allowance(ctx context.Context, owner common.Address) (*big.Int, error) {
	return cs.token.Allowance(ctx, owner, cs.vaultAddr)
}

//VaultBalance vYUM share balance of account
func (cs *ChainService) VaultBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	return cs.vaultToken.BalanceOf(ctx, account)
}

//VaultTotalSupply total vYUM supply
func (cs *ChainService) VaultTotalSupply(ctx context.Context) (*big.Int, error) {
	return cs.vaultToken.TotalSupply(ctx)
}

type vaultRequest struct {
	Id            *big.Int
	Shares        *big.Int
	TimeOfRequest *big.Int
	Status        uint8
}

//PendingRequests the account's pending redemption requests
func (cs *ChainService) PendingRequests(ctx context.Context, account common.Address) ([]staking.UnstakingRequest, error) {
	var out []interface{}
	err := cs.vault.Call(&bind.CallOpts{Context: ctx}, &out, "fetchRequests", account, uint8(staking.RequestPending))
	if err != nil {
		return nil, err
	}
	raw := *abi.ConvertType(out[0], new([]vaultRequest)).(*[]vaultRequest)
	requests := make([]staking.UnstakingRequest, 0, len(raw))
	for _, r := range raw {
		requests = append(requests, staking.UnstakingRequest{
			ID:            r.Id,
			Shares:        r.Shares,
			TimeOfRequest: time.Unix(r.TimeOfRequest.Int64(), 0),
			Status:        staking.RequestStatus(r.Status),
		})
	}
	return requests, nil
}

//CooldownPeriod the global cooldown applied to every pending request
func (cs *ChainService) CooldownPeriod(ctx context.Context) (time.Duration, error) {
	var out []interface{}
	err := cs.vault.Call(&bind.CallOpts{Context: ctx}, &out, "cooldownPeriod")
	if err != nil {
		return 0, err
	}
	seconds := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	return time.Duration(seconds.Int64()) * time.Second, nil
}

//ExchangeRate assets one scaled share unit converts to
func (cs *ChainService) ExchangeRate(ctx context.Context) (*big.Int, error) {
	decimals, err := cs.Decimals(ctx)
	if err != nil {
		return nil, err
	}
	oneShare := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	var out []interface{}
	err = cs.vault.Call(&bind.CallOpts{Context: ctx}, &out, "convertToAssets", oneShare)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

//StakedAmount the legacy staked principal read, the vault balance
//derivation is canonical and this value is only compared against it
func (cs *ChainService) StakedAmount(ctx context.Context, account common.Address) (*big.Int, error) {
	var out []interface{}
	err := cs.vault.Call(&bind.CallOpts{Context: ctx}, &out, "getStakedAmount", account)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

//SimulateDeposit dry run a deposit, returns the gas estimate
func (cs *ChainService) SimulateDeposit(ctx context.Context, assets *big.Int) (uint64, error) {
	input, err := cs.vaultABI.Pack("deposit", assets, cs.account)
	if err != nil {
		return 0, err
	}
	return cs.simulate(ctx, input)
}

//SimulateRequestRedeem dry run a requestRedeem, returns the gas estimate
func (cs *ChainService) SimulateRequestRedeem(ctx context.Context, shares *big.Int) (uint64, error) {
	input, err := cs.vaultABI.Pack("requestRedeem", shares)
	if err != nil {
		return 0, err
	}
	return cs.simulate(ctx, input)
}

func (cs *ChainService) simulate(ctx context.Context, input []byte) (uint64, error) {
	if cs.key == nil {
		return 0, errors.New("no account")
	}
	msg := ethereum.CallMsg{From: cs.account, To: &cs.vaultAddr, Data: input}
	// CallContract surfaces the revert reason, EstimateGas the cost
	if _, err := cs.client.CallContract(ctx, msg, nil); err != nil {
		return 0, err
	}
	return cs.client.EstimateGas(ctx, msg)
}

//Approve set the (account, vault) allowance on the token
func (cs *ChainService) Approve(ctx context.Context, amount *big.Int, opts staking.GasOptions) (staking.PendingTx, error) {
	auth, err := cs.transactOpts(ctx, opts)
	if err != nil {
		return nil, err
	}
	tx, err := cs.token.contract.Transact(auth, "approve", cs.vaultAddr, amount)
	if err != nil {
		return nil, err
	}
	log.Infof("approve submitted, amount=%s tx=%s", amount, tx.Hash().Hex())
	return &pendingTx{tx: tx, client: cs.client}, nil
}

//Deposit stake assets into the vault
func (cs *ChainService) Deposit(ctx context.Context, assets *big.Int, receiver common.Address, opts staking.GasOptions) (staking.PendingTx, error) {
	auth, err := cs.transactOpts(ctx, opts)
	if err != nil {
		return nil, err
	}
	tx, err := cs.vault.Transact(auth, "deposit", assets, receiver)
	if err != nil {
		return nil, err
	}
	log.Infof("deposit submitted, assets=%s tx=%s", assets, tx.Hash().Hex())
	return &pendingTx{tx: tx, client: cs.client}, nil
}

//RequestRedeem open a cooldown request for shares
func (cs *ChainService) RequestRedeem(ctx context.Context, shares *big.Int, opts staking.GasOptions) (staking.PendingTx, error) {
	auth, err := cs.transactOpts(ctx, opts)
	if err != nil {
		return nil, err
	}
	tx, err := cs.vault.Transact(auth, "requestRedeem", shares)
	if err != nil {
		return nil, err
	}
	log.Infof("requestRedeem submitted, shares=%s tx=%s", shares, tx.Hash().Hex())
	return &pendingTx{tx: tx, client: cs.client}, nil
}

//CancelRequest cancel a pending request by id
func (cs *ChainService) CancelRequest(ctx context.Context, id *big.Int, opts staking.GasOptions) (staking.PendingTx, error) {
	auth, err := cs.transactOpts(ctx, opts)
	if err != nil {
		return nil, err
	}
	tx, err := cs.vault.Transact(auth, "cancelRequest", id)
	if err != nil {
		return nil, err
	}
	log.Infof("cancelRequest submitted, id=%s tx=%s", id, tx.Hash().Hex())
	return &pendingTx{tx: tx, client: cs.client}, nil
}

//Redeem claim a matured request
func (cs *ChainService) Redeem(ctx context.Context, receiver, owner common.Address, id *big.Int, opts staking.GasOptions) (staking.PendingTx, error) {
	auth, err := cs.transactOpts(ctx, opts)
	if err != nil {
		return nil, err
	}
	tx, err := cs.vault.Transact(auth, "redeem", receiver, owner, id)
	if err != nil {
		return nil, err
	}
	log.Infof("redeem submitted, id=%s tx=%s", id, tx.Hash().Hex())
	return &pendingTx{tx: tx, client: cs.client}, nil
}

func (cs *ChainService) transactOpts(ctx context.Context, opts staking.GasOptions) (*bind.TransactOpts, error) {
	if cs.key == nil {
		return nil, errors.New("no account")
	}
	auth, err := bind.NewKeyedTransactorWithChainID(cs.key, cs.chainID)
	if err != nil {
		return nil, err
	}
	auth.Context = ctx
	// caller overrides are forwarded as-is, zero values keep node defaults
	if opts.GasLimit > 0 {
		auth.GasLimit = opts.GasLimit
	}
	if opts.MaxFeePerGas != nil {
		auth.GasFeeCap = opts.MaxFeePerGas
	}
	if opts.MaxPriorityFeePerGas != nil {
		auth.GasTipCap = opts.MaxPriorityFeePerGas
	}
	return auth, nil
}

type pendingTx struct {
	tx     *types.Transaction
	client *ethclient.Client
}

func (p *pendingTx) Hash() common.Hash {
	return p.tx.Hash()
}

//Wait block until mined, a receipt with a failed status is an error
func (p *pendingTx) Wait(ctx context.Context) error {
	receipt, err := bind.WaitMined(ctx, p.client, p.tx)
	if err != nil {
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return errors.New("tx execution failed")
	}
	return nil
}
