package staking

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	hash    common.Hash
	waitErr error
	waitCh  chan struct{}
}

func (t *fakeTx) Hash() common.Hash { return t.hash }
func (t *fakeTx) Wait(ctx context.Context) error {
	if t.waitCh != nil {
		<-t.waitCh
	}
	return t.waitErr
}

type fakeChain struct {
	mu sync.Mutex

	account   common.Address
	connected bool

	decimals    uint8
	decimalsErr error

	balance      *big.Int
	allowance    *big.Int
	vaultBalance *big.Int
	totalSupply  *big.Int
	rate         *big.Int
	staked       *big.Int
	stakedErr    error
	pending      []UnstakingRequest
	cooldown     time.Duration

	estimate    uint64
	simulateErr error

	waitErr error
	waitCh  chan struct{}

	calls   []string
	lastGas GasOptions
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		account:      common.HexToAddress("0x1111111111111111111111111111111111111111"),
		connected:    true,
		decimals:     0,
		balance:      big.NewInt(1000),
		allowance:    big.NewInt(1000),
		vaultBalance: big.NewInt(500),
		totalSupply:  big.NewInt(10000),
		rate:         big.NewInt(1),
		staked:       big.NewInt(500),
		cooldown:     7 * 24 * time.Hour,
		estimate:     100000,
	}
}

func (f *fakeChain) called(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeChain) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeChain) tx(name string) *fakeTx {
	f.called(name)
	return &fakeTx{hash: common.BytesToHash([]byte(name)), waitErr: f.waitErr, waitCh: f.waitCh}
}

func (f *fakeChain) Account() (common.Address, bool) { return f.account, f.connected }
func (f *fakeChain) Decimals(ctx context.Context) (uint8, error) {
	return f.decimals, f.decimalsErr
}
func (f *fakeChain) TokenBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	return f.balance, nil
}
func (f *fakeChain) Allowance(ctx context.Context, owner common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allowance, nil
}
func (f *fakeChain) VaultBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	return f.vaultBalance, nil
}
func (f *fakeChain) VaultTotalSupply(ctx context.Context) (*big.Int, error) {
	return f.totalSupply, nil
}
func (f *fakeChain) PendingRequests(ctx context.Context, account common.Address) ([]UnstakingRequest, error) {
	return f.pending, nil
}
func (f *fakeChain) CooldownPeriod(ctx context.Context) (time.Duration, error) {
	return f.cooldown, nil
}
func (f *fakeChain) ExchangeRate(ctx context.Context) (*big.Int, error) { return f.rate, nil }
func (f *fakeChain) StakedAmount(ctx context.Context, account common.Address) (*big.Int, error) {
	return f.staked, f.stakedErr
}
func (f *fakeChain) SimulateDeposit(ctx context.Context, assets *big.Int) (uint64, error) {
	f.called("simulate_deposit")
	return f.estimate, f.simulateErr
}
func (f *fakeChain) SimulateRequestRedeem(ctx context.Context, shares *big.Int) (uint64, error) {
	f.called("simulate_request_redeem")
	return f.estimate, f.simulateErr
}
func (f *fakeChain) Approve(ctx context.Context, amount *big.Int, opts GasOptions) (PendingTx, error) {
	f.mu.Lock()
	f.allowance = new(big.Int).Set(amount)
	f.mu.Unlock()
	return f.tx("approve"), nil
}
func (f *fakeChain) Deposit(ctx context.Context, assets *big.Int, receiver common.Address, opts GasOptions) (PendingTx, error) {
	f.mu.Lock()
	f.lastGas = opts
	f.mu.Unlock()
	return f.tx("deposit"), nil
}
func (f *fakeChain) RequestRedeem(ctx context.Context, shares *big.Int, opts GasOptions) (PendingTx, error) {
	f.mu.Lock()
	f.lastGas = opts
	f.mu.Unlock()
	return f.tx("request_redeem"), nil
}
func (f *fakeChain) CancelRequest(ctx context.Context, id *big.Int, opts GasOptions) (PendingTx, error) {
	return f.tx("cancel_request"), nil
}
func (f *fakeChain) Redeem(ctx context.Context, receiver, owner common.Address, id *big.Int, opts GasOptions) (PendingTx, error) {
	return f.tx("redeem"), nil
}

type fakeRecorder struct {
	mu        sync.Mutex
	submitted []string
	mined     []bool
}

func (r *fakeRecorder) TxSubmitted(kind string, account common.Address, amount string, requestID string, hash common.Hash) {
	r.mu.Lock()
	r.submitted = append(r.submitted, kind)
	r.mu.Unlock()
}

func (r *fakeRecorder) TxMined(hash common.Hash, success bool, errText string) {
	r.mu.Lock()
	r.mined = append(r.mined, success)
	r.mu.Unlock()
}

type fakeNotifier struct {
	mu       sync.Mutex
	titles   []string
	variants []string
}

func (n *fakeNotifier) Notify(title, description, variant string) {
	n.mu.Lock()
	n.titles = append(n.titles, title)
	n.variants = append(n.variants, variant)
	n.mu.Unlock()
}

func (n *fakeNotifier) lastTitle() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.titles) == 0 {
		return ""
	}
	return n.titles[len(n.titles)-1]
}

func setup() (*fakeChain, *fakeRecorder, *fakeNotifier, *Controller) {
	fc := newFakeChain()
	fr := &fakeRecorder{}
	fn := &fakeNotifier{}
	return fc, fr, fn, NewController(fc, fr, fn)
}

func TestStakeHappyPath(t *testing.T) {
	fc, fr, fn, c := setup()
	sub, err := c.Stake(context.Background(), "100", GasOptions{})
	assert.Nil(t, err)
	assert.Equal(t, StateConfirmed, sub.State())
	assert.False(t, sub.ApprovalRequired)
	assert.Equal(t, 1, fc.callCount("deposit"))
	assert.Equal(t, []string{"deposit"}, fr.submitted)
	assert.Equal(t, []bool{true}, fr.mined)
	assert.Equal(t, "Staking Successful", fn.lastTitle())
}

func TestStakeApprovalHaltsBeforeDeposit(t *testing.T) {
	fc, fr, fn, c := setup()
	fc.allowance = big.NewInt(0)

	sub, err := c.Stake(context.Background(), "100", GasOptions{})
	assert.Nil(t, err)
	assert.True(t, sub.ApprovalRequired)
	assert.Equal(t, StateConfirmed, sub.State())
	assert.Equal(t, 1, fc.callCount("approve"))
	assert.Equal(t, 0, fc.callCount("deposit"))
	assert.Equal(t, "Approval Successful", fn.lastTitle())

	// approval confirmed, a fresh submission goes through to the deposit
	sub, err = c.Stake(context.Background(), "100", GasOptions{})
	assert.Nil(t, err)
	assert.False(t, sub.ApprovalRequired)
	assert.Equal(t, 1, fc.callCount("deposit"))
	assert.Equal(t, []string{"approve", "deposit"}, fr.submitted)
}

func TestStakeInsufficientBalance(t *testing.T) {
	fc, _, fn, c := setup()
	sub, err := c.Stake(context.Background(), "2000", GasOptions{})
	assert.Equal(t, KindInsufficientBalance, KindOf(err))
	assert.Equal(t, StateErrored, sub.State())
	assert.Equal(t, 0, fc.callCount("approve"))
	assert.Equal(t, 0, fc.callCount("deposit"))
	assert.Equal(t, "Insufficient Balance", fn.lastTitle())
}

func TestStakeInvalidAmount(t *testing.T) {
	fc, _, _, c := setup()
	for _, amount := range []string{"", "abc", "0", "-5"} {
		sub, err := c.Stake(context.Background(), amount, GasOptions{})
		assert.Equal(t, KindInvalidAmount, KindOf(err), "amount %q", amount)
		assert.Equal(t, StateErrored, sub.State())
	}
	assert.Equal(t, 0, fc.callCount("deposit"))
}

func TestStakeNotConnected(t *testing.T) {
	fc, _, fn, c := setup()
	fc.connected = false
	_, err := c.Stake(context.Background(), "100", GasOptions{})
	assert.Equal(t, KindNotConnected, KindOf(err))
	assert.Equal(t, "Wallet Not Connected", fn.lastTitle())
}

func TestStakeDecimalsUnavailable(t *testing.T) {
	fc, _, _, c := setup()
	fc.decimalsErr = errors.New("contract not loaded")
	_, err := c.Stake(context.Background(), "100", GasOptions{})
	assert.Equal(t, KindDecimalsUnavailable, KindOf(err))
	assert.Equal(t, 0, fc.callCount("deposit"))
}

func TestStakeSimulationFailureBlocksSubmission(t *testing.T) {
	fc, fr, _, c := setup()
	fc.simulateErr = errors.New("execution reverted: paused")
	sub, err := c.Stake(context.Background(), "100", GasOptions{})
	assert.Equal(t, KindSimulationFailed, KindOf(err))
	assert.Equal(t, StateErrored, sub.State())
	assert.Equal(t, 0, fc.callCount("deposit"))
	assert.Equal(t, 0, len(fr.submitted))
}

func TestStakeGasMargin(t *testing.T) {
	fc, _, _, c := setup()
	fc.estimate = 100000
	sub, err := c.Stake(context.Background(), "100", GasOptions{})
	assert.Nil(t, err)
	assert.Equal(t, uint64(100000), sub.GasEstimate)
	assert.Equal(t, uint64(120000), fc.lastGas.GasLimit)
}

func TestStakeExplicitGasLimitKept(t *testing.T) {
	fc, _, _, c := setup()
	_, err := c.Stake(context.Background(), "100", GasOptions{GasLimit: 777777})
	assert.Nil(t, err)
	assert.Equal(t, uint64(777777), fc.lastGas.GasLimit)
}

func TestStakeReverted(t *testing.T) {
	fc, fr, fn, c := setup()
	fc.waitErr = errors.New("tx execution failed")
	sub, err := c.Stake(context.Background(), "100", GasOptions{})
	assert.Equal(t, KindTransactionReverted, KindOf(err))
	assert.Equal(t, StateErrored, sub.State())
	assert.Equal(t, []bool{false}, fr.mined)
	assert.Equal(t, "Transaction Failed", fn.lastTitle())
}

func TestSameIntentDebounce(t *testing.T) {
	fc, _, _, c := setup()
	fc.waitCh = make(chan struct{})

	done := make(chan struct{})
	go func() {
		_, err := c.Stake(context.Background(), "100", GasOptions{})
		assert.Nil(t, err)
		close(done)
	}()
	require.Eventually(t, func() bool {
		return fc.callCount("deposit") == 1
	}, time.Second, 5*time.Millisecond)

	_, err := c.Stake(context.Background(), "100", GasOptions{})
	assert.Equal(t, KindBusy, KindOf(err))

	close(fc.waitCh)
	<-done

	// the first submission reached a terminal state, stake is free again
	fc.waitCh = nil
	_, err = c.Stake(context.Background(), "100", GasOptions{})
	assert.Nil(t, err)
}

func TestUnstakeCeilingExcludesPendingShares(t *testing.T) {
	fc, fr, _, c := setup()
	fc.vaultBalance = big.NewInt(500)
	fc.pending = []UnstakingRequest{
		{ID: big.NewInt(1), Shares: big.NewInt(200), TimeOfRequest: time.Now(), Status: RequestPending},
	}

	_, err := c.Unstake(context.Background(), "400", GasOptions{})
	assert.Equal(t, KindInsufficientBalance, KindOf(err))
	assert.Equal(t, 0, fc.callCount("request_redeem"))

	sub, err := c.Unstake(context.Background(), "300", GasOptions{})
	assert.Nil(t, err)
	assert.Equal(t, StateConfirmed, sub.State())
	assert.Equal(t, 1, fc.callCount("request_redeem"))
	assert.Equal(t, []string{"request_redeem"}, fr.submitted)
}

func TestCancelUnknownRequest(t *testing.T) {
	fc, _, _, c := setup()
	fc.pending = []UnstakingRequest{
		{ID: big.NewInt(1), Shares: big.NewInt(100), Status: RequestPending},
	}
	_, err := c.Cancel(context.Background(), big.NewInt(99), GasOptions{})
	assert.Equal(t, KindRequestUnknown, KindOf(err))
	assert.Equal(t, 0, fc.callCount("cancel_request"))

	sub, err := c.Cancel(context.Background(), big.NewInt(1), GasOptions{})
	assert.Nil(t, err)
	assert.Equal(t, StateConfirmed, sub.State())
	assert.Equal(t, 1, fc.callCount("cancel_request"))
}

func TestClaimRespectsCooldown(t *testing.T) {
	fc, fr, fn, c := setup()
	requested := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	fc.cooldown = 7 * 24 * time.Hour
	fc.pending = []UnstakingRequest{
		{ID: big.NewInt(5), Shares: big.NewInt(100), TimeOfRequest: requested, Status: RequestPending},
	}
	availableAt := requested.Add(fc.cooldown)

	c.now = func() time.Time { return availableAt.Add(-time.Second) }
	_, err := c.Claim(context.Background(), big.NewInt(5), GasOptions{})
	assert.Equal(t, KindNotClaimable, KindOf(err))
	assert.Equal(t, 0, fc.callCount("redeem"))
	assert.Equal(t, "Not Claimable Yet", fn.lastTitle())

	// exactly at the boundary the claim goes through
	c.now = func() time.Time { return availableAt }
	sub, err := c.Claim(context.Background(), big.NewInt(5), GasOptions{})
	assert.Nil(t, err)
	assert.Equal(t, StateConfirmed, sub.State())
	assert.Equal(t, 1, fc.callCount("redeem"))
	assert.Equal(t, []string{"redeem"}, fr.submitted)
}

func TestRequestsEmptyWhenDisconnected(t *testing.T) {
	fc, _, _, c := setup()
	fc.connected = false
	rs, err := c.Requests(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, 0, len(rs))
}

func TestSummary(t *testing.T) {
	fc, _, _, c := setup()
	fc.pending = []UnstakingRequest{
		{ID: big.NewInt(1), Shares: big.NewInt(200), Status: RequestPending},
	}
	s, err := c.Summary(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, fc.account.Hex(), s.Address)
	assert.Equal(t, "1000", s.TokenBalance)
	assert.Equal(t, "500", s.VaultBalance)
	assert.Equal(t, "300", s.Unstakeable)
}

func TestSummaryLegacyReadFailureDoesNotBlock(t *testing.T) {
	fc, _, _, c := setup()
	fc.stakedErr = errors.New("method not found")
	s, err := c.Summary(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, "0", s.StakedLegacy)
}

func TestLifetimeAPY(t *testing.T) {
	launch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// one year of growth from 1.00 to 1.10 annualizes to 10%
	now := launch.Add(365 * 24 * time.Hour)
	got := lifetimeAPY(decimal.RequireFromString("1.1"), launch, now)
	assert.Equal(t, "10", got)

	// too young for the figure to mean anything
	got = lifetimeAPY(decimal.RequireFromString("1.1"), launch, launch.Add(time.Hour))
	assert.Equal(t, "", got)
}
