package staking

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/gommon/log"
	"github.com/looplab/fsm"
	"github.com/shopspring/decimal"
	"github.com/yumprotocol/yumstake-monitoring/params"
)

//Intent what the user asked for, each intent runs its own lifecycle
type Intent string

const (
	//IntentStake deposit tokens into the vault
	IntentStake Intent = "stake"
	//IntentUnstake create a cooldown request for vault shares
	IntentUnstake Intent = "unstake"
	//IntentCancel cancel a pending request
	IntentCancel Intent = "cancel"
	//IntentClaim redeem a matured request
	IntentClaim Intent = "claim"
)

//lifecycle states, Confirmed and Errored are terminal for a submission
const (
	StateIdle       = "idle"
	StateValidating = "validating"
	StateApproving  = "approving"
	StateSubmitting = "submitting"
	StateConfirming = "confirming"
	StateConfirmed  = "confirmed"
	StateErrored    = "error"
)

const (
	eventValidate = "validate"
	eventApprove  = "approve"
	eventSubmit   = "submit"
	eventAccept   = "accept"
	eventConfirm  = "confirm"
	eventFail     = "fail"
)

func newLifecycle() *fsm.FSM {
	return fsm.NewFSM(StateIdle, fsm.Events{
		{Name: eventValidate, Src: []string{StateIdle}, Dst: StateValidating},
		{Name: eventApprove, Src: []string{StateValidating}, Dst: StateApproving},
		{Name: eventSubmit, Src: []string{StateValidating}, Dst: StateSubmitting},
		{Name: eventAccept, Src: []string{StateSubmitting}, Dst: StateConfirming},
		{Name: eventConfirm, Src: []string{StateApproving, StateConfirming}, Dst: StateConfirmed},
		{Name: eventFail, Src: []string{StateValidating, StateApproving, StateSubmitting, StateConfirming}, Dst: StateErrored},
	}, fsm.Callbacks{})
}

//Submission one pass through the lifecycle for a single intent
type Submission struct {
	Intent Intent
	//ApprovalRequired true when a stake halted at the approval step,
	//the user must resubmit once the approval confirmed
	ApprovalRequired bool
	TxHash           common.Hash
	GasEstimate      uint64
	Err              *Error
	machine          *fsm.FSM
}

func newSubmission(intent Intent) *Submission {
	return &Submission{Intent: intent, machine: newLifecycle()}
}

//State current lifecycle state
func (s *Submission) State() string {
	return s.machine.Current()
}

func (s *Submission) terminal() bool {
	st := s.machine.Current()
	return st == StateConfirmed || st == StateErrored
}

func (s *Submission) advance(event string) {
	if err := s.machine.Event(event); err != nil {
		log.Errorf("lifecycle %s: event %s from %s: %s", s.Intent, event, s.machine.Current(), err)
	}
}

//Recorder persists submitted transactions and their outcomes
type Recorder interface {
	TxSubmitted(kind string, account common.Address, amount string, requestID string, hash common.Hash)
	TxMined(hash common.Hash, success bool, errText string)
}

//Notifier surfaces user visible outcomes, every failure must produce one
type Notifier interface {
	Notify(title, description, variant string)
}

/*
Controller drives the staking lifecycle: it decides the call sequence,
validates amounts against live balances and keeps submissions for the
same intent from overlapping. It never retries a transaction on its
own, a retry is always a fresh user submission.
*/
type Controller struct {
	chain    Chain
	recorder Recorder
	notifier Notifier
	now      func() time.Time

	mu       sync.Mutex
	inflight map[Intent]*Submission
}

//NewController create a controller, recorder and notifier may be nil
func NewController(chain Chain, recorder Recorder, notifier Notifier) *Controller {
	return &Controller{
		chain:    chain,
		recorder: recorder,
		notifier: notifier,
		now:      time.Now,
		inflight: make(map[Intent]*Submission),
	}
}

func (c *Controller) begin(intent Intent) (*Submission, *Error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev := c.inflight[intent]; prev != nil && !prev.terminal() {
		return nil, newError(KindBusy, fmt.Sprintf("a %s submission is still running", intent))
	}
	sub := newSubmission(intent)
	sub.advance(eventValidate)
	c.inflight[intent] = sub
	return sub, nil
}

func (c *Controller) fail(sub *Submission, e *Error) (*Submission, error) {
	sub.Err = e
	sub.advance(eventFail)
	log.Errorf("%s failed: %s", sub.Intent, e)
	c.notify(e.Kind.Title(), e.Detail, "error")
	return sub, e
}

func (c *Controller) notify(title, description, variant string) {
	if c.notifier != nil {
		c.notifier.Notify(title, description, variant)
	}
}

func (c *Controller) record(kind string, account common.Address, amount, requestID string, hash common.Hash) {
	if c.recorder != nil {
		c.recorder.TxSubmitted(kind, account, amount, requestID, hash)
	}
}

func (c *Controller) recordResult(hash common.Hash, err error) {
	if c.recorder == nil {
		return
	}
	if err != nil {
		c.recorder.TxMined(hash, false, err.Error())
	} else {
		c.recorder.TxMined(hash, true, "")
	}
}

/*
Stake validates the amount against the live token balance, routes
through an approval when the allowance is short and otherwise deposits.
An approval halts the submission, staking is not auto resumed, the user
resubmits once the approval confirmed.
*/
func (c *Controller) Stake(ctx context.Context, amount string, gas GasOptions) (*Submission, error) {
	sub, busy := c.begin(IntentStake)
	if busy != nil {
		return nil, busy
	}
	account, ok := c.chain.Account()
	if !ok {
		return c.fail(sub, newError(KindNotConnected, "connect a wallet to stake"))
	}
	amt, err := ParseAmount(amount)
	if err != nil {
		return c.fail(sub, err.(*Error))
	}
	decimals, err := c.chain.Decimals(ctx)
	if err != nil {
		return c.fail(sub, wrapError(KindDecimalsUnavailable, "token decimals not loaded", err))
	}
	scaled := Scale(amt, decimals)
	balance, err := c.chain.TokenBalance(ctx, account)
	if err != nil {
		return c.fail(sub, wrapError(KindUnknown, "balance read failed", err))
	}
	if scaled.Cmp(balance) > 0 {
		return c.fail(sub, newError(KindInsufficientBalance, "not enough tokens to stake this amount"))
	}

	allowance, err := c.chain.Allowance(ctx, account)
	if err != nil {
		return c.fail(sub, wrapError(KindUnknown, "allowance read failed", err))
	}
	if allowance.Cmp(scaled) < 0 {
		// allowance short: approve and halt, the user resubmits after it confirms
		sub.advance(eventApprove)
		sub.ApprovalRequired = true
		tx, err := c.chain.Approve(ctx, scaled, GasOptions{})
		if err != nil {
			return c.fail(sub, wrapError(KindTransactionRejected, "approval was not accepted", err))
		}
		sub.TxHash = tx.Hash()
		c.record("approve", account, amt.String(), "", tx.Hash())
		if err = tx.Wait(ctx); err != nil {
			c.recordResult(tx.Hash(), err)
			return c.fail(sub, wrapError(KindTransactionReverted, "approval failed on chain", err))
		}
		c.recordResult(tx.Hash(), nil)
		sub.advance(eventConfirm)
		c.notify("Approval Successful", "tokens approved for staking, submit again to stake", "success")
		return sub, nil
	}

	estimate, err := c.chain.SimulateDeposit(ctx, scaled)
	if err != nil {
		return c.fail(sub, wrapError(KindSimulationFailed, "deposit would revert", err))
	}
	sub.GasEstimate = estimate
	if gas.GasLimit == 0 {
		gas.GasLimit = WithGasMargin(estimate)
	}
	sub.advance(eventSubmit)
	tx, err := c.chain.Deposit(ctx, scaled, account, gas)
	if err != nil {
		return c.fail(sub, wrapError(KindTransactionRejected, "deposit was not accepted", err))
	}
	sub.TxHash = tx.Hash()
	sub.advance(eventAccept)
	c.record("deposit", account, amt.String(), "", tx.Hash())
	if err = tx.Wait(ctx); err != nil {
		c.recordResult(tx.Hash(), err)
		return c.fail(sub, wrapError(KindTransactionReverted, "deposit failed on chain", err))
	}
	c.recordResult(tx.Hash(), nil)
	sub.advance(eventConfirm)
	c.notify("Staking Successful", fmt.Sprintf("%s YUM staked", amt.String()), "success")
	return sub, nil
}

/*
Unstake validates the amount against the unstakeable ceiling (vault
balance minus shares locked in pending requests) and submits a
requestRedeem, which opens a cooldown request.
*/
func (c *Controller) Unstake(ctx context.Context, amount string, gas GasOptions) (*Submission, error) {
	sub, busy := c.begin(IntentUnstake)
	if busy != nil {
		return nil, busy
	}
	account, ok := c.chain.Account()
	if !ok {
		return c.fail(sub, newError(KindNotConnected, "connect a wallet to unstake"))
	}
	amt, err := ParseAmount(amount)
	if err != nil {
		return c.fail(sub, err.(*Error))
	}
	decimals, err := c.chain.Decimals(ctx)
	if err != nil {
		return c.fail(sub, wrapError(KindDecimalsUnavailable, "token decimals not loaded", err))
	}
	scaled := Scale(amt, decimals)
	vaultBalance, err := c.chain.VaultBalance(ctx, account)
	if err != nil {
		return c.fail(sub, wrapError(KindUnknown, "vault balance read failed", err))
	}
	pending, err := c.chain.PendingRequests(ctx, account)
	if err != nil {
		return c.fail(sub, wrapError(KindUnknown, "pending request read failed", err))
	}
	if scaled.Cmp(UnstakeableAmount(vaultBalance, pending)) > 0 {
		return c.fail(sub, newError(KindInsufficientBalance, "not enough unlocked shares to unstake this amount"))
	}

	estimate, err := c.chain.SimulateRequestRedeem(ctx, scaled)
	if err != nil {
		return c.fail(sub, wrapError(KindSimulationFailed, "unstake request would revert", err))
	}
	sub.GasEstimate = estimate
	if gas.GasLimit == 0 {
		gas.GasLimit = WithGasMargin(estimate)
	}
	sub.advance(eventSubmit)
	tx, err := c.chain.RequestRedeem(ctx, scaled, gas)
	if err != nil {
		return c.fail(sub, wrapError(KindTransactionRejected, "unstake request was not accepted", err))
	}
	sub.TxHash = tx.Hash()
	sub.advance(eventAccept)
	c.record("request_redeem", account, amt.String(), "", tx.Hash())
	if err = tx.Wait(ctx); err != nil {
		c.recordResult(tx.Hash(), err)
		return c.fail(sub, wrapError(KindTransactionReverted, "unstake request failed on chain", err))
	}
	c.recordResult(tx.Hash(), nil)
	sub.advance(eventConfirm)
	c.notify("Unstaking Requested", fmt.Sprintf("%s YUM entered the cooldown period", amt.String()), "success")
	return sub, nil
}

//Cancel cancel a pending unstaking request, only the requester's own
//pending requests are cancellable
func (c *Controller) Cancel(ctx context.Context, id *big.Int, gas GasOptions) (*Submission, error) {
	sub, busy := c.begin(IntentCancel)
	if busy != nil {
		return nil, busy
	}
	account, ok := c.chain.Account()
	if !ok {
		return c.fail(sub, newError(KindNotConnected, "connect a wallet to cancel a request"))
	}
	if _, err := c.pendingRequest(ctx, account, id); err != nil {
		return c.fail(sub, err.(*Error))
	}
	sub.advance(eventSubmit)
	tx, err := c.chain.CancelRequest(ctx, id, gas)
	if err != nil {
		return c.fail(sub, wrapError(KindTransactionRejected, "cancel was not accepted", err))
	}
	sub.TxHash = tx.Hash()
	sub.advance(eventAccept)
	c.record("cancel_request", account, "", id.String(), tx.Hash())
	if err = tx.Wait(ctx); err != nil {
		c.recordResult(tx.Hash(), err)
		return c.fail(sub, wrapError(KindTransactionReverted, "cancel failed on chain", err))
	}
	c.recordResult(tx.Hash(), nil)
	sub.advance(eventConfirm)
	c.notify("Request Cancelled", "unstaking request has been cancelled", "success")
	return sub, nil
}

//Claim redeem a matured request, refused locally while the cooldown runs
func (c *Controller) Claim(ctx context.Context, id *big.Int, gas GasOptions) (*Submission, error) {
	sub, busy := c.begin(IntentClaim)
	if busy != nil {
		return nil, busy
	}
	account, ok := c.chain.Account()
	if !ok {
		return c.fail(sub, newError(KindNotConnected, "connect a wallet to claim"))
	}
	req, err := c.pendingRequest(ctx, account, id)
	if err != nil {
		return c.fail(sub, err.(*Error))
	}
	cooldown, err := c.chain.CooldownPeriod(ctx)
	if err != nil {
		return c.fail(sub, wrapError(KindUnknown, "cooldown read failed", err))
	}
	availableAt := req.TimeOfRequest.Add(cooldown)
	if c.now().Before(availableAt) {
		return c.fail(sub, newError(KindNotClaimable,
			fmt.Sprintf("request %s is claimable at %s", id, availableAt.UTC().Format(time.RFC3339))))
	}
	sub.advance(eventSubmit)
	tx, err := c.chain.Redeem(ctx, account, account, id, gas)
	if err != nil {
		return c.fail(sub, wrapError(KindTransactionRejected, "claim was not accepted", err))
	}
	sub.TxHash = tx.Hash()
	sub.advance(eventAccept)
	c.record("redeem", account, "", id.String(), tx.Hash())
	if err = tx.Wait(ctx); err != nil {
		c.recordResult(tx.Hash(), err)
		return c.fail(sub, wrapError(KindTransactionReverted, "claim failed on chain", err))
	}
	c.recordResult(tx.Hash(), nil)
	sub.advance(eventConfirm)
	c.notify("Claim Successful", "unstaked tokens have been returned to your balance", "success")
	return sub, nil
}

func (c *Controller) pendingRequest(ctx context.Context, account common.Address, id *big.Int) (*UnstakingRequest, *Error) {
	if id == nil {
		return nil, newError(KindRequestUnknown, "request id missing")
	}
	pending, err := c.chain.PendingRequests(ctx, account)
	if err != nil {
		return nil, wrapError(KindUnknown, "pending request read failed", err)
	}
	for i := range pending {
		if pending[i].ID != nil && pending[i].ID.Cmp(id) == 0 {
			return &pending[i], nil
		}
	}
	return nil, newError(KindRequestUnknown, fmt.Sprintf("no pending request with id %s", id))
}

//Requests the reconciled pending requests of the connected account,
//empty when no wallet is connected
func (c *Controller) Requests(ctx context.Context) ([]ReconciledRequest, error) {
	account, ok := c.chain.Account()
	if !ok {
		return []ReconciledRequest{}, nil
	}
	pending, err := c.chain.PendingRequests(ctx, account)
	if err != nil {
		return nil, wrapError(KindUnknown, "pending request read failed", err)
	}
	if len(pending) == 0 {
		return []ReconciledRequest{}, nil
	}
	cooldown, err := c.chain.CooldownPeriod(ctx)
	if err != nil {
		return nil, wrapError(KindUnknown, "cooldown read failed", err)
	}
	decimals, err := c.chain.Decimals(ctx)
	if err != nil {
		return nil, wrapError(KindDecimalsUnavailable, "token decimals not loaded", err)
	}
	return Reconcile(pending, cooldown, decimals), nil
}

//AccountSummary live balances of the connected account, read fresh on
//every call and never cached
type AccountSummary struct {
	Address      string `json:"address"`
	TokenBalance string `json:"token_balance"`
	VaultBalance string `json:"vault_balance"`
	Unstakeable  string `json:"unstakeable"`
	Allowance    string `json:"allowance"`
	//StakedLegacy the getStakedAmount read, kept for consistency checks
	//against the vault balance derivation which is canonical
	StakedLegacy string `json:"staked_legacy"`
}

//Summary read all account facing balances in one round
func (c *Controller) Summary(ctx context.Context) (*AccountSummary, error) {
	account, ok := c.chain.Account()
	if !ok {
		return nil, newError(KindNotConnected, "no wallet connected")
	}
	decimals, err := c.chain.Decimals(ctx)
	if err != nil {
		return nil, wrapError(KindDecimalsUnavailable, "token decimals not loaded", err)
	}
	balance, err := c.chain.TokenBalance(ctx, account)
	if err != nil {
		return nil, wrapError(KindUnknown, "balance read failed", err)
	}
	vaultBalance, err := c.chain.VaultBalance(ctx, account)
	if err != nil {
		return nil, wrapError(KindUnknown, "vault balance read failed", err)
	}
	pending, err := c.chain.PendingRequests(ctx, account)
	if err != nil {
		return nil, wrapError(KindUnknown, "pending request read failed", err)
	}
	allowance, err := c.chain.Allowance(ctx, account)
	if err != nil {
		return nil, wrapError(KindUnknown, "allowance read failed", err)
	}
	staked, err := c.chain.StakedAmount(ctx, account)
	if err != nil {
		// legacy read path, absence does not block the summary
		log.Warnf("getStakedAmount read failed: %s", err)
		staked = nil
	}
	return &AccountSummary{
		Address:      account.Hex(),
		TokenBalance: Descale(balance, decimals),
		VaultBalance: Descale(vaultBalance, decimals),
		Unstakeable:  Descale(UnstakeableAmount(vaultBalance, pending), decimals),
		Allowance:    Descale(allowance, decimals),
		StakedLegacy: Descale(staked, decimals),
	}, nil
}

//Info vault wide staking figures for the dashboard info panel
type Info struct {
	//APYPercent lifetime APY derived from the exchange rate growth
	APYPercent string `json:"apy_percent"`
	//ExchangeRate assets one share converts to
	ExchangeRate string `json:"exchange_rate"`
	TotalSupply  string `json:"vault_total_supply"`
	//TotalStaked total supply valued in underlying tokens
	TotalStaked     string `json:"total_staked"`
	CooldownSeconds int64  `json:"cooldown_seconds"`
}

//Info derive the info panel figures from the current exchange rate
func (c *Controller) Info(ctx context.Context) (*Info, error) {
	decimals, err := c.chain.Decimals(ctx)
	if err != nil {
		return nil, wrapError(KindDecimalsUnavailable, "token decimals not loaded", err)
	}
	rateScaled, err := c.chain.ExchangeRate(ctx)
	if err != nil {
		return nil, wrapError(KindUnknown, "exchange rate read failed", err)
	}
	supplyScaled, err := c.chain.VaultTotalSupply(ctx)
	if err != nil {
		return nil, wrapError(KindUnknown, "total supply read failed", err)
	}
	cooldown, err := c.chain.CooldownPeriod(ctx)
	if err != nil {
		return nil, wrapError(KindUnknown, "cooldown read failed", err)
	}
	rate, err := decimal.NewFromString(Descale(rateScaled, decimals))
	if err != nil {
		return nil, wrapError(KindUnknown, "exchange rate malformed", err)
	}
	supply, err := decimal.NewFromString(Descale(supplyScaled, decimals))
	if err != nil {
		return nil, wrapError(KindUnknown, "total supply malformed", err)
	}
	return &Info{
		APYPercent:      lifetimeAPY(rate, params.VaultLaunchTime, c.now()),
		ExchangeRate:    rate.String(),
		TotalSupply:     supply.String(),
		TotalStaked:     supply.Mul(rate).String(),
		CooldownSeconds: int64(cooldown / time.Second),
	}, nil
}

const hoursPerYear = 24 * 365

/*
lifetimeAPY annualizes the exchange rate growth since the vault launch.
One share started worth exactly one token, so rate-1 is the lifetime
yield. Empty while the vault is too young for the figure to mean much.
*/
func lifetimeAPY(rate decimal.Decimal, launch, now time.Time) string {
	elapsed := now.Sub(launch)
	if elapsed < 24*time.Hour {
		return ""
	}
	years := decimal.NewFromFloat(elapsed.Hours() / hoursPerYear)
	yield := rate.Sub(decimal.New(1, 0))
	return yield.Div(years).Mul(decimal.New(100, 0)).Round(2).String()
}
