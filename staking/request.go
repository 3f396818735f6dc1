package staking

import (
	"math/big"
	"time"
)

//RequestStatus contract maintained state of an unstaking request
type RequestStatus uint8

const (
	//RequestPending waiting out the cooldown or ready to claim
	RequestPending RequestStatus = iota
	//RequestCancelled cancelled by the requester, terminal
	RequestCancelled
	//RequestClaimed redeemed after the cooldown, terminal
	RequestClaimed
)

//UnstakingRequest one requestRedeem outcome as read from the vault
type UnstakingRequest struct {
	ID            *big.Int      `json:"id"`
	Shares        *big.Int      `json:"shares"`
	TimeOfRequest time.Time     `json:"time_of_request"`
	Status        RequestStatus `json:"status"`
}

//ReconciledRequest an UnstakingRequest with its derived display and claim data
type ReconciledRequest struct {
	UnstakingRequest
	//Amount human readable share amount
	Amount string `json:"amount"`
	//AvailableAt TimeOfRequest plus the global cooldown, recomputed on every read
	AvailableAt time.Time `json:"available_at"`
}

//Claimable reports whether the request can be redeemed at the given
//instant. Exactly at AvailableAt the claim must already be offered.
func (r *ReconciledRequest) Claimable(now time.Time) bool {
	return r.Status == RequestPending && !now.Before(r.AvailableAt)
}

/*
Reconcile converts raw vault requests into display ready entities.
Ordering is preserved as returned by the read, an empty or nil input
yields an empty result, never an error.
*/
func Reconcile(requests []UnstakingRequest, cooldown time.Duration, decimals uint8) []ReconciledRequest {
	out := make([]ReconciledRequest, 0, len(requests))
	for _, req := range requests {
		out = append(out, ReconciledRequest{
			UnstakingRequest: req,
			Amount:           Descale(req.Shares, decimals),
			AvailableAt:      req.TimeOfRequest.Add(cooldown),
		})
	}
	return out
}

/*
UnstakeableAmount is the unstake validation ceiling: the vault token
balance minus the shares already locked in pending requests. Those
shares are no longer liquid and must not be double counted. The result
is clamped at zero when the inputs transiently disagree.
*/
func UnstakeableAmount(vaultBalance *big.Int, pending []UnstakingRequest) *big.Int {
	if vaultBalance == nil {
		return new(big.Int)
	}
	available := new(big.Int).Set(vaultBalance)
	for _, req := range pending {
		if req.Status != RequestPending || req.Shares == nil {
			continue
		}
		available.Sub(available, req.Shares)
	}
	if available.Sign() < 0 {
		available.SetInt64(0)
	}
	return available
}
