package restful

import (
	"math/big"
	"net/http"

	"github.com/ant0ine/go-json-rest/rest"
	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/gommon/log"
	"github.com/yumprotocol/yumstake-monitoring/staking"
	"github.com/yumprotocol/yumstake-monitoring/utils"
)

type stakeRequest struct {
	Amount               string `json:"amount"`
	GasLimit             uint64 `json:"gas_limit"`
	MaxFeePerGas         string `json:"max_fee_per_gas"`
	MaxPriorityFeePerGas string `json:"max_priority_fee_per_gas"`
}

func (req *stakeRequest) gasOptions() staking.GasOptions {
	gas := staking.GasOptions{GasLimit: req.GasLimit}
	if req.MaxFeePerGas != "" {
		gas.MaxFeePerGas = utils.StringToBigInt(req.MaxFeePerGas)
	}
	if req.MaxPriorityFeePerGas != "" {
		gas.MaxPriorityFeePerGas = utils.StringToBigInt(req.MaxPriorityFeePerGas)
	}
	return gas
}

type submissionResponse struct {
	Intent           string `json:"intent"`
	State            string `json:"state"`
	ApprovalRequired bool   `json:"approval_required,omitempty"`
	TxHash           string `json:"tx_hash,omitempty"`
	GasEstimate      uint64 `json:"gas_estimate,omitempty"`
	ErrorKind        string `json:"error_kind,omitempty"`
	Error            string `json:"error,omitempty"`
}

func writeSubmission(w rest.ResponseWriter, sub *staking.Submission, err error) {
	resp := &submissionResponse{}
	if sub != nil {
		resp.Intent = string(sub.Intent)
		resp.State = sub.State()
		resp.ApprovalRequired = sub.ApprovalRequired
		resp.GasEstimate = sub.GasEstimate
		if sub.TxHash != (common.Hash{}) {
			resp.TxHash = sub.TxHash.String()
		}
	}
	if err != nil {
		kind := staking.KindOf(err)
		resp.ErrorKind = kind.String()
		resp.Error = err.Error()
		switch kind {
		case staking.KindInvalidAmount, staking.KindInsufficientBalance, staking.KindSimulationFailed,
			staking.KindNotClaimable, staking.KindRequestUnknown:
			w.WriteHeader(http.StatusBadRequest)
		case staking.KindNotConnected:
			w.WriteHeader(http.StatusForbidden)
		case staking.KindBusy:
			w.WriteHeader(http.StatusConflict)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}
	writeJSON(w, resp)
}

//Stake deposit tokens into the vault, pauses for approval first when needed
func Stake(w rest.ResponseWriter, r *rest.Request) {
	req := &stakeRequest{}
	err := r.DecodeJsonPayload(req)
	if err != nil {
		log.Error(err.Error())
		rest.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sub, err := control.Stake(r.Request.Context(), req.Amount, req.gasOptions())
	writeSubmission(w, sub, err)
}

//Unstake start the cooldown for part of the staked balance
func Unstake(w rest.ResponseWriter, r *rest.Request) {
	req := &stakeRequest{}
	err := r.DecodeJsonPayload(req)
	if err != nil {
		log.Error(err.Error())
		rest.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sub, err := control.Unstake(r.Request.Context(), req.Amount, req.gasOptions())
	writeSubmission(w, sub, err)
}

func requestID(r *rest.Request) (*big.Int, bool) {
	id, ok := new(big.Int).SetString(r.PathParam("id"), 10)
	return id, ok
}

//CancelRequest cancel a pending unstaking request, shares return to the vault balance
func CancelRequest(w rest.ResponseWriter, r *rest.Request) {
	id, ok := requestID(r)
	if !ok {
		rest.Error(w, "bad request id", http.StatusBadRequest)
		return
	}
	sub, err := control.Cancel(r.Request.Context(), id, staking.GasOptions{})
	writeSubmission(w, sub, err)
}

//ClaimRequest redeem a request whose cooldown has elapsed
func ClaimRequest(w rest.ResponseWriter, r *rest.Request) {
	id, ok := requestID(r)
	if !ok {
		rest.Error(w, "bad request id", http.StatusBadRequest)
		return
	}
	sub, err := control.Claim(r.Request.Context(), id, staking.GasOptions{})
	writeSubmission(w, sub, err)
}

//Account balances and allowance for the unlocked account
func Account(w rest.ResponseWriter, r *rest.Request) {
	summary, err := control.Summary(r.Request.Context())
	if err != nil {
		log.Errorf("account summary: %s", err)
		writeSubmission(w, nil, err)
		return
	}
	writeJSON(w, summary)
}

//Requests unstaking requests with claimability resolved against the cooldown
func Requests(w rest.ResponseWriter, r *rest.Request) {
	requests, err := control.Requests(r.Request.Context())
	if err != nil {
		log.Errorf("requests: %s", err)
		writeSubmission(w, nil, err)
		return
	}
	if requests == nil {
		requests = []staking.ReconciledRequest{}
	}
	writeJSON(w, requests)
}

//StakingInfo vault wide numbers for the info panel
func StakingInfo(w rest.ResponseWriter, r *rest.Request) {
	info, err := control.Info(r.Request.Context())
	if err != nil {
		log.Errorf("staking info: %s", err)
		writeSubmission(w, nil, err)
		return
	}
	writeJSON(w, info)
}
