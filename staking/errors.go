package staking

import (
	"errors"
	"fmt"
)

//Kind classifies a lifecycle failure so callers can decide how to surface it
type Kind int

const (
	//KindUnknown node or internal error without a better category
	KindUnknown Kind = iota
	//KindNotConnected no wallet account is unlocked
	KindNotConnected
	//KindInvalidAmount empty, non numeric or non positive amount
	KindInvalidAmount
	//KindInsufficientBalance amount above the live ceiling for the intent
	KindInsufficientBalance
	//KindSimulationFailed the pre flight dry run reverted, submission is blocked
	KindSimulationFailed
	//KindTransactionRejected the wallet or node refused the transaction before acceptance
	KindTransactionRejected
	//KindTransactionReverted the transaction was mined but failed on chain
	KindTransactionReverted
	//KindDecimalsUnavailable token metadata not loaded, amount dependent actions are blocked
	KindDecimalsUnavailable
	//KindBusy a submission for the same intent is still non terminal
	KindBusy
	//KindNotClaimable the request's cooldown has not elapsed yet
	KindNotClaimable
	//KindRequestUnknown no pending request with the given id
	KindRequestUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNotConnected:
		return "NotConnected"
	case KindInvalidAmount:
		return "InvalidAmount"
	case KindInsufficientBalance:
		return "InsufficientBalance"
	case KindSimulationFailed:
		return "SimulationFailed"
	case KindTransactionRejected:
		return "TransactionRejected"
	case KindTransactionReverted:
		return "TransactionReverted"
	case KindDecimalsUnavailable:
		return "DecimalsUnavailable"
	case KindBusy:
		return "Busy"
	case KindNotClaimable:
		return "NotClaimable"
	case KindRequestUnknown:
		return "RequestUnknown"
	}
	return "Unknown"
}

//Title short notification title for this failure category
func (k Kind) Title() string {
	switch k {
	case KindNotConnected:
		return "Wallet Not Connected"
	case KindInvalidAmount:
		return "Invalid Amount"
	case KindInsufficientBalance:
		return "Insufficient Balance"
	case KindSimulationFailed:
		return "Invalid Transaction"
	case KindTransactionRejected:
		return "Transaction Rejected"
	case KindTransactionReverted:
		return "Transaction Failed"
	case KindDecimalsUnavailable:
		return "Token Not Ready"
	case KindBusy:
		return "Action In Progress"
	case KindNotClaimable:
		return "Not Claimable Yet"
	case KindRequestUnknown:
		return "Unknown Request"
	}
	return "Operation Failed"
}

//Error is a categorized lifecycle failure
type Error struct {
	Kind   Kind
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Detail, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

//Unwrap expose the cause for errors.Is/As
func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func wrapError(kind Kind, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, Cause: cause}
}

//KindOf return the category of err, KindUnknown when err carries none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
