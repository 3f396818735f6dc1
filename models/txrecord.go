package models

import (
	"sort"
	"time"

	"github.com/asdine/storm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/gommon/log"
)

// tx record status
const (
	TxStatusPending = iota
	TxStatusSuccess
	TxStatusFailed
)

//TxRecord is one submitted transaction kept for the dashboard history view.
//The chain is the state of record, this journal only survives restarts.
type TxRecord struct {
	Hash        string `storm:"id"`
	Kind        string `storm:"index"` // approve,deposit,request_redeem,cancel_request,redeem
	Account     string `storm:"index"`
	Amount      string
	RequestID   string
	Status      int
	Error       string
	SubmittedAt time.Time
	MinedAt     time.Time
}

//TxSubmitted journals a freshly submitted transaction.
func (m *ModelDB) TxSubmitted(kind string, account common.Address, amount string, requestID string, hash common.Hash) {
	r := &TxRecord{
		Hash:        hash.String(),
		Kind:        kind,
		Account:     account.String(),
		Amount:      amount,
		RequestID:   requestID,
		Status:      TxStatusPending,
		SubmittedAt: time.Now(),
	}
	err := m.db.Save(r)
	if err != nil {
		log.Errorf("save tx record %s err %s", r.Hash, err)
	}
}

//TxMined updates the journal once the receipt for hash arrives.
func (m *ModelDB) TxMined(hash common.Hash, success bool, errText string) {
	var r TxRecord
	err := m.db.One("Hash", hash.String(), &r)
	if err != nil {
		log.Errorf("tx record %s not found: %s", hash.String(), err)
		return
	}
	if success {
		r.Status = TxStatusSuccess
	} else {
		r.Status = TxStatusFailed
	}
	r.Error = errText
	r.MinedAt = time.Now()
	err = m.db.Save(&r)
	if err != nil {
		log.Errorf("update tx record %s err %s", r.Hash, err)
	}
}

//TxRecordsByAccount returns this account's journal, newest first.
func (m *ModelDB) TxRecordsByAccount(account common.Address) (records []*TxRecord, err error) {
	err = m.db.Find("Account", account.String(), &records)
	if err == storm.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].SubmittedAt.After(records[j].SubmittedAt)
	})
	return records, nil
}

//GetTxRecord returns one journal entry by hash.
func (m *ModelDB) GetTxRecord(hash common.Hash) (r *TxRecord, err error) {
	r = new(TxRecord)
	err = m.db.One("Hash", hash.String(), r)
	return
}
