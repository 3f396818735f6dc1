package restful

import (
	"net/http"

	"github.com/ant0ine/go-json-rest/rest"
	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/gommon/log"
	"github.com/yumprotocol/yumstake-monitoring/models"
	"github.com/yumprotocol/yumstake-monitoring/params"
)

//TxHistory journal of submitted transactions, newest first.
//Defaults to the unlocked account, override with ?account=0x...
func TxHistory(w rest.ResponseWriter, r *rest.Request) {
	account := params.Address
	if s := r.Request.URL.Query().Get("account"); s != "" {
		if !common.IsHexAddress(s) {
			rest.Error(w, "bad account address", http.StatusBadRequest)
			return
		}
		account = common.HexToAddress(s)
	}
	records, err := db.TxRecordsByAccount(account)
	if err != nil {
		log.Errorf("tx records for %s: %s", account.String(), err)
		rest.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*models.TxRecord{}
	}
	writeJSON(w, records)
}
