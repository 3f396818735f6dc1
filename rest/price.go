package restful

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ant0ine/go-json-rest/rest"
	"github.com/labstack/gommon/log"
	"github.com/yumprotocol/yumstake-monitoring/pricefeed"
)

type priceErrorResponse struct {
	Error string `json:"error"`
}

//Price current token price with 24h stats
func Price(w rest.ResponseWriter, r *rest.Request) {
	p, err := prices.CurrentPrice(r.Request.Context())
	if err != nil {
		log.Errorf("current price: %s", err)
		w.WriteHeader(http.StatusBadGateway)
		writeJSON(w, &priceErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, p)
}

type priceHistoryResponse struct {
	*pricefeed.History
	DeltaPercent string `json:"delta_percent"`
}

//PriceHistory price series over one of the supported windows,
//delta_percent is the change from the first to the last sample
func PriceHistory(w rest.ResponseWriter, r *rest.Request) {
	days, err := strconv.Atoi(r.PathParam("days"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, &priceErrorResponse{Error: "days must be a number"})
		return
	}
	h, err := prices.History(r.Request.Context(), days)
	if err != nil {
		if errors.Is(err, pricefeed.ErrBadWindow) {
			w.WriteHeader(http.StatusBadRequest)
		} else {
			log.Errorf("price history %d: %s", days, err)
			w.WriteHeader(http.StatusBadGateway)
		}
		writeJSON(w, &priceErrorResponse{Error: err.Error()})
		return
	}
	resp := &priceHistoryResponse{History: h}
	if _, _, pct, ok := h.Delta(); ok {
		resp.DeltaPercent = pricefeed.FormatPercent(pct)
	}
	writeJSON(w, resp)
}
