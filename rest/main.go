package restful

import (
	"fmt"
	"net/http"

	"github.com/ant0ine/go-json-rest/rest"
	"github.com/labstack/gommon/log"
	"github.com/yumprotocol/yumstake-monitoring/models"
	"github.com/yumprotocol/yumstake-monitoring/notify"
	"github.com/yumprotocol/yumstake-monitoring/params"
	"github.com/yumprotocol/yumstake-monitoring/pricefeed"
	"github.com/yumprotocol/yumstake-monitoring/staking"
)

var db *models.ModelDB
var control *staking.Controller
var prices *pricefeed.Client
var alerts *notify.Manager

/*
Start the restful server
*/
func Start(d *models.ModelDB, c *staking.Controller, p *pricefeed.Client, a *notify.Manager) {
	db = d
	control = c
	prices = p
	alerts = a
	api := rest.NewApi()
	api.Use(rest.DefaultDevStack...)
	router, err := rest.MakeRouter(
		rest.Get("/price", Price),
		rest.Get("/price/history/:days", PriceHistory),
		rest.Get("/staking/info", StakingInfo),
		rest.Get("/account", Account),
		rest.Get("/requests", Requests),
		rest.Post("/stake", Stake),
		rest.Post("/unstake", Unstake),
		rest.Post("/requests/:id/cancel", CancelRequest),
		rest.Post("/requests/:id/claim", ClaimRequest),
		rest.Get("/notifications", Notifications),
		rest.Post("/notifications/:id/dismiss", DismissNotification),
		rest.Get("/txs", TxHistory),
	)
	if err != nil {
		log.Fatalf("make router :%s", err)
	}
	api.SetApp(router)
	listen := fmt.Sprintf("0.0.0.0:%d", params.APIPort)
	log.Fatalf("http listen and serve :%s", http.ListenAndServe(listen, api.MakeHandler()))
}

func writeJSON(w rest.ResponseWriter, v interface{}) {
	err := w.WriteJson(v)
	if err != nil {
		log.Errorf("write json err %s", err)
	}
}
