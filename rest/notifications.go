package restful

import (
	"github.com/ant0ine/go-json-rest/rest"
	"github.com/yumprotocol/yumstake-monitoring/notify"
)

//Notifications active notifications, newest first
func Notifications(w rest.ResponseWriter, r *rest.Request) {
	active := alerts.Active()
	if active == nil {
		active = []*notify.Notification{}
	}
	writeJSON(w, active)
}

type dismissResponse struct {
	Dismissed string `json:"dismissed"`
}

//DismissNotification drop one notification before its timer fires,
//dismissing an unknown id is a no op
func DismissNotification(w rest.ResponseWriter, r *rest.Request) {
	id := r.PathParam("id")
	alerts.Dismiss(id)
	writeJSON(w, &dismissResponse{Dismissed: id})
}
