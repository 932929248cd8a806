package messaging

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oggyb/tinderito/internal/app"
	"github.com/oggyb/tinderito/internal/utils/respond"
)

// Registrar ties the Messaging service into the HTTP router
type Registrar struct {
	appCtx  *app.AppContext
	service *Service
}

// NewRegistrar creates a new Registrar for the Messaging service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx, service: NewMessagingService(appCtx)}
}

// Register attaches the messaging routes
func (r *Registrar) Register(router chi.Router) {
	router.Post("/message", r.send)
	router.Get("/messages", r.list)
}

func (r *Registrar) send(w http.ResponseWriter, req *http.Request) {
	var body struct {
		MatchID   respond.ID `json:"matchId"`
		EmitterID respond.ID `json:"emitterId"`
		Text      string     `json:"text"`
	}
	if err := respond.Decode(w, req, &body); err != nil {
		respond.Error(w, req, r.appCtx.Logger, err)
		return
	}

	msg, err := r.service.SendMessage(req.Context(), uint64(body.MatchID), uint64(body.EmitterID), body.Text)
	if err != nil {
		respond.Error(w, req, r.appCtx.Logger, err)
		return
	}
	respond.OK(w, respond.M{"message": msg})
}

func (r *Registrar) list(w http.ResponseWriter, req *http.Request) {
	matchID, err := respond.QueryID(req, "matchId")
	if err != nil {
		respond.Error(w, req, r.appCtx.Logger, err)
		return
	}
	userID, err := respond.QueryID(req, "userId")
	if err != nil {
		respond.Error(w, req, r.appCtx.Logger, err)
		return
	}

	msgs, err := r.service.ListMessages(req.Context(), matchID, userID)
	if err != nil {
		respond.Error(w, req, r.appCtx.Logger, err)
		return
	}
	respond.OK(w, respond.M{"messages": msgs})
}
