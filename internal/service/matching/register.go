package matching

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oggyb/tinderito/internal/app"
	"github.com/oggyb/tinderito/internal/utils/respond"
)

// Registrar ties the Matching service into the HTTP router
type Registrar struct {
	appCtx  *app.AppContext
	service *Service
}

// NewRegistrar creates a new Registrar for the Matching service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx, service: NewMatchingService(appCtx)}
}

// Register attaches the matching routes
func (r *Registrar) Register(router chi.Router) {
	router.Get("/candidates", r.candidates)
	router.Post("/like", r.like)
	router.Get("/matches", r.matches)
	router.Get("/likes", r.likedYou)
	router.Get("/likes/count", r.countLikedYou)
}

func (r *Registrar) fail(w http.ResponseWriter, req *http.Request, err error) {
	respond.Error(w, req, r.appCtx.Logger, err)
}

func (r *Registrar) candidates(w http.ResponseWriter, req *http.Request) {
	userID, err := respond.QueryID(req, "userId")
	if err != nil {
		r.fail(w, req, err)
		return
	}
	out, err := r.service.GetCandidates(req.Context(), userID)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respond.OK(w, respond.M{"candidates": out})
}

func (r *Registrar) like(w http.ResponseWriter, req *http.Request) {
	var body struct {
		EmitterID respond.ID `json:"emitterId"`
		TargetID  respond.ID `json:"targetId"`
		Reaction  *bool      `json:"reaction"`
	}
	if err := respond.Decode(w, req, &body); err != nil {
		r.fail(w, req, err)
		return
	}

	matched, err := r.service.React(req.Context(), uint64(body.EmitterID), uint64(body.TargetID), body.Reaction)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respond.OK(w, respond.M{"match": matched})
}

func (r *Registrar) matches(w http.ResponseWriter, req *http.Request) {
	userID, err := respond.QueryID(req, "userId")
	if err != nil {
		r.fail(w, req, err)
		return
	}
	out, err := r.service.ListMatches(req.Context(), userID)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respond.OK(w, respond.M{"matches": out})
}

func (r *Registrar) likedYou(w http.ResponseWriter, req *http.Request) {
	userID, err := respond.QueryID(req, "userId")
	if err != nil {
		r.fail(w, req, err)
		return
	}
	page, err := r.service.ListLikedYou(req.Context(), userID, req.URL.Query().Get("paginationToken"))
	if err != nil {
		r.fail(w, req, err)
		return
	}
	payload := respond.M{"likers": page.Likers}
	if page.NextPaginationToken != nil {
		payload["nextPaginationToken"] = *page.NextPaginationToken
	}
	respond.OK(w, payload)
}

func (r *Registrar) countLikedYou(w http.ResponseWriter, req *http.Request) {
	userID, err := respond.QueryID(req, "userId")
	if err != nil {
		r.fail(w, req, err)
		return
	}
	n, err := r.service.CountLikedYou(req.Context(), userID)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respond.OK(w, respond.M{"count": n})
}
