package account

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oggyb/tinderito/internal/app"
	svcErr "github.com/oggyb/tinderito/internal/errors"
	"github.com/oggyb/tinderito/internal/utils/respond"
)

// Registrar ties the Account service into the HTTP router
type Registrar struct {
	appCtx  *app.AppContext
	service *Service
}

// NewRegistrar creates a new Registrar for the Account service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx, service: NewAccountService(appCtx)}
}

// Register attaches the account routes
func (r *Registrar) Register(router chi.Router) {
	router.Post("/register", r.register)
	router.Post("/login", r.login)
	router.Post("/deleteUser", r.deleteUser)
	router.Get("/user", r.getByUsername)
	router.Get("/user/{id:[0-9]+}", r.getByID)
	router.Put("/user/{username}", r.update)
	router.Put("/user/{username}/complete", r.complete)
	router.Post("/upload_photos", r.uploadPhotos)
	router.Post("/photo", r.addPhoto)
}

func (r *Registrar) fail(w http.ResponseWriter, req *http.Request, err error) {
	respond.Error(w, req, r.appCtx.Logger, err)
}

func (r *Registrar) register(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
		Gender   string `json:"gender"`
	}
	if err := respond.Decode(w, req, &body); err != nil {
		r.fail(w, req, err)
		return
	}

	profile, token, err := r.service.Register(req.Context(), RegisterInput(body))
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respond.JSON(w, http.StatusCreated, respond.M{"status": "success", "user": profile, "token": token})
}

func (r *Registrar) login(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := respond.Decode(w, req, &body); err != nil {
		r.fail(w, req, err)
		return
	}

	profile, token, err := r.service.Login(req.Context(), body.Username, body.Password)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respond.OK(w, respond.M{"user": profile, "token": token})
}

func (r *Registrar) deleteUser(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Username string `json:"username"`
	}
	if err := respond.Decode(w, req, &body); err != nil {
		r.fail(w, req, err)
		return
	}

	if err := r.service.DeleteAccount(req.Context(), body.Username); err != nil {
		r.fail(w, req, err)
		return
	}
	respond.OK(w, respond.M{"message": "user deleted"})
}

func (r *Registrar) getByUsername(w http.ResponseWriter, req *http.Request) {
	profile, err := r.service.GetProfileByUsername(req.Context(), req.URL.Query().Get("username"))
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respond.OK(w, respond.M{"user": profile})
}

func (r *Registrar) getByID(w http.ResponseWriter, req *http.Request) {
	id, err := respond.ParseID("id", chi.URLParam(req, "id"))
	if err != nil {
		r.fail(w, req, err)
		return
	}
	profile, err := r.service.GetProfile(req.Context(), id)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respond.OK(w, respond.M{"user": profile})
}

func (r *Registrar) update(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Name            string `json:"name"`
		Email           string `json:"email"`
		Username        string `json:"username"`
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := respond.Decode(w, req, &body); err != nil {
		r.fail(w, req, err)
		return
	}

	profile, err := r.service.UpdateProfile(req.Context(), UpdateInput{
		TargetUsername:  chi.URLParam(req, "username"),
		Name:            body.Name,
		Email:           body.Email,
		NewUsername:     body.Username,
		CurrentPassword: body.CurrentPassword,
		NewPassword:     body.NewPassword,
	})
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respond.OK(w, respond.M{"user": profile})
}

func (r *Registrar) complete(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Bio              string   `json:"bio"`
		GenderPreference string   `json:"genderPreference"`
		Photos           []string `json:"photos"`
	}
	if err := respond.Decode(w, req, &body); err != nil {
		r.fail(w, req, err)
		return
	}

	profile, err := r.service.CompleteProfile(req.Context(), CompleteInput{
		Username:         chi.URLParam(req, "username"),
		Bio:              body.Bio,
		GenderPreference: body.GenderPreference,
		Photos:           body.Photos,
	})
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respond.OK(w, respond.M{"user": profile})
}

// uploadPhotos takes multipart fields userId, bio, genderPreference and the
// files photo1..photo3 (in that order, gaps allowed).
func (r *Registrar) uploadPhotos(w http.ResponseWriter, req *http.Request) {
	maxBytes := r.appCtx.Config.Upload.MaxBytes
	req.Body = http.MaxBytesReader(w, req.Body, maxBytes)
	if err := req.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			r.fail(w, req, svcErr.InvalidArgument("upload too large"))
			return
		}
		r.fail(w, req, svcErr.InvalidArgument("expected multipart form data"))
		return
	}
	defer func() { _ = req.MultipartForm.RemoveAll() }()

	userID, err := respond.ParseID("userId", req.FormValue("userId"))
	if err != nil {
		r.fail(w, req, err)
		return
	}

	var files [][]byte
	for i := 1; i <= MaxUploadPhotos; i++ {
		f, _, err := req.FormFile(fmt.Sprintf("photo%d", i))
		if errors.Is(err, http.ErrMissingFile) {
			continue
		} else if err != nil {
			r.fail(w, req, svcErr.InvalidArgument("invalid photo upload"))
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			r.fail(w, req, svcErr.InvalidArgument("invalid photo upload"))
			return
		}
		files = append(files, data)
	}

	profile, err := r.service.UploadPhotos(
		req.Context(),
		userID,
		req.FormValue("bio"),
		req.FormValue("genderPreference"),
		files,
	)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respond.OK(w, respond.M{"user": profile})
}

func (r *Registrar) addPhoto(w http.ResponseWriter, req *http.Request) {
	var body struct {
		UserID respond.ID `json:"userId"`
		URL    string     `json:"url"`
	}
	if err := respond.Decode(w, req, &body); err != nil {
		r.fail(w, req, err)
		return
	}

	photos, err := r.service.AddPhoto(req.Context(), uint64(body.UserID), body.URL)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respond.OK(w, respond.M{"photos": photos})
}
