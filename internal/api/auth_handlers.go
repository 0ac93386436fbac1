package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskhub-io/taskhub/internal/auth"
)

func (api *Api) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}

	user, secret, err := api.auth.Register(r.Context(), in)
	if err != nil {
		handleError(w, r, err, "")
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		Success: true,
		Status:  statusSuccess,
		Message: "User created successfully",
		Data:    user,
		Token:   secret,
	})
}

type loginData struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (api *Api) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if !decodeJSON(w, r, &in) {
		return
	}

	user, secret, err := api.auth.Login(r.Context(), in)
	if err != nil {
		handleError(w, r, err, "")
		return
	}

	writeData(w, http.StatusOK, "Logged in successfully", loginData{
		Token: secret,
		Name:  user.Name,
		Email: user.Email,
	})
}

func (api *Api) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeData(w, http.StatusOK, "", user)
}

// LogoutHandler revokes every token of the user, not only the one presented
func (api *Api) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	n, err := api.auth.RevokeAll(r.Context(), user)
	if err != nil {
		handleError(w, r, err, "")
		return
	}
	writeData(w, http.StatusOK, "Logged out successfully", map[string]int64{"revoked": n})
}

func (api *Api) ListTokensHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	tokens, err := api.auth.ListTokens(r.Context(), user)
	if err != nil {
		handleError(w, r, err, "")
		return
	}
	writeList(w, tokens)
}

func (api *Api) DeleteTokenHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	tokenID, ok := pathID(w, chi.URLParam(r, "tokenID"), "Token not found")
	if !ok {
		return
	}

	if err := api.auth.RevokeToken(r.Context(), user, tokenID); err != nil {
		handleError(w, r, err, "Token not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
