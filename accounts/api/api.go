package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/andrebq/pressbox/accounts"
	"github.com/andrebq/pressbox/internal/logutil"
	"github.com/andrebq/pressbox/ledger"
	"github.com/julienschmidt/httprouter"
)

type (
	credentialPayload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	registerResponse struct {
		Username string `json:"username"`
	}

	loginResponse struct {
		Username string `json:"username"`
		Token    string `json:"token"`
	}
)

// AsHandler exposes the register and login workflows over HTTP.
func AsHandler(store *ledger.L) http.Handler {
	router := httprouter.New()
	router.HandlerFunc("POST", "/register", registerAccount(store))
	router.HandlerFunc("POST", "/login", loginAccount(store))
	return router
}

func decodeCredentialPayload(w http.ResponseWriter, r *http.Request) (credentialPayload, bool) {
	var payload credentialPayload
	err := json.NewDecoder(r.Body).Decode(&payload)
	if err != nil || payload.Username == "" || payload.Password == "" {
		http.Error(w, "request must contain a username and a password", http.StatusBadRequest)
		return credentialPayload{}, false
	}
	return payload, true
}

func registerAccount(store *ledger.L) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logutil.GetOrDefault(r.Context())
		payload, ok := decodeCredentialPayload(w, r)
		if !ok {
			return
		}
		err := accounts.Register(r.Context(), store, payload.Username, accounts.PlainText(payload.Password))
		switch {
		case errors.Is(err, accounts.ErrNotInvited):
			http.Error(w, "not allowed to register", http.StatusForbidden)
			return
		case errors.Is(err, accounts.ErrAlreadyRegistered):
			http.Error(w, "username already registered", http.StatusConflict)
			return
		case err != nil:
			log.Error().Err(err).Str("username", payload.Username).Msg("Unable to complete registration")
			http.Error(w, "unable to complete registration", http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusCreated, registerResponse{Username: payload.Username})
	}
}

func loginAccount(store *ledger.L) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logutil.GetOrDefault(r.Context())
		payload, ok := decodeCredentialPayload(w, r)
		if !ok {
			return
		}
		token, err := accounts.Login(r.Context(), store, payload.Username, accounts.PlainText(payload.Password))
		switch {
		case errors.Is(err, accounts.ErrInvalidCredentials):
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		case err != nil:
			log.Error().Err(err).Str("username", payload.Username).Msg("Unable to complete login")
			http.Error(w, "unable to complete login", http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, loginResponse{Username: payload.Username, Token: token})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Add("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
