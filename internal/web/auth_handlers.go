package web

import (
	"net/http"

	"github.com/roomly/roomly/internal/auth"
)

// apiSignUp creates an account and signs it in.
func (s *Server) apiSignUp(w http.ResponseWriter, r *http.Request) {
	var req auth.SignUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apiFail(w, r, err)
		return
	}

	if _, err := s.accounts.SignUp(req); err != nil {
		apiFail(w, r, err)
		return
	}

	sess, err := s.accounts.SignIn(auth.SignInRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, sess, http.StatusCreated)
}

// apiSignIn exchanges an email and password for a token.
func (s *Server) apiSignIn(w http.ResponseWriter, r *http.Request) {
	var req auth.SignInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apiFail(w, r, err)
		return
	}

	sess, err := s.accounts.SignIn(req)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, sess, http.StatusOK)
}
