package http

import (
	"net/http"

	"lernapp-service/internal/app"
	"lernapp-service/internal/domain"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Confirm  string `json:"confirm_password"`
}

type registerResponse struct {
	Message string `json:"message"`
	User    string `json:"user"`
	Email   string `json:"email"`
}

// Register creates an account. confirm_password is optional for API clients.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Confirm == "" {
		req.Confirm = req.Password
	}
	err := h.service.Identity.Register(r.Context(), app.Registration{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Confirm:  req.Confirm,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, registerResponse{Message: "registration successful", User: req.Username, Email: req.Email})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type profileResponse struct {
	User     string  `json:"user"`
	Email    string  `json:"email,omitempty"`
	Points   int     `json:"points"`
	ClubID   *string `json:"clubId"`
	ClubName *string `json:"clubName"`
	IsAdmin  bool    `json:"isAdmin"`
}

type loginResponse struct {
	Message string `json:"message"`
	profileResponse
	Token string `json:"token"`
}

func (h *Handler) profile(r *http.Request, u domain.User) profileResponse {
	p := profileResponse{User: u.Name, Points: u.Points, IsAdmin: u.IsAdmin()}
	if u.Club != nil {
		id, name := u.Club.ClubID, u.Club.ClubName
		p.ClubID, p.ClubName = &id, &name
	}
	if h.accounts != nil {
		if account, err := h.accounts.Account(r.Context(), u.Name); err == nil {
			p.Email = account.Email
		}
	}
	return p
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	session, err := h.service.Identity.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Message:         "login successful",
		profileResponse: h.profile(r, session.Profile()),
		Token:           session.Token(),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())
	if err := h.service.Identity.Logout(r.Context(), session.Token()); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

// Me re-reads the caller's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.Identity.Refresh(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.profile(r, u))
}

func (h *Handler) LastUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"user": h.service.Identity.LastUser(r.Context())})
}

type resetRequest struct {
	Email string `json:"email"`
}

// RequestPasswordReset answers identically whether or not the email is known.
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.accounts.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "if the email is registered, a reset link has been sent"})
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.accounts.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "password has been reset"})
}
