package api

import (
	"net/http"

	"github.com/example/shopwise/internal/api/response"
	"github.com/example/shopwise/internal/command"
)

// Register creates a customer account and signs them in with a cookie and a
// token in the body.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var cmd command.RegisterCustomer
	if err := decodeBody(w, r, &cmd); err != nil {
		response.Error(w, r, err)
		return
	}

	session, err := h.commands.Register(r.Context(), cmd)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	setSessionCookie(w, r, session)
	response.JSON(w, http.StatusCreated, response.Envelope{
		Success: true,
		Message: "Registration successful",
		Data:    session,
	})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var cmd command.CustomerLogin
	if err := decodeBody(w, r, &cmd); err != nil {
		response.Error(w, r, err)
		return
	}

	session, err := h.commands.Login(r.Context(), cmd)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	setSessionCookie(w, r, session)
	response.Success(w, http.StatusOK, session)
}

// Logout clears the cookie. Tokens are stateless, so a bearer token stays
// valid until it expires.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, r)
	response.Message(w, http.StatusOK, "Logged out successfully")
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.queries.GetUser(r.Context(), customerID(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, u)
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var cmd command.UpdateProfile
	if err := decodeBody(w, r, &cmd); err != nil {
		response.Error(w, r, err)
		return
	}
	cmd.UserID = customerID(r)

	u, err := h.commands.UpdateProfile(r.Context(), cmd)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Envelope{
		Success: true,
		Message: "Profile updated successfully",
		Data:    u,
	})
}

func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var cmd command.ChangePassword
	if err := decodeBody(w, r, &cmd); err != nil {
		response.Error(w, r, err)
		return
	}
	cmd.UserID = customerID(r)

	if err := h.commands.ChangePassword(r.Context(), cmd); err != nil {
		response.Error(w, r, err)
		return
	}
	response.Message(w, http.StatusOK, "Password changed successfully")
}
