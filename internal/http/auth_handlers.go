package httpapi

import (
	"net/http"

	"freeradical-go/internal/services"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, token, err := services.Login(s.DB, s.Tokens, req.Email, req.Password)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, LoginResponse{Token: token, User: toUserDTO(user)})
}

// Logout is stateless; tokens simply expire.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	userID := CurrentUserID(r)
	if userID == "" {
		WriteError(w, http.StatusNotFound, "API keys have no user")
		return
	}
	user, err := services.GetUser(s.DB, userID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toUserDTO(user))
}
