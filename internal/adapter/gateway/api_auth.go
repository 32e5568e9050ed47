package gateway

import (
	"errors"
	"net/http"

	"genui-gateway/internal/domain"
)

// saveTokenRequest is the body of POST /api/auth/token.
type saveTokenRequest struct {
	Token       string `json:"token"`
	ProfileName string `json:"profile_name,omitempty"`
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Credentials.Status())
}

// handleAuthSave validates and stores a token. A malformed token is a 400
// carrying the validation message, not a 401.
func (s *Server) handleAuthSave(w http.ResponseWriter, r *http.Request) {
	s.limitBody(w, r)
	var req saveTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.deps.Logger, err)
		return
	}

	if err := s.deps.Credentials.Save(req.Token, req.ProfileName); err != nil {
		if errors.Is(err, domain.ErrAuthInvalid) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
				Code:    domain.CodeAuthInvalid,
				Message: publicMessage(err),
			}})
			return
		}
		writeError(w, s.deps.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  s.deps.Credentials.Status(),
	})
}

func (s *Server) handleAuthDelete(w http.ResponseWriter, _ *http.Request) {
	existed, err := s.deps.Credentials.Delete()
	if err != nil {
		writeError(w, s.deps.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"deleted": existed,
		"status":  s.deps.Credentials.Status(),
	})
}
