package handlers

import (
	"net/http"

	"github.com/partsbay/partsbay/internal/push"
)

type RealtimeHandler struct {
	hub *push.Hub
}

func NewRealtimeHandler(hub *push.Hub) (*RealtimeHandler, error) {
	return &RealtimeHandler{hub: hub}, nil
}

// Connect godoc
//
//	@Summary		Open the realtime push connection
//	@Description	Upgrade to a websocket carrying offer events for channels the user subscribes to
//	@Tags			Realtime
//	@Success		101
//	@Failure		401	{object}	map[string]any
//	@Router			/realtime [get]
func (h *RealtimeHandler) Connect(w http.ResponseWriter, r *http.Request) {
	claims := GetUserClaims(r.Context())
	if claims == nil {
		RespondErrorJSON(w, r, http.StatusUnauthorized, ErrAuthFailed.Error(), "user claims not found in context", nil)
		return
	}
	h.hub.Serve(w, r, claims.UserID)
}
