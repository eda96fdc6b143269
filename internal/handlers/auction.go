package handlers

import (
	"log/slog"
	"net/http"

	"github.com/partsbay/partsbay/internal/service"
	"github.com/partsbay/partsbay/internal/types"
)

type AuctionHandler struct {
	svc service.AuctionServicer
}

func NewAuctionHandler(svc service.AuctionServicer) (*AuctionHandler, error) {
	return &AuctionHandler{svc: svc}, nil
}

// AuctionProducts godoc
//
//	@Summary		Auction products for the current buyer
//	@Description	Products the buyer has offered on, annotated with their own offer and competitive data, filtered by status group
//	@Tags			Auction
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		400	{object}	map[string]any
//	@Failure		401	{object}	map[string]any
//	@Router			/auction/products [get]
func (h *AuctionHandler) AuctionProducts(w http.ResponseWriter, r *http.Request) {
	claims := GetUserClaims(r.Context())
	if claims == nil {
		RespondErrorJSON(w, r, http.StatusUnauthorized, ErrAuthFailed.Error(), "user claims not found in context", nil)
		return
	}

	filter := types.StatusFilter(r.URL.Query().Get("status"))
	if filter == "" {
		filter = types.FilterActive
	}
	if !filter.Valid() {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrBadStatusFilter.Error(), "unknown status filter", nil)
		return
	}

	products, err := h.svc.GetAuctionProducts(r.Context(), claims.UserID, filter)
	if err != nil {
		slog.Error("[DB] failed to assemble auction products", "viewer_id", claims.UserID, "error", err)
		RespondErrorJSON(w, r, http.StatusInternalServerError, ErrDb.Error(), "failed to retrieve auction products", nil)
		return
	}

	if products == nil {
		products = []types.AuctionProduct{}
	}
	resp := map[string]any{
		"products": products,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Auction products fetched successfully", resp)
}
