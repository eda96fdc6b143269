package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/partsbay/partsbay/internal/model"
	"github.com/partsbay/partsbay/internal/service"
)

const offerParamKey string = "offerId"

type OfferHandler struct {
	svc service.OfferServicer
}

func NewOfferHandler(svc service.OfferServicer) (*OfferHandler, error) {
	return &OfferHandler{svc: svc}, nil
}

// CreateOffer godoc
//
//	@Summary		Make an Offer
//	@Description	Place an offer on a product. One pending offer per buyer per product.
//	@Tags			Offers
//	@Accept			json
//	@Produce		json
//	@Success		201	{object}	map[string]any
//	@Failure		400	{object}	map[string]any
//	@Failure		401	{object}	map[string]any
//	@Failure		409	{object}	map[string]any
//	@Router			/offers [post]
func (h *OfferHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var req model.CreateOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidJson.Error(), "Invalid JSON format", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidRequest.Error(), "Input validation failed", validationDetails(err))
		return
	}

	claims := GetUserClaims(r.Context())
	if claims == nil {
		RespondErrorJSON(w, r, http.StatusUnauthorized, ErrAuthFailed.Error(), "user claims not found in context", nil)
		return
	}

	offer, err := h.svc.CreateOffer(r.Context(), claims.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			RespondErrorJSON(w, r, http.StatusNotFound, ErrProductNotFound.Error(), "Product not found", nil)
		case errors.Is(err, service.ErrSelfOffer):
			RespondErrorJSON(w, r, http.StatusBadRequest, ErrSelfOffer.Error(), "you cannot make an offer on your own product", nil)
		case errors.Is(err, service.ErrPendingOfferExists):
			RespondErrorJSON(w, r, http.StatusConflict, ErrPendingOfferExists.Error(), "you already have a pending offer on this product", nil)
		default:
			slog.Error("[DB] failed to create offer", "buyer_id", claims.UserID, "error", err)
			RespondErrorJSON(w, r, http.StatusInternalServerError, ErrOfferCreateFailed.Error(), "failed to create offer", nil)
		}
		return
	}

	resp := map[string]any{
		"offer": offer,
	}
	RespondSuccessJSON(w, r, http.StatusCreated, "Offer created successfully", resp)
}

// CancelOffer godoc
//
//	@Summary		Cancel an Offer
//	@Description	Cancel the buyer's own pending offer
//	@Tags			Offers
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		401	{object}	map[string]any
//	@Failure		404	{object}	map[string]any
//	@Failure		409	{object}	map[string]any
//	@Router			/offers/{offerId}/cancel [patch]
func (h *OfferHandler) CancelOffer(w http.ResponseWriter, r *http.Request) {
	offerId, ok := parseUUIDParam(w, r, offerParamKey)
	if !ok {
		return
	}
	claims := GetUserClaims(r.Context())
	if claims == nil {
		RespondErrorJSON(w, r, http.StatusUnauthorized, ErrAuthFailed.Error(), "user claims not found in context", nil)
		return
	}

	offer, err := h.svc.CancelOffer(r.Context(), claims.UserID, offerId)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOfferNotFound):
			RespondErrorJSON(w, r, http.StatusNotFound, ErrOfferNotFound.Error(), "Offer not found", nil)
		case errors.Is(err, service.ErrNotOfferOwner):
			RespondErrorJSON(w, r, http.StatusForbidden, ErrNotOfferOwner.Error(), "offer belongs to another buyer", nil)
		case errors.Is(err, service.ErrOfferNotPending):
			RespondErrorJSON(w, r, http.StatusConflict, ErrOfferNotPending.Error(), "offer is no longer pending", nil)
		default:
			slog.Error("[DB] failed to cancel offer", "offer_id", offerId, "error", err)
			RespondErrorJSON(w, r, http.StatusInternalServerError, ErrDb.Error(), "failed to cancel offer", nil)
		}
		return
	}

	resp := map[string]any{
		"offer": offer,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Offer cancelled successfully", resp)
}

// RespondToOffer godoc
//
//	@Summary		Accept or Reject an Offer
//	@Description	Seller response to a pending offer on their product
//	@Tags			Offers
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		401	{object}	map[string]any
//	@Failure		404	{object}	map[string]any
//	@Failure		409	{object}	map[string]any
//	@Router			/offers/{offerId}/accept [patch]
func (h *OfferHandler) RespondToOffer(accept bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offerId, ok := parseUUIDParam(w, r, offerParamKey)
		if !ok {
			return
		}
		claims := GetUserClaims(r.Context())
		if claims == nil {
			RespondErrorJSON(w, r, http.StatusUnauthorized, ErrAuthFailed.Error(), "user claims not found in context", nil)
			return
		}

		var req model.RespondOfferRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidJson.Error(), "Invalid JSON format", nil)
				return
			}
		}

		offer, err := h.svc.RespondToOffer(r.Context(), claims.UserID, offerId, accept, req.Response)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrOfferNotFound):
				RespondErrorJSON(w, r, http.StatusNotFound, ErrOfferNotFound.Error(), "Offer not found", nil)
			case errors.Is(err, service.ErrNotProductSeller):
				RespondErrorJSON(w, r, http.StatusForbidden, ErrNotProductSeller.Error(), "product belongs to another seller", nil)
			case errors.Is(err, service.ErrOfferNotPending):
				RespondErrorJSON(w, r, http.StatusConflict, ErrOfferNotPending.Error(), "offer is no longer pending", nil)
			default:
				slog.Error("[DB] failed to respond to offer", "offer_id", offerId, "error", err)
				RespondErrorJSON(w, r, http.StatusInternalServerError, ErrDb.Error(), "failed to respond to offer", nil)
			}
			return
		}

		resp := map[string]any{
			"offer": offer,
		}
		RespondSuccessJSON(w, r, http.StatusOK, "Offer updated successfully", resp)
	}
}

// OfferCounts godoc
//
//	@Summary		Offer counts by status
//	@Description	Count the authenticated buyer's offers grouped by status
//	@Tags			Offers
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		401	{object}	map[string]any
//	@Router			/offers/counts [get]
func (h *OfferHandler) OfferCounts(w http.ResponseWriter, r *http.Request) {
	claims := GetUserClaims(r.Context())
	if claims == nil {
		RespondErrorJSON(w, r, http.StatusUnauthorized, ErrAuthFailed.Error(), "user claims not found in context", nil)
		return
	}

	counts, err := h.svc.CountsByBuyer(r.Context(), claims.UserID)
	if err != nil {
		slog.Error("[DB] failed to count offers", "buyer_id", claims.UserID, "error", err)
		RespondErrorJSON(w, r, http.StatusInternalServerError, ErrDb.Error(), "failed to count offers", nil)
		return
	}

	resp := map[string]any{
		"counts": counts,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Offer counts fetched successfully", resp)
}

// CompetitiveData godoc
//
//	@Summary		Competitive data for a product
//	@Description	Authoritative view of pending offers on one product from the viewer's side
//	@Tags			Offers
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		401	{object}	map[string]any
//	@Router			/products/{productId}/competitive [get]
func (h *OfferHandler) CompetitiveData(w http.ResponseWriter, r *http.Request) {
	productId, ok := parseUUIDParam(w, r, productParamKey)
	if !ok {
		return
	}
	claims := GetUserClaims(r.Context())
	if claims == nil {
		RespondErrorJSON(w, r, http.StatusUnauthorized, ErrAuthFailed.Error(), "user claims not found in context", nil)
		return
	}

	cd, err := h.svc.CompetitiveData(r.Context(), productId, claims.UserID)
	if err != nil {
		slog.Error("[DB] failed to fetch competitive data", "product_id", productId, "error", err)
		RespondErrorJSON(w, r, http.StatusInternalServerError, ErrDb.Error(), "failed to fetch competitive data", nil)
		return
	}

	resp := map[string]any{
		"competitive": cd,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Competitive data fetched successfully", resp)
}
