package service

import "errors"

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")

	// offers
	ErrSelfOffer          = errors.New("seller cannot make an offer on their own product")
	ErrProductNotFound    = errors.New("product not found")
	ErrOfferNotFound      = errors.New("offer not found")
	ErrOfferNotPending    = errors.New("offer is no longer pending")
	ErrPendingOfferExists = errors.New("a pending offer on this product already exists")
	ErrNotOfferOwner      = errors.New("offer belongs to another buyer")
	ErrNotProductSeller   = errors.New("product belongs to another seller")

	// auth
	ErrReplayedLogin = errors.New("login payload already used")

	// products
	ErrUrlsNotFound = errors.New("image urls not found")
)
