package service

import (
	"github.com/partsbay/partsbay/internal/cache"
	"github.com/partsbay/partsbay/internal/repository"
	"github.com/partsbay/partsbay/internal/storage"
	"github.com/partsbay/partsbay/internal/telegram"
)

type Repos struct {
	Users    repository.IUserRepo
	Products repository.IProductRepo
	Offers   repository.IOfferRepo
	AuthLog  repository.IAuthLogRepo
}

type Services struct {
	AuthService    AuthServicer
	ProductService ProductServicer
	OfferService   OfferServicer
	AuctionService AuctionServicer
}

func NewServices(repos Repos, s storage.Storager, c cache.Cacher, verifier *telegram.Verifier, hub Publisher, feed ChangeNotifier) (*Services, error) {
	authService, err := NewAuthService(repos.Users, repos.AuthLog, verifier)
	if err != nil {
		return nil, err
	}
	productService, err := NewProductService(repos.Products, s, c)
	if err != nil {
		return nil, err
	}
	offerService, err := NewOfferService(repos.Offers, repos.Products, hub, feed, c)
	if err != nil {
		return nil, err
	}
	auctionService, err := NewAuctionService(repos.Offers)
	if err != nil {
		return nil, err
	}
	return &Services{
		AuthService:    authService,
		ProductService: productService,
		OfferService:   offerService,
		AuctionService: auctionService,
	}, nil
}
