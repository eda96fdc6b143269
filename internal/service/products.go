package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/partsbay/partsbay/internal/cache"
	"github.com/partsbay/partsbay/internal/model"
	"github.com/partsbay/partsbay/internal/repository"
	"github.com/partsbay/partsbay/internal/storage"
	"github.com/partsbay/partsbay/internal/types"
	"github.com/partsbay/partsbay/internal/upload"
)

const productImageBucket = "product-images"

type ProductServicer interface {
	AddProduct(ctx context.Context, sellerID uuid.UUID, req model.CreateProductRequest) (uuid.UUID, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*types.Product, error)
	UploadProductImages(ctx context.Context, files []upload.File) ([]upload.Result, error)
	GetProductUrls(ctx context.Context, productID uuid.UUID) ([]string, error)
	ProductsBySellerID(ctx context.Context, sellerID uuid.UUID, limit, offset uint) ([]types.Product, error)
}

type ProductService struct {
	products repository.IProductRepo
	storage  storage.Storager
	uploader *upload.Uploader
	cache    cache.Cacher
}

func NewProductService(products repository.IProductRepo, s storage.Storager, c cache.Cacher) (*ProductService, error) {
	return &ProductService{
		products: products,
		storage:  s,
		uploader: upload.New(s, productImageBucket),
		cache:    c,
	}, nil
}

// AddProduct persists the listing and claims its images out of the temp list,
// so the orphan cleanup never touches images that found a product.
func (ps *ProductService) AddProduct(ctx context.Context, sellerID uuid.UUID, req model.CreateProductRequest) (uuid.UUID, error) {
	product := &types.Product{
		SellerID:    sellerID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Images:      req.Images,
	}
	if err := ps.products.AddProduct(ctx, product); err != nil {
		return uuid.Nil, err
	}

	for _, key := range req.Images {
		if err := ps.cache.RemoveImageNameFromTempList(ctx, key); err != nil {
			slog.Warn("[PRODUCT] failed to claim image from temp list", "key", key, "error", err)
		}
	}
	return product.ID, nil
}

func (ps *ProductService) GetProductByID(ctx context.Context, id uuid.UUID) (*types.Product, error) {
	product, err := ps.products.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// UploadProductImages pushes the batch through the retrying uploader. Each
// stored key lands on the temp list until a product claims it.
func (ps *ProductService) UploadProductImages(ctx context.Context, files []upload.File) ([]upload.Result, error) {
	for i := range files {
		files[i].Name = fmt.Sprintf("%s-%s", uuid.NewString(), files[i].Name)
	}
	results := ps.uploader.UploadAll(ctx, files)
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		if err := ps.cache.AddImageNameToTempList(ctx, res.Key); err != nil {
			slog.Warn("[PRODUCT] failed to track uploaded image", "key", res.Key, "error", err)
		}
	}
	return results, nil
}

func (ps *ProductService) GetProductUrls(ctx context.Context, productID uuid.UUID) ([]string, error) {
	imageKeys, err := ps.products.GetProductImages(ctx, productID)
	if err != nil {
		return nil, err
	}
	if imageKeys == nil {
		return nil, ErrUrlsNotFound
	}

	urls := make([]string, 0, len(imageKeys))
	for _, key := range imageKeys {
		url, err := ps.storage.GetFileUrl(ctx, productImageBucket, key)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (ps *ProductService) ProductsBySellerID(ctx context.Context, sellerID uuid.UUID, limit, offset uint) ([]types.Product, error) {
	return ps.products.ProductsBySellerID(ctx, sellerID, limit, offset)
}
