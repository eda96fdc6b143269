package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/partsbay/partsbay/internal/model"
	"github.com/partsbay/partsbay/internal/service"
	"github.com/partsbay/partsbay/internal/upload"
)

const (
	productParamKey string = "productId"
	sellerParamKey  string = "sellerId"
)

type ProductHandler struct {
	svc service.ProductServicer
}

func NewProductHandler(svc service.ProductServicer) (*ProductHandler, error) {
	return &ProductHandler{svc: svc}, nil
}

// CreateProduct godoc
//
//	@Summary		Create a new Product
//	@Description	Create a new product listing
//	@Tags			Products
//	@Accept			json
//	@Produce		json
//	@Success		201	{object}	map[string]any
//	@Failure		400	{object}	map[string]any
//	@Failure		401	{object}	map[string]any
//	@Router			/products [post]
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req model.CreateProductRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidJson.Error(), "invalid json format", nil)
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

	productId, err := h.svc.AddProduct(r.Context(), claims.UserID, req)
	if err != nil {
		slog.Error("[DB] failed to create product", "seller_id", claims.UserID, "error", err)
		RespondErrorJSON(w, r, http.StatusInternalServerError, ErrInternalServer.Error(), "Internal server error", nil)
		return
	}

	resp := map[string]any{
		"product_id": productId.String(),
	}
	RespondSuccessJSON(w, r, http.StatusCreated, "Product created successfully", resp)
}

// UploadImages godoc
//
//	@Summary		Upload Product Images
//	@Description	Upload images for a product, retrying transient storage failures per file
//	@Tags			Products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		400	{object}	map[string]any
//	@Failure		401	{object}	map[string]any
//	@Router			/products/upload-images [post]
func (h *ProductHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 50<<20) // Limit request body to 50MB
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidForm.Error(), "failed to parse multipart form", nil)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}()

	fileHeaders := r.MultipartForm.File["images"]
	if len(fileHeaders) == 0 {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrMissingFiles.Error(), "No images uploaded", nil)
		return
	}

	var files []upload.File
	for _, fileHeader := range fileHeaders {
		if fileHeader.Size > 10<<20 { // 10MB limit per file
			fileNameResp := fmt.Sprintf("File %s exceeds 10MB limit", fileHeader.Filename)
			RespondErrorJSON(w, r, http.StatusBadRequest, ErrLargeFile.Error(), fileNameResp, nil)
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			RespondErrorJSON(w, r, http.StatusInternalServerError, ErrFileOpen.Error(), "Failed to process uploaded file", nil)
			return
		}
		fileData, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			RespondErrorJSON(w, r, http.StatusInternalServerError, ErrFileReadError.Error(), "failed to read uploaded file", nil)
			return
		}

		detectedType := http.DetectContentType(fileData)
		if !strings.HasPrefix(detectedType, "image/") {
			fileNameResp := fmt.Sprintf("File %s is not a valid image", fileHeader.Filename)
			RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidFile.Error(), fileNameResp, nil)
			return
		}

		files = append(files, upload.File{Name: fileHeader.Filename, Data: fileData})
	}

	results, err := h.svc.UploadProductImages(r.Context(), files)
	if err != nil {
		slog.Error("Error on uploading images", "error", err.Error())
		RespondErrorJSON(w, r, http.StatusInternalServerError, ErrUploadFailed.Error(), "failed to store images", nil)
		return
	}

	var imageNames []string
	var failed []model.ErrorDetails
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, model.ErrorDetails{Field: res.Name, Issue: res.Err.Error()})
			continue
		}
		imageNames = append(imageNames, res.Key)
	}
	if len(failed) > 0 {
		RespondErrorJSON(w, r, http.StatusBadGateway, ErrUploadFailed.Error(), "some images could not be stored", failed)
		return
	}

	resp := map[string]any{
		"image_names": imageNames,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Images uploaded successfully", resp)
}

// GetProductImageUrls godoc
//
//	@Summary		Get Product Image URLs
//	@Description	Retrieve image URLs for a specific product by the given product ID
//	@Tags			Products
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		400	{object}	map[string]any
//	@Failure		500	{object}	map[string]any
//	@Router			/products/{productId}/images [get]
func (h *ProductHandler) GetProductImageUrls(w http.ResponseWriter, r *http.Request) {
	productId, ok := parseUUIDParam(w, r, productParamKey)
	if !ok {
		return
	}

	imageUrls, err := h.svc.GetProductUrls(r.Context(), productId)
	if err != nil {
		if errors.Is(err, service.ErrUrlsNotFound) {
			RespondErrorJSON(w, r, http.StatusNotFound, ErrUrlsNotFound.Error(), "Failed to retrieve images", nil)
			return
		}
		slog.Error("[DB] failed to fetch product images", "product_id", productId, "error", err)
		RespondErrorJSON(w, r, http.StatusInternalServerError, ErrDb.Error(), "failed to retrieve product urls", nil)
		return
	}

	if imageUrls == nil {
		imageUrls = []string{}
	}
	resp := map[string]any{
		"image_urls": imageUrls,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Images retrieved successfully", resp)
}

// GetProductByID godoc
//
//	@Summary		Get Product by ID
//	@Description	Retrieve a specific product by the given product ID
//	@Tags			Products
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		400	{object}	map[string]any
//	@Failure		500	{object}	map[string]any
//	@Router			/products/{productId} [get]
func (h *ProductHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	productId, ok := parseUUIDParam(w, r, productParamKey)
	if !ok {
		return
	}

	product, err := h.svc.GetProductByID(r.Context(), productId)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			RespondErrorJSON(w, r, http.StatusNotFound, ErrProductNotFound.Error(), "Product not found", nil)
			return
		}
		slog.Error("[DB] failed to fetch product", "product_id", productId, "error", err)
		RespondErrorJSON(w, r, http.StatusInternalServerError, ErrDb.Error(), "failed to retrieve product", nil)
		return
	}

	resp := map[string]any{
		"product": product,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Product fetched successfully", resp)
}

// ProductsBySellerID godoc
//
//	@Summary		Get Products by Seller ID
//	@Description	Retrieve products listed by a specific seller. Defaults to the current user.
//	@Tags			Products
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		400	{object}	map[string]any
//	@Failure		401	{object}	map[string]any
//	@Failure		500	{object}	map[string]any
//	@Router			/products/seller/{sellerId} [get]
func (h *ProductHandler) ProductsBySellerID(w http.ResponseWriter, r *http.Request) {
	var sellerId uuid.UUID
	if raw := chi.URLParam(r, sellerParamKey); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			RespondErrorJSON(w, r, http.StatusBadRequest, ErrMissingParam.Error(), "Invalid seller ID", nil)
			return
		}
		sellerId = parsed
	} else {
		claims := GetUserClaims(r.Context())
		if claims == nil {
			RespondErrorJSON(w, r, http.StatusUnauthorized, ErrAuthFailed.Error(), "user claims not found in context", nil)
			return
		}
		sellerId = claims.UserID
	}

	limit, offset := pagination(r.URL.Query())

	products, err := h.svc.ProductsBySellerID(r.Context(), sellerId, limit, offset)
	if err != nil {
		slog.Error("[DB] failed to find products", "seller_id", sellerId, "error", err)
		RespondErrorJSON(w, r, http.StatusInternalServerError, ErrDb.Error(), "failed to retrieve products", nil)
		return
	}

	resp := map[string]any{
		"products": products,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "products fetched successfully", resp)
}

// pagination reads limit/offset query params, defaulting to 10/0.
func pagination(q url.Values) (limit, offset uint) {
	limit, offset = 10, 0
	if raw := q.Get("limit"); raw != "" {
		fmt.Sscanf(raw, "%d", &limit)
	}
	if raw := q.Get("offset"); raw != "" {
		fmt.Sscanf(raw, "%d", &offset)
	}
	return limit, offset
}

// parseUUIDParam pulls a UUID path param, responding 400 on absence or junk.
func parseUUIDParam(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, key)
	if raw == "" {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrMissingParam.Error(), key+" is required", nil)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrMissingParam.Error(), key+" is not a valid uuid", nil)
		return uuid.Nil, false
	}
	return id, true
}
