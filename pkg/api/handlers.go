package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gitlab.connectwisedev.com/pos-service/models"
	"gitlab.connectwisedev.com/pos-service/pkg/pos"
	"gitlab.connectwisedev.com/pos-service/pkg/upload"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temporary files.
const multipartMemory = 1 << 20

func pageRequest(r *http.Request) pos.PageRequest {
	return pos.PageRequest{Page: queryInt(r, "page"), Limit: queryInt(r, "limit")}
}

// queryInt returns 0 for absent or malformed values, which the services
// treat as "use the default".
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return &pos.Error{Kind: pos.KindInvalidInput, Message: "Invalid JSON body", Err: err}
	}
	return nil
}

type createCustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	customer, err := h.customers.Create(r.Context(), pos.NewCustomer{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, customer)
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	page, err := h.customers.List(r.Context(), pageRequest(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, listResponse("customers", page))
}

var uploadMessages = map[error]string{
	upload.ErrUnsupportedType: "Only image files are allowed!",
	upload.ErrTooLarge:        "Image must be 5MB or smaller",
}

// createProduct stores the image first, then the product. The image is
// removed again if the product is rejected.
func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if !errors.As(err, &maxErr) {
			err = &pos.Error{Kind: pos.KindInvalidInput, Message: "File upload error", Err: err}
		}
		h.writeError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["productImage"]
	if len(files) == 0 {
		h.writeError(w, r, &pos.Error{Kind: pos.KindInvalidInput, Message: "All fields are required"})
		return
	}

	imageURL, err := h.images.Save(files[0])
	if err != nil {
		for sentinel, msg := range uploadMessages {
			if errors.Is(err, sentinel) {
				err = &pos.Error{Kind: pos.KindUploadRejected, Message: msg, Err: err}
				break
			}
		}
		h.writeError(w, r, err)
		return
	}

	product, err := h.products.Create(r.Context(), pos.NewProduct{
		Name:        r.FormValue("productName"),
		Price:       r.FormValue("price"),
		Description: r.FormValue("description"),
		Image:       imageURL,
	})
	if err != nil {
		if rmErr := h.images.Remove(imageURL); rmErr != nil {
			h.logger.Warn("orphaned_image", "image", imageURL, "error", rmErr)
		}
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, product)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	page, err := h.products.List(r.Context(), pos.ProductQuery{
		PageRequest: pageRequest(r),
		Search:      r.URL.Query().Get("search"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, listResponse("products", page))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

type createOrderRequest struct {
	CustomerID string             `json:"customerId"`
	Items      []models.OrderItem `json:"items"`
	Total      *float64           `json:"total"`
	Tax        *float64           `json:"tax"`
	Discount   *float64           `json:"discount"`
	Shipping   *float64           `json:"shipping"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	order, err := h.orders.Create(r.Context(), pos.NewOrder{
		CustomerID: req.CustomerID,
		Items:      req.Items,
		Total:      req.Total,
		Tax:        req.Tax,
		Discount:   req.Discount,
		Shipping:   req.Shipping,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, order)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	page, err := h.orders.List(r.Context(), pageRequest(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, listResponse("orders", page))
}
