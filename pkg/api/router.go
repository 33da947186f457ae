// Package api exposes the storefront services over HTTP.
package api

import (
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gitlab.connectwisedev.com/pos-service/pkg/pos"
	"gitlab.connectwisedev.com/pos-service/pkg/ratelimit"
	"gitlab.connectwisedev.com/pos-service/pkg/upload"
)

// MaxBodyBytes caps JSON and form request bodies.
const MaxBodyBytes = 10 << 20

// ImageStore saves uploaded product images and returns their URL.
type ImageStore interface {
	Save(fh *multipart.FileHeader) (string, error)
	Remove(url string) error
}

// Handler serves the /api resources.
type Handler struct {
	customers *pos.CustomerService
	products  *pos.ProductService
	orders    *pos.OrderService
	images    ImageStore
	logger    *slog.Logger
}

func NewHandler(customers *pos.CustomerService, products *pos.ProductService, orders *pos.OrderService, images ImageStore, logger *slog.Logger) *Handler {
	return &Handler{
		customers: customers,
		products:  products,
		orders:    orders,
		images:    images,
		logger:    logger,
	}
}

// RouterOptions configures the cross-cutting parts of the router.
type RouterOptions struct {
	// Limiter guards /api/*. Nil disables rate limiting.
	Limiter ratelimit.Limiter
	// UploadDir is served under /uploads/ when set.
	UploadDir string
}

func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, h.logger, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, h.logger, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequestSize(MaxBodyBytes))
		if opts.Limiter != nil {
			r.Use(rateLimit(opts.Limiter, h.logger))
		}

		r.Post("/customers", h.createCustomer)
		r.Get("/customers", h.listCustomers)

		r.Post("/products", h.createProduct)
		r.Get("/products", h.listProducts)
		r.Delete("/products/{id}", h.deleteProduct)

		r.Post("/orders", h.createOrder)
		r.Get("/orders", h.listOrders)
	})

	if opts.UploadDir != "" {
		fs := http.StripPrefix(upload.URLPrefix, http.FileServer(http.Dir(opts.UploadDir)))
		r.Handle(upload.URLPrefix+"*", fs)
	}
	return r
}
