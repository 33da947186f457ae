package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.connectwisedev.com/pos-service/pkg/pos"
	"gitlab.connectwisedev.com/pos-service/pkg/ratelimit"
	"gitlab.connectwisedev.com/pos-service/pkg/store"
	"gitlab.connectwisedev.com/pos-service/pkg/upload"
)

type testServer struct {
	handler http.Handler
	mem     *store.MemoryStore
	images  *upload.DiskStore
}

func newTestServer(t *testing.T, limiter ratelimit.Limiter) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := store.NewMemoryStore()
	images, err := upload.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	h := NewHandler(
		pos.NewCustomerService(mem, logger),
		pos.NewProductService(mem, nil, logger),
		pos.NewOrderService(mem, mem, mem, logger),
		images,
		logger,
	)
	return &testServer{
		handler: NewRouter(h, RouterOptions{Limiter: limiter, UploadDir: images.Dir()}),
		mem:     mem,
		images:  images,
	}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return s.do(t, req)
}

func (s *testServer) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, httptest.NewRequest(http.MethodGet, path, nil))
}

func productForm(t *testing.T, fields map[string]string, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="productImage"; filename="%s"`, filename))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/products", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type envelope struct {
	Message string `json:"message"`
	Error   struct {
		Message string `json:"message"`
		Status  int    `json:"status"`
	} `json:"error"`
}

type idOnly struct {
	ID string `json:"_id"`
}

func (s *testServer) createCustomer(t *testing.T, email string) string {
	t.Helper()
	rec := s.postJSON(t, "/api/customers", map[string]string{"name": "Ada", "email": email, "phone": "555-0100"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[idOnly](t, rec).ID
}

func (s *testServer) createProduct(t *testing.T, name, price string) string {
	t.Helper()
	rec := s.do(t, productForm(t, map[string]string{"productName": name, "price": price}, "item.png", "image/png", []byte("png")))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[idOnly](t, rec).ID
}

func TestCustomers(t *testing.T) {
	s := newTestServer(t, nil)

	id := s.createCustomer(t, "ada@example.com")
	assert.NotEmpty(t, id)

	rec := s.postJSON(t, "/api/customers", map[string]string{"name": "Ada", "email": "ada@example.com", "phone": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode[envelope](t, rec)
	assert.Equal(t, "Email already registered", env.Message, "the storefront reads the top-level message")
	assert.Equal(t, "Email already registered", env.Error.Message)
	assert.Equal(t, http.StatusBadRequest, env.Error.Status)

	rec = s.postJSON(t, "/api/customers", map[string]string{"name": "Bob", "email": "not-an-email", "phone": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid email format", decode[envelope](t, rec).Error.Message)

	req := httptest.NewRequest(http.MethodPost, "/api/customers", strings.NewReader("{broken"))
	assert.Equal(t, http.StatusBadRequest, s.do(t, req).Code)

	rec = s.get(t, "/api/customers?page=abc&limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Customers   []idOnly `json:"customers"`
		CurrentPage int      `json:"currentPage"`
		TotalPages  int      `json:"totalPages"`
		Total       int      `json:"total"`
	}](t, rec)
	assert.Equal(t, 1, list.CurrentPage)
	assert.Equal(t, 1, list.TotalPages)
	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Customers, 1)
	assert.Equal(t, id, list.Customers[0].ID)
}

func TestCreateProduct(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, productForm(t, map[string]string{"productName": "Red Mug", "price": "10.00", "description": "Stoneware"}, "mug.png", "image/png", []byte("png-bytes")))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	product := decode[struct {
		ID    string  `json:"_id"`
		Price float64 `json:"price"`
		Image string  `json:"image"`
	}](t, rec)
	assert.Equal(t, 10.0, product.Price)
	require.True(t, strings.HasPrefix(product.Image, "/uploads/product-"))

	img := s.get(t, product.Image)
	assert.Equal(t, http.StatusOK, img.Code)
	assert.Equal(t, "png-bytes", img.Body.String())
}

func TestCreateProduct_RejectsExecutable(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, productForm(t, map[string]string{"productName": "Tool", "price": "1"}, "setup.exe", "application/x-msdownload", []byte("MZ")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Only image files are allowed!", decode[envelope](t, rec).Error.Message)
	assert.Equal(t, 0, s.mem.ProductCount())
}

func TestCreateProduct_InvalidFieldsRemoveImage(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, productForm(t, map[string]string{"productName": "Red Mug", "price": "-3"}, "mug.png", "image/png", []byte("png")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, s.mem.ProductCount())

	entries, err := os.ReadDir(s.images.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)

	rec = s.do(t, productForm(t, map[string]string{"productName": "Red Mug", "price": "3"}, "", "", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "All fields are required", decode[envelope](t, rec).Error.Message)
}

func TestListProducts_Search(t *testing.T) {
	s := newTestServer(t, nil)
	s.createProduct(t, "Red Mug", "10")
	s.createProduct(t, "Blue Plate", "4")

	rec := s.get(t, "/api/products?search=RED")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Products []struct {
			Name string `json:"name"`
		} `json:"products"`
		Total int `json:"total"`
	}](t, rec)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "Red Mug", list.Products[0].Name)
	assert.Equal(t, 1, list.Total)
}

func TestDeleteProduct(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createProduct(t, "Red Mug", "10")

	req := httptest.NewRequest(http.MethodDelete, "/api/products/"+id, nil)
	rec := s.do(t, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, s.mem.ProductCount())

	rec = s.do(t, httptest.NewRequest(http.MethodDelete, "/api/products/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrders(t *testing.T) {
	s := newTestServer(t, nil)
	customerID := s.createCustomer(t, "ada@example.com")
	mugID := s.createProduct(t, "Red Mug", "10.00")

	rec := s.postJSON(t, "/api/orders", map[string]any{
		"customerId": customerID,
		"items":      []map[string]any{{"product": mugID, "quantity": 2}},
		"total":      20.02,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Order total mismatch", decode[envelope](t, rec).Message)

	rec = s.postJSON(t, "/api/orders", map[string]any{
		"customerId": "missing",
		"items":      []map[string]any{{"product": mugID, "quantity": 2}},
		"total":      20,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decode[envelope](t, rec)
	assert.Equal(t, "Customer not found", env.Message)
	assert.Equal(t, "Customer not found", env.Error.Message)

	rec = s.postJSON(t, "/api/orders", map[string]any{
		"customerId": customerID,
		"items":      []map[string]any{{"product": "ghost", "quantity": 1}},
		"total":      10,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product ghost not found", decode[envelope](t, rec).Error.Message)

	rec = s.postJSON(t, "/api/orders", map[string]any{"customerId": customerID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Required fields missing", decode[envelope](t, rec).Error.Message)

	rec = s.postJSON(t, "/api/orders", map[string]any{
		"customerId": customerID,
		"items":      []map[string]any{{"product": mugID, "quantity": 2}},
		"total":      20.009,
		"tax":        1.6,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[struct {
		ID       string  `json:"_id"`
		Tax      float64 `json:"tax"`
		Shipping float64 `json:"shipping"`
	}](t, rec)
	assert.Equal(t, 1.6, order.Tax)
	assert.Equal(t, 0.0, order.Shipping)
	assert.Equal(t, 1, s.mem.OrderCount())

	rec = s.get(t, "/api/orders")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Orders []struct {
			ID              string `json:"_id"`
			Customer        string `json:"customer"`
			CustomerDetails struct {
				Name  string `json:"name"`
				Email string `json:"email"`
			} `json:"customerDetails"`
			Items []struct {
				Product        string `json:"product"`
				Quantity       int    `json:"quantity"`
				ProductDetails struct {
					Name  string  `json:"name"`
					Price float64 `json:"price"`
				} `json:"productDetails"`
			} `json:"items"`
		} `json:"orders"`
		Total int `json:"total"`
	}](t, rec)
	require.Len(t, list.Orders, 1)
	got := list.Orders[0]
	assert.Equal(t, order.ID, got.ID)
	assert.Equal(t, customerID, got.Customer)
	assert.Equal(t, "ada@example.com", got.CustomerDetails.Email)
	require.Len(t, got.Items, 1)
	assert.Equal(t, mugID, got.Items[0].Product)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Equal(t, "Red Mug", got.Items[0].ProductDetails.Name)
	assert.Equal(t, 10.0, got.Items[0].ProductDetails.Price)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, ratelimit.NewLocalLimiter(2, 15*time.Minute))

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, s.get(t, "/api/products").Code)
	}
	rec := s.get(t, "/api/products")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, http.StatusTooManyRequests, decode[envelope](t, rec).Error.Status)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, http.StatusOK, s.do(t, req).Code, "a different client has its own budget")

	assert.Equal(t, http.StatusOK, s.get(t, "/healthz").Code, "health checks are not limited")
}

func TestRequestBodyLimit(t *testing.T) {
	s := newTestServer(t, nil)

	huge := `{"name":"` + strings.Repeat("a", MaxBodyBytes) + `","email":"a@example.com","phone":"1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/customers", strings.NewReader(huge))
	rec := s.do(t, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestCrossCutting(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.get(t, "/api/nothing-here")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decode[envelope](t, rec).Error.Message)

	req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec = s.do(t, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = s.get(t, "/healthz")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
