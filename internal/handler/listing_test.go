package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"estate-core/internal/middleware"
	"estate-core/internal/model"
	"estate-core/internal/repository"
	"estate-core/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "handler-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	repo   *repository.MemoryRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repo := repository.NewMemoryRepository()
	gold, bronze := "gold", "bronze"
	repo.PutOwner(model.Owner{ID: 1, Role: model.RoleAgent, SubscriptionTier: &gold, SubscriptionStatus: model.SubscriptionActive})
	repo.PutOwner(model.Owner{ID: 2, Role: model.RoleSeeker})
	repo.PutOwner(model.Owner{ID: 3, Role: model.RoleAdmin})
	repo.PutOwner(model.Owner{ID: 4, Role: model.RoleDeveloper, SubscriptionTier: &bronze, SubscriptionStatus: model.SubscriptionActive})

	svc := service.NewListingService(repo, 3)
	router := NewRouter(RouterOptions{
		Listings:   NewListingHandler(svc, 20, 100, 6),
		Embeddings: NewEmbeddingHandler(svc),
		Auth:       middleware.NewAuthenticator(testSecret, "", repo),
		Build:      BuildInfo{Version: "test"},
	})
	return &testServer{router: router, repo: repo}
}

func tokenFor(t *testing.T, id int64) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(id, 10),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func (s *testServer) do(t *testing.T, method, path string, ownerID int64, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if ownerID != 0 {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, ownerID))
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func newListing(title, country string, bedrooms int, price float64) map[string]any {
	return map[string]any{
		"title":         title,
		"price":         price,
		"listing_type":  "sale",
		"property_type": model.PropertyTypeApartment,
		"location":      map[string]any{"country": country, "city": "Lisbon"},
		"bedrooms":      bedrooms,
		"bathrooms":     1,
		"area_sqm":      90,
		"features":      []string{"terrace", "Terrace"},
		"images":        []string{"https://cdn.example/cover.jpg"},
	}
}

func (s *testServer) publish(t *testing.T, ownerID int64, body map[string]any) model.Listing {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/listings", ownerID, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	resp := decode[model.CreateListingResponse](t, w)
	return *resp.Listing
}

func TestHealthAndVersion(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", "/version"} {
		w := s.do(t, http.MethodGet, path, 0, nil)
		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, w.Code)
		}
		if got := decode[map[string]any](t, w)["version"]; got != "test" {
			t.Errorf("%s version = %v", path, got)
		}
	}

	w := s.do(t, http.MethodGet, "/api/v1/nope", 0, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown API route status = %d", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.publish(t, 1, newListing("Match", "Portugal", 3, 400000))
	s.publish(t, 1, newListing("Too small", "Portugal", 1, 200000))
	s.publish(t, 1, newListing("Wrong country", "Spain", 3, 300000))

	w := s.do(t, http.MethodGet, "/api/v1/listings?country=portugal&bedrooms=3&minPrice=abc", 0, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	resp := decode[model.SearchResponse](t, w)
	if resp.Total != 1 || len(resp.Results) != 1 || resp.Results[0].Title != "Match" {
		t.Errorf("unexpected results: %+v", resp)
	}
	if resp.Limit != 20 || resp.Sort != model.SortNewest {
		t.Errorf("defaults = limit %d sort %q", resp.Limit, resp.Sort)
	}

	w = s.do(t, http.MethodGet, "/api/v1/listings?limit=1000&offset=100", 0, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("past-end status = %d", w.Code)
	}
	resp = decode[model.SearchResponse](t, w)
	if len(resp.Results) != 0 || resp.Limit != 100 || resp.Total != 3 {
		t.Errorf("past-end response = %+v", resp)
	}
}

func TestCreateEndpoint(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		ownerID    int64
		body       map[string]any
		wantStatus int
		wantReason string
	}{
		{"anonymous", 0, newListing("A", "Portugal", 1, 1), http.StatusUnauthorized, ""},
		{"seeker", 2, newListing("A", "Portugal", 1, 1), http.StatusForbidden, "not-agent-or-developer"},
		{"invalid body", 1, map[string]any{"title": ""}, http.StatusBadRequest, ""},
		{"agent", 1, newListing("A", "Portugal", 1, 1), http.StatusCreated, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/listings", tt.ownerID, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantReason != "" {
				if got := decode[map[string]any](t, w)["reason"]; got != tt.wantReason {
					t.Errorf("reason = %v, want %s", got, tt.wantReason)
				}
			}
		})
	}
}

func TestCreateEndpoint_RejectsValuesTheSchemaCannotStore(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		field string
		value any
	}{
		{"four letter currency", "currency", "EURO"},
		{"numeric currency", "currency", "978"},
		{"long property type", "property_type", strings.Repeat("x", 51)},
		{"price beyond column precision", "price", 1e12},
		{"area beyond column precision", "area_sqm", 1e8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := newListing("Bad", "Portugal", 1, 1000)
			body[tt.field] = tt.value
			w := s.do(t, http.MethodPost, "/api/v1/listings", 1, body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", w.Code, w.Body.String())
			}
		})
	}

	body := newListing("Good", "Portugal", 1, 1000)
	body["currency"] = "usd"
	w := s.do(t, http.MethodPost, "/api/v1/listings", 1, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if got := decode[model.CreateListingResponse](t, w).Listing.Currency; got != "USD" {
		t.Errorf("currency = %q, want USD", got)
	}

	path := "/api/v1/listings/" + strconv.FormatInt(decode[model.CreateListingResponse](t, w).Listing.ID, 10)
	if w := s.do(t, http.MethodPatch, path, 1, map[string]any{"currency": "EURO"}); w.Code != http.StatusBadRequest {
		t.Errorf("patch currency status = %d, want 400", w.Code)
	}
	if w := s.do(t, http.MethodPatch, path, 1, map[string]any{"property_type": strings.Repeat("x", 51)}); w.Code != http.StatusBadRequest {
		t.Errorf("patch property_type status = %d, want 400", w.Code)
	}
}

func TestCreateEndpoint_LimitReached(t *testing.T) {
	s := newTestServer(t)

	for n := 0; n < 10; n++ {
		s.publish(t, 4, newListing("Unit", "Portugal", 1, 1000))
	}

	w := s.do(t, http.MethodPost, "/api/v1/listings", 4, newListing("Eleventh", "Portugal", 1, 1000))
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	body := decode[map[string]any](t, w)
	if body["reason"] != "limit-reached" || body["error"] != "You have reached your plan's listing limit" {
		t.Errorf("body = %v", body)
	}
}

func TestGetListingEndpoint(t *testing.T) {
	s := newTestServer(t)
	l := s.publish(t, 1, newListing("Viewed", "Portugal", 2, 1000))
	path := "/api/v1/listings/" + strconv.FormatInt(l.ID, 10)

	for want := int64(1); want <= 2; want++ {
		w := s.do(t, http.MethodGet, path, 0, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		if got := decode[model.Listing](t, w); got.ViewCount != want {
			t.Errorf("view_count = %d, want %d", got.ViewCount, want)
		}
	}

	if w := s.do(t, http.MethodGet, "/api/v1/listings/abc", 0, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/api/v1/listings/999", 0, nil); w.Code != http.StatusNotFound {
		t.Errorf("missing id status = %d", w.Code)
	}
}

func TestInactiveListingVisibility(t *testing.T) {
	s := newTestServer(t)
	body := newListing("Draft", "Portugal", 2, 1000)
	body["is_active"] = false
	l := s.publish(t, 1, body)
	path := "/api/v1/listings/" + strconv.FormatInt(l.ID, 10)

	tests := []struct {
		name       string
		ownerID    int64
		wantStatus int
	}{
		{"anonymous", 0, http.StatusNotFound},
		{"other account", 4, http.StatusNotFound},
		{"owner", 1, http.StatusOK},
		{"admin", 3, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := s.do(t, http.MethodGet, path, tt.ownerID, nil); w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}

	w := s.do(t, http.MethodGet, "/api/v1/owners/me/listings", 1, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("mine status = %d", w.Code)
	}
	mine := decode[struct {
		Results []model.Listing `json:"results"`
	}](t, w)
	if len(mine.Results) != 1 || mine.Results[0].ID != l.ID {
		t.Errorf("mine = %+v", mine.Results)
	}
}

func TestUpdateEndpoint(t *testing.T) {
	s := newTestServer(t)
	l := s.publish(t, 1, newListing("Before", "Portugal", 2, 1000))
	path := "/api/v1/listings/" + strconv.FormatInt(l.ID, 10)

	patch := map[string]any{"title": "After", "view_count": 999, "owner_id": 4, "id": 77}

	if w := s.do(t, http.MethodPatch, path, 4, patch); w.Code != http.StatusForbidden {
		t.Errorf("stranger status = %d, want 403", w.Code)
	}

	w := s.do(t, http.MethodPatch, path, 1, patch)
	if w.Code != http.StatusOK {
		t.Fatalf("owner status = %d, body %s", w.Code, w.Body.String())
	}
	got := decode[model.Listing](t, w)
	if got.Title != "After" || got.ID != l.ID || got.OwnerID != 1 || got.ViewCount != 0 {
		t.Errorf("updated = %+v", got)
	}

	if w := s.do(t, http.MethodPatch, path, 1, map[string]any{"listing_type": "lease"}); w.Code != http.StatusBadRequest {
		t.Errorf("invalid listing_type status = %d, want 400", w.Code)
	}
}

func TestEmbeddingEndpoint(t *testing.T) {
	s := newTestServer(t)
	a := s.publish(t, 1, newListing("A", "Portugal", 1, 1000))
	b := s.publish(t, 1, newListing("B", "Portugal", 1, 1000))

	batch := map[string]any{"embeddings": []map[string]any{
		{"listing_id": a.ID, "embedding": []float32{0, 0, 0}},
		{"listing_id": b.ID, "embedding": []float32{1, 0, 0}},
	}}

	if w := s.do(t, http.MethodPost, "/api/v1/embeddings/batch", 1, batch); w.Code != http.StatusForbidden {
		t.Errorf("non-admin status = %d, want 403", w.Code)
	}

	w := s.do(t, http.MethodPost, "/api/v1/embeddings/batch", 3, batch)
	if w.Code != http.StatusOK {
		t.Fatalf("admin status = %d, body %s", w.Code, w.Body.String())
	}
	if resp := decode[model.EmbeddingBatchResponse](t, w); resp.Success != 2 || resp.Failed != 0 {
		t.Errorf("batch response = %+v", resp)
	}

	bad := map[string]any{"embeddings": []map[string]any{{"listing_id": a.ID, "embedding": []float32{1}}}}
	if w := s.do(t, http.MethodPost, "/api/v1/embeddings/batch", 3, bad); w.Code != http.StatusBadRequest {
		t.Errorf("wrong dimensions status = %d, want 400", w.Code)
	}

	w = s.do(t, http.MethodGet, "/api/v1/listings/"+strconv.FormatInt(a.ID, 10)+"/similar", 0, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("similar status = %d", w.Code)
	}
	similar := decode[struct {
		Results []model.Listing `json:"results"`
	}](t, w)
	if len(similar.Results) != 1 || similar.Results[0].ID != b.ID {
		t.Errorf("similar = %+v", similar.Results)
	}
}

// brokenStore fails every read the way an unreachable database would
type brokenStore struct {
	*repository.MemoryRepository
}

var errStoreDown = errors.New("connection refused")

func (brokenStore) FindMany(context.Context, model.FilterSpec, model.SortKey, model.PageSpec, bool) ([]model.Listing, error) {
	return nil, errStoreDown
}

func (brokenStore) FindOne(context.Context, int64) (*model.Listing, error) {
	return nil, errStoreDown
}

func TestStoreFailureRendersRetryLater(t *testing.T) {
	svc := service.NewListingService(brokenStore{repository.NewMemoryRepository()}, 3)
	router := NewRouter(RouterOptions{
		Listings:   NewListingHandler(svc, 20, 100, 6),
		Embeddings: NewEmbeddingHandler(svc),
		Auth:       middleware.NewAuthenticator(testSecret, "", repository.NewMemoryRepository()),
	})

	for _, path := range []string{"/api/v1/listings?country=Portugal", "/api/v1/listings/1"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

			if w.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", w.Code)
			}
			body := decode[map[string]any](t, w)
			if body["error"] != retryLaterMessage {
				t.Errorf("error = %v, want %q", body["error"], retryLaterMessage)
			}
			if strings.Contains(w.Body.String(), errStoreDown.Error()) {
				t.Error("store error leaked to the client")
			}
		})
	}
}
