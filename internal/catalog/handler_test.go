package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	item *Item
	err  error
}

func (f *fakeService) AddItem(ctx context.Context, isbn, title, author string, totalCopies int) (*Item, error) {
	return f.item, f.err
}
func (f *fakeService) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	return f.item, f.err
}
func (f *fakeService) UpdateCopies(ctx context.Context, id uuid.UUID, newTotal, newAvailable int) (*Item, error) {
	return f.item, f.err
}
func (f *fakeService) RetireItem(ctx context.Context, id uuid.UUID) error {
	return f.err
}

func newTestRouter(svc Service) http.Handler {
	router := chi.NewRouter()
	NewHandler(svc).Routes(router)
	return router
}

func TestHandlerAddItem(t *testing.T) {
	item := &Item{ID: uuid.New(), Title: "Dune", Author: "Herbert", TotalCopies: 3, Available: 3, Status: StatusAvailable}
	router := newTestRouter(&fakeService{item: item})

	req := httptest.NewRequest(http.MethodPost, "/items",
		strings.NewReader(`{"title":"Dune","author":"Herbert","total_copies":3}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), item.ID.String())
}

func TestHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrValidation, http.StatusUnprocessableEntity},
		{ErrItemInUse, http.StatusConflict},
	}
	for _, tt := range tests {
		router := newTestRouter(&fakeService{err: tt.err})
		req := httptest.NewRequest(http.MethodGet, "/items/"+uuid.NewString(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, tt.want, rec.Code, "error %v", tt.err)
	}
}

func TestHandlerRejectsBadItemID(t *testing.T) {
	router := newTestRouter(&fakeService{})
	req := httptest.NewRequest(http.MethodGet, "/items/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
