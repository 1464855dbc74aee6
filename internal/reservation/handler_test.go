package reservation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendhall/internal/catalog"
)

// fakeService returns canned results so the handler's decoding and error
// mapping can be exercised without storage.
type fakeService struct {
	view *View
	err  error
}

func (f *fakeService) Create(ctx context.Context, actorID, itemID uuid.UUID, dueBy time.Time) (*View, error) {
	return f.view, f.err
}
func (f *fakeService) Get(ctx context.Context, actorID, id uuid.UUID) (*View, error) {
	return f.view, f.err
}
func (f *fakeService) Transition(ctx context.Context, actorID, id uuid.UUID, target State, returnedAt *time.Time) (*View, error) {
	return f.view, f.err
}
func (f *fakeService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	return f.err
}
func (f *fakeService) List(ctx context.Context, actorID uuid.UUID, filter ListFilter) ([]*View, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*View{f.view}, nil
}
func (f *fakeService) ListOverdue(ctx context.Context, actorID uuid.UUID) ([]*View, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*View{f.view}, nil
}

func newTestRouter(svc Service) http.Handler {
	router := chi.NewRouter()
	NewHandler(svc).Routes(router)
	return router
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string, actor *uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if actor != nil {
		req.Header.Set(actorHeader, actor.String())
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRequiresActorHeader(t *testing.T) {
	router := newTestRouter(&fakeService{})
	rec := doRequest(t, router, http.MethodGet, "/reservations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerCreate(t *testing.T) {
	actor := uuid.New()
	view := &View{Reservation: Reservation{ID: uuid.New(), State: StatePending}}
	router := newTestRouter(&fakeService{view: view})

	body := `{"item_id":"` + uuid.NewString() + `","due_by":"2031-01-02T15:04:05Z"}`
	rec := doRequest(t, router, http.MethodPost, "/reservations", body, &actor)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), view.ID.String())
}

func TestHandlerErrorMapping(t *testing.T) {
	actor := uuid.New()
	id := uuid.NewString()
	tests := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrForbidden, http.StatusForbidden},
		{ErrValidation, http.StatusUnprocessableEntity},
		{ErrInvalidTransition, http.StatusConflict},
		{catalog.ErrOutOfStock, http.StatusConflict},
		{ErrConflict, http.StatusConflict},
	}
	for _, tt := range tests {
		router := newTestRouter(&fakeService{err: tt.err})
		rec := doRequest(t, router, http.MethodPost, "/reservations/"+id+"/transition",
			`{"state":"ACTIVE"}`, &actor)
		assert.Equal(t, tt.want, rec.Code, "error %v", tt.err)
	}
}

func TestHandlerRejectsBadIDs(t *testing.T) {
	actor := uuid.New()
	router := newTestRouter(&fakeService{})

	rec := doRequest(t, router, http.MethodGet, "/reservations/not-a-uuid", "", &actor)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/reservations?state=BROKEN", "", &actor)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerDelete(t *testing.T) {
	actor := uuid.New()
	router := newTestRouter(&fakeService{})
	rec := doRequest(t, router, http.MethodDelete, "/reservations/"+uuid.NewString(), "", &actor)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
