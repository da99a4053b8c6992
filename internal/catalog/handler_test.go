package catalog

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func newTestHandler(repo *fakeRepo) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, NewService(repo, nil, fixedThreshold(5), nil))
	r := chi.NewRouter()
	r.Route("/parts", h.MountRoutes)
	return r
}

func TestAdjustStockHandlerRejectsZeroChange(t *testing.T) {
	repo := newFakeRepo()
	router := newTestHandler(repo)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/parts/p1/adjust-stock", strings.NewReader(`{"change":0}`))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdjustStockRejectsInvalidBody(t *testing.T) {
	repo := newFakeRepo()
	router := newTestHandler(repo)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/parts/p1/adjust-stock", strings.NewReader(`{not json`))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
