package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rogrs/loja/internal/domain"
	"github.com/rogrs/loja/internal/page"
	"github.com/rogrs/loja/internal/repository"
	"github.com/rogrs/loja/internal/search"
)

// Base paths of the tamanhos resource.
const (
	TamanhosPath       = "/api/tamanhos"
	TamanhosSearchPath = "/api/_search/tamanhos"
)

// TamanhosStore is the primary store used by the tamanhos handlers
type TamanhosStore interface {
	SaveTracked(ctx context.Context, entity domain.Tamanhos) (domain.Tamanhos, repository.OutboxEntry, error)
	DeleteTracked(ctx context.Context, id int64) (repository.OutboxEntry, error)
	FindByID(ctx context.Context, id int64) (domain.Tamanhos, error)
	FindAll(ctx context.Context, req page.Request) (page.Page[domain.Tamanhos], error)
}

// TamanhosSearch is the search index used by the search handler
type TamanhosSearch interface {
	Search(ctx context.Context, query string, req page.Request) (page.Page[domain.Tamanhos], error)
}

// IndexMirror applies a committed primary write to the search index
type IndexMirror interface {
	Mirror(ctx context.Context, entry repository.OutboxEntry) error
}

// Tamanhos groups the tamanhos handlers for testability
type Tamanhos struct {
	store  TamanhosStore
	search TamanhosSearch
	mirror IndexMirror
	paging page.Config
	logger *zap.Logger
}

// NewTamanhos creates the tamanhos handlers. A nil logger is replaced by a no-op logger.
func NewTamanhos(store TamanhosStore, search TamanhosSearch, mirror IndexMirror, paging page.Config, logger *zap.Logger) *Tamanhos {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tamanhos{
		store:  store,
		search: search,
		mirror: mirror,
		paging: paging,
		logger: logger.Named("tamanhos"),
	}
}

// CreateHandler handles POST /api/tamanhos.
//
// A body that already carries an id is rejected with 400 and an idexists
// failure alert. On success responds 201 with Location and a creation alert.
func (t *Tamanhos) CreateHandler(w http.ResponseWriter, r *http.Request) {
	entity, ok := t.decode(w, r)
	if !ok {
		return
	}
	t.logger.Debug("REST request to save Tamanhos", zap.Any("tamanhos", entity))

	if entity.HasID() {
		t.logger.Info("A new tamanhos cannot already have an ID", zap.Int64("id", entity.IDValue()))
		t.reject(w, ErrorKeyIDExists)
		return
	}
	t.create(w, r, entity)
}

// UpdateHandler handles PUT /api/tamanhos.
//
// A body without an id is treated as a create. Otherwise the row with that
// id is replaced (or inserted) and 200 is returned with an update alert.
func (t *Tamanhos) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	entity, ok := t.decode(w, r)
	if !ok {
		return
	}
	t.logger.Debug("REST request to update Tamanhos", zap.Any("tamanhos", entity))

	if !entity.HasID() {
		t.create(w, r, entity)
		return
	}

	saved, ok := t.save(w, r, entity)
	if !ok {
		return
	}
	page.CopyHeaders(w.Header(), UpdateAlert(strconv.FormatInt(saved.IDValue(), 10)))
	writeJSON(w, t.logger, http.StatusOK, saved)
}

// ListHandler handles GET /api/tamanhos with page, size and sort parameters.
func (t *Tamanhos) ListHandler(w http.ResponseWriter, r *http.Request) {
	req := page.ParseRequest(r.URL.Query(), t.paging, repository.TamanhosSortFields)
	t.logger.Debug("REST request to get a page of Tamanhos", zap.Int("page", req.Page), zap.Int("size", req.Size))

	p, err := t.store.FindAll(r.Context(), req)
	if err != nil {
		t.fail(w, "Failed to list tamanhos", err)
		return
	}

	page.CopyHeaders(w.Header(), page.Headers(p, TamanhosPath))
	writeJSON(w, t.logger, http.StatusOK, p.Content)
}

// GetHandler handles GET /api/tamanhos/{id}. A missing entity yields 404 with no body.
func (t *Tamanhos) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, t.logger, http.StatusBadRequest, "Invalid tamanhos ID")
		return
	}
	t.logger.Debug("REST request to get Tamanhos", zap.Int64("id", id))

	entity, err := t.store.FindByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		t.fail(w, "Failed to get tamanhos", err)
		return
	}
	writeJSON(w, t.logger, http.StatusOK, entity)
}

// DeleteHandler handles DELETE /api/tamanhos/{id}. It responds 200 whether or not the entity existed.
func (t *Tamanhos) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, t.logger, http.StatusBadRequest, "Invalid tamanhos ID")
		return
	}
	t.logger.Debug("REST request to delete Tamanhos", zap.Int64("id", id))

	entry, err := t.store.DeleteTracked(r.Context(), id)
	if err != nil {
		t.fail(w, "Failed to delete tamanhos", err)
		return
	}
	if err := t.mirror.Mirror(r.Context(), entry); err != nil {
		t.fail(w, "Failed to update search index", err)
		return
	}

	page.CopyHeaders(w.Header(), DeletionAlert(strconv.FormatInt(id, 10)))
	w.WriteHeader(http.StatusOK)
}

// SearchHandler handles GET /api/_search/tamanhos?query=. It reads only the search index.
func (t *Tamanhos) SearchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if _, ok := q["query"]; !ok {
		writeError(w, t.logger, http.StatusBadRequest, "Required request parameter 'query' is not present")
		return
	}
	query := q.Get("query")
	req := page.ParseRequest(q, t.paging, search.SortFields)
	t.logger.Debug("REST request to search for a page of Tamanhos", zap.String("query", query))

	p, err := t.search.Search(r.Context(), query, req)
	if err != nil {
		t.fail(w, "Failed to search tamanhos", err)
		return
	}

	page.CopyHeaders(w.Header(), page.SearchHeaders(query, p, TamanhosSearchPath))
	writeJSON(w, t.logger, http.StatusOK, p.Content)
}

func (t *Tamanhos) create(w http.ResponseWriter, r *http.Request, entity domain.Tamanhos) {
	saved, ok := t.save(w, r, entity)
	if !ok {
		return
	}

	id := strconv.FormatInt(saved.IDValue(), 10)
	location, err := url.JoinPath(TamanhosPath, id)
	if err != nil {
		t.fail(w, "Failed to build location", err)
		return
	}

	w.Header().Set("Location", location)
	page.CopyHeaders(w.Header(), CreationAlert(id))
	writeJSON(w, t.logger, http.StatusCreated, saved)
}

// save validates, writes the primary store and mirrors into the index.
// It writes the error response itself and reports whether to continue.
func (t *Tamanhos) save(w http.ResponseWriter, r *http.Request, entity domain.Tamanhos) (domain.Tamanhos, bool) {
	if err := entity.Validate(); err != nil {
		t.logger.Info("rejected invalid tamanhos", zap.Error(err))
		t.reject(w, ErrorKeyValidation)
		return domain.Tamanhos{}, false
	}

	saved, entry, err := t.store.SaveTracked(r.Context(), entity)
	if errors.Is(err, repository.ErrInvalidEntity) {
		t.logger.Info("rejected invalid tamanhos", zap.Error(err))
		t.reject(w, ErrorKeyValidation)
		return domain.Tamanhos{}, false
	}
	if err != nil {
		t.fail(w, "Failed to save tamanhos", err)
		return domain.Tamanhos{}, false
	}

	if err := t.mirror.Mirror(r.Context(), entry); err != nil {
		t.fail(w, "Failed to update search index", err)
		return domain.Tamanhos{}, false
	}
	return saved, true
}

func (t *Tamanhos) decode(w http.ResponseWriter, r *http.Request) (domain.Tamanhos, bool) {
	var entity domain.Tamanhos
	if err := json.NewDecoder(r.Body).Decode(&entity); err != nil {
		writeError(w, t.logger, http.StatusBadRequest, "Invalid JSON")
		return domain.Tamanhos{}, false
	}
	return entity, true
}

// reject writes a 400 with a failure alert and no body.
func (t *Tamanhos) reject(w http.ResponseWriter, errorKey string) {
	page.CopyHeaders(w.Header(), FailureAlert(errorKey))
	w.WriteHeader(http.StatusBadRequest)
}

func (t *Tamanhos) fail(w http.ResponseWriter, msg string, err error) {
	t.logger.Error(msg, zap.Error(err))
	writeError(w, t.logger, http.StatusInternalServerError, msg)
}
