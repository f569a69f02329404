package property

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brrrr-analyzer/internal/testutil"
)

func newTestRouter(store *Store) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(store))
	return r
}

func TestListHandler(t *testing.T) {
	store, mock, connector := newMockStore(t)
	savedAt := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(exactSQL(listSQL)).WillReturnRows(
		pgxmock.NewRows([]string{"id", "property_address", "saved_at"}).AddRow(int64(3), "3 Pine Ct", savedAt),
	)

	w := testutil.ExecuteRequest(httptest.NewRequest(http.MethodGet, "/properties", nil), newTestRouter(store))
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var body ListResponse
	testutil.DecodeJSONBody(t, w.Body, &body)

	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Properties, 1)
	assert.Equal(t, "3 Pine Ct", body.Properties[0].Address)
	assert.Equal(t, 1, connector.released, "session must release its connection")
}

func TestListHandlerStoreUnavailable(t *testing.T) {
	store := NewStore(UnavailableConnector(errors.New("database url is not set")))

	w := testutil.ExecuteRequest(httptest.NewRequest(http.MethodGet, "/properties", nil), newTestRouter(store))
	testutil.CheckResponseCode(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]string
	testutil.DecodeJSONBody(t, w.Body, &body)
	assert.Equal(t, "could not load saved properties", body["error"])
}

func TestDeleteHandler(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		store, mock, _ := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(exactSQL(lockByIDSQL)).WithArgs(int64(7)).
			WillReturnRows(pgxmock.NewRows([]string{"property_address"}).AddRow("7 Birch Ln"))
		mock.ExpectExec(exactSQL(deleteSQL)).WithArgs(int64(7)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectCommit()

		w := testutil.ExecuteRequest(httptest.NewRequest(http.MethodDelete, "/properties/7", nil), newTestRouter(store))
		testutil.CheckResponseCode(t, http.StatusOK, w.Code)

		var body DeleteResponse
		testutil.DecodeJSONBody(t, w.Body, &body)
		assert.True(t, body.Result.Deleted)
		assert.Equal(t, "Property '7 Birch Ln' deleted successfully!", body.Message)
	})

	t.Run("unknown id via form post", func(t *testing.T) {
		store, mock, _ := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(exactSQL(lockByIDSQL)).WithArgs(int64(99)).
			WillReturnRows(pgxmock.NewRows([]string{"property_address"}))
		mock.ExpectCommit()

		w := testutil.ExecuteRequest(httptest.NewRequest(http.MethodPost, "/properties/99/delete", nil), newTestRouter(store))
		testutil.CheckResponseCode(t, http.StatusOK, w.Code)

		var body DeleteResponse
		testutil.DecodeJSONBody(t, w.Body, &body)
		assert.False(t, body.Result.Deleted)
		assert.Equal(t, "Property not found.", body.Message)
	})

	t.Run("bad id", func(t *testing.T) {
		store, _, _ := newMockStore(t)

		w := testutil.ExecuteRequest(httptest.NewRequest(http.MethodDelete, "/properties/abc", nil), newTestRouter(store))
		testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)
	})
}

func TestLookupHandler(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		store, mock, _ := newMockStore(t)
		in := sampleInputs()

		mock.ExpectQuery(exactSQL(selectByAddressSQL)).WithArgs(in.Address).
			WillReturnRows(recordRow(3, in, time.Now()))

		req := httptest.NewRequest(http.MethodGet, "/properties/lookup?address=123+Main+St", nil)
		w := testutil.ExecuteRequest(req, newTestRouter(store))
		testutil.CheckResponseCode(t, http.StatusOK, w.Code)

		var rec Record
		testutil.DecodeJSONBody(t, w.Body, &rec)
		assert.Equal(t, int64(3), rec.ID)
		assert.Equal(t, in, rec.Inputs)
	})

	t.Run("not found", func(t *testing.T) {
		store, mock, _ := newMockStore(t)

		mock.ExpectQuery(exactSQL(selectByAddressSQL)).WithArgs("1 Nowhere").
			WillReturnRows(pgxmock.NewRows(strings.Split(recordColumns, ", ")))

		req := httptest.NewRequest(http.MethodGet, "/properties/lookup?address=1+Nowhere", nil)
		w := testutil.ExecuteRequest(req, newTestRouter(store))
		testutil.CheckResponseCode(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing address", func(t *testing.T) {
		store, _, _ := newMockStore(t)

		w := testutil.ExecuteRequest(httptest.NewRequest(http.MethodGet, "/properties/lookup", nil), newTestRouter(store))
		testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)
	})
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(ErrNotFound))
	assert.Equal(t, http.StatusBadRequest, StatusFor(ErrMissingAddress))
	assert.Equal(t, http.StatusServiceUnavailable, StatusFor(errors.Join(context.Canceled, ErrStoreUnavailable)))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("boom")))
}
