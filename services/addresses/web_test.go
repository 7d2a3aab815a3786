package addresses

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarcGrol/checkoutflow/lib/mystore"
	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
)

var (
	home   = checkoutapi.Address{ID: "a1", CustomerID: "c1", Name: "Asha", CountryID: "IN", StateID: "KA", DistrictID: "BLR", Pincode: "560001", IsDefault: true, Active: true}
	office = checkoutapi.Address{ID: "a2", CustomerID: "c1", Name: "Asha", CountryID: "IN", StateID: "KA", Pincode: "560002", Active: true}
	old    = checkoutapi.Address{ID: "a3", CustomerID: "c1", Name: "Asha", CountryID: "US", Active: false}
	other  = checkoutapi.Address{ID: "a4", CustomerID: "c2", Name: "Ravi", CountryID: "IN", Active: true}
)

func TestAddressService(t *testing.T) {
	t.Run("List active addresses of customer", func(t *testing.T) {
		// setup
		ctx, router, store := setup(t)

		// given
		for _, a := range []checkoutapi.Address{home, office, old, other} {
			_ = store.Put(ctx, a.ID, a)
		}

		// when
		request, _ := http.NewRequest(http.MethodGet, "/addresses?customerId=c1", nil)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		addresses := []checkoutapi.Address{}
		require.NoError(t, json.Unmarshal(response.Body.Bytes(), &addresses))
		assert.Equal(t, []checkoutapi.Address{home, office}, addresses)
	})

	t.Run("List without customer", func(t *testing.T) {
		// setup
		_, router, _ := setup(t)

		// when
		request, _ := http.NewRequest(http.MethodGet, "/addresses", nil)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusBadRequest, response.Code)
	})

	t.Run("New default address demotes previous default", func(t *testing.T) {
		// setup
		ctx, router, store := setup(t)

		// given
		_ = store.Put(ctx, home.ID, home)

		// when
		request, _ := http.NewRequest(http.MethodPut, "/addresses/a2", strings.NewReader(`{"customerId":"c1","name":"Asha","countryId":"in","stateId":"KA","pincode":"560002","isDefault":true,"active":true}`))
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		stored, found, _ := store.Get(ctx, "a2")
		assert.True(t, found)
		assert.True(t, stored.IsDefault)
		assert.Equal(t, "IN", stored.CountryID)
		previous, _, _ := store.Get(ctx, "a1")
		assert.False(t, previous.IsDefault)
	})

	t.Run("Put without country", func(t *testing.T) {
		// setup
		_, router, _ := setup(t)

		// when
		request, _ := http.NewRequest(http.MethodPut, "/addresses/a9", strings.NewReader(`{"customerId":"c1"}`))
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusBadRequest, response.Code)
	})
}

func setup(t *testing.T) (context.Context, *mux.Router, mystore.Store[checkoutapi.Address]) {
	c := context.TODO()
	store, _, err := mystore.NewInMemoryStore[checkoutapi.Address](c)
	require.NoError(t, err)

	sut := NewWebService(store)
	router := mux.NewRouter()
	err = sut.RegisterEndpoints(c, router)
	require.NoError(t, err)

	return c, router, store
}
