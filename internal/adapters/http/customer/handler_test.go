package customer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"

	"italiancorner/mydata_core/internal/adapters/kv/memory"
	"italiancorner/mydata_core/internal/adapters/store"
	appcustomer "italiancorner/mydata_core/internal/application/customer"
	"italiancorner/mydata_core/internal/core/branch"
	corecustomer "italiancorner/mydata_core/internal/core/customer"
	"italiancorner/mydata_core/internal/testutil"
)

func newRouter(directory corecustomer.Directory) chi.Router {
	svc := appcustomer.NewService(branch.DefaultRegistry(), store.NewCustomerBook(memory.NewStore()), directory)
	r := chi.NewRouter()
	NewHandler(svc, testutil.NewNullLogger()).Routes(r)
	return r
}

func serve(r chi.Router, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_CustomerBook(t *testing.T) {
	r := newRouter(nil)
	acme := corecustomer.Customer{Name: "Acme AE", VAT: "123456789", City: "Ρέθυμνο"}

	var saved corecustomer.Customer
	testutil.ReadJSONResponse(t, serve(r, testutil.CreateRequest(http.MethodPut, "/branches/villa1/customers", acme)), http.StatusCreated, &saved)
	if saved.VAT != acme.VAT {
		t.Errorf("unexpected customer %+v", saved)
	}

	acme.Email = "info@acme.gr"
	testutil.ReadJSONResponse(t, serve(r, testutil.CreateRequest(http.MethodPut, "/branches/villa1/customers", acme)), http.StatusOK, &saved)

	var list []corecustomer.Customer
	testutil.ReadJSONResponse(t, serve(r, testutil.CreateRequest(http.MethodGet, "/branches/villa1/customers", nil)), http.StatusOK, &list)
	if len(list) != 1 || list[0].Email != "info@acme.gr" {
		t.Fatalf("unexpected list %+v", list)
	}

	testutil.ReadJSONResponse(t, serve(r, testutil.CreateRequest(http.MethodGet, "/branches/central/customers", nil)), http.StatusOK, &list)
	if len(list) != 0 {
		t.Errorf("expected books to be per branch, got %+v", list)
	}

	search := "/branches/villa1/customers/search?q=" + url.QueryEscape("ρεθυμνο")
	testutil.ReadJSONResponse(t, serve(r, testutil.CreateRequest(http.MethodGet, search, nil)), http.StatusOK, &list)
	if len(list) != 1 {
		t.Errorf("expected accent-insensitive match, got %+v", list)
	}

	if w := serve(r, testutil.CreateRequest(http.MethodDelete, "/branches/villa1/customers/123456789", nil)); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	testutil.ReadErrorResponse(t, serve(r, testutil.CreateRequest(http.MethodDelete, "/branches/villa1/customers/123456789", nil)), http.StatusNotFound)
}

func TestHandler_SaveErrors(t *testing.T) {
	r := newRouter(nil)

	tests := []struct {
		name       string
		path       string
		body       any
		wantStatus int
	}{
		{name: "missing vat", path: "/branches/central/customers", body: corecustomer.Customer{Name: "Acme"}, wantStatus: http.StatusBadRequest},
		{name: "unknown branch", path: "/branches/nowhere/customers", body: corecustomer.Customer{Name: "Acme", VAT: "1"}, wantStatus: http.StatusNotFound},
		{name: "not json", path: "/branches/central/customers", body: "plain", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.ReadErrorResponse(t, serve(r, testutil.CreateRequest(http.MethodPut, tt.path, tt.body)), tt.wantStatus)
		})
	}
}

func TestHandler_Lookup(t *testing.T) {
	directory := &testutil.MockDirectory{
		LookupByVATFunc: func(_ context.Context, vat string) (*corecustomer.Record, error) {
			switch vat {
			case "094019245":
				return &corecustomer.Record{VAT: vat, Name: "ACME AE", City: "ΧΑΝΙΑ"}, nil
			case "500":
				return nil, fmt.Errorf("%w: status 500", corecustomer.ErrRegistryUnavailable)
			default:
				return nil, corecustomer.ErrRecordNotFound
			}
		},
	}

	tests := []struct {
		name       string
		directory  corecustomer.Directory
		vat        string
		wantStatus int
	}{
		{name: "found", directory: directory, vat: "094019245", wantStatus: http.StatusOK},
		{name: "unknown vat", directory: directory, vat: "000000000", wantStatus: http.StatusNotFound},
		{name: "registry down", directory: directory, vat: "500", wantStatus: http.StatusBadGateway},
		{name: "empty vat", directory: directory, vat: "", wantStatus: http.StatusBadRequest},
		{name: "not configured", directory: nil, vat: "094019245", wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(newRouter(tt.directory), testutil.CreateRequest(http.MethodGet, "/gsis/lookup?vat="+tt.vat, nil))
			if tt.wantStatus != http.StatusOK {
				testutil.ReadErrorResponse(t, w, tt.wantStatus)
				return
			}
			var record corecustomer.Record
			testutil.ReadJSONResponse(t, w, http.StatusOK, &record)
			if record.Name != "ACME AE" {
				t.Errorf("unexpected record %+v", record)
			}
		})
	}
}
