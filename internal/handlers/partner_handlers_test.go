package handlers

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/fakturo/fakturo-api/internal/client/backend"
)

func TestListCompanies_Endpoint(t *testing.T) {
	router, api, _ := newTestRouter(t)

	api.EXPECT().ListCompanies(gomock.Any()).Return([]backend.Company{
		{ID: "c1", CompanyName: "Dev Studio d.o.o.", City: "Ljubljana", VATPayer: true, VATID: "SI10000001"},
	}, nil)

	w := doRequest(t, router, http.MethodGet, "/companies", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[CompaniesResponse](t, w)
	require.Len(t, resp.Companies, 1)
	assert.Equal(t, "c1", resp.Companies[0].ID)
	assert.Equal(t, "Dev Studio d.o.o.", resp.Companies[0].Name)
	assert.True(t, resp.Companies[0].VATPayer)
	assert.Equal(t, "SI10000001", resp.Companies[0].VATID)
}

func TestListCompanies_BackendDown(t *testing.T) {
	router, api, _ := newTestRouter(t)

	api.EXPECT().ListCompanies(gomock.Any()).Return(nil, errors.New("connection refused"))

	w := doRequest(t, router, http.MethodGet, "/companies", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestListPartners_Endpoint(t *testing.T) {
	router, api, _ := newTestRouter(t)

	api.EXPECT().ListPartners(gomock.Any()).Return([]backend.Partner{
		{ID: "p1", Name: "Acme d.o.o.", City: "Maribor", TaxNumber: "SI12345678", PaymentDays: 30},
	}, nil)

	w := doRequest(t, router, http.MethodGet, "/partners", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[PartnersResponse](t, w)
	require.Len(t, resp.Partners, 1)
	assert.Equal(t, "Acme d.o.o.", resp.Partners[0].Name)
	assert.Equal(t, "SI12345678", resp.Partners[0].TaxNumber)
	assert.Equal(t, 30, resp.Partners[0].PaymentDays)
}

func TestCreatePartner_Endpoint(t *testing.T) {
	router, api, _ := newTestRouter(t)

	api.EXPECT().
		CreatePartner(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, params backend.PartnerParams) (backend.Partner, error) {
			assert.Equal(t, "Acme d.o.o.", params.Name)
			assert.Equal(t, "Maribor", params.City)
			assert.Equal(t, 30, params.PaymentDays)
			return backend.Partner{
				ID:          "p9",
				Name:        params.Name,
				City:        params.City,
				PaymentDays: params.PaymentDays,
			}, nil
		})

	w := doRequest(t, router, http.MethodPost, "/partners", map[string]any{
		"name":         "Acme d.o.o.",
		"city":         "Maribor",
		"payment_days": 30,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode[PartnerView](t, w)
	assert.Equal(t, "p9", resp.ID)
	assert.Equal(t, "Acme d.o.o.", resp.Name)
}

func TestCreatePartner_MissingName(t *testing.T) {
	router, _, _ := newTestRouter(t)

	// Binding rejects the payload; no backend call may happen.
	w := doRequest(t, router, http.MethodPost, "/partners", map[string]any{
		"city": "Maribor",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePartner_BackendRejects(t *testing.T) {
	router, api, _ := newTestRouter(t)

	api.EXPECT().
		CreatePartner(gomock.Any(), gomock.Any()).
		Return(backend.Partner{}, &backend.HTTPError{StatusCode: http.StatusUnprocessableEntity})

	w := doRequest(t, router, http.MethodPost, "/partners", map[string]any{
		"name": "Acme d.o.o.",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	api.EXPECT().
		CreatePartner(gomock.Any(), gomock.Any()).
		Return(backend.Partner{}, errors.New("connection refused"))

	w = doRequest(t, router, http.MethodPost, "/partners", map[string]any{
		"name": "Acme d.o.o.",
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
