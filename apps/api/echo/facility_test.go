package echoapi

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/mkundi/kampasi/core/facility"
)

func Test_facilityApi_query(t *testing.T) {
	resetDB()

	admin := createUser(t, "Admin", "admin@kampasi.cd", "", true, true)
	plain := createUser(t, "Plain User", "plain@kampasi.cd", "", false, true)

	library := createFacility(t, "Main Library", 10.713, 122.551)
	gym := createFacility(t, "Gymnasium", 10.714, 122.552)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/facilities", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "any signed-in user can list", path: "/v1/facilities", token: getToken(t, plain),
			wantCode: http.StatusOK, wantData: marchallList(t, gym, library),
		},
		{
			name: "retrieve", path: fmt.Sprintf("/v1/facilities/%d", library.ID), token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, library),
		},
		{
			name: "retrieve (not found)", path: "/v1/facilities/999", token: getToken(t, admin),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "retrieve (bad id)", path: "/v1/facilities/nope", token: getToken(t, admin),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_facilityApi_write(t *testing.T) {
	resetDB()

	admin := createUser(t, "Admin", "admin@kampasi.cd", "", true, true)
	plain := createUser(t, "Plain User", "plain@kampasi.cd", "", false, true)
	existing := createFacility(t, "Old Hall", 10.7, 122.5)

	adminToken := getToken(t, admin)
	plainToken := getToken(t, plain)

	tests := []httpTest{
		{
			name: "create requires admin", method: http.MethodPost, path: "/v1/facilities", token: plainToken,
			body:     marchallObj(t, facility.NewFacility{Name: "New Hall", Latitude: 10.7, Longitude: 122.5}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "create validates", method: http.MethodPost, path: "/v1/facilities", token: adminToken,
			body:     marchallObj(t, facility.NewFacility{Name: "ab", Latitude: 91, Longitude: 122.5}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":     "name must be at least 3 characters in length",
				"latitude": "latitude must be between -90 and 90",
			}),
		},
		{
			name: "create ok", method: http.MethodPost, path: "/v1/facilities", token: adminToken,
			body:     marchallObj(t, facility.NewFacility{Name: "Science Hall", Latitude: 10.71, Longitude: 122.55}),
			wantCode: http.StatusCreated,
		},
		{
			name: "update requires admin", method: http.MethodPut, path: fmt.Sprintf("/v1/facilities/%d", existing.ID),
			token:    plainToken,
			body:     marchallObj(t, map[string]string{"name": "Renamed Hall"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "update (not found)", method: http.MethodPut, path: "/v1/facilities/999", token: adminToken,
			body:     marchallObj(t, map[string]string{"name": "Renamed Hall"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "update ok", method: http.MethodPut, path: fmt.Sprintf("/v1/facilities/%d", existing.ID),
			token:    adminToken,
			body:     marchallObj(t, map[string]string{"name": "Renamed Hall"}),
			wantCode: http.StatusOK, extra: "Renamed Hall",
		},
		{
			name: "destroy requires admin", method: http.MethodDelete, path: fmt.Sprintf("/v1/facilities/%d", existing.ID),
			token:    plainToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "destroy ok", method: http.MethodDelete, path: fmt.Sprintf("/v1/facilities/%d", existing.ID),
			token:    adminToken,
			wantCode: http.StatusNoContent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if wantName, ok := tt.extra.(string); ok && rec.Code == http.StatusOK {
				var fac facility.Facility
				if err := unmarchallObj(t, rec.Body.Bytes(), &fac); err == nil && fac.Name != wantName {
					t.Errorf("update() name = %v; want %v", fac.Name, wantName)
				}
			}
		})
	}
}

func Test_facilityApi_destroyMultiple(t *testing.T) {
	resetDB()

	admin := createUser(t, "Admin", "admin@kampasi.cd", "", true, true)
	fac1 := createFacility(t, "Hall A", 10.7, 122.5)
	fac2 := createFacility(t, "Hall B", 10.8, 122.6)
	keep := createFacility(t, "Hall C", 10.9, 122.7)

	adminToken := getToken(t, admin)

	req, rec := newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/facilities?id=%d&id=%d", fac1.ID, fac2.ID), adminToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("destroyMultiple() code = %v; wantCode %v", rec.Code, http.StatusNoContent)
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/facilities", adminToken)
	app.ServeHTTP(rec, req)
	tt := httpTest{wantCode: http.StatusOK, wantData: marchallList(t, keep)}
	checkCodeAndData(t, tt, rec)
}
