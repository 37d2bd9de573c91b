package echoapi

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/mkundi/kampasi/core/space"
)

func Test_spaceApi_query(t *testing.T) {
	resetDB()

	admin := createUser(t, "Admin", "admin@kampasi.cd", "", true, true)
	library := createFacility(t, "Main Library", 10.713, 122.551)
	gym := createFacility(t, "Gymnasium", 10.714, 122.552)

	readingRoom := createSpace(t, "Reading Room", library.ID, "2nd floor")
	avRoom := createSpace(t, "AV Room", library.ID, "1st floor")
	court := createSpace(t, "Basketball Court", gym.ID, "")

	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/spaces", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Get all (facility name joined)", path: "/v1/spaces", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, avRoom, court, readingRoom),
		},
		{
			name: "filter by facility", path: fmt.Sprintf("/v1/spaces?facility=%d", library.ID), token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, avRoom, readingRoom),
		},
		{
			name: "filter by facility (unknown)", path: "/v1/spaces?facility=999", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t),
		},
		{
			name: "filter by facility (bad value)", path: "/v1/spaces?facility=nope", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t),
		},
		{
			name: "retrieve", path: fmt.Sprintf("/v1/spaces/%d", court.ID), token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, court),
		},
		{
			name: "retrieve (not found)", path: "/v1/spaces/999", token: adminToken,
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

func Test_spaceApi_write(t *testing.T) {
	resetDB()

	admin := createUser(t, "Admin", "admin@kampasi.cd", "", true, true)
	plain := createUser(t, "Plain User", "plain@kampasi.cd", "", false, true)
	library := createFacility(t, "Main Library", 10.713, 122.551)
	existing := createSpace(t, "Old Room", library.ID, "")

	adminToken := getToken(t, admin)
	plainToken := getToken(t, plain)

	tests := []httpTest{
		{
			name: "create requires admin", method: http.MethodPost, path: "/v1/spaces", token: plainToken,
			body:     marchallObj(t, space.NewSpace{Name: "New Room", FacilityID: library.ID}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "create validates", method: http.MethodPost, path: "/v1/spaces", token: adminToken,
			body:     marchallObj(t, space.NewSpace{Name: "x"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":               "name must be at least 2 characters in length",
				"parent_facility_id": "this field is required",
			}),
		},
		{
			name: "create rejects unknown parent", method: http.MethodPost, path: "/v1/spaces", token: adminToken,
			body:     marchallObj(t, space.NewSpace{Name: "New Room", FacilityID: 999}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"parent_facility_id": "facility not found"}),
		},
		{
			name: "create ok", method: http.MethodPost, path: "/v1/spaces", token: adminToken,
			body:     marchallObj(t, space.NewSpace{Name: "New Room", FacilityID: library.ID, FloorLevel: "3rd floor"}),
			wantCode: http.StatusCreated,
		},
		{
			name: "update rejects unknown parent", method: http.MethodPut, path: fmt.Sprintf("/v1/spaces/%d", existing.ID),
			token:    adminToken,
			body:     marchallObj(t, map[string]interface{}{"parent_facility_id": 999}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"parent_facility_id": "facility not found"}),
		},
		{
			name: "update ok", method: http.MethodPut, path: fmt.Sprintf("/v1/spaces/%d", existing.ID),
			token:    adminToken,
			body:     marchallObj(t, map[string]string{"name": "Renamed Room"}),
			wantCode: http.StatusOK, extra: "Renamed Room",
		},
		{
			name: "destroy ok", method: http.MethodDelete, path: fmt.Sprintf("/v1/spaces/%d", existing.ID),
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
				var spc space.Space
				if err := unmarchallObj(t, rec.Body.Bytes(), &spc); err == nil && spc.Name != wantName {
					t.Errorf("update() name = %v; want %v", spc.Name, wantName)
				}
			}
		})
	}
}
