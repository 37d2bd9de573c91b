package echoapi

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/mkundi/kampasi/core/event"
)

func Test_eventApi_query(t *testing.T) {
	resetDB()

	admin := createUser(t, "Admin", "admin@kampasi.cd", "", true, true)
	library := createFacility(t, "Main Library", 10.713, 122.551)
	avRoom := createSpace(t, "AV Room", library.ID, "1st floor")

	now := time.Now().UTC().Truncate(time.Second)
	past := createEvent(t, "Orientation", avRoom.ID, now.Add(-48*time.Hour), now.Add(-46*time.Hour), event.ScopeAllStudents)
	soon := createEvent(t, "Film Night", avRoom.ID, now.Add(2*time.Hour), now.Add(5*time.Hour), "CICT", "1st years")
	later := createEvent(t, "Book Fair", avRoom.ID, now.Add(72*time.Hour), now.Add(96*time.Hour), event.ScopeAllStudents)

	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/events", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Get all (soonest first, names joined)", path: "/v1/events", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, past, soon, later),
		},
		{
			name: "upcoming excludes past", path: "/v1/events/upcoming", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, soon, later),
		},
		{
			name: "upcoming honors limit", path: "/v1/events/upcoming?limit=1", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, soon),
		},
		{
			name: "known scopes", path: "/v1/events/scopes", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, event.Scopes()),
		},
		{
			name: "retrieve", path: fmt.Sprintf("/v1/events/%d", soon.ID), token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, soon),
		},
		{
			name: "retrieve (not found)", path: "/v1/events/999", token: adminToken,
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

func Test_eventApi_write(t *testing.T) {
	resetDB()

	admin := createUser(t, "Admin", "admin@kampasi.cd", "", true, true)
	plain := createUser(t, "Plain User", "plain@kampasi.cd", "", false, true)
	library := createFacility(t, "Main Library", 10.713, 122.551)
	avRoom := createSpace(t, "AV Room", library.ID, "1st floor")

	now := time.Now().UTC().Truncate(time.Second)
	existing := createEvent(t, "Book Fair", avRoom.ID, now.Add(72*time.Hour), now.Add(96*time.Hour), event.ScopeAllStudents)

	adminToken := getToken(t, admin)
	plainToken := getToken(t, plain)

	newEvt := func(name string, locationID int64, start, end time.Time, scopes ...string) []byte {
		return marchallObj(t, event.NewEvent{
			Name:       name,
			LocationID: locationID,
			StartDate:  start,
			EndDate:    end,
			Scopes:     scopes,
		})
	}

	tests := []httpTest{
		{
			name: "create requires admin", method: http.MethodPost, path: "/v1/events", token: plainToken,
			body:     newEvt("Job Fair", avRoom.ID, now.Add(time.Hour), now.Add(3*time.Hour), event.ScopeAllStudents),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "create rejects end before start", method: http.MethodPost, path: "/v1/events", token: adminToken,
			body:     newEvt("Job Fair", avRoom.ID, now.Add(3*time.Hour), now.Add(time.Hour), event.ScopeAllStudents),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "create rejects unknown scope", method: http.MethodPost, path: "/v1/events", token: adminToken,
			body:     newEvt("Job Fair", avRoom.ID, now.Add(time.Hour), now.Add(3*time.Hour), "Aliens"),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "create rejects unknown location", method: http.MethodPost, path: "/v1/events", token: adminToken,
			body:     newEvt("Job Fair", 999, now.Add(time.Hour), now.Add(3*time.Hour), event.ScopeAllStudents),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"location_id": "space not found"}),
		},
		{
			name: "create ok", method: http.MethodPost, path: "/v1/events", token: adminToken,
			body:     newEvt("Job Fair", avRoom.ID, now.Add(time.Hour), now.Add(3*time.Hour), "CICT", "CBM"),
			wantCode: http.StatusCreated,
		},
		{
			name: "update keeps schedule consistent", method: http.MethodPut, path: fmt.Sprintf("/v1/events/%d", existing.ID),
			token: adminToken,
			// moving only the end bound before the existing start must fail
			body:     marchallObj(t, map[string]interface{}{"end_date": now.Add(time.Hour)}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"end_date": "end date must be after start date"}),
		},
		{
			name: "update (not found)", method: http.MethodPut, path: "/v1/events/999", token: adminToken,
			body:     marchallObj(t, map[string]string{"name": "Renamed Fair"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "update ok", method: http.MethodPut, path: fmt.Sprintf("/v1/events/%d", existing.ID),
			token:    adminToken,
			body:     marchallObj(t, map[string]interface{}{"name": "Renamed Fair", "scopes": []string{"COL"}}),
			wantCode: http.StatusOK, extra: "Renamed Fair",
		},
		{
			name: "destroy ok", method: http.MethodDelete, path: fmt.Sprintf("/v1/events/%d", existing.ID),
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
				var evt event.Event
				if err := unmarchallObj(t, rec.Body.Bytes(), &evt); err == nil {
					if evt.Name != wantName {
						t.Errorf("update() name = %v; want %v", evt.Name, wantName)
					}
					if len(evt.Scopes) != 1 || evt.Scopes[0] != "COL" {
						t.Errorf("update() scopes = %v; want [COL]", evt.Scopes)
					}
				}
			}
		})
	}
}
