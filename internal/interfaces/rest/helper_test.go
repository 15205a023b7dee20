package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestCreateEndpointMountsGroups(t *testing.T) {
	app := echo.New()
	ok := func(c echo.Context) error { return c.String(http.StatusOK, c.Param("id")) }
	createEndpoint(app, &endpoint{
		apiVersion: "/api/v1",
		groups: []*apiGroup{
			{prefix: "/habits", routes: []*route{{http.MethodDelete, "/:id", ok, nil}}},
		},
	})

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/habits/h1", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "h1" {
		t.Fatalf("response = %d %q", rec.Code, rec.Body.String())
	}
}

func TestCreateEndpointRejectsUnknownMethod(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for PATCH")
		}
	}()
	createEndpoint(echo.New(), &endpoint{
		apiVersion: "api/v1",
		groups: []*apiGroup{
			{prefix: "/apps", routes: []*route{{http.MethodPatch, "/:id", func(echo.Context) error { return nil }, nil}}},
		},
	})
}
