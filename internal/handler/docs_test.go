package handler

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/swaggo/swag"

	"requestdesk/api/swagger"
	"requestdesk/internal/middleware"
)

var pathParam = regexp.MustCompile(`:(\w+)`)

func TestSwaggerDocListsEveryRoute(t *testing.T) {
	raw, err := swag.ReadDoc(swagger.SwaggerInfo.InstanceName())
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("doc is not valid JSON: %v", err)
	}

	r := newTestRouter(func(public, protected *gin.RouterGroup) {
		NewUserHandler(nil, middleware.CookieOptions{}).RegisterRoutes(public, protected)
		NewRequestHandler(nil).RegisterRoutes(protected)
		NewDepartmentHandler(nil).RegisterRoutes(protected)
		NewReportHandler(nil).RegisterRoutes(protected)
		NewCatalogHandler(nil).RegisterRoutes(protected)
		NewNotificationHandler(nil).RegisterRoutes(protected)
	})
	for _, route := range r.Routes() {
		path := pathParam.ReplaceAllString(route.Path, "{$1}")
		if _, ok := doc.Paths[path][strings.ToLower(route.Method)]; !ok {
			t.Errorf("%s %s missing from the swagger doc", route.Method, path)
		}
	}
}
