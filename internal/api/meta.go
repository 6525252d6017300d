package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/phrazzld/json-bucket/internal/api/shared"
	"github.com/phrazzld/json-bucket/internal/domain"
	"github.com/tidwall/gjson"
)

// ServiceInfo describes the running service on GET /.
type ServiceInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// HelpResponse is the body of GET /help.
type HelpResponse struct {
	Paths map[string]string `json:"paths"`
}

// routeHelp documents every route the gateway serves.
var routeHelp = map[string]string{
	"GET /":                                     "Show service name, version and description",
	"GET /health":                               "Get the health of the api",
	"GET /help":                                 "Show this help message",
	"GET /metrics":                              "Prometheus metrics",
	"POST /echo":                                "Echo back json payload (debugging)",
	"GET /_cat/databases":                       "List database names",
	"GET /{database}/_cat/collections":          "List collection names of a database",
	"GET /{database}/{collection}/_count":       "Count the documents of a collection",
	"GET /{database}/{collection}/_indexes":     "List the indexes of a collection",
	"POST /{database}/{collection}/find_one":    "Body: filter or [filter, options]. Returns the first match",
	"POST /{database}/{collection}/find":        "Body: filter or [filter, options]. Returns matches, newest first",
	"POST /{database}/{collection}/insert":      "Body: document or [document, options]. Returns insertedId",
	"POST /{database}/{collection}/insert_many": "Body: [documents] or [[documents], options]. Returns insertedIds",
	"POST /{database}/{collection}/aggregate":   "Body: [stages] or [[stages], options]. Returns pipeline output, capped at the default find limit (100)",
}

// MetaHandler serves the informational routes that do not touch the backend.
type MetaHandler struct {
	info         ServiceInfo
	maxBodyBytes int64
}

// NewMetaHandler creates a MetaHandler.
func NewMetaHandler(info ServiceInfo, maxBodyBytes int64) *MetaHandler {
	return &MetaHandler{info: info, maxBodyBytes: maxBodyBytes}
}

// Root handles GET /.
func (h *MetaHandler) Root(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.info)
}

// Health handles GET /health.
func (h *MetaHandler) Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, shared.MessageResponse{Msg: "Healthy"})
}

// Help handles GET /help.
func (h *MetaHandler) Help(w http.ResponseWriter, r *http.Request) {
	paths := make(map[string]string, len(routeHelp))
	for route, desc := range routeHelp {
		paths[route] = desc
	}
	shared.RespondWithJSON(w, r, http.StatusOK, HelpResponse{Paths: paths})
}

// Echo handles POST /echo by returning the JSON body unchanged.
func (h *MetaHandler) Echo(w http.ResponseWriter, r *http.Request) {
	body, err := shared.ReadBody(w, r, h.maxBodyBytes)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	if !gjson.ValidBytes(body) {
		HandleAPIError(w, r, fmt.Errorf("%w: body is not valid JSON", domain.ErrParse))
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, json.RawMessage(body))
}

// NotFound answers requests that match no route.
func NotFound(w http.ResponseWriter, r *http.Request) {
	HandleAPIError(w, r, fmt.Errorf("%w: %s %s", domain.ErrNotFound, r.Method, r.URL.Path))
}

// MethodNotAllowed answers requests whose path matches a route registered for
// other methods.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	HandleAPIError(w, r, fmt.Errorf("%w: %s %s", domain.ErrMethodNotAllowed, r.Method, r.URL.Path))
}
