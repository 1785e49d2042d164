package services

import (
	"fmt"

	"github.com/lborres/linkage/core"
)

// Operation IDs bound to handlers by HTTP adapters
const (
	OpStyles         = "styles"
	OpClientBundle   = "clientBundle"
	OpStyledSystem   = "styledSystem"
	OpSourceModule   = "sourceModule"
	OpLogout         = "logout"
	OpZohoConnect    = "zohoConnect"
	OpZohoCallback   = "zohoCallback"
	OpZohoAccounts   = "zohoAccounts"
	OpZohoDisconnect = "zohoDisconnect"
	OpHealth         = "health"
	OpRenderPage     = "renderPage"

	// OpDiagnostics is not part of the base table; register it as a plugin
	OpDiagnostics = "diagnostics"
)

func endpoint(method, path, opID, desc string) core.Endpoint {
	return core.Endpoint{
		Path:   path,
		Method: method,
		Metadata: core.EndpointMetadata{
			OperationID: opID,
			Description: desc,
		},
	}
}

// BaseEndpoints returns the framework-agnostic route table in dispatch
// order. Assets come first and the page catch-all comes last.
func BaseEndpoints() []core.Endpoint {
	return []core.Endpoint{
		endpoint("GET", "/styles.css", OpStyles, "Serve the prebuilt stylesheet"),
		endpoint("GET", "/client.js", OpClientBundle, "Serve the client bundle, building it on demand"),
		endpoint("GET", "/styled-system/*", OpStyledSystem, "Serve generated style-system files"),
		endpoint("GET", "/src/*", OpSourceModule, "Bundle a source module for the browser"),
		endpoint("GET", "/auth/logout", OpLogout, "Delete the current user and clear the identity cookie"),
		endpoint("GET", "/api/zoho/connect", OpZohoConnect, "Redirect to the Zoho consent screen"),
		endpoint("GET", "/api/zoho/callback", OpZohoCallback, "Complete the Zoho authorization code flow"),
		endpoint("GET", "/api/zoho/accounts", OpZohoAccounts, "List the current user's connected Zoho accounts"),
		endpoint("DELETE", "/api/zoho/accounts/:id", OpZohoDisconnect, "Remove a connected Zoho account"),
		endpoint("GET", "/healthz", OpHealth, "Liveness check"),
		endpoint("GET", "/", OpRenderPage, "Render the login page or the dashboard"),
		endpoint("GET", "/*", OpRenderPage, "Render the login page or the dashboard"),
	}
}

// DiagnosticsEndpoint reports known hosts and transform cache counters.
// It exposes tenant host names, so register it outside production only.
func DiagnosticsEndpoint() core.Endpoint {
	return endpoint("GET", "/debug/linkage", OpDiagnostics, "Report known hosts and cache counters")
}

// EndpointRegistry keeps endpoints in registration order and rejects
// duplicate METHOD:PATH combinations.
type EndpointRegistry struct {
	endpoints []*core.Endpoint
	index     map[string]bool
}

// NewEndpointRegistry creates a registry with the base endpoints pre-registered
func NewEndpointRegistry() *EndpointRegistry {
	reg := &EndpointRegistry{
		index: make(map[string]bool),
	}

	for _, ep := range BaseEndpoints() {
		reg.add(ep)
	}

	return reg
}

func endpointKey(ep *core.Endpoint) string {
	return fmt.Sprintf("%s:%s", ep.Method, ep.Path)
}

func (r *EndpointRegistry) add(ep core.Endpoint) {
	r.endpoints = append(r.endpoints, &ep)
	r.index[endpointKey(&ep)] = true
}

// RegisterPlugin adds extra endpoints. Plugin endpoints are inserted before
// the page catch-all so they take precedence over it.
//
// If any endpoint conflicts, with the registry or within the batch, nothing
// is registered.
func (r *EndpointRegistry) RegisterPlugin(endpoints []core.Endpoint) error {
	seen := make(map[string]bool)
	for i := range endpoints {
		ep := &endpoints[i]
		key := endpointKey(ep)

		if r.index[key] {
			return fmt.Errorf("plugin endpoint conflict: %s %s already registered", ep.Method, ep.Path)
		}
		if seen[key] {
			return fmt.Errorf("plugin contains duplicate endpoint: %s %s", ep.Method, ep.Path)
		}
		seen[key] = true
	}

	pos := len(r.endpoints)
	for i, ep := range r.endpoints {
		if ep.Metadata.OperationID == OpRenderPage {
			pos = i
			break
		}
	}

	added := make([]*core.Endpoint, 0, len(endpoints))
	for i := range endpoints {
		ep := endpoints[i]
		added = append(added, &ep)
		r.index[endpointKey(&ep)] = true
	}

	tail := append(added, r.endpoints[pos:]...)
	r.endpoints = append(r.endpoints[:pos], tail...)
	return nil
}

// Endpoints returns all registered endpoints in dispatch order
func (r *EndpointRegistry) Endpoints() []*core.Endpoint {
	result := make([]*core.Endpoint, len(r.endpoints))
	copy(result, r.endpoints)
	return result
}
