package core

// Endpoint is a framework-agnostic route template.
// HTTP adapters bind a handler to it by OperationID.
type Endpoint struct {
	Path     string
	Method   string
	Metadata EndpointMetadata
}

type EndpointMetadata struct {
	OperationID string
	Description string
}
