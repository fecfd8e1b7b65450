// Package api defines the Foodgram RPC surface: procedure names, request and
// response messages, and the JSON codec that carries them over Connect.
package api

import (
	"strings"

	"connectrpc.com/connect"
	"github.com/goccy/go-json"
)

// Codec marshals plain Go structs as JSON. It is registered under the name
// "json", replacing Connect's protobuf-only JSON codec, so both handlers and
// clients speak application/json.
type Codec struct{}

var _ connect.Codec = Codec{}

// Name implements connect.Codec.
func (Codec) Name() string { return "json" }

// Marshal implements connect.Codec.
func (Codec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// Unmarshal implements connect.Codec. An empty body decodes to the zero message.
func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

// NewClient returns a Connect client for one procedure on baseURL.
func NewClient[Req, Res any](httpClient connect.HTTPClient, baseURL, procedure string, opts ...connect.ClientOption) *connect.Client[Req, Res] {
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return connect.NewClient[Req, Res](httpClient, strings.TrimRight(baseURL, "/")+procedure, opts...)
}
