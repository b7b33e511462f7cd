// Package apiconnect wires the hangout services to Connect handlers and
// clients. It plays the role usually taken by generated code.
package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/hangout/pkg/api"
)

// PackagePrefix is the fully-qualified service namespace.
const PackagePrefix = "/hangout.v1."

type routes map[string]http.Handler

func handle[Req, Res any](r routes, procedure string, fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error), opts []connect.HandlerOption) {
	opts = append([]connect.HandlerOption{connect.WithCodec(api.JSONCodec{})}, opts...)
	r[procedure] = connect.NewUnaryHandler(procedure, fn, opts...)
}

func (r routes) serve(servicePath string) (string, http.Handler) {
	return servicePath, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if h, ok := r[req.URL.Path]; ok {
			h.ServeHTTP(w, req)
			return
		}
		http.NotFound(w, req)
	})
}

func newClient[Req, Res any](httpClient connect.HTTPClient, baseURL, procedure string, opts []connect.ClientOption) *connect.Client[Req, Res] {
	opts = append([]connect.ClientOption{connect.WithCodec(api.JSONCodec{})}, opts...)
	return connect.NewClient[Req, Res](httpClient, strings.TrimRight(baseURL, "/")+procedure, opts...)
}
