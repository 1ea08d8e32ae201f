package lsp

import (
	"encoding/json"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// glspClient adapts a request context to the notifier interface used by
// the background pipeline (glsp exposes Notify as a struct field).
type glspClient struct{ ctx *glsp.Context }

func (c glspClient) Notify(method string, params any) {
	c.ctx.Notify(method, params)
}

func clientFor(ctx *glsp.Context) notifier { return glspClient{ctx: ctx} }

// routedHandler wraps the protocol 3.16 handler table and routes the
// 3.17-only textDocument/inlayHint method by hand. Everything else
// delegates to the generated handler.
type routedHandler struct {
	base   *protocol.Handler
	server *Server
}

func (h *routedHandler) Handle(ctx *glsp.Context) (any, bool, bool, error) {
	if ctx.Method == "textDocument/inlayHint" {
		var params inlayHintParams
		if err := json.Unmarshal(ctx.Params, &params); err != nil {
			return nil, true, false, err
		}
		result, err := h.server.inlayHints(ctx, &params)
		return result, true, true, err
	}
	return h.base.Handle(ctx)
}
