// Package httputil provides HTTP utilities for standardized request/response handling.
//
// JSON responses:
//
//	httputil.WriteSuccess(w, data)
//	httputil.WriteCreated(w, resource)
//
// Error responses:
//
//	httputil.WriteBadRequest(w, "invalid input")
//	httputil.WriteUnauthorized(w, "invalid credentials")
//	httputil.WriteForbidden(w, "insufficient permissions")
//
// Request parsing:
//
//	var req LoginRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // error response already written
//	}
//
// Middleware:
//
//	httputil.Chain(handler,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//		httputil.RequestIDMiddleware(),
//	)
package httputil
