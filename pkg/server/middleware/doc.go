// Package middleware provides the HTTP middleware of the playground server:
// request IDs, session tagging, request logging and panic recovery.
//
// Typical order, outermost first:
//
//	handler = middleware.Chain(mux,
//		middleware.Recovery(logger),
//		middleware.RequestID,
//		middleware.Session,
//		middleware.Logging(logger),
//	)
package middleware
