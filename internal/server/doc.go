// Package server exposes an authsvc Engine over HTTP and WebSocket.
//
// Routes are registered on a gorilla/mux router:
//
//	POST   /api/auth/register               strict tier
//	POST   /api/auth/login                  normal tier
//	POST   /api/auth/refresh                normal tier
//	POST   /api/auth/logout                 bearer
//	GET    /api/auth/me                     bearer, normal tier
//	POST   /api/auth/password/reset-request strict tier
//	POST   /api/auth/password/reset-confirm strict tier
//	POST   /api/auth/password/change        bearer
//	GET    /api/users?page=&size=&search=   superuser, normal tier
//	POST   /api/users                       superuser
//	GET    /api/users/{id}                  bearer
//	PATCH  /api/users/{id}                  bearer
//	DELETE /api/users/{id}                  bearer
//	GET    /api/ws/connect?token=           WebSocket
//	GET    /api/ws/health
//	GET    /health
//	GET    /metrics
//
// Engine errors become statuses through [authsvc.Kind]. Every error body
// is {"detail": ...}; validation failures carry the violation list.
//
// # What this package must NOT do
//
//   - Make authentication decisions. The Engine owns them.
//   - Echo internal error text to clients.
package server
