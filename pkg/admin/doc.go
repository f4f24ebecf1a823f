// Package admin provides a read-only REST API over the capture store.
//
// The admin API runs on its own port so the capture surface keeps its
// "any path echoes" contract: no admin route ever shadows a capture
// path. Entries are never mutated or deleted through the API, matching
// the store's append-only lifecycle.
//
// Endpoints:
//
//	GET /health           - Admin health check
//	GET /status           - Listener and store status
//	GET /metrics          - Prometheus text metrics
//	GET /entries          - List captured entries (filterable)
//	GET /entries/{id}     - Get a specific entry
//	GET /entries/stream   - Live entry stream (Server-Sent Events)
//	GET /entries/ws       - Live entry stream (WebSocket)
//
// Usage:
//
//	srv, _ := receiver.NewServer(cfg)
//	srv.Start()
//
//	api := admin.NewAdminAPI(7311,
//		admin.WithStore(srv.Store()),
//		admin.WithReceiver(srv),
//	)
//	api.Start()
//	defer api.Stop(context.Background())
//
// Example curl commands:
//
//	# List the latest entries
//	curl http://localhost:7311/entries?limit=10
//
//	# Only relay-capable root interactions whose query carried a q key
//	curl 'http://localhost:7311/entries?kind=root&jsonpath=$.q'
//
//	# Tail new entries
//	curl -N http://localhost:7311/entries/stream
package admin
