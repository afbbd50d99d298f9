/*
Package httpserver exposes the publisher over HTTP.

API Endpoints:

  - POST /api/publish: publishes the configured contract and schema artifacts.
    The optional body {"locations": [...]} restricts the run to some locations.
    Concurrent requests are serialized by the coordinator. The response maps
    each published location to its transaction; when the run stops early the
    response also carries the error and a non-2xx status:
    400 for configuration and key errors, 409 for a hash mismatch between
    locations, 502 for object store failures and ledger rejections.
  - GET /api/locations/{location}/contract-specs/{id}: queries a contract
    specification on the location's ledger.
  - GET /api/locations/{location}/scope-specs/{id}: queries a scope specification.
  - GET /livez, /readyz, /drain, /undrain: health and load balancer control.
    While drained, /api/publish answers 503 so no new transactions start.

Prometheus metrics are served on a separate listener when a metrics address
is configured.
*/
package httpserver
