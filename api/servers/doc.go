/*
Package servers runs the factory HTTP API.

A Server mounts the routes of a RouteRegistrar next to the health endpoints
and, when configured, serves prometheus metrics on a separate address.

# Health endpoints

  - GET /livez - always 200 while the process runs
  - GET /readyz - 200 when ready, 503 while draining
  - GET /drain - marks the server not ready ahead of shutdown
  - GET /undrain - marks the server ready again

pprof is mounted under /debug when EnablePprof is set.
*/
package servers
