/*
Package api holds the HTTP surface of the bonding factory.

It is organized into three subpackages:

 1. factoryhandler - request decoding, caller identity and error mapping onto the factory
 2. servers - HTTP server lifecycle, health and drain endpoints
 3. clients - the HTTP issuing authority and the admin client used by factoryctl

The package itself defines the wire types and headers shared by all three.

# Caller identity

Every mutating call carries the invoking account in the X-Caller-Address header.
Owner-only operations compare it against the owner recorded at initialization.
The header is trusted; authenticating it is left to whatever fronts the service.

# Issuance callbacks

Provisioning is asynchronous. POST /api/assets returns a job id, and the issuing
authority later posts the issuance result to /api/callbacks/issuance/{job_id}.
When a callback token is configured the authority must present it in the
X-Callback-Token header.
*/
package api
