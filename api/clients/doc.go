/*
Package clients provides HTTP clients for the factory API and for the issuing
authority the factory delegates asset issuance to.

# FactoryClient

FactoryClient wraps every route of the factory API. Requests carry the caller
address in the X-Caller-Address header. Non-2xx responses are returned as
*StatusError; IsStatus matches them by code.

	c := &clients.FactoryClient{ServerAddr: "http://127.0.0.1:8080", Caller: owner}
	if err := c.Pause(ctx, factoryAddr); err != nil {
	    if clients.IsStatus(err, http.StatusForbidden) {
	        // caller is not the owner
	    }
	}

# IssuerClient

IssuerClient implements interfaces.IssuingAuthority. It posts issuance
requests to the authority and tells it where to deliver the result:

	{CallbackBaseURL}/api/callbacks/issuance/{jobID}
*/
package clients
