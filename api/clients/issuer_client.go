package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ruteri/bonding-factory-backend/api"
	"github.com/ruteri/bonding-factory-backend/interfaces"
)

// IssuerClient implements interfaces.IssuingAuthority against a remote issuing service.
// The service acknowledges the request synchronously and posts the result to the
// factory's issuance callback later.
type IssuerClient struct {
	// AuthorityURL is the base URL of the issuing service.
	AuthorityURL string

	// CallbackBaseURL is the externally reachable base URL of this factory.
	CallbackBaseURL string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// CallbackURL returns where the result for jobID must be delivered.
func (c *IssuerClient) CallbackURL(jobID string) string {
	return fmt.Sprintf("%s/api/callbacks/issuance/%s", strings.TrimSuffix(c.CallbackBaseURL, "/"), jobID)
}

// RequestIssuance posts req to the issuing service. A non-2xx answer is reported as
// interfaces.ErrIssuanceRejected; transport failures leave the outcome unknown.
func (c *IssuerClient) RequestIssuance(ctx context.Context, req interfaces.IssuanceRequest) error {
	body, err := json.Marshal(api.IssueRequest{IssuanceRequest: req, CallbackURL: c.CallbackURL(req.JobID)})
	if err != nil {
		return err
	}

	url := strings.TrimSuffix(c.AuthorityURL, "/") + "/api/issue"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient(c.HTTPClient).Do(httpReq)
	if err != nil {
		return fmt.Errorf("could not request issuance endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: issuance endpoint returned error %d: %s", interfaces.ErrIssuanceRejected, resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}
	return nil
}

func httpClient(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}
