package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ruteri/bonding-factory-backend/api"
	"github.com/ruteri/bonding-factory-backend/factory"
	"github.com/ruteri/bonding-factory-backend/interfaces"
	"github.com/ruteri/bonding-factory-backend/provisioning"
	"github.com/ruteri/bonding-factory-backend/registry"
)

// FactoryClient talks to a running factory server on behalf of Caller.
type FactoryClient struct {
	// ServerAddr is the base URL of the factory server.
	ServerAddr string

	// Caller is sent in the caller header of every request.
	Caller interfaces.Address

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// StatusError is returned for non-2xx responses. JobID names a provisioning job the
// factory kept pending despite the error.
type StatusError struct {
	StatusCode int
	Message    string
	JobID      string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("factory returned %d: %s", e.StatusCode, e.Message)
}

func (c *FactoryClient) State(ctx context.Context) (bool, error) {
	var resp api.StateResponse
	err := c.do(ctx, http.MethodGet, "/api/public/state", nil, &resp)
	return resp.Active, err
}

func (c *FactoryClient) Config(ctx context.Context) (*registry.Config, error) {
	var cfg registry.Config
	if err := c.do(ctx, http.MethodGet, "/api/public/config", nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *FactoryClient) Pairs(ctx context.Context) ([]interfaces.PairMetadata, error) {
	var pairs []interfaces.PairMetadata
	err := c.do(ctx, http.MethodGet, "/api/public/pairs", nil, &pairs)
	return pairs, err
}

func (c *FactoryClient) PairsData(ctx context.Context) ([]interfaces.PairContractData, error) {
	var data []interfaces.PairContractData
	err := c.do(ctx, http.MethodGet, "/api/public/pairs/data", nil, &data)
	return data, err
}

func (c *FactoryClient) Jobs(ctx context.Context) ([]provisioning.Context, error) {
	var jobs []provisioning.Context
	err := c.do(ctx, http.MethodGet, "/api/public/jobs", nil, &jobs)
	return jobs, err
}

func (c *FactoryClient) Initialize(ctx context.Context, params factory.RawInitParams) error {
	return c.do(ctx, http.MethodPost, "/api/admin/initialize", params, nil)
}

func (c *FactoryClient) Upgrade(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/admin/upgrade", nil, nil)
}

func (c *FactoryClient) Pause(ctx context.Context, target interfaces.Address) error {
	return c.do(ctx, http.MethodPost, "/api/admin/pause/"+target.String(), nil, nil)
}

func (c *FactoryClient) Resume(ctx context.Context, target interfaces.Address) error {
	return c.do(ctx, http.MethodPost, "/api/admin/resume/"+target.String(), nil, nil)
}

func (c *FactoryClient) SetRouter(ctx context.Context, target, router interfaces.Address) error {
	return c.do(ctx, http.MethodPost, "/api/admin/router/"+target.String(), api.RouterRequest{Router: router}, nil)
}

func (c *FactoryClient) UpgradePair(ctx context.Context, first, second interfaces.AssetID) error {
	return c.do(ctx, http.MethodPost, "/api/admin/upgrade_pair", api.UpgradePairRequest{
		FirstAssetID:  first,
		SecondAssetID: second,
	}, nil)
}

// SetConfig sets one configuration field; value is a decimal amount or a hex address.
func (c *FactoryClient) SetConfig(ctx context.Context, field, value string) error {
	return c.do(ctx, http.MethodPut, "/api/admin/config/"+field, api.ConfigValueRequest{Value: value}, nil)
}

// Provision starts provisioning a new asset and returns its job id.
func (c *FactoryClient) Provision(ctx context.Context, req api.ProvisionRequest) (string, error) {
	var resp api.ProvisionResponse
	err := c.do(ctx, http.MethodPost, "/api/assets", req, &resp)
	return resp.JobID, err
}

func (c *FactoryClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimSuffix(c.ServerAddr, "/")+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(api.CallerHeader, c.Caller.String())

	resp, err := httpClient(c.HTTPClient).Do(req)
	if err != nil {
		return fmt.Errorf("could not request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var errResp api.ErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &errResp) != nil || errResp.Error == "" {
			errResp.Error = strings.TrimSpace(string(data))
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: errResp.Error, JobID: errResp.JobID}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not parse response from %s: %w", path, err)
	}
	return nil
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}
