package api

import (
	"github.com/ruteri/bonding-factory-backend/interfaces"
)

// Header constants used in HTTP requests.
const (
	// CallerHeader carries the address of the account invoking an operation. It is set
	// by the execution environment fronting the factory.
	CallerHeader = "X-Caller-Address"

	// CallbackTokenHeader carries the shared secret the issuing authority presents
	// when delivering an issuance result.
	CallbackTokenHeader = "X-Callback-Token"

	// ExecutionBudgetHeader optionally bounds the execution time of a call, as a Go
	// duration string (for example "15s").
	ExecutionBudgetHeader = "X-Execution-Budget"
)

// ProvisionRequest asks the factory to provision a new asset and its bonding sub-system.
// PaymentTx is the hash of the mined transfer that paid the new asset fee.
type ProvisionRequest struct {
	DisplayName string `json:"display_name"`
	Ticker      string `json:"ticker"`
	DBID        string `json:"db_id"`
	BuyIn       bool   `json:"buy_in"`
	PaymentTx   string `json:"payment_tx"`
}

// ProvisionResponse carries the id of the started provisioning job.
type ProvisionResponse struct {
	JobID string `json:"job_id"`
}

// IssuanceCallback is the result the issuing authority delivers for a job.
type IssuanceCallback struct {
	Success bool   `json:"success"`
	AssetID string `json:"asset_id"`
	Amount  string `json:"amount"`
	Reason  string `json:"reason,omitempty"`
}

// IssueRequest is sent to the issuing authority. CallbackURL is where the result must be posted.
type IssueRequest struct {
	interfaces.IssuanceRequest
	CallbackURL string `json:"callback_url"`
}

type StateResponse struct {
	Active bool `json:"active"`
}

// ValueResponse carries a single decimal amount.
type ValueResponse struct {
	Value string `json:"value"`
}

type AddressResponse struct {
	Address interfaces.Address `json:"address"`
}

type RouterRequest struct {
	Router interfaces.Address `json:"router"`
}

type UpgradePairRequest struct {
	FirstAssetID  interfaces.AssetID `json:"first_asset_id"`
	SecondAssetID interfaces.AssetID `json:"second_asset_id"`
}

// ConfigValueRequest sets one configuration field. Value is a decimal amount or a hex address
// depending on the field.
type ConfigValueRequest struct {
	Value string `json:"value"`
}

// ErrorResponse is the body of every non-2xx response. JobID is set when a provisioning
// job was left pending despite the error.
type ErrorResponse struct {
	Error string `json:"error"`
	JobID string `json:"job_id,omitempty"`
}
