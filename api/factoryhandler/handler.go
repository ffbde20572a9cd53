// Package factoryhandler serves the factory's operations over HTTP.
package factoryhandler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ruteri/bonding-factory-backend/api"
	"github.com/ruteri/bonding-factory-backend/factory"
	"github.com/ruteri/bonding-factory-backend/interfaces"
	"github.com/ruteri/bonding-factory-backend/provisioning"
	"github.com/ruteri/bonding-factory-backend/registry"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

// callbackTimeout bounds the resumption of a job. It is not tied to the callback
// connection, which the issuing authority may drop at any time.
const callbackTimeout = 10 * time.Minute

// Factory is the set of factory operations exposed over HTTP.
type Factory interface {
	Initialize(ctx context.Context, caller interfaces.Address, params *registry.InitParams) error
	UpgradeSelf(ctx context.Context, caller interfaces.Address) error
	Pause(ctx context.Context, caller, target interfaces.Address) error
	Resume(ctx context.Context, caller, target interfaces.Address) error
	SetRouter(ctx context.Context, caller, target, router interfaces.Address) error
	ProvisionNewAsset(ctx context.Context, caller interfaces.Address, req provisioning.Request) (string, error)
	CompleteIssuance(ctx context.Context, result interfaces.IssuanceResult) (*provisioning.Outcome, error)
	UpgradePair(ctx context.Context, caller interfaces.Address, first, second interfaces.AssetID) error

	SetFeesCollector(ctx context.Context, caller, addr interfaces.Address) error
	SetInitialVirtualLiquidity(ctx context.Context, caller interfaces.Address, v *big.Int) error
	SetTokenSupply(ctx context.Context, caller interfaces.Address, v *big.Int) error
	SetNewAssetFee(ctx context.Context, caller interfaces.Address, v *big.Int) error
	SetMaxMarketCap(ctx context.Context, caller interfaces.Address, v *big.Int) error
	SetTemplateAddress(ctx context.Context, caller, addr interfaces.Address) error

	GetAllPairMetadata() []interfaces.PairMetadata
	GetAllPairData(ctx context.Context) ([]interfaces.PairContractData, error)
	GetState() bool
	GetTokenSupply() *big.Int
	GetNewAssetFee() *big.Int
	GetTemplateAddress() interfaces.Address
	PendingJobs() []provisioning.Context
	Config() registry.Config
}

// Handler processes HTTP requests for the factory.
type Handler struct {
	factory       Factory
	callbackToken string
	log           *slog.Logger
}

// NewHandler creates a handler. An empty callbackToken rejects every issuance callback.
func NewHandler(f Factory, callbackToken string, log *slog.Logger) *Handler {
	return &Handler{
		factory:       f,
		callbackToken: callbackToken,
		log:           log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/assets", h.HandleProvision)
	r.Post("/api/callbacks/issuance/{job_id}", h.HandleIssuanceCallback)

	r.Get("/api/public/pairs", h.HandlePairs)
	r.Get("/api/public/pairs/data", h.HandlePairsData)
	r.Get("/api/public/state", h.HandleState)
	r.Get("/api/public/token_supply", h.HandleTokenSupply)
	r.Get("/api/public/new_asset_fee", h.HandleNewAssetFee)
	r.Get("/api/public/template_address", h.HandleTemplateAddress)
	r.Get("/api/public/jobs", h.HandleJobs)
	r.Get("/api/public/config", h.HandleConfig)

	r.Post("/api/admin/initialize", h.HandleInitialize)
	r.Post("/api/admin/upgrade", h.HandleUpgrade)
	r.Post("/api/admin/pause/{address}", h.HandlePause)
	r.Post("/api/admin/resume/{address}", h.HandleResume)
	r.Post("/api/admin/router/{address}", h.HandleSetRouter)
	r.Post("/api/admin/upgrade_pair", h.HandleUpgradePair)
	r.Put("/api/admin/config/{field}", h.HandleSetConfig)
}

// HandleProvision starts provisioning a new asset.
//
// URL format: POST /api/assets
//
// Request body: api.ProvisionRequest. Response: 202 with api.ProvisionResponse. When the
// issuance request could not be confirmed the response is 504 and carries the pending job id.
func (h *Handler) HandleProvision(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req api.ProvisionRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel, err := withExecutionBudget(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer cancel()

	jobID, err := h.factory.ProvisionNewAsset(ctx, caller, provisioning.Request{
		DisplayName:   req.DisplayName,
		Ticker:        req.Ticker,
		CorrelationID: req.DBID,
		BuyIn:         req.BuyIn,
		PaymentTx:     req.PaymentTx,
	})
	if err != nil {
		h.log.Error("Provisioning failed to start", "err", err,
			slog.String("caller", caller.String()),
			slog.String("ticker", req.Ticker),
			slog.String("jobID", jobID))
		h.writeJSON(w, StatusCode(err), api.ErrorResponse{Error: err.Error(), JobID: jobID})
		return
	}

	h.writeJSON(w, http.StatusAccepted, api.ProvisionResponse{JobID: jobID})
}

// HandleIssuanceCallback delivers the issuance result for a pending job.
//
// URL format: POST /api/callbacks/issuance/{job_id}
func (h *Handler) HandleIssuanceCallback(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(api.CallbackTokenHeader)
	if h.callbackToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.callbackToken)) != 1 {
		h.writeJSON(w, http.StatusUnauthorized, api.ErrorResponse{Error: "invalid callback token"})
		return
	}

	var cb api.IssuanceCallback
	if !h.decode(w, r, &cb) {
		return
	}

	var amount *big.Int
	if cb.Amount != "" {
		v, ok := factory.ParseAmount(cb.Amount)
		if !ok {
			h.writeError(w, fmt.Errorf("%w: amount %q", interfaces.ErrInvalidArgument, cb.Amount))
			return
		}
		amount = v
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), callbackTimeout)
	defer cancel()

	jobID := chi.URLParam(r, "job_id")
	outcome, err := h.factory.CompleteIssuance(ctx, interfaces.IssuanceResult{
		JobID:    jobID,
		Success:  cb.Success,
		Returned: interfaces.Payment{Asset: interfaces.AssetID(cb.AssetID), Amount: amount},
		Reason:   cb.Reason,
	})
	if err != nil {
		h.log.Error("Issuance callback failed", "err", err, slog.String("jobID", jobID))
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) HandlePairs(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.factory.GetAllPairMetadata())
}

func (h *Handler) HandlePairsData(w http.ResponseWriter, r *http.Request) {
	data, err := h.factory.GetAllPairData(r.Context())
	if err != nil {
		h.log.Error("Failed to collect pair data", "err", err)
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, data)
}

func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, api.StateResponse{Active: h.factory.GetState()})
}

func (h *Handler) HandleTokenSupply(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, api.ValueResponse{Value: decimal(h.factory.GetTokenSupply())})
}

func (h *Handler) HandleNewAssetFee(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, api.ValueResponse{Value: decimal(h.factory.GetNewAssetFee())})
}

func (h *Handler) HandleTemplateAddress(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, api.AddressResponse{Address: h.factory.GetTemplateAddress()})
}

func (h *Handler) HandleJobs(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.factory.PendingJobs())
}

func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.factory.Config())
}

// HandleInitialize initializes the factory from a factory.RawInitParams body.
func (h *Handler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var raw factory.RawInitParams
	if !h.decode(w, r, &raw) {
		return
	}
	params, err := raw.Parse()
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.respond(w, h.factory.Initialize(r.Context(), caller, params), "initialize")
}

func (h *Handler) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	h.respond(w, h.factory.UpgradeSelf(r.Context(), caller), "upgrade")
}

func (h *Handler) HandlePause(w http.ResponseWriter, r *http.Request) {
	caller, target, ok := h.callerAndTarget(w, r)
	if !ok {
		return
	}
	h.respond(w, h.factory.Pause(r.Context(), caller, target), "pause")
}

func (h *Handler) HandleResume(w http.ResponseWriter, r *http.Request) {
	caller, target, ok := h.callerAndTarget(w, r)
	if !ok {
		return
	}
	h.respond(w, h.factory.Resume(r.Context(), caller, target), "resume")
}

func (h *Handler) HandleSetRouter(w http.ResponseWriter, r *http.Request) {
	caller, target, ok := h.callerAndTarget(w, r)
	if !ok {
		return
	}
	var req api.RouterRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.respond(w, h.factory.SetRouter(r.Context(), caller, target, req.Router), "set router")
}

func (h *Handler) HandleUpgradePair(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req api.UpgradePairRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.respond(w, h.factory.UpgradePair(r.Context(), caller, req.FirstAssetID, req.SecondAssetID), "upgrade pair")
}

// HandleSetConfig sets one owner-configurable field.
//
// URL format: PUT /api/admin/config/{field}
//
// Address fields: fees_collector, template_address. Amount fields: initial_virtual_liquidity,
// token_supply, new_asset_fee, max_market_cap.
func (h *Handler) HandleSetConfig(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req api.ConfigValueRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	field := chi.URLParam(r, "field")

	var err error
	switch field {
	case "fees_collector", "template_address":
		var addr interfaces.Address
		addr, err = interfaces.NewAddressFromHex(req.Value)
		if err != nil {
			err = fmt.Errorf("%w: %s: %v", interfaces.ErrInvalidArgument, field, err)
			break
		}
		if field == "fees_collector" {
			err = h.factory.SetFeesCollector(ctx, caller, addr)
		} else {
			err = h.factory.SetTemplateAddress(ctx, caller, addr)
		}
	case "initial_virtual_liquidity", "token_supply", "new_asset_fee", "max_market_cap":
		v, ok := factory.ParseAmount(req.Value)
		if !ok {
			err = fmt.Errorf("%w: %s: %q is not a non-negative integer", interfaces.ErrInvalidArgument, field, req.Value)
			break
		}
		switch field {
		case "initial_virtual_liquidity":
			err = h.factory.SetInitialVirtualLiquidity(ctx, caller, v)
		case "token_supply":
			err = h.factory.SetTokenSupply(ctx, caller, v)
		case "new_asset_fee":
			err = h.factory.SetNewAssetFee(ctx, caller, v)
		default:
			err = h.factory.SetMaxMarketCap(ctx, caller, v)
		}
	default:
		h.writeJSON(w, http.StatusNotFound, api.ErrorResponse{Error: fmt.Sprintf("unknown config field %q", field)})
		return
	}

	h.respond(w, err, "set "+field)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (interfaces.Address, bool) {
	raw := r.Header.Get(api.CallerHeader)
	if raw == "" {
		h.writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "missing " + api.CallerHeader + " header"})
		return interfaces.Address{}, false
	}
	caller, err := interfaces.NewAddressFromHex(raw)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid caller address: " + err.Error()})
		return interfaces.Address{}, false
	}
	return caller, true
}

func (h *Handler) callerAndTarget(w http.ResponseWriter, r *http.Request) (caller, target interfaces.Address, ok bool) {
	caller, ok = h.caller(w, r)
	if !ok {
		return
	}
	target, err := interfaces.NewAddressFromHex(chi.URLParam(r, "address"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid target address: " + err.Error()})
		return caller, target, false
	}
	return caller, target, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "failed to read request body"})
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		h.writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, err error, what string) {
	if err != nil {
		h.log.Error("Admin request failed", "err", err, slog.String("operation", what))
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.StateResponse{Active: h.factory.GetState()})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	h.writeJSON(w, StatusCode(err), api.ErrorResponse{Error: err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

// StatusCode maps factory errors onto HTTP status codes.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, interfaces.ErrIssuanceUnconfirmed):
		return http.StatusGatewayTimeout
	case errors.Is(err, interfaces.ErrIssuanceRejected):
		return http.StatusBadGateway
	case errors.Is(err, interfaces.ErrPaymentNotVerified):
		return http.StatusPaymentRequired
	case errors.Is(err, interfaces.ErrNotOwner), errors.Is(err, interfaces.ErrUnauthorizedTarget):
		return http.StatusForbidden
	case errors.Is(err, interfaces.ErrPairNotFound), errors.Is(err, interfaces.ErrUnknownJob):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrSystemPaused),
		errors.Is(err, interfaces.ErrRegistryInconsistent),
		errors.Is(err, interfaces.ErrDuplicatePair),
		errors.Is(err, interfaces.ErrPaymentReused),
		errors.Is(err, interfaces.ErrConfigurationIncomplete):
		return http.StatusConflict
	case errors.Is(err, interfaces.ErrInsufficientResources):
		return http.StatusServiceUnavailable
	case errors.Is(err, interfaces.ErrInvalidArgument),
		errors.Is(err, interfaces.ErrFeeMismatch),
		errors.Is(err, interfaces.ErrSupplyUnset),
		errors.Is(err, interfaces.ErrIdenticalAssets),
		errors.Is(err, interfaces.ErrInvalidAssetID),
		errors.Is(err, interfaces.ErrQuoteAssetNotAllowed),
		errors.Is(err, interfaces.ErrInvalidIssuanceResult):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// withExecutionBudget bounds the request context by the optional execution budget header.
func withExecutionBudget(r *http.Request) (context.Context, context.CancelFunc, error) {
	raw := r.Header.Get(api.ExecutionBudgetHeader)
	if raw == "" {
		return r.Context(), func() {}, nil
	}
	budget, err := time.ParseDuration(raw)
	if err != nil || budget <= 0 {
		return nil, nil, fmt.Errorf("%w: %s %q", interfaces.ErrInvalidArgument, api.ExecutionBudgetHeader, raw)
	}
	ctx, cancel := context.WithTimeout(r.Context(), budget)
	return ctx, cancel, nil
}

func decimal(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
