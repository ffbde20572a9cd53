package provisioning

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/bonding-factory-backend/chain"
	"github.com/ruteri/bonding-factory-backend/deployer"
	"github.com/ruteri/bonding-factory-backend/interfaces"
	"github.com/ruteri/bonding-factory-backend/registry"
)

var (
	callerAddr    = interfaces.Address{0xca}
	templateAddr  = interfaces.Address{0x01}
	collectorAddr = interfaces.Address{0x02}
	routerAddr    = interfaces.Address{0x04}
	deployedAddr  = interfaces.Address{0x77}

	quoteAsset  = interfaces.AssetID("WEGLD-bd4d79")
	issuedAsset = interfaces.AssetID("MEME-a1b2c3")
)

type harness struct {
	registry   *registry.Registry
	issuer     *MockIssuingAuthority
	backend    *chain.MockTemplateBackend
	routers    *chain.MockRouterFactory
	router     *chain.MockRouter
	subsystems *chain.MockSubsystemFactory
	subsystem  *chain.MockSubsystem
	treasury   *chain.MockTreasury
	workflow   *Workflow
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg := registry.NewRegistry()
	require.NoError(t, reg.Initialize(interfaces.Address{0xaa}, &registry.InitParams{
		TemplateAddress:         templateAddr,
		TokenSupply:             big.NewInt(1_000_000),
		FeesCollector:           collectorAddr,
		NewAssetFee:             big.NewInt(100),
		InitialVirtualLiquidity: big.NewInt(5_000),
		AllowedQuoteAsset:       quoteAsset,
		OracleAddress:           interfaces.Address{0x03},
		MaxMarketCap:            big.NewInt(1_000_000_000),
		RouterAddress:           routerAddr,
		IssuanceCost:            big.NewInt(60),
		UnwrapHelper:            interfaces.Address{0x05},
		FeeThreshold:            big.NewInt(10),
	}))

	h := &harness{
		registry:   reg,
		issuer:     new(MockIssuingAuthority),
		backend:    new(chain.MockTemplateBackend),
		routers:    new(chain.MockRouterFactory),
		router:     new(chain.MockRouter),
		subsystems: new(chain.MockSubsystemFactory),
		subsystem:  new(chain.MockSubsystem),
		treasury:   new(chain.MockTreasury),
	}
	h.workflow = NewWorkflow(Dependencies{
		Registry:   reg,
		Deployer:   deployer.NewDeployer(reg, h.backend, logger),
		Issuer:     h.issuer,
		Routers:    h.routers,
		Subsystems: h.subsystems,
		Treasury:   h.treasury,
	}, nil, 0, logger)
	return h
}

func nativePayment(amount int64) interfaces.Payment {
	return interfaces.Payment{Asset: interfaces.NativeAsset, Amount: big.NewInt(amount)}
}

func bigEq(expected int64) interface{} {
	return mock.MatchedBy(func(v *big.Int) bool { return v != nil && v.Cmp(big.NewInt(expected)) == 0 })
}

func (h *harness) start(t *testing.T, buyIn bool) string {
	t.Helper()
	h.issuer.On("RequestIssuance", mock.Anything, mock.Anything).Return(nil).Once()
	jobID, err := h.workflow.Start(context.Background(), callerAddr, Request{
		DisplayName:   "MemeCoin",
		Ticker:        "MEME",
		CorrelationID: "db-1",
		BuyIn:         buyIn,
	}, nativePayment(100))
	require.NoError(t, err)
	return jobID
}

func (h *harness) expectDeploy() {
	h.backend.On("DeployFromTemplate", mock.Anything, templateAddr, mock.Anything).Return(deployedAddr, nil).Once()
	h.routers.On("RouterFor", routerAddr).Return(h.router, nil)
	h.subsystems.On("SubsystemFor", deployedAddr).Return(h.subsystem, nil)
}

func TestStart_SendsIssuanceRequest(t *testing.T) {
	h := newHarness(t)
	h.issuer.On("RequestIssuance", mock.Anything, mock.MatchedBy(func(req interfaces.IssuanceRequest) bool {
		return req.JobID != "" &&
			req.Cost.Cmp(big.NewInt(60)) == 0 &&
			req.Supply.Cmp(big.NewInt(1_000_000)) == 0 &&
			req.DisplayName == "MemeCoin" &&
			req.Ticker == "MEME" &&
			req.GasLimit == interfaces.IssuanceGasLimit &&
			req.Properties == interfaces.FixedSupplyProperties()
	})).Return(nil).Once()

	jobID, err := h.workflow.Start(context.Background(), callerAddr, Request{
		DisplayName:   "MemeCoin",
		Ticker:        "MEME",
		CorrelationID: "db-1",
		BuyIn:         true,
	}, nativePayment(100))
	require.NoError(t, err)
	h.issuer.AssertExpectations(t)

	pending := h.workflow.Pending().List()
	require.Len(t, pending, 1)
	assert.Equal(t, jobID, pending[0].JobID)
	assert.Equal(t, callerAddr, pending[0].Caller)
	assert.Equal(t, "db-1", pending[0].CorrelationID)
	assert.True(t, pending[0].BuyIn)
	assert.Equal(t, big.NewInt(100), pending[0].Funds.Amount)
}

func TestStart_Preconditions(t *testing.T) {
	t.Run("fee mismatch", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.workflow.Start(context.Background(), callerAddr, Request{DisplayName: "MemeCoin", Ticker: "MEME"}, nativePayment(99))
		assert.ErrorIs(t, err, interfaces.ErrFeeMismatch)
		h.issuer.AssertNotCalled(t, "RequestIssuance", mock.Anything, mock.Anything)
		assert.Equal(t, 0, h.workflow.Pending().Len())
		pairs, _ := h.registry.Len()
		assert.Equal(t, 0, pairs)
	})

	t.Run("fee in a different asset", func(t *testing.T) {
		h := newHarness(t)
		funds := interfaces.Payment{Asset: quoteAsset, Amount: big.NewInt(100)}
		_, err := h.workflow.Start(context.Background(), callerAddr, Request{DisplayName: "MemeCoin", Ticker: "MEME"}, funds)
		assert.ErrorIs(t, err, interfaces.ErrFeeMismatch)
	})

	t.Run("paused", func(t *testing.T) {
		h := newHarness(t)
		h.registry.SetActive(false)
		_, err := h.workflow.Start(context.Background(), callerAddr, Request{DisplayName: "MemeCoin", Ticker: "MEME"}, nativePayment(100))
		assert.ErrorIs(t, err, interfaces.ErrSystemPaused)
		h.issuer.AssertNotCalled(t, "RequestIssuance", mock.Anything, mock.Anything)
	})

	t.Run("supply unset", func(t *testing.T) {
		h := newHarness(t)
		cfg := h.registry.Config()
		cfg.TokenSupply = big.NewInt(0)
		h.workflow.deps.Registry = stubRegistry{Registry: h.registry, cfg: cfg}

		_, err := h.workflow.Start(context.Background(), callerAddr, Request{DisplayName: "MemeCoin", Ticker: "MEME"}, nativePayment(100))
		assert.ErrorIs(t, err, interfaces.ErrSupplyUnset)
	})

	t.Run("insufficient budget", func(t *testing.T) {
		h := newHarness(t)
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		_, err := h.workflow.Start(ctx, callerAddr, Request{DisplayName: "MemeCoin", Ticker: "MEME"}, nativePayment(100))
		assert.ErrorIs(t, err, interfaces.ErrInsufficientResources)
		h.issuer.AssertNotCalled(t, "RequestIssuance", mock.Anything, mock.Anything)
		assert.Equal(t, 0, h.workflow.Pending().Len())
	})

	t.Run("missing ticker", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.workflow.Start(context.Background(), callerAddr, Request{DisplayName: "MemeCoin"}, nativePayment(100))
		assert.ErrorIs(t, err, interfaces.ErrInvalidArgument)
	})
}

func TestStart_SufficientBudget(t *testing.T) {
	h := newHarness(t)
	h.issuer.On("RequestIssuance", mock.Anything, mock.Anything).Return(nil).Once()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	_, err := h.workflow.Start(ctx, callerAddr, Request{DisplayName: "MemeCoin", Ticker: "MEME"}, nativePayment(100))
	require.NoError(t, err)
}

func TestStart_RejectedIssuanceLeavesNothingPending(t *testing.T) {
	h := newHarness(t)
	h.issuer.On("RequestIssuance", mock.Anything, mock.Anything).
		Return(fmt.Errorf("%w: status 400", interfaces.ErrIssuanceRejected)).Once()

	jobID, err := h.workflow.Start(context.Background(), callerAddr, Request{DisplayName: "MemeCoin", Ticker: "MEME"}, nativePayment(100))
	assert.ErrorIs(t, err, interfaces.ErrIssuanceRejected)
	assert.Empty(t, jobID)
	assert.Equal(t, 0, h.workflow.Pending().Len())
}

func TestStart_UnconfirmedIssuanceStaysPending(t *testing.T) {
	h := newHarness(t)
	h.issuer.On("RequestIssuance", mock.Anything, mock.Anything).Return(errors.New("connection reset by peer")).Once()

	jobID, err := h.workflow.Start(context.Background(), callerAddr, Request{DisplayName: "MemeCoin", Ticker: "MEME"}, nativePayment(100))
	assert.ErrorIs(t, err, interfaces.ErrIssuanceUnconfirmed)
	require.NotEmpty(t, jobID)

	pending := h.workflow.Pending().List()
	require.Len(t, pending, 1)
	assert.Equal(t, jobID, pending[0].JobID)

	t.Run("late callback still refunds", func(t *testing.T) {
		h.treasury.On("Send", mock.Anything, callerAddr, bigEq(100)).Return(nil).Once()
		outcome, err := h.workflow.Complete(context.Background(), interfaces.IssuanceResult{JobID: jobID, Returned: nativePayment(60)})
		require.NoError(t, err)
		assert.Equal(t, StatusRefunded, outcome.Status)
		assert.Equal(t, 0, h.workflow.Pending().Len())
	})
}

func TestComplete_Success(t *testing.T) {
	h := newHarness(t)
	jobID := h.start(t, true)
	h.expectDeploy()

	minted := interfaces.Payment{Asset: issuedAsset, Amount: big.NewInt(1_000_000)}
	h.router.On("SetPendingPair", mock.Anything, deployedAddr).Return(nil).Once()
	h.subsystem.On("SetAssetIdentifier", mock.Anything, minted, true, callerAddr).Return(nil).Once()
	h.treasury.On("Send", mock.Anything, collectorAddr, bigEq(40)).Return(nil).Once()

	outcome, err := h.workflow.Complete(context.Background(), interfaces.IssuanceResult{
		JobID:    jobID,
		Success:  true,
		Returned: minted,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusProvisioned, outcome.Status)
	assert.Equal(t, deployedAddr, outcome.Subsystem)
	assert.Equal(t, interfaces.PairKey{First: issuedAsset, Second: quoteAsset}, outcome.Pair)
	assert.Equal(t, 0, outcome.FeeForwarded.Cmp(big.NewInt(40)))

	pairs, addresses := h.registry.Len()
	assert.Equal(t, 1, pairs)
	assert.Equal(t, 1, addresses)
	addr, found := h.registry.ResolvePair(issuedAsset, quoteAsset)
	require.True(t, found)
	assert.Equal(t, deployedAddr, addr)

	h.backend.AssertExpectations(t)
	h.router.AssertExpectations(t)
	h.subsystem.AssertExpectations(t)
	h.treasury.AssertExpectations(t)
	assert.Equal(t, 0, h.workflow.Pending().Len())

	t.Run("deploy carries correlation id", func(t *testing.T) {
		args := h.backend.Calls[0].Arguments.Get(2).(*interfaces.InitArgs)
		assert.Equal(t, "db-1", args.CorrelationID)
	})

	t.Run("second callback is rejected", func(t *testing.T) {
		_, err := h.workflow.Complete(context.Background(), interfaces.IssuanceResult{JobID: jobID, Success: true, Returned: minted})
		assert.ErrorIs(t, err, interfaces.ErrUnknownJob)
		h.backend.AssertNumberOfCalls(t, "DeployFromTemplate", 1)
	})
}

func TestComplete_RouterFailureIsIgnored(t *testing.T) {
	h := newHarness(t)
	jobID := h.start(t, false)
	h.expectDeploy()

	minted := interfaces.Payment{Asset: issuedAsset, Amount: big.NewInt(1_000_000)}
	h.router.On("SetPendingPair", mock.Anything, deployedAddr).Return(errors.New("reverted")).Once()
	h.subsystem.On("SetAssetIdentifier", mock.Anything, minted, false, callerAddr).Return(nil).Once()
	h.treasury.On("Send", mock.Anything, collectorAddr, bigEq(40)).Return(nil).Once()

	outcome, err := h.workflow.Complete(context.Background(), interfaces.IssuanceResult{JobID: jobID, Success: true, Returned: minted})
	require.NoError(t, err)
	assert.Equal(t, StatusProvisioned, outcome.Status)
	assert.True(t, h.registry.IsPairSubsystem(deployedAddr))
}

func TestComplete_NoRemainderWhenFeeCoversOnlyCost(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.registry.SetNewAssetFee(big.NewInt(60)))

	h.issuer.On("RequestIssuance", mock.Anything, mock.Anything).Return(nil).Once()
	jobID, err := h.workflow.Start(context.Background(), callerAddr, Request{DisplayName: "MemeCoin", Ticker: "MEME"}, nativePayment(60))
	require.NoError(t, err)
	h.expectDeploy()

	minted := interfaces.Payment{Asset: issuedAsset, Amount: big.NewInt(1_000_000)}
	h.router.On("SetPendingPair", mock.Anything, deployedAddr).Return(nil)
	h.subsystem.On("SetAssetIdentifier", mock.Anything, minted, false, callerAddr).Return(nil)

	outcome, err := h.workflow.Complete(context.Background(), interfaces.IssuanceResult{JobID: jobID, Success: true, Returned: minted})
	require.NoError(t, err)
	assert.Nil(t, outcome.FeeForwarded)
	h.treasury.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestComplete_FailureRefundsConfiguredFee(t *testing.T) {
	h := newHarness(t)
	jobID := h.start(t, true)
	h.treasury.On("Send", mock.Anything, callerAddr, bigEq(100)).Return(nil).Once()

	outcome, err := h.workflow.Complete(context.Background(), interfaces.IssuanceResult{
		JobID:    jobID,
		Success:  false,
		Returned: nativePayment(60),
		Reason:   "ticker rejected",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusRefunded, outcome.Status)
	assert.Equal(t, 0, outcome.Refunded.Cmp(big.NewInt(100)))
	pairs, _ := h.registry.Len()
	assert.Equal(t, 0, pairs)
	h.treasury.AssertExpectations(t)
	h.backend.AssertNotCalled(t, "DeployFromTemplate", mock.Anything, mock.Anything, mock.Anything)
}

func TestComplete_FailureWithoutRefundableReturn(t *testing.T) {
	tests := []struct {
		name     string
		returned interfaces.Payment
	}{
		{"zero native amount", nativePayment(0)},
		{"non native asset", interfaces.Payment{Asset: quoteAsset, Amount: big.NewInt(100)}},
		{"nothing returned", interfaces.Payment{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			jobID := h.start(t, false)

			outcome, err := h.workflow.Complete(context.Background(), interfaces.IssuanceResult{JobID: jobID, Returned: tt.returned})
			require.NoError(t, err)
			assert.Equal(t, StatusFailed, outcome.Status)
			h.treasury.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestComplete_MalformedSuccess(t *testing.T) {
	h := newHarness(t)
	jobID := h.start(t, false)

	_, err := h.workflow.Complete(context.Background(), interfaces.IssuanceResult{JobID: jobID, Success: true, Returned: nativePayment(100)})
	assert.ErrorIs(t, err, interfaces.ErrInvalidIssuanceResult)
	h.backend.AssertNotCalled(t, "DeployFromTemplate", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 0, h.workflow.Pending().Len())
}

func TestComplete_DuplicatePairNotForwarded(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.registry.InsertPair(interfaces.PairKey{First: issuedAsset, Second: quoteAsset}, interfaces.Address{0x66}))

	jobID := h.start(t, false)
	h.expectDeploy()
	h.router.On("SetPendingPair", mock.Anything, deployedAddr).Return(nil)

	_, err := h.workflow.Complete(context.Background(), interfaces.IssuanceResult{
		JobID:    jobID,
		Success:  true,
		Returned: interfaces.Payment{Asset: issuedAsset, Amount: big.NewInt(1_000_000)},
	})
	assert.ErrorIs(t, err, interfaces.ErrDuplicatePair)
	h.subsystem.AssertNotCalled(t, "SetAssetIdentifier", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	h.treasury.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	assert.False(t, h.registry.IsPairSubsystem(deployedAddr))
}

func TestComplete_UnknownJob(t *testing.T) {
	h := newHarness(t)
	_, err := h.workflow.Complete(context.Background(), interfaces.IssuanceResult{JobID: "missing", Success: true})
	assert.ErrorIs(t, err, interfaces.ErrUnknownJob)
}

func TestComplete_AssetHandOverFailureRollsBackRegistration(t *testing.T) {
	h := newHarness(t)
	jobID := h.start(t, true)
	h.expectDeploy()

	minted := interfaces.Payment{Asset: issuedAsset, Amount: big.NewInt(1_000_000)}
	result := interfaces.IssuanceResult{JobID: jobID, Success: true, Returned: minted}
	h.router.On("SetPendingPair", mock.Anything, deployedAddr).Return(nil).Once()
	h.subsystem.On("SetAssetIdentifier", mock.Anything, minted, true, callerAddr).Return(errors.New("out of gas")).Once()

	_, err := h.workflow.Complete(context.Background(), result)
	require.Error(t, err)

	assert.False(t, h.registry.IsPairSubsystem(deployedAddr))
	pairs, addresses := h.registry.Len()
	assert.Equal(t, 0, pairs)
	assert.Equal(t, 0, addresses)
	_, found := h.registry.ResolvePair(issuedAsset, quoteAsset)
	assert.False(t, found)
	h.treasury.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)

	pending := h.workflow.Pending().List()
	require.Len(t, pending, 1)
	assert.Equal(t, deployedAddr, pending[0].Subsystem)
	assert.False(t, pending[0].AssetForwarded)

	t.Run("redelivery reuses the deployed sub-system", func(t *testing.T) {
		h.subsystem.On("SetAssetIdentifier", mock.Anything, minted, true, callerAddr).Return(nil).Once()
		h.treasury.On("Send", mock.Anything, collectorAddr, bigEq(40)).Return(nil).Once()

		outcome, err := h.workflow.Complete(context.Background(), result)
		require.NoError(t, err)
		assert.Equal(t, StatusProvisioned, outcome.Status)
		assert.Equal(t, deployedAddr, outcome.Subsystem)
		assert.True(t, h.registry.IsPairSubsystem(deployedAddr))

		h.backend.AssertNumberOfCalls(t, "DeployFromTemplate", 1)
		h.router.AssertNumberOfCalls(t, "SetPendingPair", 1)
		assert.Equal(t, 0, h.workflow.Pending().Len())
	})
}

func TestComplete_FeeForwardFailureIsRetried(t *testing.T) {
	h := newHarness(t)
	jobID := h.start(t, false)
	h.expectDeploy()

	minted := interfaces.Payment{Asset: issuedAsset, Amount: big.NewInt(1_000_000)}
	result := interfaces.IssuanceResult{JobID: jobID, Success: true, Returned: minted}
	h.router.On("SetPendingPair", mock.Anything, deployedAddr).Return(nil).Once()
	h.subsystem.On("SetAssetIdentifier", mock.Anything, minted, false, callerAddr).Return(nil).Once()
	h.treasury.On("Send", mock.Anything, collectorAddr, bigEq(40)).Return(errors.New("nonce too low")).Once()

	_, err := h.workflow.Complete(context.Background(), result)
	require.Error(t, err)

	// The sub-system already holds the asset, so it stays registered.
	assert.True(t, h.registry.IsPairSubsystem(deployedAddr))
	pending := h.workflow.Pending().List()
	require.Len(t, pending, 1)
	assert.True(t, pending[0].AssetForwarded)

	h.treasury.On("Send", mock.Anything, collectorAddr, bigEq(40)).Return(nil).Once()
	outcome, err := h.workflow.Complete(context.Background(), result)
	require.NoError(t, err)
	assert.Equal(t, StatusProvisioned, outcome.Status)
	assert.Equal(t, 0, outcome.FeeForwarded.Cmp(big.NewInt(40)))

	h.backend.AssertNumberOfCalls(t, "DeployFromTemplate", 1)
	h.subsystem.AssertNumberOfCalls(t, "SetAssetIdentifier", 1)
	h.treasury.AssertNumberOfCalls(t, "Send", 2)
	assert.Equal(t, 0, h.workflow.Pending().Len())
}

func TestComplete_DeployFailureIsRetried(t *testing.T) {
	h := newHarness(t)
	jobID := h.start(t, false)

	minted := interfaces.Payment{Asset: issuedAsset, Amount: big.NewInt(1_000_000)}
	result := interfaces.IssuanceResult{JobID: jobID, Success: true, Returned: minted}
	h.backend.On("DeployFromTemplate", mock.Anything, templateAddr, mock.Anything).Return(interfaces.Address{}, errors.New("timeout")).Once()

	_, err := h.workflow.Complete(context.Background(), result)
	require.Error(t, err)
	pending := h.workflow.Pending().List()
	require.Len(t, pending, 1)
	assert.True(t, pending[0].Subsystem.IsZero())
	pairs, _ := h.registry.Len()
	assert.Equal(t, 0, pairs)

	h.expectDeploy()
	h.router.On("SetPendingPair", mock.Anything, deployedAddr).Return(nil).Once()
	h.subsystem.On("SetAssetIdentifier", mock.Anything, minted, false, callerAddr).Return(nil).Once()
	h.treasury.On("Send", mock.Anything, collectorAddr, bigEq(40)).Return(nil).Once()

	outcome, err := h.workflow.Complete(context.Background(), result)
	require.NoError(t, err)
	assert.Equal(t, deployedAddr, outcome.Subsystem)
}

func TestComplete_RefundFailureIsRetried(t *testing.T) {
	h := newHarness(t)
	jobID := h.start(t, false)
	result := interfaces.IssuanceResult{JobID: jobID, Returned: nativePayment(60), Reason: "ticker rejected"}

	h.treasury.On("Send", mock.Anything, callerAddr, bigEq(100)).Return(errors.New("insufficient balance")).Once()
	_, err := h.workflow.Complete(context.Background(), result)
	require.Error(t, err)
	assert.Equal(t, 1, h.workflow.Pending().Len())

	h.treasury.On("Send", mock.Anything, callerAddr, bigEq(100)).Return(nil).Once()
	outcome, err := h.workflow.Complete(context.Background(), result)
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, outcome.Status)
	assert.Equal(t, 0, outcome.Refunded.Cmp(big.NewInt(100)))
	assert.Equal(t, 0, h.workflow.Pending().Len())
	h.treasury.AssertNumberOfCalls(t, "Send", 2)
}

func TestComplete_FailureAfterDeploymentIsNotRefunded(t *testing.T) {
	h := newHarness(t)
	jobID := h.start(t, false)
	h.expectDeploy()

	minted := interfaces.Payment{Asset: issuedAsset, Amount: big.NewInt(1_000_000)}
	h.router.On("SetPendingPair", mock.Anything, deployedAddr).Return(nil).Once()
	h.subsystem.On("SetAssetIdentifier", mock.Anything, minted, false, callerAddr).Return(errors.New("reverted")).Once()
	_, err := h.workflow.Complete(context.Background(), interfaces.IssuanceResult{JobID: jobID, Success: true, Returned: minted})
	require.Error(t, err)

	_, err = h.workflow.Complete(context.Background(), interfaces.IssuanceResult{JobID: jobID, Returned: nativePayment(60)})
	assert.ErrorIs(t, err, interfaces.ErrInvalidIssuanceResult)
	h.treasury.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 1, h.workflow.Pending().Len())
}

type stubRegistry struct {
	*registry.Registry
	cfg registry.Config
}

func (s stubRegistry) Config() registry.Config { return s.cfg }
