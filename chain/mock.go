package chain

import (
	"context"
	"math/big"

	"github.com/ruteri/bonding-factory-backend/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockSubsystem mocks the interfaces.Subsystem interface
type MockSubsystem struct {
	mock.Mock
}

func (m *MockSubsystem) Pause(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSubsystem) Resume(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSubsystem) SetRouter(ctx context.Context, router interfaces.Address) error {
	args := m.Called(ctx, router)
	return args.Error(0)
}

func (m *MockSubsystem) SetAssetIdentifier(ctx context.Context, payment interfaces.Payment, buyIn bool, caller interfaces.Address) error {
	args := m.Called(ctx, payment, buyIn, caller)
	return args.Error(0)
}

func (m *MockSubsystem) GetPairData(ctx context.Context) (*interfaces.PairData, error) {
	args := m.Called(ctx)
	return args.Get(0).(*interfaces.PairData), args.Error(1)
}

// MockSubsystemFactory mocks the interfaces.SubsystemFactory interface
type MockSubsystemFactory struct {
	mock.Mock
}

func (m *MockSubsystemFactory) SubsystemFor(addr interfaces.Address) (interfaces.Subsystem, error) {
	args := m.Called(addr)
	return args.Get(0).(interfaces.Subsystem), args.Error(1)
}

// MockRouter mocks the interfaces.Router interface
type MockRouter struct {
	mock.Mock
}

func (m *MockRouter) SetPendingPair(ctx context.Context, pair interfaces.Address) error {
	args := m.Called(ctx, pair)
	return args.Error(0)
}

// MockRouterFactory mocks the interfaces.RouterFactory interface
type MockRouterFactory struct {
	mock.Mock
}

func (m *MockRouterFactory) RouterFor(addr interfaces.Address) (interfaces.Router, error) {
	args := m.Called(addr)
	return args.Get(0).(interfaces.Router), args.Error(1)
}

// MockTemplateBackend mocks the interfaces.TemplateBackend interface
type MockTemplateBackend struct {
	mock.Mock
}

func (m *MockTemplateBackend) DeployFromTemplate(ctx context.Context, template interfaces.Address, initArgs *interfaces.InitArgs) (interfaces.Address, error) {
	args := m.Called(ctx, template, initArgs)
	return args.Get(0).(interfaces.Address), args.Error(1)
}

func (m *MockTemplateBackend) UpgradeFromTemplate(ctx context.Context, target interfaces.Address, template interfaces.Address, initArgs *interfaces.InitArgs) error {
	args := m.Called(ctx, target, template, initArgs)
	return args.Error(0)
}

// MockTreasury mocks the interfaces.Treasury interface
type MockTreasury struct {
	mock.Mock
}

func (m *MockTreasury) Send(ctx context.Context, to interfaces.Address, amount *big.Int) error {
	args := m.Called(ctx, to, amount)
	return args.Error(0)
}

// MockPaymentVerifier mocks the interfaces.PaymentVerifier interface
type MockPaymentVerifier struct {
	mock.Mock
}

func (m *MockPaymentVerifier) VerifyPayment(ctx context.Context, ref string, payer interfaces.Address) (interfaces.Payment, error) {
	args := m.Called(ctx, ref, payer)
	return args.Get(0).(interfaces.Payment), args.Error(1)
}
