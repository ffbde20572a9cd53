package registry

import (
	"github.com/ruteri/bonding-factory-backend/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockRegistry mocks the registry operations used by the admin gateway
type MockRegistry struct {
	mock.Mock
}

// IsPairSubsystem mocks the IsPairSubsystem method
func (m *MockRegistry) IsPairSubsystem(addr interfaces.Address) bool {
	args := m.Called(addr)
	return args.Bool(0)
}

// Consistent mocks the Consistent method
func (m *MockRegistry) Consistent() bool {
	args := m.Called()
	return args.Bool(0)
}

// SetActive mocks the SetActive method
func (m *MockRegistry) SetActive(active bool) {
	m.Called(active)
}

// SetRouterAddress mocks the SetRouterAddress method
func (m *MockRegistry) SetRouterAddress(addr interfaces.Address) error {
	args := m.Called(addr)
	return args.Error(0)
}
