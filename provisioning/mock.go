package provisioning

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ruteri/bonding-factory-backend/interfaces"
)

// MockIssuingAuthority mocks the interfaces.IssuingAuthority interface
type MockIssuingAuthority struct {
	mock.Mock
}

func (m *MockIssuingAuthority) RequestIssuance(ctx context.Context, req interfaces.IssuanceRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
