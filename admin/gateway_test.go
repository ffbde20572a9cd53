package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/bonding-factory-backend/chain"
	"github.com/ruteri/bonding-factory-backend/interfaces"
	"github.com/ruteri/bonding-factory-backend/registry"
)

var (
	selfAddr      = interfaces.Address{0xf0}
	subsystemAddr = interfaces.Address{0x51}
	strangerAddr  = interfaces.Address{0x99}
)

func newTestGateway() (*Gateway, *registry.MockRegistry, *chain.MockSubsystemFactory) {
	reg := new(registry.MockRegistry)
	factory := new(chain.MockSubsystemFactory)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGateway(selfAddr, reg, factory, nil, logger), reg, factory
}

func TestSelfTargetNeverConsultsMembership(t *testing.T) {
	ctx := context.Background()
	gw, reg, factory := newTestGateway()

	reg.On("SetActive", false).Once()
	reg.On("Consistent").Return(true).Once()
	reg.On("SetActive", true).Once()
	reg.On("SetRouterAddress", interfaces.Address{0x0a}).Return(nil).Once()

	require.NoError(t, gw.Pause(ctx, selfAddr))
	require.NoError(t, gw.Resume(ctx, selfAddr))
	require.NoError(t, gw.SetRouter(ctx, selfAddr, interfaces.Address{0x0a}))

	reg.AssertExpectations(t)
	reg.AssertNotCalled(t, "IsPairSubsystem", mock.Anything)
	factory.AssertNotCalled(t, "SubsystemFor", mock.Anything)
}

func TestResumeSelf_RequiresConsistentRegistry(t *testing.T) {
	gw, reg, _ := newTestGateway()
	reg.On("Consistent").Return(false).Once()

	err := gw.Resume(context.Background(), selfAddr)
	assert.ErrorIs(t, err, interfaces.ErrRegistryInconsistent)
	reg.AssertNotCalled(t, "SetActive", mock.Anything)
}

func TestResumeSelf_WithRealRegistry(t *testing.T) {
	reg := registry.NewRegistry()
	require.NoError(t, reg.InsertPair(interfaces.PairKey{First: "ABC-123456", Second: "WEGLD-bd4d79"}, subsystemAddr))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := NewGateway(selfAddr, reg, new(chain.MockSubsystemFactory), nil, logger)

	require.NoError(t, gw.Pause(context.Background(), selfAddr))
	assert.False(t, reg.IsActive())
	require.NoError(t, gw.Resume(context.Background(), selfAddr))
	assert.True(t, reg.IsActive())
}

func TestNonMemberTargetRejected(t *testing.T) {
	ctx := context.Background()
	gw, reg, factory := newTestGateway()
	reg.On("IsPairSubsystem", strangerAddr).Return(false)

	assert.ErrorIs(t, gw.Pause(ctx, strangerAddr), interfaces.ErrUnauthorizedTarget)
	assert.ErrorIs(t, gw.Resume(ctx, strangerAddr), interfaces.ErrUnauthorizedTarget)
	assert.ErrorIs(t, gw.SetRouter(ctx, strangerAddr, interfaces.Address{0x0a}), interfaces.ErrUnauthorizedTarget)

	factory.AssertNotCalled(t, "SubsystemFor", mock.Anything)
	reg.AssertNotCalled(t, "SetActive", mock.Anything)
	reg.AssertNotCalled(t, "SetRouterAddress", mock.Anything)
}

func TestMemberTargetForwarded(t *testing.T) {
	ctx := context.Background()
	gw, reg, factory := newTestGateway()
	subsystem := new(chain.MockSubsystem)

	reg.On("IsPairSubsystem", subsystemAddr).Return(true)
	factory.On("SubsystemFor", subsystemAddr).Return(subsystem, nil)
	subsystem.On("Pause", ctx).Return(nil).Once()
	subsystem.On("Resume", ctx).Return(nil).Once()
	subsystem.On("SetRouter", ctx, interfaces.Address{0x0b}).Return(nil).Once()

	require.NoError(t, gw.Pause(ctx, subsystemAddr))
	require.NoError(t, gw.Resume(ctx, subsystemAddr))
	require.NoError(t, gw.SetRouter(ctx, subsystemAddr, interfaces.Address{0x0b}))

	subsystem.AssertExpectations(t)
	reg.AssertNotCalled(t, "SetActive", mock.Anything)
	reg.AssertNotCalled(t, "Consistent")
}

func TestForwardingFailurePropagates(t *testing.T) {
	ctx := context.Background()
	gw, reg, factory := newTestGateway()
	subsystem := new(chain.MockSubsystem)
	remoteErr := errors.New("execution reverted")

	reg.On("IsPairSubsystem", subsystemAddr).Return(true)
	factory.On("SubsystemFor", subsystemAddr).Return(subsystem, nil)
	subsystem.On("Pause", ctx).Return(remoteErr)

	err := gw.Pause(ctx, subsystemAddr)
	assert.ErrorIs(t, err, remoteErr)
}

type recordedCommand struct {
	command string
	local   bool
	err     error
}

type fakeRecorder struct {
	commands []recordedCommand
}

func (r *fakeRecorder) AdminCommand(command string, local bool, err error) {
	r.commands = append(r.commands, recordedCommand{command, local, err})
}

func TestRecorder(t *testing.T) {
	reg := new(registry.MockRegistry)
	reg.On("SetActive", false)
	reg.On("IsPairSubsystem", strangerAddr).Return(false)
	recorder := &fakeRecorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := NewGateway(selfAddr, reg, new(chain.MockSubsystemFactory), recorder, logger)

	require.NoError(t, gw.Pause(context.Background(), selfAddr))
	require.Error(t, gw.Pause(context.Background(), strangerAddr))

	require.Len(t, recorder.commands, 2)
	assert.Equal(t, "pause", recorder.commands[0].command)
	assert.True(t, recorder.commands[0].local)
	assert.NoError(t, recorder.commands[0].err)
	assert.False(t, recorder.commands[1].local)
	assert.ErrorIs(t, recorder.commands[1].err, interfaces.ErrUnauthorizedTarget)
}
