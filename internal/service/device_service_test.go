package service

import (
	"context"
	"testing"

	"github.com/kbaselabs/knowledge-sync-service/internal/dto"
	"github.com/kbaselabs/knowledge-sync-service/pkg/code"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceRegisterAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	device, err := env.deviceSvc.Register(ctx, 1, &dto.DeviceRegisterRequest{
		DeviceID:   "laptop-1",
		DeviceName: "Work Laptop",
		DeviceType: "desktop",
	})
	require.NoError(t, err)
	assert.Equal(t, "laptop-1", device.DeviceID)
	assert.True(t, device.IsActive)

	env.register(t, 1, "phone-1")
	env.register(t, 2, "other-user")

	list, err := env.deviceSvc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestDeviceReRegisterReactivates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, 1, "laptop-1")

	require.NoError(t, env.deviceSvc.Deactivate(ctx, 1, "laptop-1"))
	_, err := env.deviceSvc.MustGetActive(ctx, 1, "laptop-1")
	assert.Equal(t, code.ErrorDeviceInactive.Code(), codeOf(t, err))

	// 重复注册更新名称并重新启用
	device, err := env.deviceSvc.Register(ctx, 1, &dto.DeviceRegisterRequest{
		DeviceID:   "laptop-1",
		DeviceName: "Renamed Laptop",
		DeviceType: "web",
	})
	require.NoError(t, err)
	assert.True(t, device.IsActive)
	assert.Equal(t, "Renamed Laptop", device.DeviceName)
	assert.Equal(t, "web", device.DeviceType)

	_, err = env.deviceSvc.MustGetActive(ctx, 1, "laptop-1")
	assert.NoError(t, err)

	// 同名设备在不同用户下互不影响
	list, err := env.deviceSvc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDeviceDeactivateNotFound(t *testing.T) {
	env := newTestEnv(t)

	err := env.deviceSvc.Deactivate(context.Background(), 1, "ghost")
	assert.Equal(t, code.ErrorDeviceNotFound.Code(), codeOf(t, err))
}
