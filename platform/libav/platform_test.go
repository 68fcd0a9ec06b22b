package libav

import (
	"context"
	"testing"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/avhwdec/capability"
	"github.com/xaionaro-go/avhwdec/device"
	"github.com/xaionaro-go/avhwdec/types"
)

func TestPlatformNoSharing(t *testing.T) {
	l := logrus.Default().WithLevel(logger.LevelTrace)
	ctx := logger.CtxWithLogger(context.Background(), l)

	p := New(Config{HardwareDeviceType: types.HardwareDeviceTypeVAAPI})
	_, err := p.CreateVideoDevice(ctx, device.AdapterDesc{})
	require.ErrorAs(t, err, &device.ErrNotImplemented{})

	renderDevice, err := p.RenderDevice(ctx)
	if err != nil {
		t.Skipf("no VAAPI device: %v", err)
	}
	defer p.Close(ctx)
	require.Equal(t, device.SharingCaps{}, renderDevice.SharingCaps())

	video, err := renderDevice.VideoDevice(ctx)
	require.NoError(t, err)
	profiles, err := video.DecoderProfiles(ctx)
	require.NoError(t, err)
	for _, profile := range profiles {
		_, ok := capability.Lookup(profile)
		require.True(t, ok, profile)
	}
}

func TestPlatformUnsupportedDeviceType(t *testing.T) {
	ctx := context.Background()
	p := New(Config{HardwareDeviceType: types.HardwareDeviceTypeCUDA})
	_, err := p.RenderDevice(ctx)
	require.ErrorAs(t, err, &device.ErrNotSupported{})
}

func TestLogLevelRoundTrip(t *testing.T) {
	for _, level := range []logger.Level{
		logger.LevelFatal,
		logger.LevelPanic,
		logger.LevelError,
		logger.LevelWarning,
		logger.LevelInfo,
		logger.LevelDebug,
		logger.LevelTrace,
	} {
		require.Equal(t, level, LogLevelFromAstiav(LogLevelToAstiav(level)), level)
	}
}
