package discovery_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledsignal/ledsignal-go/pkg/discovery"
)

func TestAdvertiserValidation(t *testing.T) {
	adv := discovery.NewMDNSAdvertiser(discovery.DefaultAdvertiserConfig())
	defer adv.Stop()

	err := adv.Advertise(context.Background(), &discovery.ServiceInfo{Port: 8080})
	assert.ErrorIs(t, err, discovery.ErrInvalidInstanceName)

	err = adv.Advertise(context.Background(), &discovery.ServiceInfo{InstanceName: "x", Port: 0})
	assert.Error(t, err)
}

func TestUpdateBeforeAdvertise(t *testing.T) {
	adv := discovery.NewMDNSAdvertiser(discovery.DefaultAdvertiserConfig())
	err := adv.Update(&discovery.ServiceInfo{State: "CONNECTED"})
	assert.ErrorIs(t, err, discovery.ErrNotAdvertising)

	// Stop without a registration is a no-op.
	adv.Stop()
}

func TestAdvertiseAndBrowse(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping mDNS test in short mode")
	}

	adv := discovery.NewMDNSAdvertiser(discovery.DefaultAdvertiserConfig())
	info := &discovery.ServiceInfo{
		InstanceName: "ledsignal-test",
		Port:         18080,
		DevicePort:   "/dev/ttyACM0",
		State:        "CONNECTED",
		LastCommand:  "GREEN",
	}
	if err := adv.Advertise(context.Background(), info); err != nil {
		t.Skipf("multicast unavailable: %v", err)
	}
	defer adv.Stop()

	info.LastCommand = "RED"
	require.NoError(t, adv.Update(info))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	services, err := discovery.NewMDNSBrowser(discovery.BrowserConfig{}).Browse(ctx)
	require.NoError(t, err)

	for svc := range services {
		if svc.InstanceName != info.InstanceName {
			continue
		}
		assert.Equal(t, 18080, svc.Port)
		assert.Equal(t, "/dev/ttyACM0", svc.DevicePort)
		return
	}
	t.Skip("service not seen; multicast loopback may be disabled")
}
