package discovery

import (
	"errors"
	"time"
)

const (
	// ServiceType is the DNS-SD service type of the control API.
	ServiceType = "_ledsignal._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// TXTVersion is the TXT record format version.
	TXTVersion = 1

	// MaxInstanceNameLength is the DNS label limit for instance names.
	MaxInstanceNameLength = 63
)

// TXT record keys.
const (
	TXTKeyVersion = "ver"
	TXTKeyPort    = "port"
	TXTKeyState   = "state"
	TXTKeyCommand = "cmd"
)

// Discovery errors.
var (
	ErrMissingRequired     = errors.New("missing required TXT record")
	ErrUnsupportedVersion  = errors.New("unsupported TXT version")
	ErrInvalidInstanceName = errors.New("invalid instance name")
	ErrNotAdvertising      = errors.New("not advertising")
)

// ServiceInfo describes what a daemon advertises.
type ServiceInfo struct {
	// InstanceName is the DNS-SD instance name.
	InstanceName string

	// Port is the TCP port of the HTTP control API.
	Port int

	// DevicePort is the serial port name of the device, if known.
	DevicePort string

	// State is the session state name.
	State string

	// LastCommand is the last command shown on the device.
	LastCommand string
}

// Service is a daemon found on the network.
type Service struct {
	InstanceName string
	Host         string
	Port         int
	Addresses    []string
	DevicePort   string
	State        string
	LastCommand  string
}

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface restricts advertising to one network interface.
	// Empty means all interfaces.
	Interface string

	// TTL is the DNS record TTL. Default: 120 seconds.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{
		TTL: 120 * time.Second,
	}
}

// BrowserConfig configures browsing.
type BrowserConfig struct {
	// Interface restricts browsing to one network interface.
	Interface string
}
