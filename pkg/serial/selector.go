package serial

import (
	"context"
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// PortSelector chooses which port Link.Open should open. It plays the role
// of the user picking a device.
type PortSelector interface {
	SelectPort(ctx context.Context) (string, error)
}

// PortSelectorFunc adapts a function to the PortSelector interface.
type PortSelectorFunc func(ctx context.Context) (string, error)

// SelectPort calls f.
func (f PortSelectorFunc) SelectPort(ctx context.Context) (string, error) {
	return f(ctx)
}

// FixedPort always selects the same port name.
type FixedPort string

// SelectPort returns the fixed name, or ErrNoPortSelected when empty.
func (p FixedPort) SelectPort(context.Context) (string, error) {
	if p == "" {
		return "", ErrNoPortSelected
	}
	return string(p), nil
}

// PortInfo describes one enumerated port.
type PortInfo struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

// ListFunc enumerates the ports present on the host.
type ListFunc func() ([]PortInfo, error)

// SystemPorts lists ports via go.bug.st/serial/enumerator.
func SystemPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}
	return ports, nil
}

// USBSelector picks the first USB serial port, optionally restricted to a
// vendor and product ID (hex, case-insensitive, e.g. "2341" for Arduino).
type USBSelector struct {
	VID  string
	PID  string
	List ListFunc
}

// SelectPort implements PortSelector.
func (s USBSelector) SelectPort(context.Context) (string, error) {
	list := s.List
	if list == nil {
		list = SystemPorts
	}

	ports, err := list()
	if err != nil {
		return "", fmt.Errorf("%w: enumerate ports: %v", ErrNoPortSelected, err)
	}

	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		if s.VID != "" && !strings.EqualFold(p.VID, s.VID) {
			continue
		}
		if s.PID != "" && !strings.EqualFold(p.PID, s.PID) {
			continue
		}
		return p.Name, nil
	}
	return "", ErrNoPortSelected
}

// NewSelector returns a FixedPort when name is set, otherwise a USBSelector
// filtered by vid and pid.
func NewSelector(name, vid, pid string) PortSelector {
	if name != "" {
		return FixedPort(name)
	}
	return USBSelector{VID: vid, PID: pid}
}

// PreferPort selects Name when it is still present on the host, and
// otherwise defers to Fallback. It is used to reopen the port a daemon
// used before a restart.
type PreferPort struct {
	Name     string
	Fallback PortSelector
	List     ListFunc
}

// SelectPort implements PortSelector.
func (p PreferPort) SelectPort(ctx context.Context) (string, error) {
	if p.Name != "" {
		list := p.List
		if list == nil {
			list = SystemPorts
		}
		if ports, err := list(); err == nil {
			for _, port := range ports {
				if port.Name == p.Name {
					return p.Name, nil
				}
			}
		}
	}
	if p.Fallback == nil {
		return "", ErrNoPortSelected
	}
	return p.Fallback.SelectPort(ctx)
}
