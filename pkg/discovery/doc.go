// Package discovery advertises the ledsignal control API over mDNS/DNS-SD
// and finds other ledsignal daemons on the local network.
//
// # Service
//
// Daemons register one instance of _ledsignal._tcp in the local domain,
// pointing at the HTTP control API. The instance name is configurable and
// defaults to "ledsignal".
//
// # TXT records
//
//	ver    format version, currently 1 (required)
//	port   serial port of the device, when known
//	state  session state (DISCONNECTED, CONNECTING, CONNECTED)
//	cmd    last command shown on the device (RED, YELLOW, GREEN, OFF)
//
// TXT records are refreshed in place as the session changes; the
// registration itself is kept.
package discovery
