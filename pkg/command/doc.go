// Package command defines the LED device command vocabulary and its wire
// encoding.
//
// The device understands exactly four logical commands. Each one travels
// as the upper-case ASCII command name followed by a single newline:
//
//	RED\n
//	YELLOW\n
//	GREEN\n
//	OFF\n
//
// There is no framing, padding, checksum or acknowledgement. The device
// firmware reads one line at a time and switches its LEDs accordingly.
package command
