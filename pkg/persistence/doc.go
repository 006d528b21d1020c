// Package persistence keeps daemon runtime state that must survive a
// restart: the serial port last used and the last command shown on the
// device. Analysis history is stored separately by the history package.
package persistence
