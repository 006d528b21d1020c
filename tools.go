//go:build tools

package tools

// Mocks under pkg/*/mocks are generated by mockery, which is used as an
// installed binary rather than via go run, so nothing is imported here.
// Run: mockery (from the module root; see .mockery.yaml).
