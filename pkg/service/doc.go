// Package service ties the device session, the reconciliation loop and
// the analyzer together behind one API.
//
// A Service owns one connection.Session and one reconcile.Loop. Callers
// connect the device, submit C source for analysis and read status; the
// loop keeps the LED on the color of the latest analysis. Analysis
// history, runtime state and mDNS advertisement are optional.
//
// Example usage:
//
//	svc, err := service.New(service.Config{
//		Link:     link,
//		Analyzer: analyzer,
//	})
//	svc.Start(ctx)
//	defer svc.Stop()
//
//	svc.Connect(ctx)
//	report, err := svc.Analyze(ctx, source)
//
// Handler exposes the same operations as a JSON HTTP API under /api/v1.
package service
