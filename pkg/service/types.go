package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ledsignal/ledsignal-go/pkg/analysis"
	"github.com/ledsignal/ledsignal-go/pkg/connection"
	"github.com/ledsignal/ledsignal-go/pkg/discovery"
	"github.com/ledsignal/ledsignal-go/pkg/history"
	ledlog "github.com/ledsignal/ledsignal-go/pkg/log"
	"github.com/ledsignal/ledsignal-go/pkg/persistence"
	"github.com/ledsignal/ledsignal-go/pkg/reconcile"
	"github.com/ledsignal/ledsignal-go/pkg/severity"
)

// Service errors.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrAlreadyStarted  = errors.New("service already started")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrHistoryDisabled = errors.New("history disabled")
)

// DefaultAnalysisTimeout bounds one analyzer call.
const DefaultAnalysisTimeout = 60 * time.Second

// HistoryStore records analyses. It is satisfied by *history.Store.
type HistoryStore interface {
	Record(ctx context.Context, e history.Entry) (int64, error)
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

var _ HistoryStore = (*history.Store)(nil)

// Config configures a Service.
type Config struct {
	// Link is the serial link of the device. Required.
	Link connection.Link

	// Analyzer turns source into a result. Required.
	Analyzer analysis.Analyzer

	// Session timing; zero values take the session defaults.
	SettleDelay      time.Duration
	PostWriteDelay   time.Duration
	OperationTimeout time.Duration

	// Attempts and Backoff drive the reconciliation retries.
	Attempts int
	Backoff  connection.BackoffConfig

	// AnalysisTimeout bounds each analyzer call. Default: 60 seconds.
	AnalysisTimeout time.Duration

	// History receives every analysis. Optional.
	History HistoryStore

	// HistoryLimit is the default page size of History. Default: 50.
	HistoryLimit int

	// State persists the last port and command. Optional.
	State *persistence.StateStore

	// Advertiser publishes the HTTP API. Optional.
	Advertiser discovery.Advertiser

	// Instance is the advertised instance name. Default: "ledsignal".
	Instance string

	Logger *slog.Logger

	// EventLogger receives device and analysis events. Optional.
	EventLogger ledlog.Logger
}

// Report is the outcome of one successful analysis.
type Report struct {
	// ID is the history ID, zero when history is disabled.
	ID       int64             `json:"id,omitempty"`
	Result   analysis.Result   `json:"result"`
	Decision severity.Decision `json:"decision"`
}

// Status is a snapshot of the whole service.
type Status struct {
	Device    connection.Status  `json:"device"`
	Decision  *severity.Decision `json:"decision,omitempty"`
	Summary   string             `json:"summary,omitempty"`
	Reconcile reconcile.Stats    `json:"reconcile"`
}
