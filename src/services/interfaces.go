// src/services/interfaces.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/username/txlens/backend/src/models"
	"github.com/username/txlens/backend/src/selection"
	"github.com/username/txlens/backend/src/views"
)

// Define common service errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrBackend         = errors.New("analysis backend request failed")
)

// BackendClient fetches data from the analysis backend. Every method is one HTTP round trip
// (or a cache hit) and returns normalised records.
type BackendClient interface {
	FetchTransactions(ctx context.Context) ([]*models.Transaction, error)
	// FetchFrequencyInfo asks the backend to regroup transactions by cfg.Frequency and
	// returns the set annotated with the new frequency and frequencyUniqueKey.
	FetchFrequencyInfo(ctx context.Context, cfg models.ClusterConfig) ([]*models.Transaction, error)
	FetchClusters(ctx context.Context, numberOfCluster int, metric1, metric2 string) ([]models.ClusterAssignment, error)
}

// Notification mirrors the fetch popup of the dashboard.
type Notification string

const (
	NotificationIdle     Notification = "idle"
	NotificationFetching Notification = "fetching"
	NotificationDone     Notification = "done"
	NotificationFailed   Notification = "failed"
)

// SessionStatus is a summary of one dashboard session.
type SessionStatus struct {
	ID               string               `json:"id"`
	Notification     Notification         `json:"notification"`
	LastError        string               `json:"lastError,omitempty"`
	TransactionCount int                  `json:"transactionCount"`
	ClusterCount     int                  `json:"clusterCount"`
	FetchedAt        *time.Time           `json:"fetchedAt,omitempty"`
	Selection        selection.State      `json:"selection"`
	ClusterConfig    models.ClusterConfig `json:"clusterConfig"`
	Calendar         views.CalendarState  `json:"calendar"`
	Colours          views.ColourState    `json:"colours"`
}

// DashboardService owns the dashboard sessions. Each session is an explicit state
// container; every mutating call is one atomic transition of that state.
type DashboardService interface {
	CreateSession(ctx context.Context) (*SessionStatus, error)
	Status(id string) (*SessionStatus, error)
	Refresh(ctx context.Context, id string) error
	UpdateClusterConfig(ctx context.Context, id string, cfg models.ClusterConfig) error
	Dispatch(ctx context.Context, id string, action selection.Action) (selection.State, error)
	UpdateCalendarState(id string, cs views.CalendarState) error
	UpdateColours(id string, cs views.ColourState) error
	// Snapshot returns a consistent read-only view of the session for the view builders.
	Snapshot(id string) (*views.Snapshot, error)
	// Wait blocks until the session has no fetch in flight.
	Wait(id string) error
	// Shutdown waits for every in-flight fetch or until ctx is done.
	Shutdown(ctx context.Context) error
}
