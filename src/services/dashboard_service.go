// src/services/dashboard_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/username/txlens/backend/src/aggregation"
	"github.com/username/txlens/backend/src/index"
	"github.com/username/txlens/backend/src/logger"
	"github.com/username/txlens/backend/src/memo"
	"github.com/username/txlens/backend/src/models"
	"github.com/username/txlens/backend/src/security/validation"
	"github.com/username/txlens/backend/src/selection"
	"github.com/username/txlens/backend/src/views"
)

const SessionCleanupInterval = 10 * time.Minute

type highlightInput struct {
	state selection.State
	data  selection.Data
}

// session is the state container of one dashboard. mu serialises every transition;
// fetch goroutines take it only to install their results.
type session struct {
	id string
	mu sync.Mutex
	// pending counts fetches in flight; idle is signalled on mu when it drops to zero.
	pending int
	idle    *sync.Cond

	set          *models.TransactionSet
	clusters     []models.ClusterAssignment
	clusterMap   models.ClusterMap
	state        selection.State
	calendar     views.CalendarState
	colours      views.ColourState
	config       models.ClusterConfig
	notification Notification
	lastError    string

	// Derived from set; rebuilt whenever the set pointer changes.
	derivedFor *models.TransactionSet
	index      *index.TemporalIndex
	aggregates *aggregation.Cache

	highlighted    *memo.ErrMemoizer[highlightInput, []string]
	highlightedSet *memo.Memoizer[[]string, memo.Set[string]]
}

func newSession(id string, cfg models.ClusterConfig) *session {
	emptyIndex, _ := index.Build(nil)
	s := &session{
		id:           id,
		set:          models.NewTransactionSet(nil),
		clusters:     []models.ClusterAssignment{},
		clusterMap:   models.ClusterMap{},
		state:        selection.InitialState(),
		calendar:     views.DefaultCalendarState(),
		colours:      views.DefaultColourState(),
		config:       cfg,
		notification: NotificationIdle,
		index:        emptyIndex,
		aggregates:   aggregation.New(emptyIndex),
		highlighted: memo.NewErr(func(in highlightInput) ([]string, error) {
			return selection.Resolve(in.state, in.data)
		}, memo.SliceEqual[string]),
		highlightedSet: memo.New(memo.NewSet[string], memo.SetEqual[string]),
	}
	s.derivedFor = s.set
	s.idle = sync.NewCond(&s.mu)
	return s
}

func (s *session) selectionData() selection.Data {
	return selection.Data{Transactions: s.set.Transactions, Clusters: s.clusters, ClusterMap: s.clusterMap}
}

func (s *session) status() *SessionStatus {
	st := &SessionStatus{
		ID:               s.id,
		Notification:     s.notification,
		LastError:        s.lastError,
		TransactionCount: s.set.Len(),
		ClusterCount:     len(s.clusters),
		Selection:        s.state,
		ClusterConfig:    s.config,
		Calendar:         s.calendar,
		Colours:          s.colours,
	}
	if s.set.Len() > 0 {
		fetched := s.set.FetchedAt
		st.FetchedAt = &fetched
	}
	return st
}

type dashboardServiceImpl struct {
	backend      BackendClient
	sessions     *cache.Cache
	defaults     models.ClusterConfig
	fetchTimeout time.Duration
	fetches      sync.WaitGroup
}

// NewDashboardService keeps sessions for sessionTTL after their last use.
func NewDashboardService(backend BackendClient, defaults models.ClusterConfig, sessionTTL, fetchTimeout time.Duration) DashboardService {
	return &dashboardServiceImpl{
		backend:      backend,
		sessions:     cache.New(sessionTTL, SessionCleanupInterval),
		defaults:     defaults,
		fetchTimeout: fetchTimeout,
	}
}

func (d *dashboardServiceImpl) lookup(id string) (*session, error) {
	v, found := d.sessions.Get(id)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s := v.(*session)
	// Touch to extend the TTL of sessions in use.
	d.sessions.Set(id, s, cache.DefaultExpiration)
	return s, nil
}

func (d *dashboardServiceImpl) CreateSession(ctx context.Context) (*SessionStatus, error) {
	if err := validation.ValidateClusterConfig(d.defaults); err != nil {
		return nil, fmt.Errorf("default cluster config: %w", err)
	}
	s := newSession(uuid.New().String(), d.defaults)
	d.sessions.Set(s.id, s, cache.DefaultExpiration)
	logger.FromContext(ctx).Info("Dashboard session created", "sessionID", s.id)

	s.mu.Lock()
	defer s.mu.Unlock()
	d.startFetch(ctx, s, d.loadTransactions)
	return s.status(), nil
}

func (d *dashboardServiceImpl) Status(id string) (*SessionStatus, error) {
	s, err := d.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status(), nil
}

func (d *dashboardServiceImpl) Refresh(ctx context.Context, id string) error {
	s, err := d.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d.startFetch(ctx, s, d.loadTransactions)
	return nil
}

// UpdateClusterConfig stores cfg and refetches what it invalidates: new frequency settings
// regroup the transactions (and then recluster), new cluster settings only recluster.
func (d *dashboardServiceImpl) UpdateClusterConfig(ctx context.Context, id string, cfg models.ClusterConfig) error {
	if err := validation.ValidateClusterConfig(cfg); err != nil {
		return err
	}
	s, err := d.lookup(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.config
	s.config = cfg
	switch {
	case prev.Frequency != cfg.Frequency:
		d.startFetch(ctx, s, d.loadFrequencyInfo)
	case prev.NumberOfCluster != cfg.NumberOfCluster || prev.Metric1 != cfg.Metric1 || prev.Metric2 != cfg.Metric2:
		d.startFetch(ctx, s, d.loadClusters)
	default:
		logger.FromContext(ctx).Debug("Cluster config unchanged, nothing to fetch", "sessionID", id)
	}
	return nil
}

func (d *dashboardServiceImpl) Dispatch(ctx context.Context, id string, action selection.Action) (selection.State, error) {
	s, err := d.lookup(id)
	if err != nil {
		return selection.State{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := selection.Reduce(s.state, action, s.selectionData())
	if err != nil {
		return s.state, err
	}
	s.state = next
	logger.FromContext(ctx).Debug("Selection updated", "sessionID", id, "action", fmt.Sprintf("%T", action), "selector", next.CurrentSelector.String())
	return next, nil
}

func (d *dashboardServiceImpl) UpdateCalendarState(id string, cs views.CalendarState) error {
	glyph, err := views.ParseGlyphType(string(cs.GlyphType))
	if err != nil {
		return err
	}
	cs.GlyphType = glyph
	s, err := d.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calendar = cs
	return nil
}

func (d *dashboardServiceImpl) UpdateColours(id string, cs views.ColourState) error {
	for _, ch := range []selection.ColourChannel{cs.ScatterPlot, cs.ClusterView} {
		if _, err := selection.ParseColourChannel(string(ch)); err != nil {
			return err
		}
	}
	s, err := d.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.colours = cs
	return nil
}

func (d *dashboardServiceImpl) Snapshot(id string) (*views.Snapshot, error) {
	s, err := d.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureDerived(); err != nil {
		return nil, err
	}
	data := s.selectionData()
	highlighted, err := s.highlighted.Get(highlightInput{state: s.state, data: data})
	if err != nil {
		return nil, err
	}
	return &views.Snapshot{
		Transactions:   s.set.Transactions,
		Index:          s.index,
		Aggregates:     s.aggregates,
		Clusters:       s.clusters,
		ClusterMap:     s.clusterMap,
		Selection:      s.state,
		Highlighted:    highlighted,
		HighlightedSet: s.highlightedSet.Get(highlighted),
		Calendar:       s.calendar,
		Colours:        s.colours,
	}, nil
}

func (d *dashboardServiceImpl) Wait(id string) error {
	s, err := d.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.pending > 0 {
		s.idle.Wait()
	}
	return nil
}

func (d *dashboardServiceImpl) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.fetches.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ensureDerived rebuilds the index and aggregates if the set pointer moved.
// Caller holds s.mu.
func (s *session) ensureDerived() error {
	if s.derivedFor == s.set {
		return nil
	}
	ix, err := index.Build(s.set.Transactions)
	if err != nil {
		return err
	}
	s.index, s.aggregates, s.derivedFor = ix, aggregation.New(ix), s.set
	return nil
}

type fetchFunc func(ctx context.Context, s *session) error

// startFetch runs fetch in the background. Superseded fetches are not cancelled: whichever
// finishes last installs its result. Caller holds s.mu.
func (d *dashboardServiceImpl) startFetch(reqCtx context.Context, s *session, fetch fetchFunc) {
	s.notification = NotificationFetching
	s.lastError = ""
	s.pending++
	d.fetches.Add(1)

	// Detach from the request so the fetch outlives the handler, but keep its logger.
	log := logger.FromContext(reqCtx).With("sessionID", s.id)
	go func() {
		defer d.fetches.Done()

		ctx, cancel := context.WithTimeout(logger.ToContext(context.Background(), log), d.fetchTimeout)
		defer cancel()

		err := fetch(ctx, s)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.pending--
		if s.pending == 0 {
			s.idle.Broadcast()
		}
		if err != nil {
			log.Error("Backend fetch failed, keeping previous data", "error", err)
			s.notification = NotificationFailed
			s.lastError = err.Error()
			return
		}
		s.notification = NotificationDone
	}()
}

func (d *dashboardServiceImpl) loadTransactions(ctx context.Context, s *session) error {
	txs, err := d.backend.FetchTransactions(ctx)
	if err != nil {
		return err
	}
	if err := s.installTransactions(ctx, txs); err != nil {
		return err
	}
	return d.loadClusters(ctx, s)
}

func (d *dashboardServiceImpl) loadFrequencyInfo(ctx context.Context, s *session) error {
	s.mu.Lock()
	cfg := s.config
	s.mu.Unlock()

	txs, err := d.backend.FetchFrequencyInfo(ctx, cfg)
	if err != nil {
		return err
	}
	if err := s.installTransactions(ctx, txs); err != nil {
		return err
	}
	return d.loadClusters(ctx, s)
}

func (d *dashboardServiceImpl) loadClusters(ctx context.Context, s *session) error {
	s.mu.Lock()
	cfg := s.config
	s.mu.Unlock()

	clusters, err := d.backend.FetchClusters(ctx, cfg.NumberOfCluster, cfg.Metric1, cfg.Metric2)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceClusters(clusters)
	logger.FromContext(ctx).Info("Cluster assignments installed", "count", len(clusters))
	return nil
}

// installTransactions swaps in a new set and derives its index. A set the index rejects
// is rolled back, so a bad set never replaces a good one.
func (s *session) installTransactions(ctx context.Context, txs []*models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.set
	s.set = models.NewTransactionSet(txs)
	if err := s.ensureDerived(); err != nil {
		s.set = prev
		return err
	}

	// Cluster ids of a previous set are meaningless if they do not cover this one.
	if !covers(s.clusterMap, txs) {
		s.replaceClusters([]models.ClusterAssignment{})
	}
	s.dropStaleSelection(ctx)
	logger.FromContext(ctx).Info("Transaction set installed", "count", len(txs))
	return nil
}

// replaceClusters installs new assignments and dispatches ClustersReplaced. Caller holds s.mu.
func (s *session) replaceClusters(clusters []models.ClusterAssignment) {
	s.clusters = clusters
	s.clusterMap = models.NewClusterMap(clusters)
	next, err := selection.Reduce(s.state, selection.ClustersReplaced{}, s.selectionData())
	if err != nil {
		// ClustersReplaced never fails; keep the state if that ever changes.
		logger.L.Error("Failed to reset cluster selection", "sessionID", s.id, "error", err)
		return
	}
	s.state = next
}

// dropStaleSelection clears legend selections whose values vanished from the new set,
// since toggling them would no longer be possible. Caller holds s.mu.
func (s *session) dropStaleSelection(ctx context.Context) {
	data := s.selectionData()
	var domain []string
	switch s.state.CurrentSelector {
	case selection.SelectorCategory:
		domain = data.CategoryDomain()
	case selection.SelectorFrequencyUniqueKey:
		domain = data.FrequencyUniqueKeyDomain()
	default:
		return
	}
	known := memo.NewSet(domain)
	for _, v := range s.state.ActiveArray() {
		if !known.Has(v) {
			next, err := selection.Reduce(s.state, selection.ClearSelection{}, data)
			if err == nil {
				logger.FromContext(ctx).Info("Selection cleared after data refresh", "selector", s.state.CurrentSelector.String())
				s.state = next
			}
			return
		}
	}
}

func covers(clusters models.ClusterMap, txs []*models.Transaction) bool {
	for _, t := range txs {
		if _, ok := clusters[t.TransactionNumber]; !ok {
			return false
		}
	}
	return true
}

// IsNotFound reports whether err means the session does not exist (or expired).
func IsNotFound(err error) bool { return errors.Is(err, ErrSessionNotFound) }
