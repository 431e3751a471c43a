package notification

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/engagekit/onsite/internal/ack"
	"go.uber.org/zap"
)

// FetchBypassMarker forces a remote fetch regardless of the throttle
// window when it appears anywhere in the page URL. Campaign QA appends it
// as a query parameter to preview notifications immediately.
const FetchBypassMarker = "forceNotificationFetch"

// Session is the page context of one trigger.
type Session struct {
	VisitorID   string
	Credentials string
	PageURL     string
	Mobile      bool
}

// RemoteSource pulls eligible notifications into the visitor's store.
type RemoteSource interface {
	Fetch(ctx context.Context, store Store, credentials string) error
}

// FetchGate decides whether a remote fetch may run now and records when
// one completed.
type FetchGate interface {
	ShouldFetch(ctx context.Context, visitorID string, now time.Time, bypass bool) (bool, error)
	MarkFetched(ctx context.Context, visitorID string, now time.Time) error
}

// Presenter hands a chosen record to the rendering layer.
type Presenter interface {
	Present(ctx context.Context, visitorID string, record *Record, mobile bool) error
}

// Engine drives the notification lifecycle: throttled remote fetches,
// selection with lazy eviction, acknowledgement dispatch, and store
// teardown on logout. Each trigger is a task boundary; storage and
// network failures inside it are logged and swallowed, never returned.
// Worst case a notification goes unshown or an acknowledgement is lost,
// and the next natural trigger starts fresh.
type Engine struct {
	stores    StoreProvider
	gate      FetchGate
	source    RemoteSource
	selector  *Selector
	acks      ack.Dispatcher
	presenter Presenter
	clock     func() time.Time
	logger    *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine creates an engine. A nil clock defaults to time.Now.
func NewEngine(
	stores StoreProvider,
	gate FetchGate,
	source RemoteSource,
	selector *Selector,
	acks ack.Dispatcher,
	presenter Presenter,
	clock func() time.Time,
	logger *zap.Logger,
) *Engine {
	if clock == nil {
		clock = time.Now
	}

	return &Engine{
		stores:    stores,
		gate:      gate,
		source:    source,
		selector:  selector,
		acks:      acks,
		presenter: presenter,
		clock:     clock,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
	}
}

// PageLoad runs the full lifecycle for one page view: a throttled remote
// fetch followed by a selection pass. It returns the record to show, or
// nil when nothing is eligible.
func (e *Engine) PageLoad(ctx context.Context, session Session) *Record {
	e.FetchFromRemote(ctx, session)

	return e.ShowFromStore(ctx, session)
}

// FetchFromRemote pulls fresh notifications into the visitor's store when
// the throttle allows it. The throttle window slides forward only after a
// successful non-bypassed fetch.
func (e *Engine) FetchFromRemote(ctx context.Context, session Session) {
	now := e.clock()
	bypass := strings.Contains(session.PageURL, FetchBypassMarker)

	allowed, err := e.gate.ShouldFetch(ctx, session.VisitorID, now, bypass)
	if err != nil {
		e.logger.Error("fetch gate check failed",
			zap.String("visitorId", session.VisitorID),
			zap.Error(err),
		)

		return
	}

	if !allowed {
		return
	}

	store := e.stores.Open(session.VisitorID)

	if err := e.source.Fetch(ctx, store, session.Credentials); err != nil {
		e.logger.Error("remote fetch failed",
			zap.String("visitorId", session.VisitorID),
			zap.Error(err),
		)

		return
	}

	if bypass {
		return
	}

	if err := e.gate.MarkFetched(ctx, session.VisitorID, now); err != nil {
		e.logger.Error("failed to record fetch time",
			zap.String("visitorId", session.VisitorID),
			zap.Error(err),
		)
	}
}

// ShowFromStore runs a selection pass over the visitor's store and, when
// a record is chosen, acknowledges it as shown and hands it to the
// presenter. Selection passes for the same visitor are serialized so the
// display counter's read-modify-write cannot race itself.
func (e *Engine) ShowFromStore(ctx context.Context, session Session) *Record {
	lock := e.visitorLock(session.VisitorID)
	lock.Lock()
	defer lock.Unlock()

	store := e.stores.Open(session.VisitorID)

	record, err := e.selector.Select(ctx, store, session.PageURL, e.clock())
	if err != nil {
		e.logger.Error("selection pass failed",
			zap.String("visitorId", session.VisitorID),
			zap.Error(err),
		)

		return nil
	}

	if record == nil {
		return nil
	}

	shown := ack.Ack{CDID: record.CDID, CommID: record.CommID, Event: ack.EventShown}
	if err := e.acks.Acknowledge(ctx, shown); err != nil {
		e.logger.Error("failed to acknowledge shown",
			zap.String("commId", record.CommID),
			zap.Error(err),
		)
	}

	if err := e.presenter.Present(ctx, session.VisitorID, record, session.Mobile); err != nil {
		e.logger.Error("failed to hand record to presenter",
			zap.String("commId", record.CommID),
			zap.Error(err),
		)
	}

	return record
}

// Logout discards the visitor's record store. The throttle marker is
// separate state and survives: it limits server traffic, which a logout
// does not reset.
func (e *Engine) Logout(ctx context.Context, visitorID string) {
	store := e.stores.Open(visitorID)

	if err := store.Teardown(ctx); err != nil {
		e.logger.Error("failed to tear down record store",
			zap.String("visitorId", visitorID),
			zap.Error(err),
		)

		return
	}

	e.mu.Lock()
	delete(e.locks, visitorID)
	e.mu.Unlock()

	e.logger.Info("record store torn down", zap.String("visitorId", visitorID))
}

func (e *Engine) visitorLock(visitorID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.locks[visitorID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[visitorID] = lock
	}

	return lock
}
