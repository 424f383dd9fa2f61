// Package mosaic implements the chronological browser core: the scrubber's
// position mapping, neighbor-walk pagination, the loaded window and the
// scroll controller that ties them together.
package mosaic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/mosaic/internal/logging"
	"github.com/tOgg1/mosaic/internal/models"
)

// State is the controller's loading state.
type State int

const (
	StateEmpty State = iota
	StateLoadingInitial
	StateIdle
	StateLoadingEdge
	StateResetting
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoadingInitial:
		return "loading-initial"
	case StateIdle:
		return "idle"
	case StateLoadingEdge:
		return "loading-edge"
	case StateResetting:
		return "resetting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// RequestKind identifies what a Request loads.
type RequestKind int

const (
	RequestInitial RequestKind = iota + 1
	RequestEdge
	RequestJump
	RequestRandom
)

func (k RequestKind) String() string {
	switch k {
	case RequestInitial:
		return "initial"
	case RequestEdge:
		return "edge"
	case RequestJump:
		return "jump"
	case RequestRandom:
		return "random"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Request describes one asynchronous load. It is plain data so it can be
// handed to a goroutine without sharing controller state.
type Request struct {
	ID         uint64
	Kind       RequestKind
	Generation uint64

	// Edge loads.
	Direction models.Direction
	RefKey    string

	// Initial loads and jumps. Zero means the newest item.
	Target time.Time

	Count int
}

// Result is the outcome of executing a Request.
type Result struct {
	Request Request
	Items   []models.ChronoItem
	Bounds  models.TimelineBounds
	// Target is the timestamp a reset was centered on.
	Target time.Time
	Err    error
}

// ControllerOptions tunes a Controller.
type ControllerOptions struct {
	BatchSize        int
	InitialBatchSize int
	// EdgeThreshold is the distance from either edge, in viewport units,
	// that triggers an edge load.
	EdgeThreshold int
}

// Controller owns the loaded window for one browser view and decides when
// to load more. All methods except Execute must be called from the UI event
// loop; Execute only reads the immutable request and the backend.
type Controller struct {
	opts    ControllerOptions
	nav     Navigator
	pager   Paginator
	indexer *TimelineIndexer
	logger  zerolog.Logger

	window *Window
	mapper *PositionMapper

	state      State
	generation uint64
	seq        uint64
	pending    *Request
	exhausted  [2]bool
	lastErr    error

	cursorRatio float64
	cursorTime  time.Time
	cursorOK    bool
}

// NewController creates a controller. pager is usually a Walker over nav.
func NewController(nav Navigator, pager Paginator, opts ControllerOptions) *Controller {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 40
	}
	if opts.InitialBatchSize <= 0 {
		opts.InitialBatchSize = opts.BatchSize
	}
	return &Controller{
		opts:    opts,
		nav:     nav,
		pager:   pager,
		indexer: NewTimelineIndexer(nav, pager),
		logger:  logging.Component("controller"),
		window:  NewWindow(),
	}
}

// State returns the current loading state.
func (c *Controller) State() State { return c.state }

// Generation returns the current reset generation.
func (c *Controller) Generation() uint64 { return c.generation }

// Window returns the loaded window. Callers must not mutate it.
func (c *Controller) Window() *Window { return c.window }

// Mapper returns the position mapper, or nil before bounds are known.
func (c *Controller) Mapper() *PositionMapper { return c.mapper }

// Bounds returns the resolved timeline bounds.
func (c *Controller) Bounds() models.TimelineBounds { return c.mapper.Bounds() }

// LastError returns the error from the most recent completed load.
func (c *Controller) LastError() error { return c.lastErr }

// Exhausted reports whether the last edge load in dir found nothing.
func (c *Controller) Exhausted(dir models.Direction) bool { return c.exhausted[dir] }

// Loading reports the pending request, if any.
func (c *Controller) Loading() (Request, bool) {
	if c.pending == nil {
		return Request{}, false
	}
	return *c.pending, true
}

// Cursor returns the scrubber cursor ratio and its timestamp.
func (c *Controller) Cursor() (float64, time.Time, bool) {
	return c.cursorRatio, c.cursorTime, c.cursorOK
}

// Ticks returns scrubber ticks for an extent in rows.
func (c *Controller) Ticks(extent, minGap int) []Tick {
	return Ticks(c.mapper, extent, minGap)
}

// Start requests the initial window around anchor, or around the newest
// item when anchor is zero. It only fires once, from the empty state.
func (c *Controller) Start(anchor time.Time) (Request, bool) {
	if c.state != StateEmpty {
		return Request{}, false
	}
	return c.beginReset(RequestInitial, anchor), true
}

// JumpTo replaces the window with items around ts.
func (c *Controller) JumpTo(ts time.Time) Request {
	return c.beginReset(RequestJump, ts)
}

// JumpToRatio jumps to the timestamp under a scrubber position. It does
// nothing while the scrubber is disabled.
func (c *Controller) JumpToRatio(ratio float64) (Request, bool) {
	if !c.mapper.Enabled() {
		return Request{}, false
	}
	return c.JumpTo(c.mapper.ToTimestamp(ratio)), true
}

// JumpNewest jumps to the newest item.
func (c *Controller) JumpNewest() Request {
	return c.JumpTo(c.Bounds().Newest)
}

// JumpOldest jumps to the oldest item when it is known.
func (c *Controller) JumpOldest() (Request, bool) {
	oldest := c.Bounds().Oldest
	if oldest.IsZero() {
		return Request{}, false
	}
	return c.JumpTo(oldest), true
}

// JumpRandom jumps to a random item picked by the backend.
func (c *Controller) JumpRandom() Request {
	return c.beginReset(RequestRandom, time.Time{})
}

func (c *Controller) beginReset(kind RequestKind, target time.Time) Request {
	c.generation++
	c.seq++
	req := Request{
		ID:         c.seq,
		Kind:       kind,
		Generation: c.generation,
		Target:     target,
		Count:      c.opts.InitialBatchSize,
	}
	c.pending = &req
	c.exhausted = [2]bool{}
	if kind == RequestInitial {
		c.state = StateLoadingInitial
	} else {
		c.state = StateResetting
	}
	c.logger.Debug().
		Uint64("generation", req.Generation).
		Str("kind", kind.String()).
		Str("target", models.FormatTimestamp(target)).
		Msg("reset requested")
	return req
}

// BeginEdge requests an edge load in dir. Triggers while any load is
// pending are dropped.
func (c *Controller) BeginEdge(dir models.Direction) (Request, bool) {
	if c.state != StateIdle {
		return Request{}, false
	}
	var (
		ref models.ChronoItem
		ok  bool
	)
	if dir == models.DirectionNewer {
		ref, ok = c.window.Head()
	} else {
		ref, ok = c.window.Tail()
	}
	if !ok {
		return Request{}, false
	}

	c.seq++
	req := Request{
		ID:         c.seq,
		Kind:       RequestEdge,
		Generation: c.generation,
		Direction:  dir,
		RefKey:     ref.Key,
		Count:      c.opts.BatchSize,
	}
	c.pending = &req
	c.state = StateLoadingEdge
	return req, true
}

// OnScroll updates the cursor and fires an edge load when the viewport is
// within the edge threshold of either end.
func (c *Controller) OnScroll(vp Viewport) (Request, bool) {
	c.UpdateCursor(vp)
	if c.state != StateIdle || c.window.Len() == 0 {
		return Request{}, false
	}
	if vp.Offset() <= c.opts.EdgeThreshold && !c.exhausted[models.DirectionNewer] {
		return c.BeginEdge(models.DirectionNewer)
	}
	if vp.Offset()+vp.Size() >= vp.Extent()-c.opts.EdgeThreshold && !c.exhausted[models.DirectionOlder] {
		return c.BeginEdge(models.DirectionOlder)
	}
	return Request{}, false
}

// OnWheel handles raw wheel input. A container already at an edge emits no
// scroll events, so scrolling further past the top (negative delta) or the
// bottom (positive delta) is itself an edge trigger. Explicit wheel intent
// retries an edge previously found exhausted.
func (c *Controller) OnWheel(vp Viewport, delta int) (Request, bool) {
	switch {
	case delta < 0 && vp.Offset() <= 0:
		c.exhausted[models.DirectionNewer] = false
		return c.BeginEdge(models.DirectionNewer)
	case delta > 0 && vp.Offset()+vp.Size() >= vp.Extent():
		c.exhausted[models.DirectionOlder] = false
		return c.BeginEdge(models.DirectionOlder)
	}
	return Request{}, false
}

// Execute performs the backend I/O for req. It does not touch controller
// state and is safe to call from any goroutine.
func (c *Controller) Execute(ctx context.Context, req Request) Result {
	res := Result{Request: req, Target: req.Target}
	switch req.Kind {
	case RequestEdge:
		res.Items, res.Err = c.pager.Walk(ctx, req.Direction, req.RefKey, req.Count)
	case RequestInitial, RequestJump, RequestRandom:
		bounds, boundsErr := c.indexer.Resolve(ctx)
		res.Bounds = bounds
		if req.Kind == RequestRandom {
			item, err := c.nav.Navigate(ctx, models.NavRequest{Selector: models.SelectorRandom})
			if err != nil {
				res.Err = errors.Join(boundsErr, fmt.Errorf("pick random item: %w", err))
				return res
			}
			if item != nil {
				res.Target = item.Resolve().Timestamp
			}
		}
		items, err := c.pager.LocateAndWalkAround(ctx, res.Target, req.Count)
		res.Items = items
		res.Err = errors.Join(boundsErr, err)
	default:
		res.Err = fmt.Errorf("unknown request kind %s", req.Kind)
	}
	return res
}

// Complete applies a finished load. Results from an older generation or for
// a request that is no longer pending are discarded; it reports whether the
// result was applied.
func (c *Controller) Complete(vp Viewport, res Result) bool {
	req := res.Request
	logger := logging.WithGeneration(c.logger, req.Generation)
	if c.pending == nil || req.ID != c.pending.ID || req.Generation != c.generation {
		logger.Debug().
			Uint64("current", c.generation).
			Str("kind", req.Kind.String()).
			Msg("discarding stale result")
		return false
	}

	c.pending = nil
	c.state = StateIdle
	c.lastErr = res.Err
	if res.Err != nil {
		logger.Warn().Err(res.Err).
			Str("kind", req.Kind.String()).
			Int("items", len(res.Items)).
			Msg("load finished with error")
	}

	if req.Kind == RequestEdge {
		c.applyEdge(vp, res, logger)
	} else {
		c.applyReset(vp, res, logger)
	}
	c.UpdateCursor(vp)
	return true
}

func (c *Controller) applyReset(vp Viewport, res Result, logger zerolog.Logger) {
	if !c.mapper.Enabled() {
		c.mapper = NewPositionMapper(res.Bounds)
		if !c.mapper.Enabled() {
			logger.Info().Msg("timeline bounds unavailable; scrubber disabled")
		}
	}

	if err := c.window.Reset(res.Items); err != nil {
		logger.Error().Err(err).Msg("window reset rejected")
		c.lastErr = err
		return
	}

	if obs, ok := vp.(LayoutObserver); ok {
		obs.WindowReset()
	}
	index := 0
	if !res.Target.IsZero() {
		index = max(c.window.NearestIndex(res.Target), 0)
	}
	vp.SetOffset(offsetForIndex(vp, index, c.window.Len()))
	logger.Debug().Int("items", c.window.Len()).Msg("window reset")
}

func (c *Controller) applyEdge(vp Viewport, res Result, logger zerolog.Logger) {
	dir := res.Request.Direction
	var (
		added int
		err   error
	)
	if dir == models.DirectionOlder {
		added, err = c.window.AppendOlder(res.Items)
	} else {
		before := vp.Extent()
		added, err = c.window.PrependNewer(res.Items)
		if added > 0 {
			if obs, ok := vp.(LayoutObserver); ok {
				obs.ItemsPrepended(added)
			}
			vp.SetOffset(vp.Offset() + vp.Extent() - before)
		}
	}

	if err != nil {
		var invErr *InvariantError
		if errors.As(err, &invErr) {
			logger.Error().Err(err).Str("direction", dir.String()).Msg("edge batch dropped")
		}
		c.lastErr = err
	}
	if added == 0 && res.Err == nil {
		c.exhausted[dir] = true
	}
	logger.Debug().
		Str("direction", dir.String()).
		Int("added", added).
		Int("items", c.window.Len()).
		Msg("edge load applied")
}

// UpdateCursor moves the scrubber cursor to the item approximately under
// the viewport.
func (c *Controller) UpdateCursor(vp Viewport) {
	n := c.window.Len()
	if n == 0 {
		c.cursorOK = false
		c.cursorRatio = 0
		c.cursorTime = time.Time{}
		return
	}
	item := c.window.At(visibleIndex(vp, n))
	c.cursorTime = item.Timestamp
	c.cursorRatio = c.mapper.ToRatio(item.Timestamp)
	c.cursorOK = true
}
