package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/corey/survey/internal/domain/status"
	"github.com/corey/survey/internal/domain/survey"
	"github.com/corey/survey/internal/ports"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	// ErrNotLoaded is returned by actions dispatched before Load.
	ErrNotLoaded = errors.New("session not loaded")
	// ErrSubmitFailed is returned by Next when the gateway rejected the
	// submission. The session stays on the last image.
	ErrSubmitFailed = errors.New("submission failed")
)

// ControllerConfig holds the controller's collaborators.
type ControllerConfig struct {
	Store      ports.SessionStore // nil = in-memory only
	Resolver   *Resolver
	Gateway    *Gateway
	Layout     survey.Layout
	StatusPath string // empty = no status snapshot
	Logger     *zap.Logger
}

// Controller owns the respondent's session. Every action runs through the
// reducer, and each observable change is persisted before the call returns.
// The lock is released during group resolution and submission; the busy
// flag makes concurrent actions fail with survey.ErrBusy meanwhile.
type Controller struct {
	store      ports.SessionStore
	resolver   *Resolver
	gateway    *Gateway
	layout     survey.Layout
	statusPath string
	log        *zap.Logger

	now   func() time.Time
	newID func() string

	mu     sync.Mutex
	s      survey.Session
	loaded bool
}

// NewController creates a controller holding a fresh session. Call Load
// before dispatching actions.
func NewController(cfg ControllerConfig) *Controller {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	layout := cfg.Layout
	if layout == (survey.Layout{}) {
		layout = survey.DefaultLayout
	}
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = NewResolver(nil, layout, log)
	}
	gateway := cfg.Gateway
	if gateway == nil {
		gateway = NewGateway(nil, nil, "", log)
	}
	return &Controller{
		store:      cfg.Store,
		resolver:   resolver,
		gateway:    gateway,
		layout:     layout,
		statusPath: cfg.StatusPath,
		log:        log,
		now:        time.Now,
		newID:      uuid.NewString,
		s:          survey.New(),
	}
}

// Load rehydrates the persisted session. A missing, unreadable, invalid or
// finished session yields the fresh default. A stale busy flag is cleared.
// Load never fails; problems are logged.
func (c *Controller) Load() survey.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.s = c.rehydrate()
	c.loaded = true
	c.writeStatus()
	return c.s.Clone()
}

func (c *Controller) rehydrate() survey.Session {
	if c.store == nil {
		return survey.New()
	}
	saved, err := c.store.LoadSession()
	if err != nil {
		c.log.Warn("could not read saved session, starting fresh", zap.Error(err))
		return survey.New()
	}
	if saved == nil {
		return survey.New()
	}
	if err := saved.Validate(c.layout); err != nil {
		c.log.Warn("saved session is invalid, starting fresh", zap.Error(err))
		return survey.New()
	}
	if saved.Phase == survey.PhaseFinish {
		c.log.Warn("saved session already finished, starting fresh")
		if err := c.store.ClearSession(); err != nil {
			c.log.Error("clear finished session", zap.Error(err))
		}
		return survey.New()
	}
	if saved.Busy {
		c.log.Info("clearing interrupted request flag", zap.String("phase", string(saved.Phase)))
		saved.Busy = false
	}
	c.log.Info("session restored",
		zap.String("phase", string(saved.Phase)),
		zap.Int("group", saved.AssignedGroup()),
		zap.Int("index", saved.Index))
	return *saved
}

// State returns a copy of the current session.
func (c *Controller) State() survey.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s.Clone()
}

// Layout returns the layout the controller validates against.
func (c *Controller) Layout() survey.Layout {
	return c.layout
}

// Item describes the image the respondent is currently rating.
type Item struct {
	Position int // 1-based
	Total    int
	First    bool // no previous image to go back to
	ImageID  string
	Response survey.Response
}

// Current returns the current item. ok is false outside SURVEY.
func (c *Controller) Current() (Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, resp, ok := c.s.Current()
	if !ok {
		return Item{}, false
	}
	return Item{
		Position: c.s.Index + 1,
		Total:    len(c.s.Images),
		First:    c.s.IsFirst(),
		ImageID:  id,
		Response: resp,
	}, true
}

// SetDemographic edits one demographic field. value may be a label, code
// or alias.
func (c *Controller) SetDemographic(f survey.DemographicField, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.apply(survey.Action{Kind: survey.ActSetDemographic, Demographic: f, Value: value}); err != nil {
		return err
	}
	return c.commit()
}

// Start resolves the respondent's group and moves to SURVEY. Resolution
// cannot fail; an error means the session was not in a state to start.
func (c *Controller) Start(ctx context.Context) (Resolution, error) {
	c.mu.Lock()
	if _, err := c.apply(survey.Action{Kind: survey.ActStartRequested}); err != nil {
		c.mu.Unlock()
		return Resolution{}, err
	}
	persistErr := c.commit()
	demo := c.s.Demographics
	c.mu.Unlock()

	res := c.resolver.Resolve(ctx, demo)

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.apply(survey.Action{Kind: survey.ActGroupResolved, Group: res.Group, SubmissionID: c.newID()})
	if err != nil {
		c.log.Error("resolved group rejected", zap.Int("group", res.Group), zap.Error(err))
		if _, ferr := c.apply(survey.Action{Kind: survey.ActGroupFailed}); ferr != nil {
			err = multierr.Append(err, ferr)
		}
		return res, multierr.Append(err, c.commit())
	}
	c.log.Info("survey started",
		zap.Int("group", res.Group),
		zap.String("source", string(res.Source)),
		zap.String("submission_id", c.s.SubmissionID))
	return res, multierr.Append(persistErr, c.commit())
}

// Answer sets one rating of the current image.
func (c *Controller) Answer(f survey.Field, rating int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.apply(survey.Action{Kind: survey.ActAnswer, Field: f, Rating: rating}); err != nil {
		return err
	}
	return c.commit()
}

// Prev moves back one image.
func (c *Controller) Prev() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.apply(survey.Action{Kind: survey.ActPrev}); err != nil {
		return err
	}
	return c.commit()
}

// NextResult reports what Next did.
type NextResult struct {
	Position  int  // 1-based position after the call
	Submitted bool // the survey was submitted and is finished
}

// Next advances to the following image, or submits at the last one.
// A failed submission returns ErrSubmitFailed and leaves the respondent on
// the last image with all answers intact.
func (c *Controller) Next(ctx context.Context) (NextResult, error) {
	c.mu.Lock()
	eff, err := c.apply(survey.Action{Kind: survey.ActNext})
	if err != nil {
		pos := c.position()
		c.mu.Unlock()
		return NextResult{Position: pos}, err
	}
	if eff != survey.EffectSubmit {
		defer c.mu.Unlock()
		return NextResult{Position: c.position()}, c.commit()
	}

	sub, err := survey.NewSubmission(c.s, c.now())
	if err != nil {
		// Unreachable while Reduce guarantees SURVEY with a group. Busy was
		// never persisted, so clearing it in memory is enough.
		_, ferr := c.apply(survey.Action{Kind: survey.ActSubmitFailed})
		pos := c.position()
		c.mu.Unlock()
		return NextResult{Position: pos}, multierr.Append(err, ferr)
	}
	persistErr := c.commit()
	c.mu.Unlock()

	ok := c.gateway.Submit(ctx, sub)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !ok {
		if _, err := c.apply(survey.Action{Kind: survey.ActSubmitFailed}); err != nil {
			return NextResult{Position: c.position()}, multierr.Append(err, persistErr)
		}
		return NextResult{Position: c.position()}, multierr.Combine(ErrSubmitFailed, persistErr, c.commit())
	}
	if _, err := c.apply(survey.Action{Kind: survey.ActSubmitSucceeded}); err != nil {
		return NextResult{Position: c.position()}, multierr.Append(err, persistErr)
	}
	c.log.Info("survey finished", zap.String("submission_id", sub.SubmissionID))
	return NextResult{Position: c.position(), Submitted: true}, multierr.Append(persistErr, c.commit())
}

// Reset discards the session, persisted copy included.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.Busy {
		return survey.ErrBusy
	}
	c.s = survey.New()
	c.loaded = true
	var err error
	if c.store != nil {
		if cerr := c.store.ClearSession(); cerr != nil {
			err = fmt.Errorf("clear session: %w", cerr)
		}
	}
	c.writeStatus()
	return err
}

// apply runs the reducer. Must hold c.mu.
func (c *Controller) apply(a survey.Action) (survey.Effect, error) {
	if !c.loaded {
		return survey.EffectNone, ErrNotLoaded
	}
	next, eff, err := survey.Reduce(c.s, a, c.layout)
	if err != nil {
		return survey.EffectNone, err
	}
	c.s = next
	return eff, nil
}

// commit persists the session, clearing it instead once finished, and
// refreshes the status snapshot. The in-memory state is kept on failure.
// Must hold c.mu.
func (c *Controller) commit() error {
	defer c.writeStatus()
	if c.store == nil {
		return nil
	}
	var err error
	if c.s.Phase == survey.PhaseFinish {
		err = c.store.ClearSession()
	} else {
		err = c.store.SaveSession(&c.s)
	}
	if err != nil {
		c.log.Error("persist session failed", zap.Error(err))
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func (c *Controller) writeStatus() {
	if c.statusPath == "" {
		return
	}
	if err := status.WriteJSON(c.statusPath, status.Generate(c.s, c.layout)); err != nil {
		c.log.Warn("write status failed", zap.String("path", c.statusPath), zap.Error(err))
	}
}

// position returns the 1-based position of the current image. Must hold c.mu.
func (c *Controller) position() int {
	if c.s.Phase == survey.PhaseStart {
		return 0
	}
	if c.s.Phase == survey.PhaseFinish {
		return len(c.s.Images)
	}
	return c.s.Index + 1
}
