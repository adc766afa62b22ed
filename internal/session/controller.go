package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal/internal/model"
)

// QuestionSource provides the grouped question set.
type QuestionSource interface {
	Sections(ctx context.Context) ([]model.Section, error)
}

// Submitter grades and stores a finished attempt.
type Submitter interface {
	Submit(ctx context.Context, identity model.Identity, answers model.Answers) (*model.ExamResult, error)
}

// Config tunes a Controller.
type Config struct {
	// Duration is the time allowed when no remaining time was persisted.
	Duration time.Duration
	// ManualTick disables the internal one-second ticker; the host calls Tick.
	ManualTick bool
	// Shuffle orders each section's fragment pool. Defaults to rand.Shuffle.
	Shuffle func(n int, swap func(i, j int))
}

type EventKind string

const (
	EventTick         EventKind = "tick"
	EventExpired      EventKind = "expired"
	EventSubmitted    EventKind = "submitted"
	EventSubmitFailed EventKind = "submit_failed"
)

// Event reports a timer-driven change to the host.
type Event struct {
	Kind     EventKind
	Snapshot Snapshot
	Err      error
}

type Listener func(Event)

// Controller owns one candidate's attempt. Every operation runs under a
// single mutex, so timer ticks and candidate actions never interleave.
type Controller struct {
	mu        sync.Mutex
	cfg       Config
	store     Store
	source    QuestionSource
	submitter Submitter
	listener  Listener
	log       zerolog.Logger

	state    State
	closed   bool
	hasPrior bool

	identity  model.Identity
	language  model.Language
	sections  []model.Section
	questions map[int]model.Question
	ordered   []model.Question

	answers   model.Answers
	flags     map[int]bool
	missing   map[string]bool
	pools     map[string][]string
	remaining time.Duration
	expired   bool
	resultID  string

	stopTimer context.CancelFunc
}

func New(store Store, source QuestionSource, submitter Submitter, cfg Config, log zerolog.Logger) *Controller {
	if cfg.Duration <= 0 {
		cfg.Duration = 60 * time.Minute
	}
	if cfg.Shuffle == nil {
		cfg.Shuffle = rand.Shuffle
	}
	return &Controller{
		cfg:       cfg,
		store:     store,
		source:    source,
		submitter: submitter,
		log:       log.With().Str("component", "session").Logger(),
		answers:   model.Answers{},
		flags:     map[int]bool{},
		missing:   map[string]bool{},
		pools:     map[string][]string{},
	}
}

// OnEvent registers the receiver of timer-driven events. Call before Load.
func (c *Controller) OnEvent(l Listener) {
	c.mu.Lock()
	c.listener = l
	c.mu.Unlock()
}

// ─── Lifecycle ──────────────────────────────────────────────────────

// Mount reads the persisted identity. Without one the controller closes and
// the candidate belongs on the login screen.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.state != StateUninitialized {
		return ErrInvalidState
	}

	fields, err := c.readLocked(ctx, KeyUserName, KeyUserID, KeyPhoneNumber, KeyLanguage, KeyStarted)
	if err != nil {
		return err
	}

	c.identity = model.Identity{
		UserName:    fields[KeyUserName],
		IDNumber:    fields[KeyUserID],
		PhoneNumber: fields[KeyPhoneNumber],
	}
	if !c.identity.Complete() {
		c.closeLocked()
		return ErrNoIdentity
	}

	c.language = model.Language(fields[KeyLanguage])
	if c.language == "" {
		c.language = model.LanguageArabic
	}
	c.hasPrior = fields[KeyStarted] == "true"
	c.state = StateLoading
	return nil
}

// Load fetches the question set. On failure the controller stays in
// Loading; the host may call Load again.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.state != StateLoading {
		return ErrInvalidState
	}

	sections, err := c.source.Sections(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("Question fetch failed")
		return fmt.Errorf("%w: %v", ErrDataFetch, err)
	}

	c.sections = sections
	c.ordered = model.Flatten(sections)
	c.questions = make(map[int]model.Question, len(c.ordered))
	for _, q := range c.ordered {
		c.questions[q.ID] = q
	}

	if c.hasPrior {
		c.state = StateResetPrompt
		return nil
	}

	remaining, err := c.storedRemainingLocked(ctx)
	if err != nil {
		return err
	}
	c.remaining = remaining
	return c.activateLocked(ctx)
}

// Resume continues the previous attempt with its answers, flags and clock.
func (c *Controller) Resume(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expectLocked(StateResetPrompt); err != nil {
		return err
	}

	fields, err := c.readLocked(ctx, KeyAnswers, KeyFlags)
	if err != nil {
		return err
	}

	answers := model.Answers{}
	if raw := fields[KeyAnswers]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &answers); err != nil {
			c.log.Warn().Err(err).Msg("Stored answers unreadable, starting empty")
			answers = model.Answers{}
		}
	}
	c.answers = answers.Normalize(c.ordered)

	c.flags = map[int]bool{}
	if raw := fields[KeyFlags]; raw != "" {
		var ids []int
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			c.log.Warn().Err(err).Msg("Stored flags unreadable, dropping")
		}
		for _, id := range ids {
			if _, ok := c.questions[id]; ok {
				c.flags[id] = true
			}
		}
	}

	remaining, err := c.storedRemainingLocked(ctx)
	if err != nil {
		return err
	}
	c.remaining = remaining
	return c.activateLocked(ctx)
}

// Discard drops the previous answers and flags. The clock keeps running
// from where it stopped.
func (c *Controller) Discard(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expectLocked(StateResetPrompt); err != nil {
		return err
	}

	remaining, err := c.storedRemainingLocked(ctx)
	if err != nil {
		return err
	}
	c.answers = model.Answers{}
	c.flags = map[int]bool{}
	c.remaining = remaining
	return c.activateLocked(ctx)
}

// Dismiss leaves the completion screen, forgetting the identity.
func (c *Controller) Dismiss(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expectLocked(StateCompleted); err != nil {
		return err
	}
	err := c.store.Clear(ctx, IdentityKeys...)
	c.closeLocked()
	if err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	return nil
}

// Leave abandons the page. During an active attempt it needs confirmation
// and wipes the in-progress answers.
func (c *Controller) Leave(ctx context.Context, confirmed bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.state != StateActive {
		c.closeLocked()
		return nil
	}
	if !confirmed {
		return ErrConfirmationRequired
	}

	err := c.store.Clear(ctx, KeyAnswers, KeyFlags, KeyStarted)
	c.answers = model.Answers{}
	c.flags = map[int]bool{}
	c.closeLocked()
	if err != nil {
		return fmt.Errorf("clear progress: %w", err)
	}
	return nil
}

// Reload tears the controller down keeping the autosaved progress, so the
// next controller for this session can resume it.
func (c *Controller) Reload(ctx context.Context, confirmed bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	var err error
	if c.state == StateActive {
		if !confirmed {
			return ErrConfirmationRequired
		}
		err = c.persistLocked(ctx)
	}
	c.closeLocked()
	return err
}

// Close stops the timer without touching persisted state.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

// ─── Candidate actions ──────────────────────────────────────────────

// SetAnswer records a choice. Multi-select questions toggle the option;
// written questions are answered through Move.
func (c *Controller) SetAnswer(ctx context.Context, questionID int, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.mutableLocked(); err != nil {
		return err
	}
	q, ok := c.questions[questionID]
	if !ok {
		return ErrUnknownQuestion
	}

	key := q.Key()
	switch {
	case q.Type == model.QuestionTypeWritten:
		return ErrInvalidAnswer
	case q.Type == model.QuestionTypeTrueFalse:
		if value != "true" && value != "false" {
			return ErrInvalidAnswer
		}
		c.answers[key] = model.Single(value)
	case q.IsMultiSelect:
		if !hasOption(q, value) {
			return ErrInvalidAnswer
		}
		next := c.answers[key].Toggle(value)
		if next.IsEmpty() {
			delete(c.answers, key)
		} else {
			c.answers[key] = next
		}
	default:
		if len(q.Options) > 0 && !hasOption(q, value) {
			return ErrInvalidAnswer
		}
		c.answers[key] = model.Single(value)
	}

	delete(c.missing, key)
	return c.persistLocked(ctx)
}

// ToggleFlag marks or unmarks a question for review.
func (c *Controller) ToggleFlag(ctx context.Context, questionID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.mutableLocked(); err != nil {
		return err
	}
	if _, ok := c.questions[questionID]; !ok {
		return ErrUnknownQuestion
	}

	if c.flags[questionID] {
		delete(c.flags, questionID)
	} else {
		c.flags[questionID] = true
	}
	return c.persistLocked(ctx)
}

// Move relocates a written fragment between the section pool and answer
// slots. A full slot rejects the drop and leaves everything unchanged.
func (c *Controller) Move(ctx context.Context, section, fragment string, to Location) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.mutableLocked(); err != nil {
		return err
	}

	from, ok := c.locateLocked(section, fragment)
	if !ok {
		return ErrUnknownFragment
	}

	var target model.Question
	if !to.IsPool() {
		target, ok = c.questions[to.QuestionID]
		if !ok || target.Type != model.QuestionTypeWritten || target.SectionName != section {
			return ErrInvalidTarget
		}
		if from != to && len(c.answers[target.Key()].Values) >= model.MaxWrittenFragments {
			return ErrSlotFull
		}
	}
	if from == to {
		return nil
	}

	if from.IsPool() {
		pool := c.pools[section]
		c.pools[section] = removeAt(pool, indexOf(pool, fragment))
	} else {
		src := c.questions[from.QuestionID].Key()
		if rest := c.answers[src].Without(fragment); rest.IsEmpty() {
			delete(c.answers, src)
		} else {
			c.answers[src] = rest
		}
	}

	if to.IsPool() {
		c.pools[section] = append(c.pools[section], fragment)
	} else {
		key := target.Key()
		placed := append(append([]string(nil), c.answers[key].Values...), fragment)
		c.answers[key] = model.Ordered(placed...)
		delete(c.missing, key)
	}
	return c.persistLocked(ctx)
}

// Submit hands the attempt over for grading. Every question must be
// answered unless the time is already up.
func (c *Controller) Submit(ctx context.Context) (*model.ExamResult, error) {
	return c.submit(ctx, false)
}

// Tick accounts for one elapsed second. It is a no-op outside Active. When
// the clock reaches zero the attempt is submitted as it stands.
func (c *Controller) Tick(ctx context.Context) error {
	c.mu.Lock()
	if c.closed || c.state != StateActive || c.expired {
		c.mu.Unlock()
		return nil
	}

	c.remaining -= time.Second
	if c.remaining < 0 {
		c.remaining = 0
	}
	saveErr := c.persistLocked(ctx)

	if c.remaining > 0 {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.emit(Event{Kind: EventTick, Snapshot: snap})
		return saveErr
	}

	c.expired = true
	c.stopTimerLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.log.Info().Str("id_number", snap.Identity.IDNumber).Msg("Time expired, submitting")
	c.emit(Event{Kind: EventExpired, Snapshot: snap})

	_, subErr := c.submit(ctx, true)
	return errors.Join(saveErr, subErr)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ─── Internals ──────────────────────────────────────────────────────

func (c *Controller) submit(ctx context.Context, auto bool) (*model.ExamResult, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.state != StateActive {
		c.mu.Unlock()
		return nil, ErrInvalidState
	}
	if !auto && !c.expired {
		if missing := c.missingKeysLocked(); len(missing) > 0 {
			c.missing = make(map[string]bool, len(missing))
			for _, k := range missing {
				c.missing[k] = true
			}
			c.mu.Unlock()
			return nil, &IncompleteError{Missing: missing}
		}
	}

	c.state = StateSubmitting
	identity := c.identity
	answers := make(model.Answers, len(c.answers))
	for k, v := range c.answers {
		answers[k] = v
	}
	c.mu.Unlock()

	result, err := c.submitter.Submit(ctx, identity, answers)

	c.mu.Lock()
	if err != nil {
		c.state = StateActive
		snap := c.snapshotLocked()
		c.mu.Unlock()

		c.log.Error().Err(err).Bool("auto", auto).Msg("Submission failed")
		if auto {
			c.emit(Event{Kind: EventSubmitFailed, Snapshot: snap, Err: err})
		}
		return nil, fmt.Errorf("submit: %w", err)
	}

	c.state = StateCompleted
	c.stopTimerLocked()
	c.answers = model.Answers{}
	c.flags = map[int]bool{}
	c.missing = map[string]bool{}
	if result != nil {
		c.resultID = result.ID.String()
	}
	clearErr := c.store.Clear(ctx, ProgressKeys...)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if clearErr != nil {
		c.log.Warn().Err(clearErr).Msg("Graded attempt left progress keys behind")
	}
	if auto {
		c.emit(Event{Kind: EventSubmitted, Snapshot: snap})
	}
	return result, nil
}

func (c *Controller) activateLocked(ctx context.Context) error {
	c.missing = map[string]bool{}
	c.pools = buildPools(c.sections, c.answers, c.cfg.Shuffle)
	c.state = StateActive
	err := c.persistLocked(ctx)
	c.startTimerLocked()
	return err
}

// persistLocked overwrites the full progress record.
func (c *Controller) persistLocked(ctx context.Context) error {
	answers, err := json.Marshal(c.answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	flags, err := json.Marshal(c.flagListLocked())
	if err != nil {
		return fmt.Errorf("encode flags: %w", err)
	}

	err = c.store.Set(ctx, map[string]string{
		KeyAnswers:       string(answers),
		KeyFlags:         string(flags),
		KeyTimeRemaining: strconv.Itoa(int(c.remaining / time.Second)),
		KeyStarted:       "true",
	})
	if err != nil {
		return fmt.Errorf("autosave: %w", err)
	}
	return nil
}

func (c *Controller) readLocked(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		v, ok, err := c.store.Get(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", k, err)
		}
		if ok {
			out[k] = v
		}
	}
	return out, nil
}

func (c *Controller) storedRemainingLocked(ctx context.Context) (time.Duration, error) {
	raw, ok, err := c.store.Get(ctx, KeyTimeRemaining)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", KeyTimeRemaining, err)
	}
	if !ok {
		return c.cfg.Duration, nil
	}
	secs, err := strconv.Atoi(raw)
	if err != nil {
		c.log.Warn().Str("value", raw).Msg("Stored remaining time unreadable, using full duration")
		return c.cfg.Duration, nil
	}
	if secs < 0 {
		secs = 0
	}
	return time.Duration(secs) * time.Second, nil
}

func (c *Controller) expectLocked(s State) error {
	if c.closed {
		return ErrClosed
	}
	if c.state != s {
		return ErrInvalidState
	}
	return nil
}

func (c *Controller) mutableLocked() error {
	if err := c.expectLocked(StateActive); err != nil {
		return err
	}
	if c.expired {
		return ErrExpired
	}
	return nil
}

func (c *Controller) locateLocked(section, fragment string) (Location, bool) {
	pool, ok := c.pools[section]
	if !ok {
		return Location{}, false
	}
	if indexOf(pool, fragment) >= 0 {
		return PoolLocation, true
	}
	for _, q := range c.ordered {
		if q.SectionName != section || q.Type != model.QuestionTypeWritten {
			continue
		}
		if c.answers[q.Key()].Contains(fragment) {
			return Location{QuestionID: q.ID}, true
		}
	}
	return Location{}, false
}

func (c *Controller) missingKeysLocked() []string {
	var missing []string
	for _, q := range c.ordered {
		if c.answers[q.Key()].IsEmpty() {
			missing = append(missing, q.Key())
		}
	}
	return missing
}

func (c *Controller) flagListLocked() []int {
	ids := make([]int, 0, len(c.flags))
	for id := range c.flags {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (c *Controller) closeLocked() {
	c.stopTimerLocked()
	c.closed = true
}

func (c *Controller) emit(ev Event) {
	c.mu.Lock()
	l := c.listener
	c.mu.Unlock()
	if l != nil {
		l(ev)
	}
}

func hasOption(q model.Question, v string) bool {
	for _, o := range q.Options {
		if o.Text == v {
			return true
		}
	}
	return false
}
