package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/acadops/tuition-api/internal/dto"
	"github.com/acadops/tuition-api/internal/models"
	appErrors "github.com/acadops/tuition-api/pkg/errors"
)

type classCatalogReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Class, error)
}

type closureCalendarReader interface {
	ListInRange(ctx context.Context, classID string, from, to time.Time) ([]models.ClosureDay, error)
}

type rosterReader interface {
	IsEnrolled(ctx context.Context, studentID, classID string) (bool, error)
	FindStudent(ctx context.Context, id string) (*models.Student, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// PlannerConfig governs session retention and generation bounds.
type PlannerConfig struct {
	SessionTTL      time.Duration
	ScanHorizonDays int
	CacheTTL        time.Duration
}

// PlannerService orchestrates session planning: it owns the per-plan state
// (segment states, overrides, generated segments) and serialises access to it.
// Regeneration runs are version-stamped; a run whose stamp has been superseded
// discards its output instead of publishing it.
type PlannerService struct {
	classes   classCatalogReader
	closures  closureCalendarReader
	roster    rosterReader
	ledger    ledgerContinuityReader
	cache     catalogCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       PlannerConfig
	store     *planStore
}

// NewPlannerService wires planner dependencies.
func NewPlannerService(
	classes classCatalogReader,
	closures closureCalendarReader,
	roster rosterReader,
	ledger ledgerContinuityReader,
	cache catalogCache,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg PlannerConfig,
) *PlannerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	if cfg.ScanHorizonDays <= 0 {
		cfg.ScanHorizonDays = defaultScanHorizonDays
	}
	return &PlannerService{
		classes:   classes,
		closures:  closures,
		roster:    roster,
		ledger:    ledger,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		store:     newPlanStore(cfg.SessionTTL),
	}
}

// Regenerate rebuilds all class segments for the plan's current selection.
// The returned response carries Stale=true (and no segments) when a newer run
// superseded this one before it could publish.
func (s *PlannerService) Regenerate(ctx context.Context, req dto.RegeneratePlanRequest) (*dto.PlanResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid regenerate payload")
	}
	period := models.BillingPeriod{Year: req.Year, Month: time.Month(req.Month)}
	if !period.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid billing period")
	}

	session := s.store.Open(req.PlanID)

	run, err := s.prepareRun(session, period, req)
	if err != nil {
		return nil, err
	}

	segments, names, err := s.buildSegments(ctx, run)
	if err != nil {
		// A superseded run's error is discarded exactly like its output
		// would be; only the latest run may surface a failure. Previously
		// published segments stay untouched either way.
		if resp := s.discardIfSuperseded(session, run); resp != nil {
			return resp, nil
		}
		return nil, err
	}

	return s.publish(session, run, segments, names), nil
}

// regenRun captures everything one regeneration needs outside the session lock.
type regenRun struct {
	stamp     uint64
	period    models.BillingPeriod
	selection []dto.StudentSelection
	classIDs  []string
	states    map[string]models.SegmentState
}

func (s *PlannerService) prepareRun(session *planSession, period models.BillingPeriod, req dto.RegeneratePlanRequest) (*regenRun, error) {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.hasPeriod && session.period != period {
		// Manual pins and manual overrides do not survive a period switch.
		for _, state := range session.states {
			state.ResetManual()
		}
		session.overrides.Reset()
	}
	session.period = period
	session.hasPeriod = true
	session.selection = dedupeSelection(req.Selection)

	selected := make(map[string]bool)
	for _, pair := range session.selection {
		selected[pair.ClassID] = true
	}
	for classID := range selected {
		if _, ok := session.states[classID]; !ok {
			session.states[classID] = &models.SegmentState{}
		}
	}
	for classID := range session.states {
		if !selected[classID] {
			delete(session.states, classID)
		}
	}

	for _, override := range req.StartOverrides {
		state, ok := session.states[override.ClassID]
		if !ok {
			continue
		}
		date, err := time.Parse(models.DateLayout, override.Date)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid start override for class %s", override.ClassID))
		}
		state.StartDate = dateOnly(date)
		state.IsManualStartDate = true
	}
	for _, override := range req.EndOverrides {
		state, ok := session.states[override.ClassID]
		if !ok {
			continue
		}
		date, err := time.Parse(models.DateLayout, override.Date)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid end override for class %s", override.ClassID))
		}
		state.EndDate = dateOnly(date)
		state.IsManualEndDate = true
	}
	for _, classID := range req.AutoStart {
		if state, ok := session.states[classID]; ok {
			state.IsManualStartDate = false
		}
	}
	for _, classID := range req.AutoEnd {
		if state, ok := session.states[classID]; ok {
			state.IsManualEndDate = false
		}
	}

	session.version++
	run := &regenRun{
		stamp:     session.version,
		period:    period,
		selection: session.selection,
		states:    make(map[string]models.SegmentState, len(session.states)),
	}
	for classID, state := range session.states {
		run.classIDs = append(run.classIDs, classID)
		run.states[classID] = *state
	}
	sort.Strings(run.classIDs)
	return run, nil
}

// buildSegments performs the external lookups and generation for one run.
// Classes are processed strictly one after another; each class's generation
// is independent of the others.
func (s *PlannerService) buildSegments(ctx context.Context, run *regenRun) ([]models.ClassSessionSegment, map[string]string, error) {
	names, err := s.validateSelection(ctx, run.selection)
	if err != nil {
		return nil, nil, err
	}

	classes, err := s.loadClasses(ctx, run.classIDs)
	if err != nil {
		return nil, nil, err
	}

	segments := make([]models.ClassSessionSegment, 0, len(run.classIDs))
	for _, classID := range run.classIDs {
		class, ok := classes[classID]
		if !ok {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("class %s not found", classID))
		}
		state := run.states[classID]

		start, prevEnd, err := resolveContinuity(ctx, s.ledger, classID, run.period)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve segment continuity")
		}
		state.PreviousEndDate = prevEnd
		if !state.IsManualStartDate {
			state.StartDate = start
		}

		closureUntil := state.StartDate.AddDate(0, 0, s.cfg.ScanHorizonDays)
		if state.IsManualEndDate {
			closureUntil = state.EndDate
		}
		closures, err := s.loadClosures(ctx, classID, state.StartDate, closureUntil)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load closure calendar")
		}

		segment := buildSegment(&class, &state, closures, s.cfg.ScanHorizonDays)
		run.states[classID] = state
		segments = append(segments, *segment)
	}
	return segments, names, nil
}

func (s *PlannerService) publish(session *planSession, run *regenRun, segments []models.ClassSessionSegment, names map[string]string) *dto.PlanResponse {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.version != run.stamp {
		// A newer run was issued while this one was in flight. Its external
		// calls completed; only the publication is suppressed.
		return s.staleResponseLocked(session, run)
	}

	hadSegments := len(session.segments) > 0
	session.segments = segments
	for classID, state := range run.states {
		if live, ok := session.states[classID]; ok {
			*live = state
		}
	}
	for id, name := range names {
		session.studentNames[id] = name
	}
	session.published = run.stamp
	session.touch()

	s.metrics.RecordPlanRun(false)

	resp := s.viewLocked(session)
	if !hadSegments && len(segments) > 0 {
		// UI hint: scroll the calendar to the first segment's month.
		scrollTo := time.Date(segments[0].StartDate.Year(), segments[0].StartDate.Month(), 1, 0, 0, 0, 0, time.UTC)
		resp.ScrollTo = &scrollTo
	}
	return resp
}

// discardIfSuperseded returns the stale response when a newer run consumed
// the session while this one was in flight, nil otherwise.
func (s *PlannerService) discardIfSuperseded(session *planSession, run *regenRun) *dto.PlanResponse {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.version == run.stamp {
		return nil
	}
	return s.staleResponseLocked(session, run)
}

func (s *PlannerService) staleResponseLocked(session *planSession, run *regenRun) *dto.PlanResponse {
	s.metrics.RecordPlanRun(true)
	s.logger.Debug("discarding stale plan run",
		zap.String("plan_id", session.id),
		zap.Uint64("stamp", run.stamp),
		zap.Uint64("latest", session.version))
	return &dto.PlanResponse{PlanID: session.id, Version: run.stamp, Stale: true}
}

// ToggleDate layers one manual edit on the current plan. It never triggers
// regeneration; the override sets are applied as an overlay at view and
// commit time.
func (s *PlannerService) ToggleDate(ctx context.Context, planID string, req dto.ToggleDateRequest) (*dto.PlanResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid toggle payload")
	}
	session, ok := s.store.Get(planID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrPlanExpired, "")
	}
	date, err := time.Parse(models.DateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date")
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	outcome, err := session.overrides.Toggle(dateOnly(date), req.ClassID, session.segments)
	if err != nil {
		return nil, err
	}
	session.touch()
	s.logger.Debug("toggled plan date",
		zap.String("plan_id", session.id),
		zap.String("date", req.Date),
		zap.String("outcome", string(outcome)))
	return s.viewLocked(session), nil
}

// GetPlan returns the current overlayed view of a planning session.
func (s *PlannerService) GetPlan(ctx context.Context, planID string) (*dto.PlanResponse, error) {
	session, ok := s.store.Get(planID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrPlanExpired, "")
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return s.viewLocked(session), nil
}

// Plans materialises one StudentMonthlyPlan per selected (student, class)
// pair with the override overlay already applied, ready for the commit engine.
func (s *PlannerService) Plans(ctx context.Context, planID string) ([]models.StudentMonthlyPlan, error) {
	session, ok := s.store.Get(planID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrPlanExpired, "")
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	if len(session.selection) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptySelection, "")
	}

	overlaid := applyOverrides(session.segments, session.overrides)
	byClass := make(map[string]models.ClassSessionSegment, len(overlaid))
	for _, segment := range overlaid {
		byClass[segment.ClassID] = segment
	}

	plans := make([]models.StudentMonthlyPlan, 0, len(session.selection))
	for _, pair := range session.selection {
		segment, ok := byClass[pair.ClassID]
		if !ok {
			continue
		}
		plans = append(plans, models.StudentMonthlyPlan{
			StudentID:   pair.StudentID,
			StudentName: session.studentNames[pair.StudentID],
			ClassID:     pair.ClassID,
			ClassName:   segment.ClassName,
			Segments:    []models.ClassSessionSegment{segment},
		})
	}
	sort.Slice(plans, func(i, j int) bool {
		if plans[i].StudentID == plans[j].StudentID {
			return plans[i].ClassID < plans[j].ClassID
		}
		return plans[i].StudentID < plans[j].StudentID
	})
	return plans, nil
}

// ClassDetail returns one class with its schedule rules, serving a cached
// copy when available.
func (s *PlannerService) ClassDetail(ctx context.Context, id string) (*models.Class, error) {
	var cached models.Class
	if s.cache != nil && s.cache.Get(ctx, classCacheKey(id), &cached) == nil {
		s.metrics.RecordCacheLookup(true)
		return &cached, nil
	}
	s.metrics.RecordCacheLookup(false)
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("class %s not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, classCacheKey(id), class, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("failed to cache class", zap.String("class_id", id), zap.Error(err))
		}
	}
	return class, nil
}

// InvalidateCatalog drops cached catalog entries for a class after its
// configuration or closure calendar changed upstream.
func (s *PlannerService) InvalidateCatalog(ctx context.Context, classID string) error {
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("class %s not found", classID))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if s.cache == nil {
		return nil
	}
	for _, pattern := range []string{classCacheKey(classID), closureCachePattern(classID)} {
		if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate catalog cache")
		}
	}
	s.logger.Info("catalog cache invalidated", zap.String("class_id", classID))
	return nil
}

func (s *PlannerService) validateSelection(ctx context.Context, selection []dto.StudentSelection) (map[string]string, error) {
	names := make(map[string]string, len(selection))
	for _, pair := range selection {
		enrolled, err := s.roster.IsEnrolled(ctx, pair.StudentID, pair.ClassID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate selection")
		}
		if !enrolled {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is not enrolled in class %s", pair.StudentID, pair.ClassID))
		}
		if _, ok := names[pair.StudentID]; ok {
			continue
		}
		student, err := s.roster.FindStudent(ctx, pair.StudentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
		names[pair.StudentID] = student.Name
	}
	return names, nil
}

func (s *PlannerService) loadClasses(ctx context.Context, ids []string) (map[string]models.Class, error) {
	result := make(map[string]models.Class, len(ids))
	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		var cached models.Class
		if s.cache != nil && s.cache.Get(ctx, classCacheKey(id), &cached) == nil {
			s.metrics.RecordCacheLookup(true)
			result[cached.ID] = cached
			continue
		}
		s.metrics.RecordCacheLookup(false)
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return result, nil
	}
	classes, err := s.classes.ListByIDs(ctx, missing)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class catalog")
	}
	for _, class := range classes {
		result[class.ID] = class
		if s.cache != nil {
			if err := s.cache.Set(ctx, classCacheKey(class.ID), class, s.cfg.CacheTTL); err != nil {
				s.logger.Warn("failed to cache class", zap.String("class_id", class.ID), zap.Error(err))
			}
		}
	}
	return result, nil
}

func (s *PlannerService) loadClosures(ctx context.Context, classID string, from, to time.Time) ([]models.ClosureDay, error) {
	key := closureCacheKey(classID, from, to)
	var cached []models.ClosureDay
	if s.cache != nil && s.cache.Get(ctx, key, &cached) == nil {
		s.metrics.RecordCacheLookup(true)
		return cached, nil
	}
	s.metrics.RecordCacheLookup(false)
	closures, err := s.closures.ListInRange(ctx, classID, from, to)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, closures, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("failed to cache closures", zap.String("class_id", classID), zap.Error(err))
		}
	}
	return closures, nil
}

func (s *PlannerService) viewLocked(session *planSession) *dto.PlanResponse {
	overlaid := applyOverrides(session.segments, session.overrides)
	added := make(map[string]string, len(session.overrides.Added))
	for key, classID := range session.overrides.Added {
		added[key] = classID
	}
	return &dto.PlanResponse{
		PlanID:   session.id,
		Version:  session.published,
		Year:     session.period.Year,
		Month:    int(session.period.Month),
		Segments: overlaid,
		Summary:  buildSummary(session.selection, session.studentNames, overlaid),
		Excluded: session.overrides.ExcludedKeys(),
		Added:    added,
	}
}

// buildSummary recomputes the exact per-student fee from the overlayed
// segments. Rounding is half-up and applied once, at each student's total.
func buildSummary(selection []dto.StudentSelection, names map[string]string, segments []models.ClassSessionSegment) dto.FeeSummary {
	byClass := make(map[string]models.ClassSessionSegment, len(segments))
	for _, segment := range segments {
		byClass[segment.ClassID] = segment
	}

	totals := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	order := make([]string, 0, len(selection))
	for _, pair := range selection {
		segment, ok := byClass[pair.ClassID]
		if !ok {
			continue
		}
		if _, seen := totals[pair.StudentID]; !seen {
			order = append(order, pair.StudentID)
		}
		billable := segment.BillableCount()
		counts[pair.StudentID] += billable
		totals[pair.StudentID] = totals[pair.StudentID].Add(segment.PerSessionFee.Mul(decimal.NewFromInt(int64(billable))))
	}

	summary := dto.FeeSummary{Students: make([]dto.StudentFee, 0, len(order))}
	for _, studentID := range order {
		total := totals[studentID].Round(0)
		summary.Students = append(summary.Students, dto.StudentFee{
			StudentID:   studentID,
			StudentName: names[studentID],
			Sessions:    counts[studentID],
			Total:       total,
		})
		summary.GrandTotal = summary.GrandTotal.Add(total)
	}
	sort.Slice(summary.Students, func(i, j int) bool {
		return summary.Students[i].StudentID < summary.Students[j].StudentID
	})
	return summary
}

func dedupeSelection(selection []dto.StudentSelection) []dto.StudentSelection {
	seen := make(map[string]bool, len(selection))
	result := make([]dto.StudentSelection, 0, len(selection))
	for _, pair := range selection {
		key := pair.StudentID + "|" + pair.ClassID
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, pair)
	}
	return result
}

func classCacheKey(classID string) string {
	return "catalog:class:" + classID
}

func closureCacheKey(classID string, from, to time.Time) string {
	return fmt.Sprintf("catalog:closures:%s:%s:%s", classID, models.DateKey(from), models.DateKey(to))
}

func closureCachePattern(classID string) string {
	return "catalog:closures:" + classID + ":*"
}

// --- Planning session store ---

type planSession struct {
	mu           sync.Mutex
	id           string
	period       models.BillingPeriod
	hasPeriod    bool
	selection    []dto.StudentSelection
	studentNames map[string]string
	states       map[string]*models.SegmentState
	overrides    *Overrides
	segments     []models.ClassSessionSegment
	version      uint64
	published    uint64
	touched      time.Time
}

func (p *planSession) touch() {
	p.touched = time.Now()
}

type planStore struct {
	ttl   time.Duration
	mu    sync.Mutex
	items map[string]*planSession
}

func newPlanStore(ttl time.Duration) *planStore {
	return &planStore{
		ttl:   ttl,
		items: make(map[string]*planSession),
	}
}

// Open returns the session for id, creating a fresh one when id is empty or
// unknown (an expired plan simply restarts as a new session on regenerate).
func (s *planStore) Open(id string) *planSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		if session, ok := s.items[id]; ok && time.Since(session.touched) <= s.ttl {
			session.touched = time.Now()
			return session
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	session := &planSession{
		id:           id,
		studentNames: make(map[string]string),
		states:       make(map[string]*models.SegmentState),
		overrides:    NewOverrides(),
		touched:      time.Now(),
	}
	s.items[id] = session
	return session
}

func (s *planStore) Get(id string) (*planSession, bool) {
	s.mu.Lock()
	session, ok := s.items[id]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	if time.Since(session.touched) > s.ttl {
		s.Delete(id)
		return nil, false
	}
	return session, true
}

func (s *planStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
