package service

import (
	"context"
	"errors"
	"html/template"
	"strings"
	"time"

	"parentguide-backend/cache"
	"parentguide-backend/catalog"
	"parentguide-backend/config"
	"parentguide-backend/i18n"
	"parentguide-backend/linker"
	"parentguide-backend/markdown"
	"parentguide-backend/metrics"
	"parentguide-backend/models"
	"parentguide-backend/provider"
	"parentguide-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyQuestion    = errors.New("question is empty")
	ErrQuestionNotFound = errors.New("question log not found")
)

// QuestionLogStore persists question logs.
type QuestionLogStore interface {
	Create(ctx context.Context, log *models.QuestionLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.QuestionLog, error)
}

// GuidanceService answers parents' questions end to end
type GuidanceService struct {
	orchestrator *provider.Orchestrator
	linker       *linker.Linker
	suggestions  *SuggestionService
	cache        *cache.ResponseCache
	logs         QuestionLogStore
	mode         string
	safeMode     bool
	completion   provider.CompletionOptions
}

// GuidanceServiceOption is a functional option for GuidanceService
type GuidanceServiceOption func(*GuidanceService)

// GuidanceWithOrchestrator sets the provider orchestrator
func GuidanceWithOrchestrator(o *provider.Orchestrator) GuidanceServiceOption {
	return func(s *GuidanceService) {
		s.orchestrator = o
	}
}

// GuidanceWithLinker sets the resource linker
func GuidanceWithLinker(l *linker.Linker) GuidanceServiceOption {
	return func(s *GuidanceService) {
		s.linker = l
	}
}

// GuidanceWithSuggestionService sets the resource suggestion service
func GuidanceWithSuggestionService(svc *SuggestionService) GuidanceServiceOption {
	return func(s *GuidanceService) {
		s.suggestions = svc
	}
}

// GuidanceWithResponseCache sets the response cache
func GuidanceWithResponseCache(c *cache.ResponseCache) GuidanceServiceOption {
	return func(s *GuidanceService) {
		s.cache = c
	}
}

// GuidanceWithQuestionLogStore sets the question log repository
func GuidanceWithQuestionLogStore(store QuestionLogStore) GuidanceServiceOption {
	return func(s *GuidanceService) {
		s.logs = store
	}
}

// GuidanceWithMode sets chain or all
func GuidanceWithMode(mode string) GuidanceServiceOption {
	return func(s *GuidanceService) {
		s.mode = mode
	}
}

// GuidanceWithSafeMode strips HTML from provider output before rendering
func GuidanceWithSafeMode(safe bool) GuidanceServiceOption {
	return func(s *GuidanceService) {
		s.safeMode = safe
	}
}

// GuidanceWithCompletionOptions sets max tokens and temperature
func GuidanceWithCompletionOptions(opts provider.CompletionOptions) GuidanceServiceOption {
	return func(s *GuidanceService) {
		s.completion = opts
	}
}

// NewGuidanceService creates a new guidance service
func NewGuidanceService(opts ...GuidanceServiceOption) *GuidanceService {
	s := &GuidanceService{
		mode:       config.ModeChain,
		safeMode:   true,
		completion: provider.CompletionOptions{MaxTokens: 1500, Temperature: 0.4},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.orchestrator == nil {
		s.orchestrator = provider.NewOrchestrator(nil, nil)
	}
	s.completion.System = systemInstruction
	return s
}

// Ask answers one question. Provider failures never surface as an error:
// the envelope then carries success=false with fallback guidance. The only
// error is ErrEmptyQuestion.
func (s *GuidanceService) Ask(ctx context.Context, req models.AskRequest) (*models.Envelope, error) {
	start := time.Now()
	question := normalizeQuestion(req.Question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	lang := i18n.Match(req.Language)
	location := req.UserLocation.String()
	urgency := models.ParseUrgency(string(req.Urgency))
	emergency := DetectEmergency(question)
	if emergency {
		urgency = models.UrgencyEmergency
		metrics.RecordEmergency()
	}
	requestID := uuid.NewString()
	logger := zap.L().With(zap.String("request_id", requestID))

	cat := s.catalog()
	region := ""
	if cat != nil {
		region = cat.ResolveRegion(location)
	}

	var cacheKey string
	if s.cache != nil {
		cacheKey = cache.Key(question+"\x00"+req.Context, lang, location, urgency)
		if env, ok := s.cache.Get(ctx, cacheKey); ok {
			env.RequestID = requestID
			env.Cached = true
			env.Timestamp = time.Now().UTC()
			logger.Debug("answer served from cache")
			return env, nil
		}
	}

	prompt := buildPrompt(question, lang, location, urgency, req.Context)
	outcome, err := s.generate(ctx, prompt)

	var env *models.Envelope
	if err != nil {
		env = s.fallback(lang, region, emergency, outcome, err)
		logger.Error("all providers failed, serving fallback guidance",
			zap.String("language", lang),
			zap.String("region", region),
			zap.Any("errors", outcome.Errors),
			zap.Error(err),
		)
	} else {
		env = s.answer(ctx, outcome, question, req.Context, lang, location, region, urgency, emergency)
		if s.cache != nil {
			if err := s.cache.Set(ctx, cacheKey, env); err != nil {
				logger.Warn("cache write failed", zap.Error(err))
			}
		}
	}
	env.RequestID = requestID

	s.record(ctx, env, region, emergency, time.Since(start))
	logger.Info("question answered",
		zap.Bool("success", env.Success),
		zap.String("language", lang),
		zap.String("region", region),
		zap.Duration("duration", time.Since(start)),
	)
	return env, nil
}

func (s *GuidanceService) catalog() *catalog.Catalog {
	if s.linker == nil {
		return nil
	}
	return s.linker.Catalog()
}

func (s *GuidanceService) generate(ctx context.Context, prompt string) (*provider.Outcome, error) {
	if s.mode == config.ModeAll {
		return s.orchestrator.Collect(ctx, prompt, s.completion)
	}
	return s.orchestrator.Chain(ctx, prompt, s.completion)
}

func (s *GuidanceService) answer(
	ctx context.Context,
	outcome *provider.Outcome,
	question, extra, lang, location, region string,
	urgency models.Urgency,
	emergency bool,
) *models.Envelope {
	labels := sectionLabels(lang)

	body := markdown.Render(outcome.Text, markdown.Options{Safe: s.safeMode})
	enriched := s.linker.Enrich(body, location, question+"\n"+extra, labels)
	body = linker.LinkPhoneNumbers(enriched.HTML)

	env := &models.Envelope{
		Success: true,
		Result: &models.Result{
			MegaResponse:     body,
			RelatedReadings:  RelatedReadings(question, lang),
			ResourcesByLevel: enriched.ByLevel,
			AIUsed:           outcome.Provider,
			Language:         lang,
			UrgencyLevel:     urgency,
		},
		Errors: outcome.Errors,
		DebugInfo: map[string]any{
			"mode":            s.mode,
			"region":          region,
			"county":          enriched.County,
			"resources_total": enriched.Total(),
		},
		Timestamp: time.Now().UTC(),
	}

	if cat := s.catalog(); emergency && cat != nil {
		contacts := cat.EmergencyContacts(region)
		env.EmergencyResources = contacts
		if block := emergencyBlock(lang, contacts); block != "" {
			env.Result.MegaResponse = block + "\n\n" + env.Result.MegaResponse
		}
	}

	if s.suggestions != nil && s.suggestions.Strategy() != config.StrategyOff {
		suggested, err := s.suggestions.Suggest(ctx, question, lang, location, outcome.Excluded)
		if err != nil {
			env.DebugInfo["suggestions_error"] = err.Error()
		}
		env.Result.SuggestedResources = suggested
		env.DebugInfo["suggestion_strategy"] = s.suggestions.Strategy()
	}
	return env
}

// fallback builds the degraded-mode envelope served when no provider
// answered.
func (s *GuidanceService) fallback(lang, region string, emergency bool, outcome *provider.Outcome, cause error) *models.Envelope {
	metrics.RecordFallback()

	var contacts []catalog.Resource
	if cat := s.catalog(); cat != nil {
		contacts = cat.EmergencyContacts(region)
	}

	var b strings.Builder
	b.WriteString(`<div class="fallback-guidance">`)
	b.WriteString("\n<h3>")
	b.WriteString(template.HTMLEscapeString(i18n.T(lang, "fallback_title")))
	b.WriteString("</h3>\n")
	b.WriteString(markdown.Render(i18n.T(lang, "fallback_guidance"), markdown.Options{Safe: true}))
	b.WriteString("\n</div>")
	if block := emergencyBlock(lang, contacts); block != "" {
		b.WriteString("\n\n")
		b.WriteString(block)
	}

	env := &models.Envelope{
		Success:          false,
		Error:            cause.Error(),
		FallbackGuidance: linker.LinkPhoneNumbers(b.String()),
		Timestamp:        time.Now().UTC(),
		DebugInfo:        map[string]any{"mode": s.mode, "region": region},
	}
	if outcome != nil && len(outcome.Errors) > 0 {
		env.Errors = outcome.Errors
	}
	if emergency {
		env.EmergencyResources = contacts
	}
	return env
}

// record writes the question log. Failures are logged only.
func (s *GuidanceService) record(ctx context.Context, env *models.Envelope, region string, emergency bool, elapsed time.Duration) {
	if s.logs == nil {
		return
	}

	entry := &models.QuestionLog{
		RequestID:      env.RequestID,
		Emergency:      emergency,
		Success:        env.Success,
		ProviderErrors: models.ProviderErrors(env.Errors),
		DurationMS:     elapsed.Milliseconds(),
		Language:       i18n.Default,
		Urgency:        models.UrgencyNormal,
	}
	if emergency {
		entry.Urgency = models.UrgencyEmergency
	}
	if region != "" {
		entry.Region = &region
	}
	if r := env.Result; r != nil {
		entry.Language = r.Language
		entry.Urgency = r.UrgencyLevel
		if r.AIUsed != "" {
			used := r.AIUsed
			entry.ProviderUsed = &used
		}
		for _, list := range r.ResourcesByLevel {
			entry.ResourceCount += len(list)
		}
	}

	if err := s.logs.Create(ctx, entry); err != nil {
		zap.L().Warn("question log not saved", zap.String("request_id", env.RequestID), zap.Error(err))
		return
	}
	if env.DebugInfo != nil {
		env.DebugInfo["question_id"] = entry.ID.String()
	}
}

// GetQuestion returns a stored question log.
func (s *GuidanceService) GetQuestion(ctx context.Context, id uuid.UUID) (*models.QuestionLog, error) {
	if s.logs == nil {
		return nil, ErrQuestionNotFound
	}
	log, err := s.logs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return log, nil
}

// MatchResources runs enrichment without an AI call.
func (s *GuidanceService) MatchResources(location, text string) *linker.Result {
	return s.linker.Match("", location, text)
}

// EmergencyContacts returns the crisis contacts for a region code.
func (s *GuidanceService) EmergencyContacts(region string) []catalog.Resource {
	if cat := s.catalog(); cat != nil {
		return cat.EmergencyContacts(region)
	}
	return nil
}

func sectionLabels(lang string) linker.Labels {
	levels := make(map[catalog.Level]string, len(catalog.Levels))
	for _, level := range catalog.Levels {
		levels[level] = i18n.T(lang, "level_"+string(level))
	}
	return linker.Labels{
		Title:       i18n.T(lang, "resources_title"),
		Levels:      levels,
		Phone:       i18n.T(lang, "phone"),
		Eligibility: i18n.T(lang, "eligibility"),
		Footer:      i18n.T(lang, "resources_footer"),
	}
}

func emergencyBlock(lang string, contacts []catalog.Resource) string {
	list := linker.RenderList(i18n.T(lang, "emergency_title"), contacts, sectionLabels(lang))
	if list == "" {
		return ""
	}
	return `<p class="emergency-notice"><strong>` + template.HTMLEscapeString(i18n.T(lang, "emergency_notice")) + "</strong></p>\n" + list
}
