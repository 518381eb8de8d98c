package services

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "sync"
    "time"

    "github.com/google/uuid"
    "go.uber.org/zap"

    "pawmi-triage-backend/config"
    "pawmi-triage-backend/models"
    "pawmi-triage-backend/utils"
)

var (
    ErrNoPetSelected      = errors.New("no pet selected")
    ErrAnalysisInProgress = errors.New("prediction already in progress")
    ErrEmptyMessage       = errors.New("empty message")
    ErrNoRetryAvailable   = errors.New("no failed prediction to retry")
)

const (
    welcomeText        = "¡Hola! 👋 Soy tu asistente veterinario virtual 💙\n\nEstoy aquí para ayudarte a cuidar de tu pelud@ 🐾\n\n✨ Selecciona quién necesita atención:"
    selectPetFirstText = "⚠️ Por favor, selecciona primero la mascota que necesita atención."
    clarificationText  = "No pasa nada 😊 Solo necesito que me respondas con \"sí\" o \"no\". También puedes decir \"saltar\" si no estás segur@."
    newCaseText        = "Perfecto, cuéntame qué síntomas ves para comenzar una nueva evaluación."
    unclearText        = "Si deseas iniciar un nuevo caso describe al menos un síntoma principal o toca \"Limpiar chat\"."
    predictionErrText  = "😔 Ups, algo no salió bien... No te preocupes, vamos a intentarlo de nuevo juntos 💪\n\nResponde \"reintentar\" para volver a analizar lo que ya me contaste, o cuéntame de nuevo los síntomas cuando quieras."
)

// MessageSink receives every message a conversation emits, in order.
type MessageSink interface {
    Deliver(msg models.ChatMessage)
}

// SinkFunc adapts a function to MessageSink.
type SinkFunc func(models.ChatMessage)

func (f SinkFunc) Deliver(msg models.ChatMessage) { f(msg) }

// Pacing holds the delays used to stagger bot messages.
type Pacing struct {
    Intro    time.Duration
    Prompt   time.Duration
    Question time.Duration
    Clarify  time.Duration
}

func PacingFromConfig(tc config.TriageConfig) Pacing {
    return Pacing{
        Intro:    tc.IntroDelay,
        Prompt:   tc.PromptDelay,
        Question: tc.QuestionDelay,
        Clarify:  tc.ClarifyDelay,
    }
}

// Session is the mutable state of one triage run. Only the Orchestrator
// that created it reads or writes it.
type Session struct {
    Generation       uint64
    Pet              models.Pet
    Flags            models.FlagSet
    Sequencer        *QuestionSequencer
    Guided           bool
    Transcript       []string
    Analyzing        bool
    PredictionFailed bool
}

func (s *Session) log(format string, args ...interface{}) {
    s.Transcript = append(s.Transcript, fmt.Sprintf(format, args...))
}

// TriageDeps bundles what an Orchestrator needs. Catalog-derived helpers
// are shared between conversations; they hold no per-session state.
type TriageDeps struct {
    Catalog    *models.Catalog
    Detector   *utils.SymptomDetector
    Classifier *utils.IntentClassifier
    Builder    *PayloadBuilder
    Predictor  Predictor
    Scheduler  Scheduler
    Pacing     Pacing
    Logger     *zap.Logger
}

// NewTriageDeps derives the shared helpers from a catalog.
func NewTriageDeps(catalog *models.Catalog, predictor Predictor, scheduler Scheduler, pacing Pacing, logger *zap.Logger) TriageDeps {
    return TriageDeps{
        Catalog:    catalog,
        Detector:   utils.NewSymptomDetector(catalog),
        Classifier: utils.NewIntentClassifier(catalog),
        Builder:    NewPayloadBuilder(catalog.SymptomKeys),
        Predictor:  predictor,
        Scheduler:  scheduler,
        Pacing:     pacing,
        Logger:     logger,
    }
}

// Orchestrator drives the guided triage conversation for one chat. Every
// entry point, including scheduled deliveries and prediction callbacks,
// runs under mu, so session state has a single writer at a time.
type Orchestrator struct {
    mu             sync.Mutex
    conversationID string
    deps           TriageDeps
    sink           MessageSink
    logger         *zap.Logger

    generation       uint64
    session          *Session
    cancelPrediction context.CancelFunc
}

func NewOrchestrator(conversationID string, deps TriageDeps, sink MessageSink) *Orchestrator {
    logger := deps.Logger
    if logger == nil {
        logger = zap.NewNop()
    }
    return &Orchestrator{
        conversationID: conversationID,
        deps:           deps,
        sink:           sink,
        logger:         logger.With(zap.String("conversation_id", conversationID)),
    }
}

// Generation returns the current generation id.
func (o *Orchestrator) Generation() uint64 {
    o.mu.Lock()
    defer o.mu.Unlock()
    return o.generation
}

// Welcome emits the greeting shown before a pet is chosen.
func (o *Orchestrator) Welcome() {
    o.mu.Lock()
    defer o.mu.Unlock()
    o.scheduleBot(0, models.KindWelcome, welcomeText, "", nil)
}

// SelectPet begins a fresh session for pet, discarding whatever the
// previous session was doing.
func (o *Orchestrator) SelectPet(pet models.Pet) {
    o.mu.Lock()
    defer o.mu.Unlock()

    o.supersede()
    o.session = &Session{Generation: o.generation, Pet: pet, Flags: models.FlagSet{}}
    o.logger.Info("pet selected", zap.String("pet_id", pet.ID), zap.Uint64("generation", o.generation))

    o.emitUser(fmt.Sprintf("Seleccioné a %s 🐾", pet.Name))
    prompt := fmt.Sprintf("¡Perfecto! 💙 Ahora cuéntame con tus propias palabras, ¿qué síntomas has notado en %s?\n\n✨ Por ejemplo: \"tiene fiebre, no quiere comer y está muy decaído\"\n\n(No te preocupes, luego te haré algunas preguntitas más específicas)", pet.Name)
    o.scheduleBot(o.deps.Pacing.Prompt, models.KindNormal, prompt, "", nil)
}

// Clear drops the session and pet selection and greets again.
func (o *Orchestrator) Clear() {
    o.mu.Lock()
    defer o.mu.Unlock()

    o.supersede()
    o.session = nil
    o.logger.Info("conversation cleared", zap.Uint64("generation", o.generation))
    o.scheduleBot(0, models.KindWelcome, welcomeText, "", nil)
}

// Close cancels pending work without emitting anything.
func (o *Orchestrator) Close() {
    o.mu.Lock()
    defer o.mu.Unlock()
    o.supersede()
    o.session = nil
}

// StartTriage resets the session for pet and begins the guided flow from
// complaint.
func (o *Orchestrator) StartTriage(complaint string, pet models.Pet) error {
    o.mu.Lock()
    defer o.mu.Unlock()

    complaint = strings.TrimSpace(complaint)
    if complaint == "" {
        return ErrEmptyMessage
    }
    o.startTriage(complaint, pet)
    return nil
}

// SubmitReply handles one message typed by the owner.
func (o *Orchestrator) SubmitReply(raw string) error {
    o.mu.Lock()
    defer o.mu.Unlock()

    text := strings.TrimSpace(raw)
    if text == "" {
        return ErrEmptyMessage
    }

    s := o.session
    if s == nil {
        o.scheduleBot(0, models.KindError, selectPetFirstText, "", nil)
        return ErrNoPetSelected
    }
    if s.Analyzing {
        return ErrAnalysisInProgress
    }

    o.emitUser(text)

    if s.Guided && s.Sequencer.State() == models.StateAwaitingAnswer {
        o.handleGuidedReply(s, text)
        return nil
    }

    switch o.deps.Classifier.ClassifyMessage(text) {
    case models.IntentRetry:
        if s.PredictionFailed {
            s.log("Usuario: %s", text)
            o.requestPrediction(s)
            return nil
        }
        o.scheduleBot(o.deps.Pacing.Clarify, models.KindNormal, unclearText, "", nil)
    case models.IntentNewCase:
        o.scheduleBot(o.deps.Pacing.Clarify, models.KindNormal, newCaseText, "", nil)
    case models.IntentSymptomReport:
        o.startTriage(text, s.Pet)
    default:
        o.scheduleBot(o.deps.Pacing.Clarify, models.KindNormal, unclearText, "", nil)
    }
    return nil
}

// RetryPrediction re-issues a failed prediction with the flags already
// collected, without asking anything again.
func (o *Orchestrator) RetryPrediction() error {
    o.mu.Lock()
    defer o.mu.Unlock()

    s := o.session
    switch {
    case s == nil:
        return ErrNoPetSelected
    case s.Analyzing:
        return ErrAnalysisInProgress
    case !s.PredictionFailed:
        return ErrNoRetryAvailable
    }
    o.requestPrediction(s)
    return nil
}

// Snapshot returns a copy of the session state for readers.
func (o *Orchestrator) Snapshot() models.SessionSnapshot {
    o.mu.Lock()
    defer o.mu.Unlock()

    snap := models.SessionSnapshot{
        ConversationID: o.conversationID,
        Generation:     o.generation,
        State:          models.StateNotStarted,
        Flags:          models.FlagSet{},
    }
    s := o.session
    if s == nil {
        return snap
    }
    pet := s.Pet
    snap.Pet = &pet
    snap.Flags = s.Flags.Clone()
    snap.Guided = s.Guided
    snap.Analyzing = s.Analyzing
    snap.CanRetry = s.PredictionFailed && !s.Analyzing
    snap.Transcript = append([]string(nil), s.Transcript...)
    if s.Sequencer != nil {
        snap.State = s.Sequencer.State()
        if q, ok := s.Sequencer.Current(); ok {
            snap.CurrentQuestion = &q
        }
    }
    return snap
}

// supersede bumps the generation, which is the only cancellation
// primitive: pending deliveries and in-flight predictions of the old
// generation turn into no-ops. Caller holds mu.
func (o *Orchestrator) supersede() {
    o.deps.Scheduler.CancelGeneration(o.generation)
    if o.cancelPrediction != nil {
        o.cancelPrediction()
        o.cancelPrediction = nil
    }
    o.generation++
}

func (o *Orchestrator) startTriage(complaint string, pet models.Pet) {
    o.supersede()

    s := &Session{
        Generation: o.generation,
        Pet:        pet,
        Flags:      o.deps.Detector.Detect(complaint),
        Sequencer:  NewQuestionSequencer(o.deps.Catalog.Questions),
        Guided:     true,
    }
    o.session = s
    o.logger.Info("triage started",
        zap.Uint64("generation", s.Generation),
        zap.Any("detected", s.Flags),
    )

    s.log("Mascota: %s (%s)", pet.Name, pet.DisplaySpecies())
    s.log("Usuario: %s", complaint)

    intro := fmt.Sprintf("Perfecto, entiendo 🤗\n\nAhora déjame hacerte algunas preguntitas más específicas para ayudar mejor a %s. Son rápidas, solo unos minutos 💬\n\n✅ Responde: \"sí\", \"no\" o \"saltar\" (si no estás segur@)", pet.Name)
    s.log("Bot: %s", intro)
    o.scheduleBot(o.deps.Pacing.Intro, models.KindNormal, intro, "", nil)

    step, err := s.Sequencer.Start(s.Flags)
    if err != nil {
        o.logger.Error("sequencer refused to start", zap.Error(err))
        return
    }
    o.handleStep(s, step)
}

func (o *Orchestrator) handleGuidedReply(s *Session, text string) {
    q, _ := s.Sequencer.Current()
    s.log("Usuario: %s", text)

    if o.deps.Classifier.IsSkip(text) {
        s.log("Usuario saltó %s", q.ID)
        o.advance(s)
        return
    }

    switch q.Type {
    case models.AnswerYesNo:
        intent := o.deps.Classifier.ClassifyReply(text)
        if intent == models.ReplyIndeterminate {
            s.log("Bot: Solicité aclaración para %s", q.ID)
            o.scheduleBot(o.deps.Pacing.Clarify, models.KindClarification, clarificationText, q.ID, nil)
            return
        }
        value, label := 0, "no"
        if intent == models.ReplyAffirmative {
            value, label = 1, "sí"
        }
        for _, k := range q.Keys {
            s.Flags.Set(k, value)
        }
        s.log("Registro %s: %s", q.ID, label)
    case models.AnswerFreeForm:
        if utils.Normalize(text) != "" && !o.deps.Classifier.IsNegativeKeyword(text) {
            s.log("Detalle adicional: %s", text)
        }
    }
    o.advance(s)
}

func (o *Orchestrator) advance(s *Session) {
    step, err := s.Sequencer.Advance(s.Flags)
    if err != nil {
        o.logger.Error("sequencer refused to advance", zap.Error(err))
        return
    }
    o.handleStep(s, step)
}

func (o *Orchestrator) handleStep(s *Session, step Step) {
    if step.Complete {
        o.requestPrediction(s)
        return
    }
    s.log("Bot: %s", step.Question.Prompt)
    o.scheduleBot(o.deps.Pacing.Question, models.KindQuestion, step.Question.Prompt, step.Question.ID, nil)
}

// requestPrediction issues exactly one outbound call tagged with the
// session's generation. Caller holds mu.
func (o *Orchestrator) requestPrediction(s *Session) {
    if s.Analyzing {
        return
    }
    s.Guided = false
    s.Analyzing = true
    s.PredictionFailed = false

    analyzing := fmt.Sprintf("Perfecto 💙\n\nDéjame analizar con cuidado todo lo que me contaste sobre %s... 🔍💭", s.Pet.Name)
    s.log("Bot: %s", analyzing)
    o.scheduleBot(0, models.KindNormal, analyzing, "", nil)

    payload := o.deps.Builder.Build(s.Pet, s.Flags)
    generation := s.Generation

    ctx, cancel := context.WithCancel(context.Background())
    o.cancelPrediction = cancel

    o.logger.Info("requesting prediction", zap.Uint64("generation", generation))
    go func() {
        result, err := o.deps.Predictor.Predict(ctx, payload)
        o.completePrediction(generation, result, err)
    }()
}

func (o *Orchestrator) completePrediction(generation uint64, result *models.PredictionResult, err error) {
    o.mu.Lock()
    defer o.mu.Unlock()

    s := o.session
    if s == nil || generation != o.generation || s.Generation != generation {
        o.logger.Debug("dropping stale prediction",
            zap.Uint64("generation", generation),
            zap.Uint64("current", o.generation),
        )
        return
    }
    if o.cancelPrediction != nil {
        o.cancelPrediction()
        o.cancelPrediction = nil
    }
    s.Analyzing = false

    if err != nil {
        o.logger.Error("prediction failed", zap.Uint64("generation", generation), zap.Error(err))
        s.PredictionFailed = true
        s.log("Bot: Error en predicción")
        o.scheduleBot(0, models.KindError, predictionErrText, "", nil)
        return
    }

    urgency := utils.AssessUrgency(s.Flags, o.deps.Catalog.SymptomKeys)
    diagnosis := &models.DiagnosisData{
        Predictions:      result.Predictions,
        SymptomsDetected: s.Flags.Clone(),
        Urgency:          urgency,
        ModelVersion:     result.ModelVersion,
    }
    s.log("Bot: Predicción completada")
    o.scheduleBot(0, models.KindDiagnosis, FormatDiagnosis(s.Pet.Name, result, urgency), "", diagnosis)
}

// emitUser delivers a user-authored message right away. Caller holds mu.
func (o *Orchestrator) emitUser(text string) {
    o.sink.Deliver(o.newMessage(models.RoleUser, models.KindNormal, text, "", nil))
}

// scheduleBot queues a bot message under the current generation; it is
// dropped if the generation has moved on by the time it fires. Caller
// holds mu.
func (o *Orchestrator) scheduleBot(delay time.Duration, kind models.MessageKind, text, questionID string, diagnosis *models.DiagnosisData) {
    generation := o.generation
    o.deps.Scheduler.Schedule(generation, delay, func() {
        o.mu.Lock()
        defer o.mu.Unlock()
        if o.generation != generation {
            return
        }
        o.sink.Deliver(o.newMessage(models.RoleBot, kind, text, questionID, diagnosis))
    })
}

func (o *Orchestrator) newMessage(role models.MessageRole, kind models.MessageKind, text, questionID string, diagnosis *models.DiagnosisData) models.ChatMessage {
    return models.ChatMessage{
        ID:             uuid.NewString(),
        ConversationID: o.conversationID,
        Generation:     o.generation,
        Role:           role,
        Kind:           kind,
        Text:           text,
        QuestionID:     questionID,
        Diagnosis:      diagnosis,
        Timestamp:      time.Now(),
    }
}
