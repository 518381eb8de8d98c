package services

import (
    "errors"

    "pawmi-triage-backend/models"
)

var ErrInvalidTransition = errors.New("invalid sequencer transition")

// NoNextQuestion is returned by FindNextQuestionIndex when the scan runs off
// the end of the catalog.
const NoNextQuestion = -1

// FindNextQuestionIndex returns the first index >= start whose question
// applies to flags, or NoNextQuestion.
func FindNextQuestionIndex(questions []models.GuidedQuestion, start int, flags models.FlagSet) int {
    if start < 0 {
        start = 0
    }
    for i := start; i < len(questions); i++ {
        if questions[i].ShouldAsk(flags) {
            return i
        }
    }
    return NoNextQuestion
}

// Step is the outcome of a sequencer transition: either the next question
// to ask or completion.
type Step struct {
    Index    int
    Question *models.GuidedQuestion
    Complete bool
}

// QuestionSequencer walks the catalog forward only. An index that has been
// passed, answered or skipped, is never revisited within the session.
type QuestionSequencer struct {
    questions []models.GuidedQuestion
    state     models.SequencerState
    index     int
}

func NewQuestionSequencer(questions []models.GuidedQuestion) *QuestionSequencer {
    return &QuestionSequencer{
        questions: questions,
        state:     models.StateNotStarted,
        index:     NoNextQuestion,
    }
}

func (s *QuestionSequencer) State() models.SequencerState {
    return s.state
}

// Current returns the question awaiting an answer.
func (s *QuestionSequencer) Current() (models.GuidedQuestion, bool) {
    if s.state != models.StateAwaitingAnswer {
        return models.GuidedQuestion{}, false
    }
    return s.questions[s.index], true
}

// Start performs NotStarted -> AwaitingAnswer(i) or NotStarted -> Complete.
func (s *QuestionSequencer) Start(flags models.FlagSet) (Step, error) {
    if s.state != models.StateNotStarted {
        return Step{}, ErrInvalidTransition
    }
    return s.scanFrom(0, flags), nil
}

// Advance moves past the current question after its answer (or skip) has
// been applied to flags.
func (s *QuestionSequencer) Advance(flags models.FlagSet) (Step, error) {
    if s.state != models.StateAwaitingAnswer {
        return Step{}, ErrInvalidTransition
    }
    return s.scanFrom(s.index+1, flags), nil
}

func (s *QuestionSequencer) scanFrom(start int, flags models.FlagSet) Step {
    next := FindNextQuestionIndex(s.questions, start, flags)
    if next == NoNextQuestion {
        s.state = models.StateComplete
        s.index = NoNextQuestion
        return Step{Index: NoNextQuestion, Complete: true}
    }
    s.state = models.StateAwaitingAnswer
    s.index = next
    q := s.questions[next]
    return Step{Index: next, Question: &q}
}
