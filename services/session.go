package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/djimmy2web/certifdiag_api/dto"
	"github.com/djimmy2web/certifdiag_api/model"
	"github.com/djimmy2web/certifdiag_api/shared"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
)

// sessionStore is the slice of the data layer the state machine needs.
type sessionStore interface {
	GetQuiz(id string) (*model.Quiz, error)
	GetQuizProgress(userID, quizID string) (*model.QuizProgress, error)
	CreateOrGetQuizProgress(userID, quizID string) (*model.QuizProgress, bool, error)
	ResetQuizProgress(progress *model.QuizProgress) error
	ApplyAnswer(progress *model.QuizProgress, expectedVersion int, side AnswerSideEffects, attempt *model.Attempt) (int, error)
	GetOrCreateUserProgress(userID string) (*model.UserProgress, error)
}

// sessionEvaluators are the side-effect hooks fired on completion and
// resume. Their failures are logged, never surfaced: a submitted answer that
// committed stays committed.
type sessionEvaluators interface {
	OnQuizCompleted(userID, quizID string, score, totalQuestions int)
	OnQuizResumed(userID string)
}

// SessionService drives the per-(user, quiz) quiz session state machine:
// Uncreated -> InProgress -> {Completed, Failed}.
type SessionService struct {
	context.DefaultService

	store      sessionStore
	lives      *LivesService
	badgeSvc   *BadgeService
	questSvc   *QuestService
	evaluators sessionEvaluators
}

const SESSION_SVC = "session_svc"

func (svc SessionService) Id() string {
	return SESSION_SVC
}

func (svc *SessionService) Configure(ctx *context.Context) error {
	svc.store = ctx.Service(POSTGRES_SVC).(*PostgresService)
	svc.lives = ctx.Service(LIVES_SVC).(*LivesService)
	svc.badgeSvc = ctx.Service(BADGE_SVC).(*BadgeService)
	svc.questSvc = ctx.Service(QUEST_SVC).(*QuestService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *SessionService) Start() error {
	return nil
}

func toQuestionResponse(index int, q *model.Question) dto.QuestionResponse {
	choices := make([]dto.ChoiceResponse, len(q.Choices))
	for i, c := range q.Choices {
		// IsCorrect is deliberately dropped here; no response path may leak
		// it.
		choices[i] = dto.ChoiceResponse{
			Index:    i,
			Text:     c.Text,
			MediaURL: c.MediaURL,
		}
	}
	return dto.QuestionResponse{
		Index:       index,
		Text:        q.Text,
		Explanation: q.Explanation,
		MediaURL:    q.MediaURL,
		Choices:     choices,
	}
}

// loadQuestions fetches the quiz and decodes its question array, failing
// loudly on catalog corruption.
func (svc *SessionService) loadQuestions(quizID string) (*model.Quiz, []model.Question, error) {
	quiz, err := svc.store.GetQuiz(quizID)
	if err != nil {
		return nil, nil, shared.NewNotFoundError(err, "Quiz not found")
	}

	questions, err := quiz.ParseQuestions()
	if err != nil {
		return nil, nil, shared.NewInternalError(err, "Quiz catalog entry is corrupted")
	}
	if len(questions) == 0 {
		return nil, nil, shared.NewInternalError(fmt.Errorf("quiz %s has no questions", quizID), "Quiz catalog entry is empty")
	}
	return quiz, questions, nil
}

// StartQuiz opens (or resumes, or restarts) the session for (user, quiz).
// A zero lives pool blocks the start before any mutation.
func (svc *SessionService) StartQuiz(userID, quizID string) (*dto.StartQuizResponse, error) {
	livesState, err := svc.lives.GetLives(userID)
	if err != nil {
		return nil, err
	}
	if !livesState.CanPlay {
		return nil, shared.NewResourceExhaustedError(ErrOutOfLives, "No lives available")
	}

	_, questions, err := svc.loadQuestions(quizID)
	if err != nil {
		return nil, err
	}

	progress, created, err := svc.store.CreateOrGetQuizProgress(userID, quizID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to open session")
	}

	resumed := false
	switch {
	case created:
		// Fresh session, nothing else to do.
	case progress.IsTerminal():
		// Restart: reset the record in place, never delete it.
		if err := svc.store.ResetQuizProgress(progress); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				return nil, shared.NewConflictError(err, "Session was modified concurrently")
			}
			return nil, shared.NewInternalError(err, "Failed to restart session")
		}
	default:
		resumed = true
		svc.evaluatorsOrDefault().OnQuizResumed(userID)
	}

	if progress.CurrentQuestionIndex >= len(questions) {
		// Non-terminal record pointing past the catalog means the stored
		// state and the catalog disagree. Fail loudly, never clamp.
		return nil, shared.NewInternalError(
			fmt.Errorf("session %s index %d exceeds question count %d", progress.ID, progress.CurrentQuestionIndex, len(questions)),
			"Session state is inconsistent with the quiz catalog")
	}

	question := toQuestionResponse(progress.CurrentQuestionIndex, &questions[progress.CurrentQuestionIndex])

	log.WithFields(log.Fields{
		"user_id": userID,
		"quiz_id": quizID,
		"resumed": resumed,
	}).Info("Quiz session started")

	return &dto.StartQuizResponse{
		Progress: dto.SessionProgressResponse{
			Lives:                livesState.Current,
			CurrentQuestionIndex: progress.CurrentQuestionIndex,
			TotalQuestions:       len(questions),
			IsCompleted:          progress.IsCompleted,
			IsFailed:             progress.IsFailed,
		},
		Question: question,
		Resumed:  resumed,
	}, nil
}

// SubmitAnswer applies one answer to the session: records the answer,
// consumes a life when wrong, advances the index and resolves the terminal
// state. Completion is checked before failure, so finishing on the last life
// still completes.
func (svc *SessionService) SubmitAnswer(userID, quizID string, choiceIndex int) (*dto.SubmitAnswerResponse, error) {
	// Settle pending regeneration before the pool is inspected or spent.
	if _, err := svc.lives.GetLives(userID); err != nil {
		return nil, err
	}

	progress, err := svc.store.GetQuizProgress(userID, quizID)
	if err != nil {
		return nil, shared.NewNotFoundError(err, "No session found for this quiz")
	}
	if progress.IsTerminal() {
		return nil, shared.NewConflictError(
			fmt.Errorf("session %s is already terminal", progress.ID),
			"Session is already finished")
	}

	_, questions, err := svc.loadQuestions(quizID)
	if err != nil {
		return nil, err
	}

	index := progress.CurrentQuestionIndex
	if index >= len(questions) {
		return nil, shared.NewInternalError(
			fmt.Errorf("session %s index %d exceeds question count %d", progress.ID, index, len(questions)),
			"Session state is inconsistent with the quiz catalog")
	}

	question := &questions[index]
	if choiceIndex < 0 || choiceIndex >= len(question.Choices) {
		return nil, shared.NewBadRequestError(
			fmt.Errorf("choice index %d out of range [0,%d)", choiceIndex, len(question.Choices)),
			"Invalid choice index")
	}

	correctIndex := question.CorrectChoice()
	if correctIndex < 0 {
		return nil, shared.NewInternalError(
			fmt.Errorf("quiz %s question %d has no correct choice", quizID, index),
			"Quiz catalog entry is corrupted")
	}

	isCorrect := choiceIndex == correctIndex

	answers, err := progress.ParseAnswers()
	if err != nil {
		return nil, shared.NewInternalError(err, "Session answer log is corrupted")
	}
	answers = append(answers, model.AnswerRecord{
		QuestionIndex: index,
		ChoiceIndex:   choiceIndex,
		IsCorrect:     isCorrect,
		AnsweredAt:    time.Now(),
	})
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to encode answer log")
	}

	userProgress, err := svc.store.GetOrCreateUserProgress(userID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load user progress")
	}
	currentStreak := userProgress.CurrentStreak
	bestStreak := userProgress.BestStreak
	if isCorrect {
		currentStreak++
		if currentStreak > bestStreak {
			bestStreak = currentStreak
		}
	} else {
		currentStreak = 0
	}

	expectedVersion := progress.Version
	progress.CurrentQuestionIndex = index + 1
	progress.Answers = answersJSON

	score := 0
	for _, a := range answers {
		if a.IsCorrect {
			score++
		}
	}

	var attempt *model.Attempt
	if progress.CurrentQuestionIndex == len(questions) {
		now := time.Now()
		progress.IsCompleted = true
		progress.CompletedAt = &now
		attempt = &model.Attempt{
			UserID:         userID,
			QuizID:         quizID,
			Score:          score,
			TotalQuestions: len(questions),
			AnswerCount:    len(answers),
			Answers:        answersJSON,
		}
	}

	side := AnswerSideEffects{
		ConsumeLife:   !isCorrect,
		CurrentStreak: currentStreak,
		BestStreak:    bestStreak,
	}

	lives, err := svc.store.ApplyAnswer(progress, expectedVersion, side, attempt)
	if err != nil {
		switch {
		case errors.Is(err, ErrVersionConflict):
			return nil, shared.NewConflictError(err, "Session was modified concurrently")
		case errors.Is(err, ErrOutOfLives):
			return nil, shared.NewResourceExhaustedError(err, "No lives available")
		default:
			return nil, shared.NewInternalError(err, "Failed to record answer")
		}
	}

	if !isCorrect {
		livesConsumedTotal.Inc()
	}

	switch {
	case progress.IsCompleted:
		sessionsCompletedTotal.Inc()
		svc.evaluatorsOrDefault().OnQuizCompleted(userID, quizID, score, len(questions))
	case progress.IsFailed:
		sessionsFailedTotal.Inc()
	}

	log.WithFields(log.Fields{
		"user_id":    userID,
		"quiz_id":    quizID,
		"question":   index,
		"is_correct": isCorrect,
		"lives":      lives,
		"completed":  progress.IsCompleted,
		"failed":     progress.IsFailed,
	}).Info("Answer submitted")

	resp := &dto.SubmitAnswerResponse{
		IsCorrect:            isCorrect,
		Lives:                lives,
		CurrentQuestionIndex: progress.CurrentQuestionIndex,
		TotalQuestions:       len(questions),
		IsCompleted:          progress.IsCompleted,
		IsFailed:             progress.IsFailed,
		Explanation:          question.Explanation,
		CorrectAnswerText:    question.Choices[correctIndex].Text,
		CorrectAnswers:       score,
		TotalAnswers:         len(answers),
	}

	switch {
	case progress.IsCompleted:
		allCorrect := score == len(questions)
		resp.AllCorrect = &allCorrect
		resp.FinalScore = &dto.FinalScoreResponse{
			Correct:    score,
			Total:      len(questions),
			Percentage: float64(score) / float64(len(questions)) * 100,
		}
	case progress.IsFailed:
		// No attempt, no score payload.
	default:
		next := toQuestionResponse(progress.CurrentQuestionIndex, &questions[progress.CurrentQuestionIndex])
		resp.NextQuestion = &next
	}

	return resp, nil
}

// defaultEvaluators bridges the completion hooks to the badge and quest
// services.
type defaultEvaluators struct {
	badgeSvc *BadgeService
	questSvc *QuestService
}

func (e defaultEvaluators) OnQuizCompleted(userID, quizID string, score, totalQuestions int) {
	if err := e.badgeSvc.OnQuizCompleted(userID, quizID, score); err != nil {
		log.WithFields(log.Fields{
			"user_id": userID,
			"quiz_id": quizID,
		}).WithError(err).Error("Badge evaluation failed")
	}
	if err := e.questSvc.OnQuizCompleted(userID); err != nil {
		log.WithFields(log.Fields{
			"user_id": userID,
			"quiz_id": quizID,
		}).WithError(err).Error("Quest evaluation failed")
	}
}

func (e defaultEvaluators) OnQuizResumed(userID string) {
	if err := e.questSvc.OnQuizResumed(userID); err != nil {
		log.WithFields(log.Fields{
			"user_id": userID,
		}).WithError(err).Error("Quest evaluation failed")
	}
}

func (svc *SessionService) evaluatorsOrDefault() sessionEvaluators {
	if svc.evaluators != nil {
		return svc.evaluators
	}
	return defaultEvaluators{badgeSvc: svc.badgeSvc, questSvc: svc.questSvc}
}
