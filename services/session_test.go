package services

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/djimmy2web/certifdiag_api/model"
	"github.com/djimmy2web/certifdiag_api/shared"

	"gorm.io/gorm"
)

// fakeEngineStore drives both the session state machine and the lives
// ledger in memory, mirroring the transactional semantics of the real data
// layer.
type fakeEngineStore struct {
	user     *model.UserProgress
	quizzes  map[string]*model.Quiz
	sessions map[string]*model.QuizProgress
	attempts []*model.Attempt

	applyErr error
}

func newFakeEngineStore(lives int, quizzes ...*model.Quiz) *fakeEngineStore {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := &fakeEngineStore{
		user: &model.UserProgress{
			ID:               "up-1",
			UserID:           "user-1",
			Lives:            lives,
			MaxLives:         5,
			RegenRateHours:   4,
			LastRegeneration: now,
		},
		quizzes:  map[string]*model.Quiz{},
		sessions: map[string]*model.QuizProgress{},
	}
	for _, quiz := range quizzes {
		store.quizzes[quiz.ID] = quiz
	}
	return store
}

func (f *fakeEngineStore) GetOrCreateUserProgress(userID string) (*model.UserProgress, error) {
	return f.user, nil
}

func (f *fakeEngineStore) SaveRegeneration(progress *model.UserProgress) error {
	return nil
}

func (f *fakeEngineStore) ConsumeLife(userID string) (int, error) {
	if f.user.Lives <= 0 {
		return 0, ErrOutOfLives
	}
	f.user.Lives--
	return f.user.Lives, nil
}

func (f *fakeEngineStore) GetQuiz(id string) (*model.Quiz, error) {
	quiz, ok := f.quizzes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return quiz, nil
}

func (f *fakeEngineStore) GetQuizProgress(userID, quizID string) (*model.QuizProgress, error) {
	progress, ok := f.sessions[quizID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *progress
	return &clone, nil
}

func (f *fakeEngineStore) CreateOrGetQuizProgress(userID, quizID string) (*model.QuizProgress, bool, error) {
	if existing, ok := f.sessions[quizID]; ok {
		clone := *existing
		return &clone, false, nil
	}
	now := time.Now()
	progress := &model.QuizProgress{
		ID:        fmt.Sprintf("qp-%s", quizID),
		UserID:    userID,
		QuizID:    quizID,
		Answers:   []byte("[]"),
		StartedAt: now,
	}
	f.sessions[quizID] = progress
	clone := *progress
	return &clone, true, nil
}

func (f *fakeEngineStore) ResetQuizProgress(progress *model.QuizProgress) error {
	stored, ok := f.sessions[progress.QuizID]
	if !ok || stored.Version != progress.Version {
		return ErrVersionConflict
	}
	now := time.Now()
	stored.CurrentQuestionIndex = 0
	stored.Answers = []byte("[]")
	stored.IsCompleted = false
	stored.IsFailed = false
	stored.CompletedAt = nil
	stored.StartedAt = now
	stored.Version++
	*progress = *stored
	return nil
}

func (f *fakeEngineStore) ApplyAnswer(progress *model.QuizProgress, expectedVersion int, side AnswerSideEffects, attempt *model.Attempt) (int, error) {
	if f.applyErr != nil {
		return 0, f.applyErr
	}

	if side.ConsumeLife {
		if f.user.Lives <= 0 {
			return 0, ErrOutOfLives
		}
		f.user.Lives--
	}
	f.user.CurrentStreak = side.CurrentStreak
	f.user.BestStreak = side.BestStreak
	livesAfter := f.user.Lives

	if !progress.IsCompleted && livesAfter == 0 {
		progress.IsFailed = true
	}

	stored, ok := f.sessions[progress.QuizID]
	if !ok || stored.Version != expectedVersion {
		return 0, ErrVersionConflict
	}
	*stored = *progress
	stored.Version = expectedVersion + 1
	progress.Version = stored.Version

	if progress.IsCompleted && attempt != nil {
		f.attempts = append(f.attempts, attempt)
	}
	return livesAfter, nil
}

type recordingEvaluators struct {
	completedScores []int
	resumed         int
}

func (r *recordingEvaluators) OnQuizCompleted(userID, quizID string, score, totalQuestions int) {
	r.completedScores = append(r.completedScores, score)
}

func (r *recordingEvaluators) OnQuizResumed(userID string) {
	r.resumed++
}

func testQuiz(id string, questionCount int) *model.Quiz {
	questions := make([]model.Question, questionCount)
	for i := range questions {
		questions[i] = model.Question{
			Text:        fmt.Sprintf("Question %d", i+1),
			Explanation: fmt.Sprintf("Explanation %d", i+1),
			Choices: []model.Choice{
				{Text: "wrong A"},
				{Text: "right", IsCorrect: true},
				{Text: "wrong B"},
			},
		}
	}
	data, _ := json.Marshal(questions)
	return &model.Quiz{
		ID:        id,
		Title:     "Test Quiz",
		Questions: data,
		IsActive:  true,
	}
}

func newSessionService(store *fakeEngineStore, eval sessionEvaluators) *SessionService {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return &SessionService{
		store:      store,
		lives:      newLivesService(store, now),
		evaluators: eval,
	}
}

func TestStartQuizFresh(t *testing.T) {
	store := newFakeEngineStore(5, testQuiz("quiz-1", 3))
	svc := newSessionService(store, &recordingEvaluators{})

	resp, err := svc.StartQuiz("user-1", "quiz-1")
	if err != nil {
		t.Fatalf("StartQuiz: %v", err)
	}

	if resp.Resumed {
		t.Error("fresh session reported as resumed")
	}
	if resp.Question.Index != 0 {
		t.Errorf("question index = %d, want 0", resp.Question.Index)
	}
	if resp.Progress.TotalQuestions != 3 {
		t.Errorf("total questions = %d, want 3", resp.Progress.TotalQuestions)
	}
	if len(resp.Question.Choices) != 3 {
		t.Fatalf("choices = %d, want 3", len(resp.Question.Choices))
	}
}

func TestStartQuizNoLives(t *testing.T) {
	store := newFakeEngineStore(0, testQuiz("quiz-1", 3))
	svc := newSessionService(store, &recordingEvaluators{})

	_, err := svc.StartQuiz("user-1", "quiz-1")
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.StatusCode != 400 {
		t.Fatalf("expected 400 AppError, got %v", err)
	}
	if len(store.sessions) != 0 {
		t.Error("session record created despite empty lives pool")
	}
}

func TestStartQuizUnknownQuiz(t *testing.T) {
	store := newFakeEngineStore(5)
	svc := newSessionService(store, &recordingEvaluators{})

	_, err := svc.StartQuiz("user-1", "missing")
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.StatusCode != 404 {
		t.Fatalf("expected 404 AppError, got %v", err)
	}
}

func TestStartQuizResume(t *testing.T) {
	store := newFakeEngineStore(5, testQuiz("quiz-1", 3))
	eval := &recordingEvaluators{}
	svc := newSessionService(store, eval)

	if _, err := svc.StartQuiz("user-1", "quiz-1"); err != nil {
		t.Fatalf("first StartQuiz: %v", err)
	}
	if _, err := svc.SubmitAnswer("user-1", "quiz-1", 1); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	resp, err := svc.StartQuiz("user-1", "quiz-1")
	if err != nil {
		t.Fatalf("second StartQuiz: %v", err)
	}

	if !resp.Resumed {
		t.Error("expected resumed session")
	}
	if resp.Question.Index != 1 {
		t.Errorf("question index = %d, want 1", resp.Question.Index)
	}
	if eval.resumed != 1 {
		t.Errorf("resume events = %d, want 1", eval.resumed)
	}
}

func TestStartQuizRestartAfterTerminal(t *testing.T) {
	store := newFakeEngineStore(5, testQuiz("quiz-1", 2))
	eval := &recordingEvaluators{}
	svc := newSessionService(store, eval)

	if _, err := svc.StartQuiz("user-1", "quiz-1"); err != nil {
		t.Fatalf("StartQuiz: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := svc.SubmitAnswer("user-1", "quiz-1", 1); err != nil {
			t.Fatalf("SubmitAnswer %d: %v", i, err)
		}
	}

	resp, err := svc.StartQuiz("user-1", "quiz-1")
	if err != nil {
		t.Fatalf("restart StartQuiz: %v", err)
	}

	if resp.Resumed {
		t.Error("restart reported as resume")
	}
	if resp.Question.Index != 0 {
		t.Errorf("question index = %d, want 0", resp.Question.Index)
	}
	if resp.Progress.IsCompleted || resp.Progress.IsFailed {
		t.Error("restarted session still terminal")
	}
	if eval.resumed != 0 {
		t.Errorf("resume events = %d, want 0", eval.resumed)
	}
}

func TestSubmitAnswerPerfectRun(t *testing.T) {
	store := newFakeEngineStore(5, testQuiz("quiz-1", 3))
	eval := &recordingEvaluators{}
	svc := newSessionService(store, eval)

	if _, err := svc.StartQuiz("user-1", "quiz-1"); err != nil {
		t.Fatalf("StartQuiz: %v", err)
	}

	var last *dtoSubmitAnswer
	for i := 0; i < 3; i++ {
		resp, err := svc.SubmitAnswer("user-1", "quiz-1", 1)
		if err != nil {
			t.Fatalf("SubmitAnswer %d: %v", i, err)
		}
		if !resp.IsCorrect {
			t.Fatalf("answer %d reported incorrect", i)
		}
		last = &dtoSubmitAnswer{resp.IsCompleted, resp.Lives, resp.FinalScore != nil, resp.AllCorrect}
		if i < 2 {
			if resp.NextQuestion == nil {
				t.Fatalf("answer %d: missing next question", i)
			}
			if resp.NextQuestion.Index != i+1 {
				t.Errorf("next question index = %d, want %d", resp.NextQuestion.Index, i+1)
			}
		}
	}

	if !last.completed {
		t.Fatal("session not completed after final answer")
	}
	if last.lives != 5 {
		t.Errorf("lives = %d, want 5", last.lives)
	}
	if !last.hasFinalScore {
		t.Fatal("missing final score")
	}
	if last.allCorrect == nil || !*last.allCorrect {
		t.Error("expected allCorrect true")
	}
	if len(store.attempts) != 1 {
		t.Fatalf("attempts = %d, want 1", len(store.attempts))
	}
	if store.attempts[0].Score != 3 || store.attempts[0].TotalQuestions != 3 {
		t.Errorf("attempt score = %d/%d, want 3/3", store.attempts[0].Score, store.attempts[0].TotalQuestions)
	}
	if len(eval.completedScores) != 1 || eval.completedScores[0] != 3 {
		t.Errorf("completion evaluator scores = %v, want [3]", eval.completedScores)
	}
}

type dtoSubmitAnswer struct {
	completed     bool
	lives         int
	hasFinalScore bool
	allCorrect    *bool
}

func TestSubmitAnswerWrongDrainsLastLife(t *testing.T) {
	store := newFakeEngineStore(1, testQuiz("quiz-1", 3))
	eval := &recordingEvaluators{}
	svc := newSessionService(store, eval)

	if _, err := svc.StartQuiz("user-1", "quiz-1"); err != nil {
		t.Fatalf("StartQuiz: %v", err)
	}

	resp, err := svc.SubmitAnswer("user-1", "quiz-1", 0)
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	if resp.IsCorrect {
		t.Error("wrong answer reported correct")
	}
	if resp.Lives != 0 {
		t.Errorf("lives = %d, want 0", resp.Lives)
	}
	if !resp.IsFailed {
		t.Error("session not failed with empty pool")
	}
	if resp.FinalScore != nil {
		t.Error("failed session must not carry a final score")
	}
	if len(store.attempts) != 0 {
		t.Errorf("attempts = %d, want 0 for failed session", len(store.attempts))
	}
	if len(eval.completedScores) != 0 {
		t.Error("completion evaluator ran for a failed session")
	}

	// Terminal session rejects further answers.
	_, err = svc.SubmitAnswer("user-1", "quiz-1", 1)
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.StatusCode != 409 {
		t.Fatalf("expected 409 AppError, got %v", err)
	}

	// And a restart is blocked until regeneration restores a life.
	_, err = svc.StartQuiz("user-1", "quiz-1")
	appErr, ok = shared.GetAppError(err)
	if !ok || appErr.StatusCode != 400 {
		t.Fatalf("expected 400 AppError, got %v", err)
	}
}

func TestSubmitAnswerCompletionOnLastLife(t *testing.T) {
	store := newFakeEngineStore(1, testQuiz("quiz-1", 1))
	svc := newSessionService(store, &recordingEvaluators{})

	if _, err := svc.StartQuiz("user-1", "quiz-1"); err != nil {
		t.Fatalf("StartQuiz: %v", err)
	}

	// Wrong answer on the only question: the session completes (index
	// reaches the question count) even though the pool hits zero.
	resp, err := svc.SubmitAnswer("user-1", "quiz-1", 0)
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	if !resp.IsCompleted {
		t.Error("expected completion to win over failure")
	}
	if resp.IsFailed {
		t.Error("completed session marked failed")
	}
	if resp.Lives != 0 {
		t.Errorf("lives = %d, want 0", resp.Lives)
	}
	if len(store.attempts) != 1 {
		t.Errorf("attempts = %d, want 1", len(store.attempts))
	}
}

func TestSubmitAnswerInvalidChoice(t *testing.T) {
	store := newFakeEngineStore(5, testQuiz("quiz-1", 3))
	svc := newSessionService(store, &recordingEvaluators{})

	if _, err := svc.StartQuiz("user-1", "quiz-1"); err != nil {
		t.Fatalf("StartQuiz: %v", err)
	}

	_, err := svc.SubmitAnswer("user-1", "quiz-1", 7)
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.StatusCode != 400 {
		t.Fatalf("expected 400 AppError, got %v", err)
	}

	stored := store.sessions["quiz-1"]
	if stored.CurrentQuestionIndex != 0 {
		t.Errorf("index advanced to %d on invalid input", stored.CurrentQuestionIndex)
	}
	if store.user.Lives != 5 {
		t.Errorf("lives = %d, want 5 after invalid input", store.user.Lives)
	}
}

func TestSubmitAnswerNoSession(t *testing.T) {
	store := newFakeEngineStore(5, testQuiz("quiz-1", 3))
	svc := newSessionService(store, &recordingEvaluators{})

	_, err := svc.SubmitAnswer("user-1", "quiz-1", 1)
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.StatusCode != 404 {
		t.Fatalf("expected 404 AppError, got %v", err)
	}
}

func TestSubmitAnswerInconsistentIndex(t *testing.T) {
	store := newFakeEngineStore(5, testQuiz("quiz-1", 3))
	svc := newSessionService(store, &recordingEvaluators{})

	if _, err := svc.StartQuiz("user-1", "quiz-1"); err != nil {
		t.Fatalf("StartQuiz: %v", err)
	}

	// A non-terminal record pointing past the catalog must fail loudly,
	// never clamp back into range.
	store.sessions["quiz-1"].CurrentQuestionIndex = 9

	_, err := svc.SubmitAnswer("user-1", "quiz-1", 1)
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.StatusCode != 500 {
		t.Fatalf("expected 500 AppError, got %v", err)
	}
}

func TestSubmitAnswerVersionConflict(t *testing.T) {
	store := newFakeEngineStore(5, testQuiz("quiz-1", 3))
	svc := newSessionService(store, &recordingEvaluators{})

	if _, err := svc.StartQuiz("user-1", "quiz-1"); err != nil {
		t.Fatalf("StartQuiz: %v", err)
	}

	store.applyErr = ErrVersionConflict
	_, err := svc.SubmitAnswer("user-1", "quiz-1", 1)
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.StatusCode != 409 {
		t.Fatalf("expected 409 AppError, got %v", err)
	}
}

func TestSubmitAnswerKeepsAnswerLogInvariant(t *testing.T) {
	store := newFakeEngineStore(5, testQuiz("quiz-1", 3))
	svc := newSessionService(store, &recordingEvaluators{})

	if _, err := svc.StartQuiz("user-1", "quiz-1"); err != nil {
		t.Fatalf("StartQuiz: %v", err)
	}
	if _, err := svc.SubmitAnswer("user-1", "quiz-1", 1); err != nil {
		t.Fatalf("SubmitAnswer 1: %v", err)
	}
	if _, err := svc.SubmitAnswer("user-1", "quiz-1", 0); err != nil {
		t.Fatalf("SubmitAnswer 2: %v", err)
	}

	stored := store.sessions["quiz-1"]
	answers, err := stored.ParseAnswers()
	if err != nil {
		t.Fatalf("ParseAnswers: %v", err)
	}
	if len(answers) != stored.CurrentQuestionIndex {
		t.Errorf("answer log length %d != index %d", len(answers), stored.CurrentQuestionIndex)
	}
	if !answers[0].IsCorrect || answers[1].IsCorrect {
		t.Errorf("answer log correctness mismatch: %+v", answers)
	}
}

func TestSubmitAnswerStreakTracking(t *testing.T) {
	store := newFakeEngineStore(5, testQuiz("quiz-1", 3))
	svc := newSessionService(store, &recordingEvaluators{})

	if _, err := svc.StartQuiz("user-1", "quiz-1"); err != nil {
		t.Fatalf("StartQuiz: %v", err)
	}

	if _, err := svc.SubmitAnswer("user-1", "quiz-1", 1); err != nil {
		t.Fatalf("SubmitAnswer 1: %v", err)
	}
	if store.user.CurrentStreak != 1 || store.user.BestStreak != 1 {
		t.Errorf("streaks = %d/%d, want 1/1", store.user.CurrentStreak, store.user.BestStreak)
	}

	if _, err := svc.SubmitAnswer("user-1", "quiz-1", 0); err != nil {
		t.Fatalf("SubmitAnswer 2: %v", err)
	}
	if store.user.CurrentStreak != 0 {
		t.Errorf("current streak = %d, want 0 after wrong answer", store.user.CurrentStreak)
	}
	if store.user.BestStreak != 1 {
		t.Errorf("best streak = %d, want 1 preserved", store.user.BestStreak)
	}
}
