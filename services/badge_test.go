package services

import (
	"testing"

	"github.com/djimmy2web/certifdiag_api/model"
)

type fakeBadgeStore struct {
	badges  []model.Badge
	awarded map[string]bool
}

func newFakeBadgeStore(badges ...model.Badge) *fakeBadgeStore {
	return &fakeBadgeStore{
		badges:  badges,
		awarded: map[string]bool{},
	}
}

func (f *fakeBadgeStore) GetActiveBadges() ([]model.Badge, error) {
	return f.badges, nil
}

func (f *fakeBadgeStore) AwardBadge(userID, badgeID string) error {
	f.awarded[badgeID] = true
	return nil
}

func TestBadgeMatches(t *testing.T) {
	minScore := func(v int) *int { return &v }
	quizID := func(v string) *string { return &v }

	tests := []struct {
		name  string
		badge model.Badge
		quiz  string
		score int
		want  bool
	}{
		{"no filters match everything", model.Badge{}, "quiz-1", 0, true},
		{"min score met", model.Badge{MinScore: minScore(3)}, "quiz-1", 3, true},
		{"min score missed", model.Badge{MinScore: minScore(3)}, "quiz-1", 2, false},
		{"quiz match", model.Badge{QuizID: quizID("quiz-1")}, "quiz-1", 0, true},
		{"quiz mismatch", model.Badge{QuizID: quizID("quiz-2")}, "quiz-1", 5, false},
		{"both filters met", model.Badge{MinScore: minScore(2), QuizID: quizID("quiz-1")}, "quiz-1", 2, true},
		{"score met but wrong quiz", model.Badge{MinScore: minScore(2), QuizID: quizID("quiz-2")}, "quiz-1", 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := badgeMatches(&tt.badge, tt.quiz, tt.score); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOnQuizCompletedAwardsAllMatching(t *testing.T) {
	minScore := func(v int) *int { return &v }
	quizID := func(v string) *string { return &v }

	store := newFakeBadgeStore(
		model.Badge{ID: "badge-any", IsActive: true},
		model.Badge{ID: "badge-score", MinScore: minScore(4), IsActive: true},
		model.Badge{ID: "badge-other-quiz", QuizID: quizID("quiz-2"), IsActive: true},
	)
	svc := &BadgeService{store: store}

	if err := svc.OnQuizCompleted("user-1", "quiz-1", 4); err != nil {
		t.Fatalf("OnQuizCompleted: %v", err)
	}

	if !store.awarded["badge-any"] || !store.awarded["badge-score"] {
		t.Errorf("expected both matching badges awarded, got %v", store.awarded)
	}
	if store.awarded["badge-other-quiz"] {
		t.Error("badge for a different quiz was awarded")
	}
	if len(store.awarded) != 2 {
		t.Errorf("awarded = %d badges, want 2", len(store.awarded))
	}
}

func TestOnQuizCompletedLowScore(t *testing.T) {
	minScore := func(v int) *int { return &v }

	store := newFakeBadgeStore(
		model.Badge{ID: "badge-score", MinScore: minScore(4), IsActive: true},
	)
	svc := &BadgeService{store: store}

	if err := svc.OnQuizCompleted("user-1", "quiz-1", 3); err != nil {
		t.Fatalf("OnQuizCompleted: %v", err)
	}
	if len(store.awarded) != 0 {
		t.Errorf("awarded = %v, want none", store.awarded)
	}
}
