package model

import (
	"encoding/json"
	"testing"
)

func TestCorrectChoice(t *testing.T) {
	q := Question{
		Choices: []Choice{
			{Text: "a"},
			{Text: "b", IsCorrect: true},
			{Text: "c"},
		},
	}
	if got := q.CorrectChoice(); got != 1 {
		t.Errorf("got %d, want 1", got)
	}

	malformed := Question{Choices: []Choice{{Text: "a"}, {Text: "b"}}}
	if got := malformed.CorrectChoice(); got != -1 {
		t.Errorf("got %d, want -1 for question without a correct choice", got)
	}
}

func TestParseQuestions(t *testing.T) {
	questions := []Question{
		{Text: "one", Choices: []Choice{{Text: "a", IsCorrect: true}}},
		{Text: "two", Choices: []Choice{{Text: "b", IsCorrect: true}}},
	}
	data, err := json.Marshal(questions)
	if err != nil {
		t.Fatal(err)
	}

	quiz := Quiz{Questions: data}
	parsed, err := quiz.ParseQuestions()
	if err != nil {
		t.Fatalf("ParseQuestions: %v", err)
	}
	if len(parsed) != 2 || parsed[0].Text != "one" {
		t.Errorf("parsed = %+v", parsed)
	}

	empty := Quiz{}
	parsed, err = empty.ParseQuestions()
	if err != nil || parsed != nil {
		t.Errorf("empty quiz: parsed=%v err=%v", parsed, err)
	}

	corrupt := Quiz{Questions: []byte("{not json")}
	if _, err := corrupt.ParseQuestions(); err == nil {
		t.Error("expected error for corrupted question payload")
	}
}

func TestQuizProgressTerminal(t *testing.T) {
	p := QuizProgress{}
	if p.IsTerminal() {
		t.Error("fresh progress reported terminal")
	}
	p.IsCompleted = true
	if !p.IsTerminal() {
		t.Error("completed progress not terminal")
	}
	p = QuizProgress{IsFailed: true}
	if !p.IsTerminal() {
		t.Error("failed progress not terminal")
	}
}
