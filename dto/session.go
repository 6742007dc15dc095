package dto

// ChoiceResponse is one selectable answer. Correctness is never included.
type ChoiceResponse struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	MediaURL string `json:"media_url,omitempty"`
}

type QuestionResponse struct {
	Index       int              `json:"index"`
	Text        string           `json:"text"`
	Explanation string           `json:"explanation,omitempty"`
	MediaURL    string           `json:"media_url,omitempty"`
	Choices     []ChoiceResponse `json:"choices"`
}

type SessionProgressResponse struct {
	Lives                int  `json:"lives"`
	CurrentQuestionIndex int  `json:"current_question_index"`
	TotalQuestions       int  `json:"total_questions"`
	IsCompleted          bool `json:"is_completed"`
	IsFailed             bool `json:"is_failed"`
}

type StartQuizResponse struct {
	Progress SessionProgressResponse `json:"progress"`
	Question QuestionResponse        `json:"question"`
	Resumed  bool                    `json:"resumed"`
}

type SubmitAnswerRequest struct {
	ChoiceIndex *int `json:"choice_index" validate:"required,min=0"`
}

func (r SubmitAnswerRequest) Validate() error {
	return GetValidator().Struct(r)
}

type FinalScoreResponse struct {
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// SubmitAnswerResponse always reveals the explanation and the correct answer
// text for the question just answered, right or wrong.
type SubmitAnswerResponse struct {
	IsCorrect            bool                `json:"is_correct"`
	Lives                int                 `json:"lives"`
	CurrentQuestionIndex int                 `json:"current_question_index"`
	TotalQuestions       int                 `json:"total_questions"`
	IsCompleted          bool                `json:"is_completed"`
	IsFailed             bool                `json:"is_failed"`
	Explanation          string              `json:"explanation"`
	CorrectAnswerText    string              `json:"correct_answer_text"`
	CorrectAnswers       int                 `json:"correct_answers"`
	TotalAnswers         int                 `json:"total_answers"`
	NextQuestion         *QuestionResponse   `json:"next_question,omitempty"`
	FinalScore           *FinalScoreResponse `json:"final_score,omitempty"`
	AllCorrect           *bool               `json:"all_correct,omitempty"`
}
