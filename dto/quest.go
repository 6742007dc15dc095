package dto

type DailyQuestResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Progress    int    `json:"progress"`
	Total       int    `json:"total"`
	Completed   bool   `json:"completed"`
	Type        string `json:"type"`
}

type DailyQuestsResponse struct {
	Date   string               `json:"date"` // UTC calendar day the selection is valid for
	Quests []DailyQuestResponse `json:"quests"`
}
