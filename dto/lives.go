package dto

type LivesResponse struct {
	Current          int  `json:"current"`
	Max              int  `json:"max"`
	RegenerationRate int  `json:"regeneration_rate"` // hours per life
	TimeUntilNext    int  `json:"time_until_next"`   // minutes, 0 when full
	CanPlay          bool `json:"can_play"`
}

type LivesActionRequest struct {
	Action string `json:"action" validate:"required,oneof=consume" example:"consume"`
}

func (r LivesActionRequest) Validate() error {
	return GetValidator().Struct(r)
}
