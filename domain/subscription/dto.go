package subscription

type SubscribeRequest struct {
	WaitlistID string         `json:"waitlistId"`
	Email      string         `json:"email" binding:"max=255"`
	Name       *string        `json:"name" binding:"omitempty,max=255"`
	Company    *string        `json:"company" binding:"omitempty,max=255"`
	CustomData map[string]any `json:"customData"`
}

type SubscribeResponse struct {
	Message  string `json:"message"`
	Position int    `json:"position"`
}
