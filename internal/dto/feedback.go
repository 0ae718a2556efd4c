package dto

type FeedbackRequest struct {
	PlanID   string `json:"plan_id"`
	Rating   int    `json:"rating"`
	Comments string `json:"comments"`
}

// FeedbackResponse is the acknowledgement of a feedback submission. Message is
// set only when Status is "error".
type FeedbackResponse struct {
	Status     string `json:"status"`
	FeedbackID string `json:"feedback_id,omitempty"`
	Message    string `json:"message,omitempty"`
}
