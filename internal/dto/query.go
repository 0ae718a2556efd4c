package dto

type QueryRequest struct {
	Query    string         `json:"query"`
	UserData map[string]any `json:"user_data"`
}

type QueryResponse struct {
	Query  string `json:"query"`
	Result string `json:"result"`
	Status string `json:"status"`
}
