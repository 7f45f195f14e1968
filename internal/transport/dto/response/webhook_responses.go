package response

type WebhookResponse struct {
	Message string `json:"message"`
	Outcome string `json:"outcome,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type ProfileResponse struct {
	Id              string `json:"id"`
	GitHubUsername  string `json:"github_username"`
	PolkadotAddress string `json:"polkadot_address"`
}
