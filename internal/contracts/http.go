package contracts

type CreateEscrowRequest struct {
	ListingID string `json:"listing_id"`
	Mode      string `json:"mode"`
	Provider  string `json:"provider"`
}

type EscrowActionRequest struct {
	Action string `json:"action"`
}

type StartPaymentRequest struct {
	Plan     string `json:"plan"`
	Provider string `json:"provider"`
}

type SubmitPaymentRequest struct {
	Reference string `json:"reference"`
	ProofURL  string `json:"proof_url,omitempty"`
	Note      string `json:"note,omitempty"`
}

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}
