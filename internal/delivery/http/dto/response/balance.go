package response

type BalanceResponse struct {
	Account   string `json:"account"`
	Token     string `json:"token"`
	Available string `json:"available"`
	Frozen    string `json:"frozen"`
}

type BalancesResponse struct {
	Account  string            `json:"account"`
	Balances []BalanceResponse `json:"balances"`
}

type TokenResponse struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals int32  `json:"decimals"`
	Native   bool   `json:"native"`
}
