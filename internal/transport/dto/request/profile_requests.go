package request

type SetWalletRequest struct {
	PolkadotAddress string `json:"polkadot_address"`
}
