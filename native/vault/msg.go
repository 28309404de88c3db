package vault

import (
	"fmt"
	"math/big"
)

// MintMsg requests a deposit; the amount is read from the attached base-denom
// funds, never from an explicit field.
type MintMsg struct{}

// RegisterCompanionTokenMsg is sent by the freshly instantiated claim-token
// contract to bind its address, exactly once.
type RegisterCompanionTokenMsg struct{}

// BurnMsg redeems the vault's entire current holding of claim tokens.
type BurnMsg struct{}

// FinalizeRedemptionMsg is the self-call-only second phase of a redemption.
type FinalizeRedemptionMsg struct {
	Requester Address `json:"requester"`
}

// ExecuteMsg is the tagged union consumed by the execute entry point. Exactly
// one variant must be set.
type ExecuteMsg struct {
	Mint                   *MintMsg                   `json:"mint,omitempty"`
	RegisterCompanionToken *RegisterCompanionTokenMsg `json:"register_companion_token,omitempty"`
	Burn                   *BurnMsg                   `json:"burn,omitempty"`
	FinalizeRedemption     *FinalizeRedemptionMsg     `json:"finalize_redemption,omitempty"`
}

// Validate ensures the union carries exactly one variant.
func (m ExecuteMsg) Validate() error {
	count := 0
	if m.Mint != nil {
		count++
	}
	if m.RegisterCompanionToken != nil {
		count++
	}
	if m.Burn != nil {
		count++
	}
	if m.FinalizeRedemption != nil {
		count++
	}
	if count != 1 {
		return fmt.Errorf("vault: execute message must carry exactly one variant, got %d", count)
	}
	return nil
}

// GetConfigMsg requests the config projection.
type GetConfigMsg struct{}

// GetStateMsg requests the vault state projection.
type GetStateMsg struct{}

// QueryMsg is the tagged union consumed by the query entry point.
type QueryMsg struct {
	GetConfig *GetConfigMsg `json:"get_config,omitempty"`
	GetState  *GetStateMsg  `json:"get_state,omitempty"`
}

// Validate ensures the union carries exactly one variant.
func (m QueryMsg) Validate() error {
	count := 0
	if m.GetConfig != nil {
		count++
	}
	if m.GetState != nil {
		count++
	}
	if count != 1 {
		return fmt.Errorf("vault: query message must carry exactly one variant, got %d", count)
	}
	return nil
}

// CallContext identifies one invocation of the vault: who called, which
// address the vault itself occupies, and the funds attached to the call.
type CallContext struct {
	Contract Address
	Caller   Address
	Funds    []Coin
}

// fundsAmount sums the attached funds matching denom.
func (c CallContext) fundsAmount(denom string) *big.Int {
	total := big.NewInt(0)
	for _, coin := range c.Funds {
		if coin.Denom != denom || coin.Amount == nil || coin.Amount.Sign() <= 0 {
			continue
		}
		total.Add(total, coin.Amount)
	}
	return total
}
