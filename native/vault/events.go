package vault

import (
	"math/big"
	"strconv"

	"basketvault/core/types"
)

const (
	EventTypeMinted              = "vault.minted"
	EventTypeBurned              = "vault.burned"
	EventTypeTokenRegistered     = "vault.token_registered"
	EventTypeRedemptionFinalized = "vault.redemption_finalized"
)

type vaultEvent struct {
	evt *types.Event
}

func (e *vaultEvent) EventType() string {
	if e == nil || e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e *vaultEvent) Event() *types.Event {
	if e == nil {
		return nil
	}
	return e.evt
}

// NewTokenRegisteredEvent records the one-shot companion-token binding.
func NewTokenRegisteredEvent(token Address) *vaultEvent {
	return &vaultEvent{evt: &types.Event{
		Type: EventTypeTokenRegistered,
		Attributes: map[string]string{
			"token": token.Hex(),
		},
	}}
}

// NewMintedEvent records a committed deposit and the claim amount minted.
func NewMintedEvent(depositor Address, deposit *big.Int, alloc *AllocationResult) *vaultEvent {
	attrs := map[string]string{
		"depositor": depositor.Hex(),
		"deposit":   formatAmount(deposit),
	}
	if alloc != nil {
		attrs["mintAmount"] = formatAmount(alloc.MintAmount)
		attrs["poolValue"] = formatAmount(alloc.PoolValue)
		for _, asset := range reserveAssets {
			attrs["target."+asset.String()] = formatAmount(alloc.Targets[asset])
			attrs["purchase."+asset.String()] = formatAmount(alloc.Purchases[asset])
		}
	}
	return &vaultEvent{evt: &types.Event{Type: EventTypeMinted, Attributes: attrs}}
}

// NewBurnedEvent records a committed redemption and its liquidation slices.
func NewBurnedEvent(requester Address, redemption *RedemptionResult) *vaultEvent {
	attrs := map[string]string{
		"requester": requester.Hex(),
	}
	if redemption != nil {
		attrs["burnAmount"] = formatAmount(redemption.BurnAmount)
		attrs["expectedProceeds"] = formatAmount(redemption.ExpectedProceeds)
		for _, asset := range reserveAssets {
			attrs["slice."+asset.String()] = formatAmount(redemption.Slices[asset])
		}
	}
	return &vaultEvent{evt: &types.Event{Type: EventTypeBurned, Attributes: attrs}}
}

// NewRedemptionFinalizedEvent records the payout of settled proceeds.
func NewRedemptionFinalizedEvent(requester Address, payout *big.Int, pending *PendingRedemption) *vaultEvent {
	attrs := map[string]string{
		"requester": requester.Hex(),
		"payout":    formatAmount(payout),
	}
	if pending != nil {
		attrs["burnAmount"] = formatAmount(pending.BurnAmount)
		attrs["expectedProceeds"] = formatAmount(pending.ExpectedProceeds)
		attrs["createdAt"] = strconv.FormatInt(pending.CreatedAt, 10)
	}
	return &vaultEvent{evt: &types.Event{Type: EventTypeRedemptionFinalized, Attributes: attrs}}
}
