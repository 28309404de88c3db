package vault

import "math/big"

// Coin is an amount of a single denom.
type Coin struct {
	Denom  string
	Amount *big.Int
}

// Clone returns a deep copy of the coin.
func (c Coin) Clone() Coin {
	return Coin{Denom: c.Denom, Amount: cloneBigInt(c.Amount)}
}

// Message type identifiers for outbound instructions.
const (
	MsgTypeSwapMarket       = "swap.market"
	MsgTypeSwapPair         = "swap.pair"
	MsgTypeTokenInstantiate = "token.instantiate"
	MsgTypeTokenMint        = "token.mint"
	MsgTypeTokenBurn        = "token.burn"
	MsgTypeBankSend         = "bank.send"
	MsgTypeExecuteSelf      = "vault.execute_self"
)

// Msg is one outbound instruction queued by the coordinator. The host executes
// queued messages strictly in order after the emitting handler returns; no
// result is observable by the emitting call, and any failure aborts the whole
// transaction including the state mutation that preceded dispatch.
type Msg interface {
	MsgType() string
}

// MsgSwapMarket trades Offer for AskDenom on the native market.
type MsgSwapMarket struct {
	Trader   Address
	Offer    Coin
	AskDenom string
}

func (MsgSwapMarket) MsgType() string { return MsgTypeSwapMarket }

// MsgSwapPair trades Offer for AskDenom on a factory-resolved dex pair.
type MsgSwapPair struct {
	Pair     Address
	Trader   Address
	Offer    Coin
	AskDenom string
}

func (MsgSwapPair) MsgType() string { return MsgTypeSwapPair }

// MsgTokenInstantiate creates the companion claim-token contract. The new
// contract registers itself with RegisterWith once instantiated, which drives
// the one-shot registration handshake.
type MsgTokenInstantiate struct {
	CodeID       uint64
	Name         string
	Symbol       string
	Decimals     uint8
	Minter       Address
	RegisterWith Address
}

func (MsgTokenInstantiate) MsgType() string { return MsgTypeTokenInstantiate }

// MsgTokenMint mints claim tokens to the recipient.
type MsgTokenMint struct {
	Token     Address
	Recipient Address
	Amount    *big.Int
}

func (MsgTokenMint) MsgType() string { return MsgTypeTokenMint }

// MsgTokenBurn burns claim tokens held by the vault.
type MsgTokenBurn struct {
	Token  Address
	Amount *big.Int
}

func (MsgTokenBurn) MsgType() string { return MsgTypeTokenBurn }

// MsgBankSend transfers native funds to the recipient.
type MsgBankSend struct {
	Recipient Address
	Amount    Coin
}

func (MsgBankSend) MsgType() string { return MsgTypeBankSend }

// MsgExecuteSelf re-enters the vault in a later execution turn. It carries the
// deferred phase of a saga whose swap results are not visible synchronously.
type MsgExecuteSelf struct {
	Contract Address
	Msg      ExecuteMsg
}

func (MsgExecuteSelf) MsgType() string { return MsgTypeExecuteSelf }

// Response bundles the ordered outbound batch produced by one handler call.
type Response struct {
	Messages []Msg
}
