package model

import "strings"

// Token describes a configured ERC20 asset.
type Token struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Icon     string `json:"icon,omitempty"`
	Stable   bool   `json:"stable,omitempty"`
}

// Arc testnet token set. USDC is the stable reference asset every AMM
// pool is paired against.
var (
	USDC  = Token{Symbol: "USDC", Address: "0x3600000000000000000000000000000000000000", Decimals: 6, Icon: "usdc.svg", Stable: true}
	CAT   = Token{Symbol: "CAT", Address: "0xc3328be246C5DB1a2EBA7d0533e275a0a7249834", Decimals: 18, Icon: "cat.svg"}
	DARC  = Token{Symbol: "DARC", Address: "0x8959ed0D7220e1bAa445106F48829Df0bF1e5F83", Decimals: 18, Icon: "darc.svg"}
	PANDA = Token{Symbol: "PANDA", Address: "0x48Ff1CCb0f75e5A8C732b6c10ffc8f5dF6ef5311", Decimals: 18, Icon: "panda.svg"}
)

// Tokens lists all configured tokens.
var Tokens = []Token{USDC, CAT, DARC, PANDA}

// LendableTokens are the assets the lending pool accepts.
var LendableTokens = []Token{USDC, CAT, DARC, PANDA}

// PoolTokens are the non-stable assets, each paired against USDC.
var PoolTokens = []Token{CAT, DARC, PANDA}

// TokenBySymbol looks a token up by its symbol.
func TokenBySymbol(symbol string) (Token, bool) {
	for _, t := range Tokens {
		if strings.EqualFold(t.Symbol, symbol) {
			return t, true
		}
	}
	return Token{}, false
}

// TokenByAddress looks a token up by its on-chain address.
func TokenByAddress(address string) (Token, bool) {
	for _, t := range Tokens {
		if strings.EqualFold(t.Address, address) {
			return t, true
		}
	}
	return Token{}, false
}
