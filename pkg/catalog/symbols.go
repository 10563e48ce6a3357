package catalog

import "strings"

// assetSymbols maps raw Axelar asset denominations to display symbols. Order is the rendered order.
var assetSymbols = [][2]string{
	{"arb-wei", "ARB"},
	{"avalanche-uusdc", "Avalanche USDC"},
	{"avax-wei", "AVAX"},
	{"bnb-wei", "BNB"},
	{"busd-wei", "BUSD"},
	{"cbeth-wei", "cbETH"},
	{"cusd-wei", "cUSD"},
	{"dai-wei", "DAI"},
	{"dot-planck", "DOT"},
	{"eeur", "EURC"},
	{"ern-wei", "ERN"},
	{"eth-wei", "ETH"},
	{"fil-wei", "FIL"},
	{"frax-wei", "FRAX"},
	{"ftm-wei", "FTM"},
	{"glmr-wei", "GLMR"},
	{"hzn-wei", "HZN"},
	{"link-wei", "LINK"},
	{"matic-wei", "MATIC"},
	{"mkr-wei", "MKR"},
	{"mpx-wei", "MPX"},
	{"oath-wei", "OATH"},
	{"op-wei", "OP"},
	{"orbs-wei", "ORBS"},
	{"factory/sei10hud5e5er4aul2l7sp2u9qp2lag5u4xf8mvyx38cnjvqhlgsrcls5qn5ke/seilor", "SEILOR"},
	{"pepe-wei", "PEPE"},
	{"polygon-uusdc", "Polygon USDC"},
	{"reth-wei", "rETH"},
	{"ring-wei", "RING"},
	{"shib-wei", "SHIB"},
	{"sonne-wei", "SONNE"},
	{"stuatom", "stATOM"},
	{"uatom", "ATOM"},
	{"uaxl", "AXL"},
	{"ukuji", "KUJI"},
	{"ulava", "LAVA"},
	{"uluna", "LUNA"},
	{"ungm", "NGM"},
	{"uni-wei", "UNI"},
	{"uosmo", "OSMO"},
	{"usomm", "SOMM"},
	{"ustrd", "STRD"},
	{"utia", "TIA"},
	{"uumee", "UMEE"},
	{"uusd", "USTC"},
	{"uusdc", "USDC"},
	{"uusdt", "USDT"},
	{"vela-wei", "VELA"},
	{"wavax-wei", "WAVAX"},
	{"wbnb-wei", "WBNB"},
	{"wbtc-satoshi", "WBTC"},
	{"weth-wei", "WETH"},
	{"wfil-wei", "WFIL"},
	{"wftm-wei", "WFTM"},
	{"wglmr-wei", "WGLMR"},
	{"wmai-wei", "WMAI"},
	{"wmatic-wei", "WMATIC"},
	{"wsteth-wei", "wstETH"},
	{"yield-eth-wei", "yieldETH"},
}

// seilorPrefix is matched case-insensitively before the exact table.
const seilorPrefix = "factory/sei10hub"

// symbolExpr renders the ClickHouse expression mapping column to a display symbol.
// Unknown denominations pass through unchanged.
func symbolExpr(column string) string {
	from := make([]string, len(assetSymbols))
	to := make([]string, len(assetSymbols))
	for i, pair := range assetSymbols {
		from[i] = quote(pair[0])
		to[i] = quote(pair[1])
	}
	return "multiIf(" + column + " ILIKE " + quote(seilorPrefix+"%") + ", 'SEILOR', " +
		"transform(" + column + ", [" + strings.Join(from, ", ") + "], [" + strings.Join(to, ", ") + "], " + column + "))"
}
