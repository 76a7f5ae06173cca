package models

// cryptoAssets is the allow-list of crypto tickers recognised in free text.
// Stablecoins are included so that BTC/USDT classifies from either leg.
var cryptoAssets = map[string]string{
	"BTC":   "Bitcoin",
	"ETH":   "Ethereum",
	"BNB":   "BNB",
	"SOL":   "Solana",
	"ADA":   "Cardano",
	"XRP":   "XRP",
	"DOT":   "Polkadot",
	"LINK":  "Chainlink",
	"DOGE":  "Dogecoin",
	"AVAX":  "Avalanche",
	"MATIC": "Polygon",
	"LTC":   "Litecoin",
	"TRX":   "TRON",
	"ATOM":  "Cosmos",
	"UNI":   "Uniswap",
	"SHIB":  "Shiba Inu",
	"TON":   "Toncoin",
	"NEAR":  "NEAR Protocol",
	"APT":   "Aptos",
	"ARB":   "Arbitrum",
	"OP":    "Optimism",
	"SUI":   "Sui",
	"PEPE":  "Pepe",
	"USDT":  "Tether",
	"USDC":  "USD Coin",
	"FDUSD": "First Digital USD",
}

// stablecoins are crypto assets pegged to the US dollar.
var stablecoins = map[string]bool{"USDT": true, "USDC": true, "FDUSD": true}

// IsCrypto reports whether code is on the crypto allow-list.
func IsCrypto(code string) bool {
	_, ok := cryptoAssets[code]
	return ok
}

// IsStablecoin reports whether code is a dollar-pegged stablecoin.
func IsStablecoin(code string) bool { return stablecoins[code] }

// CryptoName returns the display name for a crypto ticker, or the ticker itself.
func CryptoName(code string) string {
	if name, ok := cryptoAssets[code]; ok {
		return name
	}
	return code
}
