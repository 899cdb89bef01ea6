package helper

import (
	"net/url"
	"strings"
)

// StripProviderSuffix — "RELIANCE.NS" -> "RELIANCE". В алертах показываем
// чистый тикер, суффикс провайдера никому не нужен.
func StripProviderSuffix(symbol string) string {
	s := strings.TrimSpace(symbol)
	if i := strings.LastIndexByte(s, '.'); i > 0 {
		s = s[:i]
	}
	return strings.ToUpper(s)
}

// ChartURL — deep link на график TradingView для кнопки в алерте.
func ChartURL(symbol string) string {
	return "https://www.tradingview.com/chart/?symbol=" + url.QueryEscape("NSE:"+StripProviderSuffix(symbol))
}
