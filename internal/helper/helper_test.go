package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripProviderSuffix(t *testing.T) {
	assert.Equal(t, "RELIANCE", StripProviderSuffix("RELIANCE.NS"))
	assert.Equal(t, "M&M", StripProviderSuffix("M&M.NS"))
	assert.Equal(t, "BAJAJ-AUTO", StripProviderSuffix("BAJAJ-AUTO.NS"))
	assert.Equal(t, "TCS", StripProviderSuffix("  tcs.ns "))
	// без суффикса — как есть, только в верхний регистр
	assert.Equal(t, "RELIANCE", StripProviderSuffix("reliance"))
	// точка в нулевой позиции суффиксом не считается
	assert.Equal(t, ".HIDDEN", StripProviderSuffix(".hidden"))
}

func TestChartURL(t *testing.T) {
	assert.Equal(t,
		"https://www.tradingview.com/chart/?symbol=NSE%3ARELIANCE",
		ChartURL("RELIANCE.NS"))
	assert.Equal(t,
		"https://www.tradingview.com/chart/?symbol=NSE%3AM%26M",
		ChartURL("M&M.NS"))
}
