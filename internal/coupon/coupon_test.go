package coupon

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseTable(t *testing.T) {
	table := ParseTable("FREE100:full,DEVTEST:full,NEWUSER10:percent:10")

	assert.Equal(t, KindFullWaiver, table.Lookup("FREE100").Kind)
	assert.Equal(t, KindFullWaiver, table.Lookup("DEVTEST").Kind)

	p := table.Lookup("NEWUSER10")
	assert.Equal(t, KindPercentOff, p.Kind)
	assert.Equal(t, int64(10), p.Percent)

	assert.Equal(t, KindNone, table.Lookup("UNKNOWN").Kind)
}

func TestParseTableSkipsMalformedEntries(t *testing.T) {
	table := ParseTable("FREE100:full,garbage,BAD:percent:notanumber,OVER:percent:120,OK:percent:25")

	assert.Equal(t, KindNone, table.Lookup("garbage").Kind)
	assert.Equal(t, KindNone, table.Lookup("BAD").Kind)
	assert.Equal(t, KindNone, table.Lookup("OVER").Kind)

	p := table.Lookup("OK")
	assert.Equal(t, KindPercentOff, p.Kind)
	assert.Equal(t, int64(25), p.Percent)
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	table := ParseTable("free100:full")

	assert.Equal(t, KindFullWaiver, table.Lookup("FREE100").Kind)
	assert.Equal(t, KindFullWaiver, table.Lookup("free100").Kind)
}

func TestEvaluateFullWaiver(t *testing.T) {
	table := ParseTable("FREE100:full")

	got := table.Evaluate("FREE100", decimal.NewFromInt(500))
	assert.True(t, got.IsZero(), "expected zero, got %s", got)
}

func TestEvaluatePercentOff(t *testing.T) {
	table := ParseTable("NEWUSER10:percent:10")

	got := table.Evaluate("NEWUSER10", decimal.NewFromInt(1000))
	assert.True(t, got.Equal(decimal.NewFromInt(900)), "expected 900, got %s", got)
}

func TestEvaluateUnknownCodeChargesFullPrice(t *testing.T) {
	table := ParseTable("FREE100:full")

	base := decimal.NewFromInt(1000)
	got := table.Evaluate("UNKNOWN", base)
	assert.True(t, got.Equal(base))
}

func TestEvaluateEmptyCodeChargesFullPrice(t *testing.T) {
	table := ParseTable("FREE100:full")

	base := decimal.NewFromFloat(249.50)
	got := table.Evaluate("", base)
	assert.True(t, got.Equal(base))
}

func TestEvaluateRoundsDownToCents(t *testing.T) {
	table := ParseTable("THIRD:percent:33")

	// 99.99 * 0.67 = 66.9933, truncated to 66.99
	got := table.Evaluate("THIRD", decimal.NewFromFloat(99.99))
	assert.True(t, got.Equal(decimal.NewFromFloat(66.99)), "got %s", got)
}
