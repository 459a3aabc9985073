// Package coupon maps coupon codes to discount policies. Evaluation is pure:
// same table, same code, same base amount always produce the same result, and
// an unknown code is a no-op rather than an error so checkout never blocks on
// a bad code.
package coupon

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type Kind int

const (
	KindNone Kind = iota
	KindFullWaiver
	KindPercentOff
)

type Policy struct {
	Kind    Kind
	Percent int64
}

type Table map[string]Policy

var (
	hundred = decimal.NewFromInt(100)
)

// ParseTable parses the comma-separated COUPON_TABLE env format:
//
//	FREE100:full,DEVTEST:full,NEWUSER10:percent:10
//
// Malformed entries are skipped; codes are upper-cased.
func ParseTable(raw string) Table {
	t := Table{}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ":")
		code := strings.ToUpper(strings.TrimSpace(parts[0]))
		if code == "" || len(parts) < 2 {
			continue
		}

		switch strings.ToLower(parts[1]) {
		case "full":
			t[code] = Policy{Kind: KindFullWaiver}
		case "percent":
			if len(parts) < 3 {
				continue
			}
			pct, err := strconv.ParseInt(parts[2], 10, 64)
			if err != nil || pct < 0 || pct > 100 {
				continue
			}
			t[code] = Policy{Kind: KindPercentOff, Percent: pct}
		}
	}
	return t
}

// Lookup resolves a code to its policy; unknown codes resolve to KindNone.
func (t Table) Lookup(code string) Policy {
	p, ok := t[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Policy{Kind: KindNone}
	}
	return p
}

// Evaluate applies the policy for code to base. Percentage discounts round
// down to the nearest currency minor unit; the result is never negative.
func (t Table) Evaluate(code string, base decimal.Decimal) decimal.Decimal {
	switch p := t.Lookup(code); p.Kind {
	case KindFullWaiver:
		return decimal.Zero
	case KindPercentOff:
		remaining := hundred.Sub(decimal.NewFromInt(p.Percent))
		adjusted := base.Mul(remaining).Div(hundred).RoundDown(2)
		if adjusted.IsNegative() {
			return decimal.Zero
		}
		return adjusted
	default:
		return base
	}
}
