package payment

import (
	"sort"
	"strings"

	"resumeai/internal/errcode"
)

const CurrencyINR = "INR"

// Plan 是一档可购买的下载额度套餐，Amount 以最小货币单位（paise）计。
type Plan struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Credits  int    `json:"credits"`
}

var plans = map[string]Plan{
	"single": {ID: "single", Amount: 1000, Currency: CurrencyINR, Credits: 1},
	"bundle": {ID: "bundle", Amount: 10000, Currency: CurrencyINR, Credits: 20},
}

func LookupPlan(id string) (Plan, error) {
	p, ok := plans[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Plan{}, errcode.Validation("plan", "unknown plan %q", id)
	}
	return p, nil
}

// Plans 按价格升序返回全部套餐。
func Plans() []Plan {
	out := make([]Plan, 0, len(plans))
	for _, p := range plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Amount < out[j].Amount })
	return out
}
