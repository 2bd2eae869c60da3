package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shintopc/UPI-voice-alert/internal/model"
	"github.com/shopspring/decimal"
)

// RecentLimit is the number of transactions shown on the overview.
const RecentLimit = 50

// hourlyThreshold is the longest window that is bucketed by hour.
const hourlyThreshold = 26 * time.Hour

// Reader is the part of the record store reports need.
type Reader interface {
	GetTransactionsInRange(ctx context.Context, start, end time.Time) ([]model.Transaction, error)
	GetRecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error)
	GetTotalInRange(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
}

// Bucket is one bar of the income chart.
type Bucket struct {
	Start time.Time
	Label string
	Total decimal.Decimal
	Count int
}

// PayerTotal aggregates payments from one payer.
type PayerTotal struct {
	PayerName string
	Total     decimal.Decimal
	Count     int
}

// Summary describes income within one window.
type Summary struct {
	Start        time.Time
	End          time.Time
	Title        string
	Total        decimal.Decimal
	Transactions []model.Transaction
	Buckets      []Bucket
	TopPayers    []PayerTotal
	Count        int
}

// Average is the mean payment, zero when there are none.
func (s Summary) Average() decimal.Decimal {
	if s.Count == 0 {
		return decimal.Zero
	}
	return s.Total.Div(decimal.NewFromInt(int64(s.Count))).Round(2)
}

// Overview is the dashboard view: today and this month plus recent payments.
type Overview struct {
	TodayTotal decimal.Decimal
	MonthTotal decimal.Decimal
	Recent     []model.Transaction
}

// Reporter builds summaries from a record store.
type Reporter struct {
	store Reader
}

// NewReporter creates a reporter over store.
func NewReporter(store Reader) *Reporter {
	return &Reporter{store: store}
}

// Period summarizes a named period relative to now.
func (r *Reporter) Period(ctx context.Context, p Period, now time.Time) (Summary, error) {
	start, end := p.Range(now)
	summary, err := r.Range(ctx, start, end)
	if err != nil {
		return Summary{}, err
	}
	summary.Title = p.Title()
	summary.Buckets = buckets(summary.Transactions, start, end)
	return summary, nil
}

// Range summarizes transactions in [start, end). Buckets are left empty;
// only Period charts them.
func (r *Reporter) Range(ctx context.Context, start, end time.Time) (Summary, error) {
	txns, err := r.store.GetTransactionsInRange(ctx, start, end)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load transactions: %w", err)
	}

	total := decimal.Zero
	for _, txn := range txns {
		total = total.Add(txn.Amount)
	}

	return Summary{
		Title:        start.Format("02 Jan 2006") + " - " + end.Add(-time.Nanosecond).Format("02 Jan 2006"),
		Start:        start,
		End:          end,
		Total:        total,
		Count:        len(txns),
		Transactions: txns,
		TopPayers:    topPayers(txns),
	}, nil
}

// Overview loads the dashboard figures.
func (r *Reporter) Overview(ctx context.Context, now time.Time) (Overview, error) {
	todayStart, todayEnd := PeriodToday.Range(now)
	today, err := r.store.GetTotalInRange(ctx, todayStart, todayEnd)
	if err != nil {
		return Overview{}, fmt.Errorf("failed to load today's total: %w", err)
	}

	monthStart, monthEnd := PeriodMonth.Range(now)
	month, err := r.store.GetTotalInRange(ctx, monthStart, monthEnd)
	if err != nil {
		return Overview{}, fmt.Errorf("failed to load month total: %w", err)
	}

	recent, err := r.store.GetRecentTransactions(ctx, RecentLimit)
	if err != nil {
		return Overview{}, fmt.Errorf("failed to load recent transactions: %w", err)
	}

	return Overview{TodayTotal: today, MonthTotal: month, Recent: recent}, nil
}

// buckets groups transactions by hour for windows up to about a day and by
// calendar day otherwise. Empty buckets are kept so charts have no gaps.
func buckets(txns []model.Transaction, start, end time.Time) []Bucket {
	hourly := end.Sub(start) <= hourlyThreshold

	step := func(t time.Time) time.Time {
		if hourly {
			return t.Add(time.Hour)
		}
		return t.AddDate(0, 0, 1)
	}
	floor := func(t time.Time) time.Time {
		if hourly {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
		}
		return StartOfDay(t)
	}
	label := func(t time.Time) string {
		if hourly {
			return t.Format("3PM")
		}
		return t.Format("02 Jan")
	}

	var out []Bucket
	index := make(map[time.Time]int)
	for t := floor(start); t.Before(end); t = step(t) {
		index[t] = len(out)
		out = append(out, Bucket{Start: t, Label: label(t), Total: decimal.Zero})
	}

	for _, txn := range txns {
		key := floor(txn.OccurredAt.In(start.Location()))
		i, ok := index[key]
		if !ok {
			continue
		}
		out[i].Total = out[i].Total.Add(txn.Amount)
		out[i].Count++
	}
	return out
}

// topPayers ranks named payers by total received. Unknown payers are left out.
func topPayers(txns []model.Transaction) []PayerTotal {
	byName := make(map[string]*PayerTotal)
	for i := range txns {
		if !txns[i].HasKnownPayer() {
			continue
		}
		pt, ok := byName[txns[i].PayerName]
		if !ok {
			pt = &PayerTotal{PayerName: txns[i].PayerName, Total: decimal.Zero}
			byName[txns[i].PayerName] = pt
		}
		pt.Total = pt.Total.Add(txns[i].Amount)
		pt.Count++
	}

	out := make([]PayerTotal, 0, len(byName))
	for _, pt := range byName {
		out = append(out, *pt)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].PayerName < out[j].PayerName
	})
	return out
}
