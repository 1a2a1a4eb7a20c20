package domain

import (
	"math"
	"sort"
	"time"
)

type ABCClass string

const (
	ClassA ABCClass = "A"
	ClassB ABCClass = "B"
	ClassC ABCClass = "C"
)

// ABCThresholds are cumulative value percentages closing classes A and B.
type ABCThresholds struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

var DefaultABCThresholds = ABCThresholds{A: 80, B: 95}

type ABCItem struct {
	VariantID     uint     `json:"variant_id"`
	Name          string   `json:"name"`
	OnHand        float64  `json:"qty_on_hand"`
	StandardPrice float64  `json:"standard_price"`
	Value         float64  `json:"value"`
	CumulativePct float64  `json:"cumulative_pct"`
	Class         ABCClass `json:"class"`
}

// ClassifyABC ranks items by value and assigns classes by the cumulative
// percentage including the item itself. Zero-value items are C.
func ClassifyABC(items []ABCItem, th ABCThresholds) []ABCItem {
	out := append([]ABCItem(nil), items...)
	var total float64
	for i := range out {
		out[i].Value = out[i].OnHand * out[i].StandardPrice
		if out[i].Value > 0 {
			total += out[i].Value
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].VariantID < out[j].VariantID
	})
	var cum float64
	for i := range out {
		if out[i].Value <= 0 || total <= 0 {
			out[i].Class = ClassC
			out[i].CumulativePct = 100
			continue
		}
		cum += out[i].Value
		pct := cum / total * 100
		out[i].CumulativePct = math.Round(pct*100) / 100
		switch {
		case pct <= th.A+1e-9:
			out[i].Class = ClassA
		case pct <= th.B+1e-9:
			out[i].Class = ClassB
		default:
			out[i].Class = ClassC
		}
	}
	return out
}

// Forecast is the demand projection of one variant.
type Forecast struct {
	VariantID       uint    `json:"variant_id"`
	HistoryDays     int     `json:"history_days"`
	HorizonDays     int     `json:"horizon_days"`
	MovingAvg7      float64 `json:"moving_avg_7"`
	MovingAvg30     float64 `json:"moving_avg_30"`
	MovingAvg90     float64 `json:"moving_avg_90"`
	Slope           float64 `json:"trend_slope"`
	Intercept       float64 `json:"trend_intercept"`
	ProjectedDemand float64 `json:"projected_demand"`
	OnHand          float64 `json:"qty_on_hand"`
	Shortage        bool    `json:"shortage_warning"`
}

// SafetyMargin scales projected demand before comparing it with on-hand.
const SafetyMargin = 1.2

// DailySeries buckets outbound quantities into days, oldest first,
// ending on the day of end. Missing days are zero.
func DailySeries(moves []Move, end time.Time, days int) []float64 {
	series := make([]float64, days)
	for _, m := range moves {
		offset := calendarDays(m.Date.In(end.Location()), end)
		if offset < 0 || offset >= days {
			continue
		}
		series[days-1-offset] += m.Quantity
	}
	return series
}

// calendarDays counts date boundaries from a to b in their wall clock, so
// a 23 or 25 hour DST day still counts as one.
func calendarDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

func movingAvg(series []float64, window int) float64 {
	if window > len(series) {
		window = len(series)
	}
	if window == 0 {
		return 0
	}
	var sum float64
	for _, v := range series[len(series)-window:] {
		sum += v
	}
	return sum / float64(window)
}

// linearFit returns intercept a and slope b of the least-squares line
// through (t, series[t]); ok is false with fewer than two points.
func linearFit(series []float64) (a, b float64, ok bool) {
	n := float64(len(series))
	if len(series) < 2 {
		return 0, 0, false
	}
	var sx, sy, sxx, sxy float64
	for i, y := range series {
		x := float64(i)
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0, 0, false
	}
	b = (n*sxy - sx*sy) / den
	a = (sy - b*sx) / n
	return a, b, true
}

// BuildForecast projects demand over horizon days from a daily series.
func BuildForecast(variantID uint, series []float64, horizon int, onHand float64) Forecast {
	f := Forecast{
		VariantID:   variantID,
		HistoryDays: len(series),
		HorizonDays: horizon,
		MovingAvg7:  round2(movingAvg(series, 7)),
		MovingAvg30: round2(movingAvg(series, 30)),
		MovingAvg90: round2(movingAvg(series, 90)),
		OnHand:      onHand,
	}
	a, b, ok := linearFit(series)
	var demand float64
	if ok {
		f.Slope, f.Intercept = round4(b), round4(a)
		n := len(series)
		for t := n; t < n+horizon; t++ {
			demand += math.Max(0, a+b*float64(t))
		}
	} else {
		demand = movingAvg(series, 30) * float64(horizon)
	}
	f.ProjectedDemand = round2(demand)
	f.Shortage = demand*SafetyMargin > onHand
	return f
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
