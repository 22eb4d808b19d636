package direct

import (
	"fmt"
	"slices"
	"strings"

	"otasync/internal/booking"
)

// Bucket is the reservation count and revenue of one group.
type Bucket struct {
	Key     string         `json:"key"`
	Count   int            `json:"count"`
	Revenue booking.Amount `json:"revenue"`
}

// Summary groups reservations by property, check-in month (YYYY-MM), check-in ISO week (YYYY-Www)
// and plan status. Revenue is the total tariff. Buckets are ordered by key.
type Summary struct {
	Reservations int            `json:"reservations"`
	Revenue      booking.Amount `json:"revenue"`
	ByProperty   []Bucket       `json:"by_property"`
	Monthly      []Bucket       `json:"monthly"`
	Weekly       []Bucket       `json:"weekly"`
	ByStatus     []Bucket       `json:"by_status"`
}

type buckets map[string]*Bucket

func (b buckets) add(key string, revenue booking.Amount) {
	bk, ok := b[key]
	if !ok {
		bk = &Bucket{Key: key, Revenue: booking.Zero}
		b[key] = bk
	}
	bk.Count++
	bk.Revenue = bk.Revenue.Add(revenue)
}

func (b buckets) sorted() []Bucket {
	out := make([]Bucket, 0, len(b))
	for _, bk := range b {
		out = append(out, *bk)
	}
	slices.SortFunc(out, func(x, y Bucket) int { return strings.Compare(x.Key, y.Key) })
	return out
}

// Summarize computes the analytics of rows. A reservation without a readable check-in is left out of the
// monthly and weekly buckets only.
func Summarize(rows []Reservation) Summary {
	s := Summary{Revenue: booking.Zero}
	property, monthly, weekly, status := buckets{}, buckets{}, buckets{}, buckets{}

	for _, r := range rows {
		s.Reservations++
		s.Revenue = s.Revenue.Add(r.TotalTariff)

		property.add(r.PropertyName, r.TotalTariff)

		st := r.PlanStatus
		if st == "" {
			st = StatusPending
		}
		status.add(st, r.TotalTariff)

		in, err := booking.ParseDate(r.CheckIn)
		if err != nil || in.IsZero() {
			continue
		}

		monthly.add(in.Format("2006-01"), r.TotalTariff)

		year, week := in.ISOWeek()
		weekly.add(fmt.Sprintf("%d-W%02d", year, week), r.TotalTariff)
	}

	s.ByProperty = property.sorted()
	s.Monthly = monthly.sorted()
	s.Weekly = weekly.sorted()
	s.ByStatus = status.sorted()

	return s
}
