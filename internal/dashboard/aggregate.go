// Package dashboard computes the aggregates the dashboard charts are drawn from.
package dashboard

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/0x0BSoD/newsInsight/internal/model"
)

const (
	DefaultTopN  = 5
	OtherCountry = "Other"
	dayLayout    = "2006-01-02"
)

type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

type CountryDomains struct {
	Country string `json:"country"`
	Domains int    `json:"domains"`
}

type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

type TrafficRank struct {
	Domain     string `json:"domain"`
	GlobalRank int64  `json:"global_rank"`
	TldRank    int64  `json:"tld_rank"`
	RefSubNets int64  `json:"ref_subnets"`
	RefIPs     int64  `json:"ref_ips"`
}

// DayRange turns inclusive calendar days into the half-open [from, to) range
// storage filters on. Zero bounds stay open.
func DayRange(from, to time.Time) (time.Time, time.Time) {
	if !from.IsZero() {
		from = truncateDay(from)
	}
	if !to.IsZero() {
		to = truncateDay(to).AddDate(0, 0, 1)
	}
	return from, to
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SourceCounts counts articles per source, most articles first, ties by name.
func SourceCounts(articles []model.Article) []SourceCount {
	counts := lo.CountValuesBy(articles, func(a model.Article) string { return a.SourceName })

	out := make([]SourceCount, 0, len(counts))
	for source, n := range counts {
		out = append(out, SourceCount{Source: source, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Source < out[j].Source
	})
	return out
}

// TopBottom splits sorted counts into the n largest and the n smallest,
// the latter listed smallest first. The two may overlap.
func TopBottom(counts []SourceCount, n int) (top, bottom []SourceCount) {
	if n > len(counts) {
		n = len(counts)
	}
	top = append([]SourceCount(nil), counts[:n]...)

	bottom = make([]SourceCount, 0, n)
	for i := len(counts) - 1; i >= len(counts)-n; i-- {
		bottom = append(bottom, counts[i])
	}
	return top, bottom
}

// DomainsByCountry counts domains per country of their location. Domains
// without a known location are left out. The topN countries are kept and the
// rest summed into a trailing "Other" entry.
func DomainsByCountry(domains []model.Domain, locations []model.DomainLocation, topN int) []CountryDomains {
	countryOf := lo.SliceToMap(locations, func(l model.DomainLocation) (int64, string) {
		return l.ID, l.Country
	})

	counts := make(map[string]int)
	for _, d := range domains {
		if !d.LocationID.Valid {
			continue
		}
		if c, ok := countryOf[d.LocationID.Int64]; ok {
			counts[c]++
		}
	}

	all := make([]CountryDomains, 0, len(counts))
	for c, n := range counts {
		all = append(all, CountryDomains{Country: c, Domains: n})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Domains != all[j].Domains {
			return all[i].Domains > all[j].Domains
		}
		return all[i].Country < all[j].Country
	})

	if topN > len(all) {
		topN = len(all)
	}
	other := lo.SumBy(all[topN:], func(c CountryDomains) int { return c.Domains })
	return append(all[:topN:topN], CountryDomains{Country: OtherCountry, Domains: other})
}

// DailyCounts counts articles per UTC publication day, oldest first.
func DailyCounts(articles []model.Article) []DayCount {
	counts := lo.CountValuesBy(articles, func(a model.Article) string {
		return a.PublishedAt.UTC().Format(dayLayout)
	})

	days := lo.Keys(counts)
	sort.Strings(days)
	return lo.Map(days, func(d string, _ int) DayCount {
		return DayCount{Day: d, Count: counts[d]}
	})
}

// TopTraffic ranks traffic records by global rank, best first, naming each
// record's domain. Unranked records (rank <= 0) are dropped.
func TopTraffic(records []model.TrafficRecord, domains []model.Domain, limit int) []TrafficRank {
	names := lo.SliceToMap(domains, func(d model.Domain) (int64, string) { return d.ID, d.Name })

	ranked := lo.Filter(records, func(r model.TrafficRecord, _ int) bool { return r.GlobalRank > 0 })
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].GlobalRank < ranked[j].GlobalRank })
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return lo.Map(ranked, func(r model.TrafficRecord, _ int) TrafficRank {
		return TrafficRank{
			Domain:     names[r.DomainID],
			GlobalRank: r.GlobalRank,
			TldRank:    r.TldRank,
			RefSubNets: r.RefSubNets,
			RefIPs:     r.RefIPs,
		}
	})
}
