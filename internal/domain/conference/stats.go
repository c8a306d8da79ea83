package conference

import (
	"sort"

	"github.com/shopspring/decimal"
)

// RankingSize is the number of conferentes listed on the dashboard
const RankingSize = 5

// ConferenteRank summarizes one conferente's completed conferences
type ConferenteRank struct {
	Name         string
	Conferences  int
	Accurate     int
	AccuracyRate decimal.Decimal
}

// DashboardStats aggregates completed conferences over a period
type DashboardStats struct {
	TotalConferences     int
	DivergentConferences int
	TotalItems           int
	AccuracyRate         decimal.Decimal
	Ranking              []ConferenteRank
}

// ComputeStats aggregates history batches. The accuracy rate is the share of conferences without
// divergence, 100 when there are none. The ranking orders conferentes by conference count.
func ComputeStats(batches []*Batch) DashboardStats {
	stats := DashboardStats{Ranking: make([]ConferenteRank, 0)}
	order := make([]string, 0)
	ranks := make(map[string]*ConferenteRank)

	for _, b := range batches {
		stats.TotalConferences++
		stats.TotalItems += len(b.Items)
		divergent := b.HasDivergence()
		if divergent {
			stats.DivergentConferences++
		}

		rank, ok := ranks[b.ConferenteName]
		if !ok {
			rank = &ConferenteRank{Name: b.ConferenteName}
			ranks[b.ConferenteName] = rank
			order = append(order, b.ConferenteName)
		}
		rank.Conferences++
		if !divergent {
			rank.Accurate++
		}
	}

	stats.AccuracyRate = rate(stats.TotalConferences-stats.DivergentConferences, stats.TotalConferences)

	for _, name := range order {
		rank := ranks[name]
		rank.AccuracyRate = rate(rank.Accurate, rank.Conferences)
		stats.Ranking = append(stats.Ranking, *rank)
	}
	sort.SliceStable(stats.Ranking, func(i, j int) bool {
		return stats.Ranking[i].Conferences > stats.Ranking[j].Conferences
	})
	if len(stats.Ranking) > RankingSize {
		stats.Ranking = stats.Ranking[:RankingSize]
	}

	return stats
}

func rate(part, total int) decimal.Decimal {
	if total == 0 {
		return decimal.NewFromInt(100)
	}
	return decimal.NewFromInt(int64(part)).Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).Round(1)
}
