// Package analytics derives convergence insights from stored sessions.
package analytics

import (
	"database/sql"
	"sort"
)

// Summary aggregates every stored session.
type Summary struct {
	TotalSessions   int            `json:"total_sessions"`
	ByStatus        map[string]int `json:"by_status"`
	Designs         int            `json:"designs"`
	TotalIterations int            `json:"total_iterations"`
	AvgIterations   float64        `json:"avg_iterations"`
	ConvergenceRate float64        `json:"convergence_rate"` // 0.0 - 1.0
}

// DesignStats aggregates the sessions of one design.
type DesignStats struct {
	Design          string   `json:"design"`
	TotalSessions   int      `json:"total_sessions"`
	Converged       int      `json:"converged"`
	Aborted         int      `json:"aborted"`
	ConvergenceRate float64  `json:"convergence_rate"`
	AvgIterations   float64  `json:"avg_iterations"`
	BestSetupSlack  *float64 `json:"best_setup_slack,omitempty"`
}

// Analyzer computes aggregates over the session history.
type Analyzer struct {
	db *sql.DB
}

func NewAnalyzer(db *sql.DB) *Analyzer {
	return &Analyzer{db: db}
}

// Summary returns overall session statistics.
func (a *Analyzer) Summary() (*Summary, error) {
	summary := &Summary{ByStatus: make(map[string]int)}

	rows, err := a.db.Query(`SELECT status, COUNT(*) FROM sessions GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		summary.ByStatus[status] = count
		summary.TotalSessions += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	row := a.db.QueryRow(`SELECT COUNT(DISTINCT design), COALESCE(SUM(iterations), 0) FROM sessions`)
	if err := row.Scan(&summary.Designs, &summary.TotalIterations); err != nil {
		return nil, err
	}

	if summary.TotalSessions > 0 {
		summary.AvgIterations = float64(summary.TotalIterations) / float64(summary.TotalSessions)
		summary.ConvergenceRate = float64(summary.ByStatus["converged"]) / float64(summary.TotalSessions)
	}

	return summary, nil
}

// DesignBreakdown aggregates per design, busiest designs first.
func (a *Analyzer) DesignBreakdown(limit int) ([]DesignStats, error) {
	rows, err := a.db.Query(`SELECT design, status, iterations, setup_slack FROM sessions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type acc struct {
		stats      DesignStats
		iterations int
	}
	byDesign := make(map[string]*acc)

	for rows.Next() {
		var design, status string
		var iterations int
		var setup sql.NullFloat64
		if err := rows.Scan(&design, &status, &iterations, &setup); err != nil {
			return nil, err
		}

		entry, ok := byDesign[design]
		if !ok {
			entry = &acc{stats: DesignStats{Design: design}}
			byDesign[design] = entry
		}

		entry.stats.TotalSessions++
		entry.iterations += iterations
		switch status {
		case "converged":
			entry.stats.Converged++
		case "aborted":
			entry.stats.Aborted++
		}
		if setup.Valid {
			if entry.stats.BestSetupSlack == nil || setup.Float64 > *entry.stats.BestSetupSlack {
				v := setup.Float64
				entry.stats.BestSetupSlack = &v
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var breakdown []DesignStats
	for _, entry := range byDesign {
		if entry.stats.TotalSessions > 0 {
			entry.stats.ConvergenceRate = float64(entry.stats.Converged) / float64(entry.stats.TotalSessions)
			entry.stats.AvgIterations = float64(entry.iterations) / float64(entry.stats.TotalSessions)
		}
		breakdown = append(breakdown, entry.stats)
	}

	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].TotalSessions != breakdown[j].TotalSessions {
			return breakdown[i].TotalSessions > breakdown[j].TotalSessions
		}
		return breakdown[i].Design < breakdown[j].Design
	})

	if limit > 0 && len(breakdown) > limit {
		breakdown = breakdown[:limit]
	}

	return breakdown, nil
}
