// Package health aggregates a client's rollout progress into a 0..100 health score.
// Every function here is pure and safe for concurrent use.
package health

import (
	"time"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/bi"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/client"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/process"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/status"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/tech"
)

// Weights are in tenths so the score is computed exactly in integers.
const (
	techWeight    = 4
	biWeight      = 3
	processWeight = 3

	blockedPenalty = 10
	overduePenalty = 5
)

// Progressable is any rollout item with a status, a progress percentage and an optional target date.
type Progressable interface {
	ProgressStatus() status.Status
	ProgressPercent() int
	Due() *core.Date
}

// Input holds the records of a single client. Callers only pass items belonging to Client.
type Input struct {
	Client  client.Client
	Tech    []tech.Implementation
	BI      []bi.ClientPanel
	Surveys []process.Survey
}

// Breakdown explains how a Score was reached.
type Breakdown struct {
	TechProgress    int  `json:"tech_progress"`
	BIProgress      int  `json:"bi_progress"`
	ProcessProgress int  `json:"process_progress"`
	Penalty         int  `json:"penalty"`
	Shortcut        bool `json:"shortcut"`
	Score           int  `json:"score"`
	Band            Band `json:"band"`
}

// AverageProgress is the rounded mean progress of items whose status is not excluded; 0 when none remain.
func AverageProgress[P Progressable](items []P, exclude ...status.Status) int {
	var sum, n int
	for _, item := range items {
		if item.ProgressStatus().In(exclude...) {
			continue
		}
		sum += core.ClampPercent(item.ProgressPercent())
		n++
	}
	if n == 0 {
		return 0
	}
	return divRound(sum, n)
}

// ProcessProgress is the rounded mean of each survey's four sub-score mean; 0 without surveys.
func ProcessProgress(surveys []process.Survey) int {
	if len(surveys) == 0 {
		return 0
	}
	// every survey has the same number of sub-scores, so the mean of means is the overall mean
	var sum, n int
	for _, s := range surveys {
		for _, v := range s.SubScores() {
			sum += core.ClampPercent(v)
			n++
		}
	}
	return divRound(sum, n)
}

// Overdue reports whether an item with target date and status st is late on the given day.
// Implemented items and items without a target date are never overdue.
func Overdue(target *core.Date, st status.Status, today core.Date) bool {
	return target != nil && st != status.Implemented && target.Before(today)
}

// Penalty sums the BLOCKED and overdue penalties of a single item.
func Penalty(item Progressable, today core.Date) int {
	var p int
	if item.ProgressStatus() == status.Blocked {
		p += blockedPenalty
	}
	if Overdue(item.Due(), item.ProgressStatus(), today) {
		p += overduePenalty
	}
	return p
}

// Compute scores a client on the given calendar day.
func Compute(in Input, today core.Date) Breakdown {
	var b Breakdown

	b.TechProgress = AverageProgress(in.Tech, status.Deprecated)
	b.BIProgress = AverageProgress(in.BI)
	b.ProcessProgress = ProcessProgress(in.Surveys)

	for _, impl := range in.Tech {
		if impl.Status == status.Deprecated {
			continue
		}
		b.Penalty += Penalty(impl, today)
	}
	for _, cp := range in.BI {
		b.Penalty += Penalty(cp, today)
	}

	if allRelevantImplemented(in.Tech) && len(in.BI) > 0 {
		b.Shortcut = true
		b.Score = 100
		b.Band = BandOf(b.Score)
		return b
	}

	raw10 := techWeight*b.TechProgress + biWeight*b.BIProgress + processWeight*b.ProcessProgress - 10*b.Penalty
	if raw10 < 0 {
		raw10 = 0
	} else if raw10 > 1000 {
		raw10 = 1000
	}
	b.Score = (raw10 + 5) / 10
	b.Band = BandOf(b.Score)
	return b
}

// ClientHealthScore scores a client on the calendar day of now, in now's location.
func ClientHealthScore(in Input, now time.Time) int {
	return Compute(in, core.DateOf(now, now.Location())).Score
}

// allRelevantImplemented is true when there is at least one tech item that is neither DEPRECATED nor
// NOT_STARTED, and all such items are IMPLEMENTED.
func allRelevantImplemented(impls []tech.Implementation) bool {
	var relevant int
	for _, impl := range impls {
		if impl.Status.In(status.Deprecated, status.NotStarted) {
			continue
		}
		if impl.Status != status.Implemented {
			return false
		}
		relevant++
	}
	return relevant > 0
}

// divRound is num/den rounded half up, for num >= 0 and den > 0.
func divRound(num, den int) int {
	return (2*num + den) / (2 * den)
}
