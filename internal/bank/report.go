// internal/bank/report.go
//
// Report 累積跨 worker 的全行統計：每日結算餘額與大額轉帳計數。
// Report 沒有自己的鎖；所有存取都必須持有 Bank.reportMu，
// 讓報表成為「單一共享、完全互斥」的資源。

package bank

import (
	"time"

	"github.com/google/uuid"
)

// DayReport 為一天結束時的結算紀錄。
type DayReport struct {
	Day            int       `json:"day"`
	Balance        Amount    `json:"balance"`
	Transfers      int       `json:"transfers"`
	LargeTransfers int       `json:"large_transfers"`
	LargeVolume    Amount    `json:"large_volume"`
	PerWorker      []int     `json:"per_worker"`
	ClosedAt       time.Time `json:"closed_at"`
}

// Report 為全行報表。
type Report struct {
	RunID     uuid.UUID
	Threshold Amount
	Workers   int
	Days      []DayReport

	// 當日尚未結算的計數
	transfers   int
	large       int
	largeVolume Amount
	perWorker   []int
}

func newReport(threshold Amount, workers int) *Report {
	return &Report{
		RunID:     uuid.New(),
		Threshold: threshold,
		Workers:   workers,
		perWorker: make([]int, workers),
	}
}

// recordTransfer 記錄一筆成功轉帳；worker 為 -1 代表非 worker 呼叫。
func (r *Report) recordTransfer(worker int, amount Amount) {
	r.transfers++
	if amount < r.Threshold {
		return
	}
	r.large++
	r.largeVolume += amount
	if worker >= 0 && worker < len(r.perWorker) {
		r.perWorker[worker]++
	}
}

// closeDay 將當日計數結算成 DayReport 並歸零。
func (r *Report) closeDay(balance Amount, now time.Time) DayReport {
	d := DayReport{
		Day:            len(r.Days),
		Balance:        balance,
		Transfers:      r.transfers,
		LargeTransfers: r.large,
		LargeVolume:    r.largeVolume,
		PerWorker:      append([]int(nil), r.perWorker...),
		ClosedAt:       now,
	}
	r.Days = append(r.Days, d)
	r.transfers, r.large, r.largeVolume = 0, 0, 0
	for i := range r.perWorker {
		r.perWorker[i] = 0
	}
	return d
}

func (r *Report) copyDays() []DayReport {
	out := make([]DayReport, len(r.Days))
	for i, d := range r.Days {
		d.PerWorker = append([]int(nil), d.PerWorker...)
		out[i] = d
	}
	return out
}
