// internal/bank/barrier_test.go
//
// 日結屏障與報表測試：
//   - W 個 worker 全部抵達前，沒有任何人被放行。
//   - 每天只有最後抵達者結算，結算後計數歸零。
//   - 跨多天重複使用不會死結。

package bank

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDayBarrier(t *testing.T) {
	const workers, days = 6, 25
	b := newBank(t, 2, 3, 100, workers)

	var arrived atomic.Int64
	var closes []DayReport
	b.OnDayClosed = func(d DayReport) {
		// 結算時必定已全員抵達，且計數尚未歸零
		if got := arrived.Load(); got != int64(workers*(d.Day+1)) {
			t.Errorf("day %d closed with %d arrivals, want %d", d.Day, got, workers*(d.Day+1))
		}
		// hook 可以回呼屏障的唯讀方法而不會死結
		if got := b.FinishedToday(); got != workers {
			t.Errorf("day %d: finishedToday=%d at close", d.Day, got)
		}
		if got := b.Day(); got != d.Day+1 {
			t.Errorf("day %d: Day()=%d inside hook", d.Day, got)
		}
		closes = append(closes, d)
	}

	lasts := make([]atomic.Int64, days)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for day := 0; day < days; day++ {
				arrived.Add(1)
				last, err := b.WorkerFinishedDay(w)
				if err != nil {
					t.Errorf("worker %d: %v", w, err)
					return
				}
				if got := arrived.Load(); got < int64(workers*(day+1)) {
					t.Errorf("worker %d released on day %d after only %d arrivals", w, day, got)
				}
				if last {
					lasts[day].Add(1)
				}
			}
		}(w)
	}
	within(t, 10*time.Second, &wg)

	for day := range lasts {
		if n := lasts[day].Load(); n != 1 {
			t.Errorf("day %d had %d last workers, want 1", day, n)
		}
	}
	if len(closes) != days {
		t.Fatalf("closes=%d want %d", len(closes), days)
	}
	if got := b.FinishedToday(); got != 0 {
		t.Fatalf("finishedToday=%d want 0", got)
	}
	if got := b.Day(); got != days {
		t.Fatalf("Day()=%d want %d", got, days)
	}
	// 所有喚醒訊號都已被消費
	for i, ch := range b.wake {
		if len(ch) != 0 {
			t.Fatalf("worker %d has a stale wake-up", i)
		}
	}
}

func TestDayBarrierPartialArrival(t *testing.T) {
	b := newBank(t, 1, 1, 100, 3)

	released := make(chan int, 2)
	for w := 0; w < 2; w++ {
		go func(w int) {
			if _, err := b.WorkerFinishedDay(w); err == nil {
				released <- w
			}
		}(w)
	}

	deadline := time.Now().Add(5 * time.Second)
	for b.FinishedToday() != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("finishedToday=%d want 2", b.FinishedToday())
		}
		time.Sleep(time.Millisecond)
	}
	select {
	case w := <-released:
		t.Fatalf("worker %d released before the last arrival", w)
	case <-time.After(50 * time.Millisecond):
	}

	last, err := b.WorkerFinishedDay(2)
	if err != nil || !last {
		t.Fatalf("third arrival: last=%v err=%v", last, err)
	}
	for i := 0; i < 2; i++ {
		select {
		case <-released:
		case <-time.After(5 * time.Second):
			t.Fatal("waiting workers were not released")
		}
	}
	if got := b.FinishedToday(); got != 0 {
		t.Fatalf("finishedToday=%d want 0", got)
	}
}

func TestWorkerOutOfRange(t *testing.T) {
	b := newBank(t, 1, 1, 100, 2)
	for _, w := range []int{-1, 2} {
		if _, err := b.WorkerFinishedDay(w); !errors.Is(err, ErrWorkerOutOfRange) {
			t.Errorf("WorkerFinishedDay(%d): want ErrWorkerOutOfRange, got %v", w, err)
		}
		if _, err := b.Teller(w); !errors.Is(err, ErrWorkerOutOfRange) {
			t.Errorf("Teller(%d): want ErrWorkerOutOfRange, got %v", w, err)
		}
	}
	if got := b.FinishedToday(); got != 0 {
		t.Fatalf("finishedToday=%d want 0", got)
	}
}

// TestReportThreshold 驗證大額轉帳計數、分 worker 歸屬與每日歸零。
func TestReportThreshold(t *testing.T) {
	b := newBank(t, 2, 2, 100, 2) // threshold 50
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	b.now = func() time.Time { return fixed }

	t0, _ := b.Teller(0)
	t1, _ := b.Teller(1)
	a, c := MakeAccountNumber(0, 0), MakeAccountNumber(1, 0)

	mustOK := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	mustOK(t0.Transfer(a, c, 50))  // large, worker 0
	mustOK(t1.Transfer(c, a, 10))  // small
	mustOK(t1.Transfer(c, a, 60))  // large, worker 1
	mustOK(b.Transfer(a, c, 70))   // large, no worker
	mustOK(t0.Transfer(a, a, 999)) // self transfer: no-op, not recorded
	if err := t0.Transfer(a, c, 10_000); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}
	mustOK(t0.Deposit(a, 500)) // deposits are not transfers

	// 兩個 worker 同時抵達屏障，結算第 0 天
	var wg sync.WaitGroup
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			_, _ = b.WorkerFinishedDay(w)
		}(w)
	}
	within(t, 5*time.Second, &wg)

	days := b.Reports()
	if len(days) != 1 {
		t.Fatalf("days=%d want 1", len(days))
	}
	d := days[0]
	if d.Day != 0 || d.Balance != 900 || !d.ClosedAt.Equal(fixed) {
		t.Fatalf("day unexpected: %+v", d)
	}
	if d.Transfers != 4 || d.LargeTransfers != 3 || d.LargeVolume != 180 {
		t.Fatalf("counts unexpected: %+v", d)
	}
	if d.PerWorker[0] != 1 || d.PerWorker[1] != 1 {
		t.Fatalf("per worker=%v want [1 1]", d.PerWorker)
	}

	// 報表回傳的是拷貝
	days[0].PerWorker[0] = 42
	if b.Reports()[0].PerWorker[0] != 1 {
		t.Fatal("Reports exposes internal slice")
	}

	// 第二天沒有轉帳：計數歸零
	wg.Add(2)
	for w := 0; w < 2; w++ {
		go func(w int) {
			defer wg.Done()
			_, _ = b.WorkerFinishedDay(w)
		}(w)
	}
	within(t, 5*time.Second, &wg)
	d1 := b.Reports()[1]
	if d1.Transfers != 0 || d1.LargeTransfers != 0 || d1.PerWorker[0] != 0 || d1.Balance != 900 {
		t.Fatalf("day 1 not reset: %+v", d1)
	}
}

func TestReportSnapshot(t *testing.T) {
	b := newBank(t, 2, 2, 100, 1)
	_ = b.Transfer(MakeAccountNumber(0, 0), MakeAccountNumber(1, 1), 60)
	if _, err := b.WorkerFinishedDay(0); err != nil {
		t.Fatal(err)
	}

	s := b.ReportSnapshot()
	if s.RunID == "" || s.Meta.Version != 1 {
		t.Fatalf("meta unexpected: %+v", s)
	}
	if s.Config.Branches != 2 || s.Config.AccountsPerBranch != 2 || s.Config.Workers != 1 {
		t.Fatalf("config unexpected: %+v", s.Config)
	}
	if len(s.Days) != 1 || s.Days[0].Balance != 400 || s.Days[0].Display != "4.00" || s.Days[0].LargeTransfers != 1 {
		t.Fatalf("days unexpected: %+v", s.Days)
	}
}
