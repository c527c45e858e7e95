// internal/teller/teller.go

// Package teller 模擬一組櫃員 worker：每個 worker 每天執行固定數量的隨機
// 存款、提款、轉帳，然後在日結屏障等待其他 worker。
// 個別操作失敗（例如餘額不足）只記錄日誌與計數，不會中止 worker。
package teller

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"bankledger/internal/bank"
	"bankledger/internal/logger"
)

// Workload 描述每個 worker 的工作量。
type Workload struct {
	Days      int
	OpsPerDay int
	// MaxAmount 為單筆操作金額上限（含）。
	MaxAmount bank.Amount
	// Seed 決定所有 worker 的亂數序列；worker w 使用 Seed+w。
	Seed int64
}

func (w Workload) validate() error {
	if w.Days < 0 || w.OpsPerDay < 0 || w.MaxAmount < 0 {
		return fmt.Errorf("invalid workload %+v", w)
	}
	return nil
}

// Stats 為所有 worker 的合計結果。
type Stats struct {
	Deposits    int
	Withdrawals int
	Transfers   int
	// Failures 依錯誤種類（bank.Kind）計數。
	Failures map[string]int
	// Deposited / Withdrawn 只計成功的操作。
	Deposited bank.Amount
	Withdrawn bank.Amount
	Days      int
}

func (s *Stats) merge(o Stats) {
	s.Deposits += o.Deposits
	s.Withdrawals += o.Withdrawals
	s.Transfers += o.Transfers
	s.Deposited += o.Deposited
	s.Withdrawn += o.Withdrawn
	for k, v := range o.Failures {
		s.Failures[k] += v
	}
	if o.Days > s.Days {
		s.Days = o.Days
	}
}

// Failed 回傳失敗總數。
func (s Stats) Failed() int {
	n := 0
	for _, v := range s.Failures {
		n += v
	}
	return n
}

// Run 啟動 b.Config().Workers 個 worker 並等待全部結束。
//
// ctx 取消時，worker 只會在所有人都通過當天屏障之後一起停止：
// 是否停止由最後抵達者在結算時決定，其他 worker 被喚醒後讀取同一個決定，
// 因此不會有人提早離開而讓其餘 worker 永遠卡在屏障上。
// Run 會接管 b.OnDayClosed（原本的 hook 仍會被呼叫）。
func Run(ctx context.Context, b *bank.Bank, w Workload) (Stats, error) {
	total := Stats{Failures: make(map[string]int)}
	if err := w.validate(); err != nil {
		return total, err
	}

	var stop atomic.Bool
	prev := b.OnDayClosed
	b.OnDayClosed = func(d bank.DayReport) {
		if prev != nil {
			prev(d)
		}
		if ctx.Err() != nil {
			stop.Store(true)
		}
	}
	defer func() { b.OnDayClosed = prev }()

	n := b.Config().Workers
	workers := make([]*worker, n)
	for i := range workers {
		t, err := b.Teller(i)
		if err != nil {
			return total, err
		}
		workers[i] = &worker{
			teller: t,
			bank:   b,
			load:   w,
			rng:    rand.New(rand.NewSource(w.Seed + int64(i))),
			stats:  Stats{Failures: make(map[string]int)},
		}
	}

	// 所有 worker 都建好才啟動：屏障需要每一個 worker 都抵達
	g := new(errgroup.Group)
	for _, wk := range workers {
		wk := wk
		g.Go(func() error { return wk.run(&stop) })
	}
	err := g.Wait()
	for _, wk := range workers {
		total.merge(wk.stats)
	}
	// 只有真的提早停下（沒跑完所有天數）才回報取消
	if err == nil && stop.Load() && total.Days < w.Days {
		err = ctx.Err()
	}
	return total, err
}

type worker struct {
	teller *bank.Teller
	bank   *bank.Bank
	load   Workload
	rng    *rand.Rand
	stats  Stats
}

func (w *worker) run(stop *atomic.Bool) error {
	for day := 0; day < w.load.Days; day++ {
		for op := 0; op < w.load.OpsPerDay; op++ {
			w.step()
		}
		if _, err := w.bank.WorkerFinishedDay(w.teller.Worker()); err != nil {
			return fmt.Errorf("worker %d day %d: %w", w.teller.Worker(), day, err)
		}
		w.stats.Days = day + 1
		if stop.Load() {
			return nil
		}
	}
	return nil
}

func (w *worker) randomAccount() bank.AccountNumber {
	cfg := w.bank.Config()
	return bank.MakeAccountNumber(
		uint32(w.rng.Intn(cfg.Branches)),
		uint32(w.rng.Intn(cfg.AccountsPerBranch)),
	)
}

func (w *worker) amount() bank.Amount {
	if w.load.MaxAmount == 0 {
		return 0
	}
	return w.rng.Int63n(w.load.MaxAmount + 1)
}

// step 執行一筆隨機操作：存款、提款、轉帳各約三分之一。
func (w *worker) step() {
	var (
		op  string
		err error
	)
	acct := w.randomAccount()
	amt := w.amount()
	switch w.rng.Intn(3) {
	case 0:
		op = "deposit"
		w.stats.Deposits++
		if err = w.teller.Deposit(acct, amt); err == nil {
			w.stats.Deposited += amt
		}
	case 1:
		op = "withdraw"
		w.stats.Withdrawals++
		if err = w.teller.Withdraw(acct, amt); err == nil {
			w.stats.Withdrawn += amt
		}
	default:
		op = "transfer"
		w.stats.Transfers++
		err = w.teller.Transfer(acct, w.randomAccount(), amt)
	}
	if err == nil {
		return
	}
	kind := bank.Kind(err)
	w.stats.Failures[kind]++
	lvl := logger.Warn
	if errors.Is(err, bank.ErrInsufficientFunds) {
		// 餘額不足是正常的業務拒絕，量大時只在 debug 顯示
		lvl = logger.Debug
	}
	if logger.Enabled(lvl) {
		msg := "op=%s id=%s worker=%d kind=%s err=%v"
		args := []any{op, uuid.NewString(), w.teller.Worker(), kind, err}
		if lvl == logger.Debug {
			logger.Debugf(msg, args...)
		} else {
			logger.Warnf(msg, args...)
		}
	}
}
