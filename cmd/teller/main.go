// cmd/teller/main.go

// 櫃員模擬器：建立銀行（分行 × 帳戶），啟動固定數量的 teller worker
// 跑指定天數的隨機存提款與轉帳，每天由最後完成的 worker 結算日報。
// 結束時驗證帳本一致性，並可選擇把報表寫成 JSON 快照、或以 HTTP 提供唯讀查詢。
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"bankledger/internal/bank"
	"bankledger/internal/logger"
	"bankledger/internal/server"
	"bankledger/internal/storage"
	"bankledger/internal/teller"
)

func main() {
	var (
		branches  = flag.Int("branches", 4, "number of branches")
		accounts  = flag.Int("accounts", 16, "accounts per branch")
		initial   = flag.Int64("initial", 10000, "initial balance per account, in minor units")
		threshold = flag.Int64("threshold", 5000, "transfers at or above this amount are reported")
		workers   = flag.Int("workers", 8, "number of teller workers")
		days      = flag.Int("days", 5, "number of simulated days")
		ops       = flag.Int("ops", 1000, "operations per worker per day")
		maxAmount = flag.Int64("max-amount", 8000, "largest single operation amount")
		seed      = flag.Int64("seed", 1, "random seed")
		report    = flag.String("report", "", "write end-of-day reports to this JSON file")
		addr      = flag.String("http", "", "serve read-only reports on this address, e.g. :8080")
		verbose   = flag.Bool("v", false, "verbose (debug) logging")
	)
	flag.Parse()
	if *verbose {
		logger.SetLevel(logger.Debug)
	}

	b, err := bank.New(bank.Config{
		Branches:           *branches,
		AccountsPerBranch:  *accounts,
		InitialBalance:     *initial,
		ReportingThreshold: *threshold,
		Workers:            *workers,
	})
	if err != nil {
		log.Fatalf("init bank: %v", err)
	}
	startTotal := b.TotalBalance()

	b.OnDayClosed = func(d bank.DayReport) {
		logger.Infof("day %d closed: balance=%s transfers=%d large=%d (%s)",
			d.Day, bank.FormatAmount(d.Balance), d.Transfers, d.LargeTransfers, bank.FormatAmount(d.LargeVolume))
	}

	if *addr != "" {
		s := server.NewServer(b)
		go func() {
			logger.Infof("report server running at %s", *addr)
			if err := http.ListenAndServe(*addr, s.Router()); err != nil {
				logger.Errorf("report server: %v", err)
			}
		}()
	}

	// SIGINT/SIGTERM：讓所有 worker 在當天結算後一起停下
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := teller.Run(ctx, b, teller.Workload{
		Days:      *days,
		OpsPerDay: *ops,
		MaxAmount: *maxAmount,
		Seed:      *seed,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("run: %v", err)
	}

	logger.Infof("%d days: deposits=%d withdrawals=%d transfers=%d failed=%d %v",
		stats.Days, stats.Deposits, stats.Withdrawals, stats.Transfers, stats.Failed(), stats.Failures)

	exit := 0
	want := startTotal + stats.Deposited - stats.Withdrawn
	if got := b.TotalBalance(); got != want {
		logger.Errorf("total balance %s, want %s", bank.FormatAmount(got), bank.FormatAmount(want))
		exit = 1
	}
	for _, verr := range b.Validate() {
		logger.Errorf("validate: %v", verr)
		exit = 1
	}

	if *report != "" {
		if err := storage.SaveSnapshot(*report, b.ReportSnapshot()); err != nil {
			logger.Errorf("save report: %v", err)
			exit = 1
		} else {
			logger.Infof("reports written to %s", *report)
		}
	}
	stop()
	os.Exit(exit)
}
