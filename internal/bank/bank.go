// internal/bank/bank.go

// Package bank 定義核心商業邏輯：分行、帳戶、存提款、轉帳、全行彙總與日結屏障。
// 與單一全域鎖不同，這裡每個帳戶與每個分行各有一把鎖，
// 多鎖操作一律依固定的全域順序取得（見 teller.go），以保證不會死結。
// 金額以 int64 的最小貨幣單位（如分）儲存，避免浮點誤差。
package bank

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"bankledger/internal/storage"
)

// MaxAccounts 為單一 Bank 可配置的帳戶總數上限；超過即視為配置錯誤，
// 而不是在配置記憶體時失敗。
const MaxAccounts = 1 << 26

// Config 為 Bank 初始化參數。
type Config struct {
	Branches           int
	AccountsPerBranch  int
	InitialBalance     Amount
	ReportingThreshold Amount
	Workers            int
}

// Validate 檢查參數；任何錯誤皆包裝 ErrConfiguration。
func (c Config) Validate() error {
	switch {
	case c.Branches <= 0 || uint64(c.Branches) > math.MaxUint32:
		return fmt.Errorf("%w: branches=%d", ErrConfiguration, c.Branches)
	case c.AccountsPerBranch <= 0 || uint64(c.AccountsPerBranch) > math.MaxUint32:
		return fmt.Errorf("%w: accounts per branch=%d", ErrConfiguration, c.AccountsPerBranch)
	case c.InitialBalance < 0:
		return fmt.Errorf("%w: initial balance=%d", ErrConfiguration, c.InitialBalance)
	case c.ReportingThreshold < 0:
		return fmt.Errorf("%w: reporting threshold=%d", ErrConfiguration, c.ReportingThreshold)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers=%d", ErrConfiguration, c.Workers)
	}
	total := uint64(c.Branches) * uint64(c.AccountsPerBranch)
	if total > MaxAccounts {
		return fmt.Errorf("%w: %d accounts exceeds limit %d", ErrConfiguration, total, MaxAccounts)
	}
	if c.InitialBalance > 0 && uint64(c.AccountsPerBranch) > uint64(c.branchLimit()/c.InitialBalance) {
		return fmt.Errorf("%w: total balance overflows int64", ErrConfiguration)
	}
	return nil
}

// branchLimit 為每個分行累計餘額的上限，使全行總額不會超過 int64。
func (c Config) branchLimit() Amount {
	return math.MaxInt64 / Amount(c.Branches)
}

// Bank 為聚合根 (Aggregate Root)：獨占擁有所有分行、報表與日結屏障狀態。
// - reportMu：保護 report 的唯一鎖。
// - dayMu / finishedToday / wake：日結屏障（見 barrier.go），
//   與帳戶、分行鎖完全分開，不參與轉帳鎖定順序。
type Bank struct {
	cfg      Config
	branches []*Branch

	reportMu sync.Mutex
	report   *Report

	dayMu         sync.Mutex
	finishedToday int
	wake          []chan struct{}

	// OnDayClosed 若非 nil，最後一位 worker 在結算後、喚醒他人前呼叫它。
	// 必須在任何 worker 開始前設定。呼叫時已釋放屏障鎖，
	// 因此 hook 內可以呼叫 FinishedToday、Day、Reports 等唯讀方法。
	OnDayClosed func(DayReport)

	now func() time.Time
}

// New 建立銀行；參數非法時回傳 ErrConfiguration，不會回傳半初始化的 Bank。
func New(cfg Config) (*Bank, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &Bank{
		cfg:      cfg,
		branches: make([]*Branch, cfg.Branches),
		report:   newReport(cfg.ReportingThreshold, cfg.Workers),
		wake:     make([]chan struct{}, cfg.Workers),
		now:      time.Now,
	}
	for i := range b.branches {
		b.branches[i] = newBranch(uint32(i), cfg.AccountsPerBranch, cfg.InitialBalance, cfg.branchLimit())
	}
	for i := range b.wake {
		// 單格緩衝：一次喚醒只排隊一個訊號，由該 worker 消費一次
		b.wake[i] = make(chan struct{}, 1)
	}
	return b, nil
}

// Config 回傳建立時的參數。
func (b *Bank) Config() Config { return b.cfg }

// NumBranches 回傳分行數。
func (b *Bank) NumBranches() int { return len(b.branches) }

// Branch 依索引取得分行。
func (b *Bank) Branch(i int) (*Branch, bool) {
	if i < 0 || i >= len(b.branches) {
		return nil, false
	}
	return b.branches[i], true
}

// Lookup 純索引解析，不上鎖：高位元解出分行，再檢查子帳戶邊界。
func (b *Bank) Lookup(n AccountNumber) (*Account, error) {
	br := n.Branch()
	if uint64(br) >= uint64(len(b.branches)) {
		return nil, ErrAccountNotFound
	}
	a, ok := b.branches[br].account(n.Subaccount())
	if !ok {
		return nil, ErrAccountNotFound
	}
	return a, nil
}

// Get 取得帳戶的值拷貝。
func (b *Bank) Get(n AccountNumber) (AccountView, error) {
	a, err := b.Lookup(n)
	if err != nil {
		return AccountView{}, opErr("get", n, err)
	}
	return a.view(), nil
}

// TotalBalance 取得全行總額。
// 依分行索引遞減取得所有分行鎖並同時持有，加總各分行累計餘額後依相反順序釋放。
// 持有所有分行鎖時，只剩同分行轉帳可能進行中；它對分行累計餘額為零和，
// 因此結果必定對應某個合法的交錯順序，不會讀到轉帳做到一半的狀態。
func (b *Bank) TotalBalance() Amount {
	for i := len(b.branches) - 1; i >= 0; i-- {
		b.branches[i].mu.Lock()
	}
	var total Amount
	for _, br := range b.branches {
		total += br.balance
	}
	for i := 0; i < len(b.branches); i++ {
		b.branches[i].mu.Unlock()
	}
	return total
}

// Validate 逐一驗證每個分行，收集每個分行的第一個錯誤（不會因某分行失敗而中止）。
// 每次只持有一把分行鎖；應於沒有同分行轉帳進行中時呼叫（例如日結或結束後）。
func (b *Bank) Validate() []error {
	var errs []error
	for _, br := range b.branches {
		br.mu.Lock()
		err := br.validate(b.cfg.AccountsPerBranch)
		br.mu.Unlock()
		if err != nil {
			errs = append(errs, &BranchError{Branch: br.id, Err: err})
		}
	}
	b.reportMu.Lock()
	defer b.reportMu.Unlock()
	if n := len(b.report.Days); n > 0 && b.report.Days[n-1].Balance < 0 {
		errs = append(errs, fmt.Errorf("report: negative balance %d on day %d", b.report.Days[n-1].Balance, n-1))
	}
	return errs
}

// Reports 回傳已結算日報的拷貝。
func (b *Bank) Reports() []DayReport {
	b.reportMu.Lock()
	defer b.reportMu.Unlock()
	return b.report.copyDays()
}

// Compare 比較兩家銀行的資料是否完全相同，回傳第一個差異（*MismatchError），相同則為 nil。
// 兩家銀行都應處於靜止狀態。
func Compare(a, b *Bank) error {
	if len(a.branches) != len(b.branches) {
		return &MismatchError{Branch: -1, What: "branch count", A: int64(len(a.branches)), B: int64(len(b.branches))}
	}
	for i := range a.branches {
		ba, bb := a.branches[i], b.branches[i]
		if ba.Len() != bb.Len() {
			return &MismatchError{Branch: i, What: "account count", A: int64(ba.Len()), B: int64(bb.Len())}
		}
		for j := range ba.accounts {
			x, y := ba.accounts[j].Balance(), bb.accounts[j].Balance()
			if x != y {
				return &MismatchError{Branch: i, What: fmt.Sprintf("account %d balance", j), A: x, B: y}
			}
		}
		ba.mu.Lock()
		x := ba.balance
		ba.mu.Unlock()
		bb.mu.Lock()
		y := bb.balance
		bb.mu.Unlock()
		if x != y {
			return &MismatchError{Branch: i, What: "branch balance", A: x, B: y}
		}
	}

	// 一次只持有一家銀行的報表鎖，避免兩個方向的 Compare 互相等待
	da, db := a.Reports(), b.Reports()
	if len(da) != len(db) {
		return &MismatchError{Branch: -1, What: "report days", A: int64(len(da)), B: int64(len(db))}
	}
	for d := range da {
		if da[d].Balance != db[d].Balance {
			return &MismatchError{Branch: -1, What: fmt.Sprintf("report day %d balance", d), A: da[d].Balance, B: db[d].Balance}
		}
		if da[d].LargeTransfers != db[d].LargeTransfers {
			return &MismatchError{Branch: -1, What: fmt.Sprintf("report day %d large transfers", d),
				A: int64(da[d].LargeTransfers), B: int64(db[d].LargeTransfers)}
		}
	}
	return nil
}

// FormatAmount 將最小貨幣單位轉成兩位小數的字串（僅供顯示，運算仍為 int64）。
func FormatAmount(v Amount) string {
	return decimal.New(v, -2).StringFixed(2)
}

// ReportSnapshot 匯出本次執行的報表（非帳本狀態）為 storage.Snapshot。
func (b *Bank) ReportSnapshot() storage.Snapshot {
	b.reportMu.Lock()
	runID := b.report.RunID.String()
	days := b.report.copyDays()
	b.reportMu.Unlock()

	s := storage.Snapshot{
		Meta: storage.Meta{
			Storage: "json_snapshot",
			Version: 1,
			Note:    "end-of-day reports; ledger balances are not persisted",
		},
		RunID: runID,
		Config: storage.RunConfig{
			Branches:           b.cfg.Branches,
			AccountsPerBranch:  b.cfg.AccountsPerBranch,
			InitialBalance:     b.cfg.InitialBalance,
			ReportingThreshold: b.cfg.ReportingThreshold,
			Workers:            b.cfg.Workers,
		},
	}
	for _, d := range days {
		s.Days = append(s.Days, storage.DayRecord{
			Day:            d.Day,
			Balance:        d.Balance,
			Display:        FormatAmount(d.Balance),
			Transfers:      d.Transfers,
			LargeTransfers: d.LargeTransfers,
			LargeVolume:    d.LargeVolume,
			PerWorker:      d.PerWorker,
			ClosedAt:       d.ClosedAt,
		})
	}
	return s
}
