// internal/bank/errors.go
//
// 本檔集中定義「領域錯誤（domain errors）」。
// 操作層級錯誤一律以回傳值交給呼叫端，不會 panic；
// 只有初始化失敗（ErrConfiguration）會讓 Bank 無法建立。

package bank

import (
	"errors"
	"fmt"
)

var (
	// ErrAccountNotFound 代表帳號無法解析（分行或子帳戶越界）。未取任何鎖。
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientFunds 代表餘額不足；回傳前所有已取得的鎖都已釋放。
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount 代表金額為負，於上鎖前即拒絕。
	ErrInvalidAmount = errors.New("amount must be >= 0")

	// ErrAmountOverflow 代表入帳後餘額會超過上限（int64 溢位）。
	// 它也符合 errors.Is(err, ErrInvalidAmount)。
	ErrAmountOverflow = fmt.Errorf("%w: balance would overflow", ErrInvalidAmount)

	// ErrConfiguration 代表 Bank 初始化參數非法。
	ErrConfiguration = errors.New("invalid bank configuration")

	// ErrWorkerOutOfRange 代表 worker 編號不在 [0, Workers) 內。
	ErrWorkerOutOfRange = errors.New("worker index out of range")
)

// OpError 記錄失敗的操作名稱與帳號，Unwrap 後為上述哨兵錯誤。
type OpError struct {
	Op      string
	Account AccountNumber
	Err     error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Account, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func opErr(op string, n AccountNumber, err error) error {
	return &OpError{Op: op, Account: n, Err: err}
}

// BranchError 為單一分行的驗證結果。
type BranchError struct {
	Branch uint32
	Err    error
}

func (e *BranchError) Error() string {
	return fmt.Sprintf("branch %d: %v", e.Branch, e.Err)
}

func (e *BranchError) Unwrap() error { return e.Err }

// MismatchError 描述 Compare 找到的第一個差異。
// Branch 為 -1 時表示差異不在分行（例如分行數量或報表）。
type MismatchError struct {
	Branch int
	What   string
	A, B   int64
}

func (e *MismatchError) Error() string {
	if e.Branch < 0 {
		return fmt.Sprintf("mismatch in %s: %d vs %d", e.What, e.A, e.B)
	}
	return fmt.Sprintf("branch %d mismatch in %s: %d vs %d", e.Branch, e.What, e.A, e.B)
}

// Kind 回傳錯誤種類的簡短名稱，供 driver 與日誌使用。
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAccountNotFound):
		return "AccountNotFound"
	case errors.Is(err, ErrAmountOverflow):
		return "AmountOverflow"
	case errors.Is(err, ErrInsufficientFunds):
		return "InsufficientFunds"
	case errors.Is(err, ErrInvalidAmount):
		return "InvalidAmount"
	case errors.Is(err, ErrConfiguration):
		return "ConfigurationError"
	default:
		return "Unknown"
	}
}
