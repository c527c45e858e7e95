// internal/bank/account.go

// Package bank 定義核心領域模型與業務規則。
// 本檔定義 Account 與帳號編碼（AccountNumber），不含任何 HTTP 或儲存細節。

package bank

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// AccountNumber 為 64-bit 複合帳號：
// 高 32 位元 = 分行索引，低 32 位元 = 分行內子帳戶索引。
// 此編碼屬於對外契約，外部呼叫端自行組帳號時必須遵守。
type AccountNumber uint64

// Amount 以最小貨幣單位（如分）表示金額，避免浮點誤差。
type Amount = int64

const branchShift = 32

// MakeAccountNumber 由 (branch, subaccount) 組出複合帳號。
func MakeAccountNumber(branch, subaccount uint32) AccountNumber {
	return AccountNumber(uint64(branch)<<branchShift | uint64(subaccount))
}

// Branch 以位移還原分行索引；取代原本 Account → Bank 的反向指標。
func (n AccountNumber) Branch() uint32 { return uint32(n >> branchShift) }

// Subaccount 回傳分行內的子帳戶索引。
func (n AccountNumber) Subaccount() uint32 { return uint32(n) }

// SameBranch 判斷兩帳號是否屬於同一分行。
func (n AccountNumber) SameBranch(o AccountNumber) bool { return n.Branch() == o.Branch() }

func (n AccountNumber) String() string {
	return fmt.Sprintf("%d:%d", n.Branch(), n.Subaccount())
}

// Account represents a single ledger account.
// - mu：帳戶專屬互斥鎖，所有餘額變更都必須持有它。
// - balance：以 atomic 儲存，讓「不加鎖讀取」在 race detector 下也安全；
//   寫入仍只在臨界區內進行。
type Account struct {
	number  AccountNumber
	balance atomic.Int64
	mu      sync.Mutex
}

func (a *Account) init(number AccountNumber, initial Amount) {
	a.number = number
	a.balance.Store(initial)
}

// Number 回傳帳號。
func (a *Account) Number() AccountNumber { return a.number }

// Balance 為不加鎖讀取；需要一致快照的呼叫端必須自行持有帳戶鎖。
func (a *Account) Balance() Amount { return a.balance.Load() }

// adjust 將 delta 套用到帳戶餘額。
// updateBranch 為 true 時同時調整所屬分行的累計餘額，
// 呼叫端必須已持有帳戶鎖與該分行鎖；本函式本身不取任何鎖，
// 因此同一個原語可用於單帳戶存提款，也可作為已上鎖轉帳中的一步。
func (a *Account) adjust(br *Branch, delta Amount, updateBranch bool) {
	a.balance.Add(delta)
	if updateBranch {
		br.balance += delta
	}
}

// AccountView 為對外回傳的帳戶值拷貝，不暴露內部鎖。
type AccountView struct {
	Number  AccountNumber `json:"number"`
	Branch  uint32        `json:"branch"`
	Balance Amount        `json:"balance"`
}

func (a *Account) view() AccountView {
	return AccountView{Number: a.number, Branch: a.number.Branch(), Balance: a.Balance()}
}
