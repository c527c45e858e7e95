// internal/bank/branch.go
//
// Branch 持有一段連續的帳戶陣列與一把分行鎖。
// 分行鎖用於兩件事：
//   - 分行層級的彙總讀取（例如全行總額）。
//   - 跨帳戶鎖定協定中的第二層（見 teller.go）。
//
// 本檔的函式都不自行上鎖；上鎖順序由呼叫端依協定決定。
package bank

import (
	"fmt"
	"sync"
)

// Branch 為分行：獨占擁有其帳戶。
// balance 為分行累計餘額，只在持有 mu 時讀寫。
// limit 為累計餘額上限：所有分行的上限相加不超過 int64，
// 因此帳戶、分行與全行總額都不會溢位。
type Branch struct {
	id       uint32
	accounts []Account
	balance  Amount
	limit    Amount
	mu       sync.Mutex
}

func newBranch(id uint32, numAccounts int, initial, limit Amount) *Branch {
	br := &Branch{id: id, accounts: make([]Account, numAccounts), limit: limit}
	for i := range br.accounts {
		br.accounts[i].init(MakeAccountNumber(id, uint32(i)), initial)
	}
	br.balance = Amount(numAccounts) * initial
	return br
}

// ID 回傳分行索引。
func (br *Branch) ID() uint32 { return br.id }

// Len 回傳分行帳戶數。
func (br *Branch) Len() int { return len(br.accounts) }

func (br *Branch) account(sub uint32) (*Account, bool) {
	if uint64(sub) >= uint64(len(br.accounts)) {
		return nil, false
	}
	return &br.accounts[sub], true
}

// canCredit 回傳累計餘額再加上 amount 是否仍在上限內。呼叫端須持有 br.mu。
// 帳戶餘額非負且不超過分行累計餘額，所以同一檢查也涵蓋單一帳戶。
func (br *Branch) canCredit(amount Amount) bool {
	return br.balance <= br.limit-amount
}

// Total 加總分行內所有帳戶餘額。不上鎖。
func (br *Branch) Total() Amount {
	var sum Amount
	for i := range br.accounts {
		sum += br.accounts[i].Balance()
	}
	return sum
}

// validate 檢查分行內部一致性，回傳第一個發現的錯誤。
// 呼叫端須持有 br.mu（讀取累計餘額）。
func (br *Branch) validate(wantAccounts int) error {
	if len(br.accounts) != wantAccounts {
		return fmt.Errorf("account count %d, want %d", len(br.accounts), wantAccounts)
	}
	for i := range br.accounts {
		a := &br.accounts[i]
		if a.number.Branch() != br.id || a.number.Subaccount() != uint32(i) {
			return fmt.Errorf("account %s stored at %d:%d", a.number, br.id, i)
		}
		if bal := a.Balance(); bal < 0 {
			return fmt.Errorf("account %s has negative balance %d", a.number, bal)
		}
	}
	if br.balance > br.limit {
		return fmt.Errorf("branch balance %d exceeds limit %d", br.balance, br.limit)
	}
	if sum := br.Total(); sum != br.balance {
		return fmt.Errorf("branch balance %d does not match account sum %d", br.balance, sum)
	}
	return nil
}

// Accounts 回傳分行所有帳戶的值拷貝。
func (br *Branch) Accounts() []AccountView {
	out := make([]AccountView, len(br.accounts))
	for i := range br.accounts {
		out[i] = br.accounts[i].view()
	}
	return out
}
