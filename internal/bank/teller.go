// internal/bank/teller.go
//
// 存款、提款、轉帳的鎖定協定。
//
// 全域鎖定順序（所有多鎖操作都必須遵守）：
//  1. 帳戶鎖先於分行鎖。
//  2. 帳戶鎖之間：帳號大者先鎖。
//  3. 分行鎖之間：分行索引大者先鎖。
//
// 因為帳號高位元即分行索引，跨分行轉帳中「帳號大者」必屬於「索引大的分行」，
// 兩層順序方向一致。TotalBalance 只取分行鎖，同樣依索引遞減。
// 釋放順序一律與取得順序相反，且每條提早返回的路徑都會釋放已取得的鎖。
package bank

// Teller 將操作歸屬到某個 worker，讓報表可以分 worker 計數。
type Teller struct {
	bank   *Bank
	worker int
}

// Teller 回傳代表 worker 的櫃員。
func (b *Bank) Teller(worker int) (*Teller, error) {
	if worker < 0 || worker >= b.cfg.Workers {
		return nil, ErrWorkerOutOfRange
	}
	return &Teller{bank: b, worker: worker}, nil
}

// Worker 回傳櫃員所屬的 worker 編號。
func (t *Teller) Worker() int { return t.worker }

// Deposit 以此櫃員身分存款，語意同 Bank.Deposit。
func (t *Teller) Deposit(n AccountNumber, amount Amount) error {
	return t.bank.Deposit(n, amount)
}

// Withdraw 以此櫃員身分提款，語意同 Bank.Withdraw。
func (t *Teller) Withdraw(n AccountNumber, amount Amount) error {
	return t.bank.Withdraw(n, amount)
}

// Transfer 以此櫃員身分轉帳，語意同 Bank.Transfer；成功的轉帳計入該 worker 的報表。
func (t *Teller) Transfer(src, dst AccountNumber, amount Amount) error {
	return t.bank.transfer(t.worker, src, dst, amount)
}

// Deposit 存款：金額不得為負；入帳後超過分行上限則回傳 ErrAmountOverflow。
func (b *Bank) Deposit(n AccountNumber, amount Amount) error {
	if amount < 0 {
		return opErr("deposit", n, ErrInvalidAmount)
	}
	return b.adjustOne("deposit", n, amount)
}

// Withdraw 提款：金額不得為負，且不得超過餘額。
func (b *Bank) Withdraw(n AccountNumber, amount Amount) error {
	if amount < 0 {
		return opErr("withdraw", n, ErrInvalidAmount)
	}
	return b.adjustOne("withdraw", n, -amount)
}

// adjustOne 為單帳戶異動：先鎖帳戶、再鎖所屬分行；
// 餘額檢查與扣款在同一個臨界區內完成，不會觀察到負餘額。
func (b *Bank) adjustOne(op string, n AccountNumber, delta Amount) error {
	a, err := b.Lookup(n)
	if err != nil {
		return opErr(op, n, err)
	}
	br := b.branches[n.Branch()]

	a.mu.Lock()
	br.mu.Lock()
	if delta > 0 && !br.canCredit(delta) {
		br.mu.Unlock()
		a.mu.Unlock()
		return opErr(op, n, ErrAmountOverflow)
	}
	if a.Balance()+delta < 0 {
		br.mu.Unlock()
		a.mu.Unlock()
		return opErr(op, n, ErrInsufficientFunds)
	}
	a.adjust(br, delta, true)
	br.mu.Unlock()
	a.mu.Unlock()
	return nil
}

// Transfer 轉帳；不歸屬任何 worker。
func (b *Bank) Transfer(src, dst AccountNumber, amount Amount) error {
	return b.transfer(-1, src, dst, amount)
}

func (b *Bank) transfer(worker int, src, dst AccountNumber, amount Amount) error {
	if amount < 0 {
		return opErr("transfer", src, ErrInvalidAmount)
	}
	sa, err := b.Lookup(src)
	if err != nil {
		return opErr("transfer", src, err)
	}
	da, err := b.Lookup(dst)
	if err != nil {
		return opErr("transfer", dst, err)
	}
	if src == dst {
		return nil
	}

	if src.SameBranch(dst) {
		err = transferSameBranch(sa, da, amount)
	} else {
		err = b.transferCrossBranch(sa, da, amount)
	}
	if err != nil {
		return opErr("transfer", src, err)
	}

	b.reportMu.Lock()
	b.report.recordTransfer(worker, amount)
	b.reportMu.Unlock()
	return nil
}

// ordered 回傳依帳號遞減排列的兩個帳戶。
func ordered(x, y *Account) (hi, lo *Account) {
	if x.number > y.number {
		return x, y
	}
	return y, x
}

// transferSameBranch 只鎖兩個帳戶；分行累計餘額不變，因此不取分行鎖。
func transferSameBranch(src, dst *Account, amount Amount) error {
	hi, lo := ordered(src, dst)
	hi.mu.Lock()
	lo.mu.Lock()
	if src.Balance() < amount {
		lo.mu.Unlock()
		hi.mu.Unlock()
		return ErrInsufficientFunds
	}
	src.adjust(nil, -amount, false)
	dst.adjust(nil, amount, false)
	lo.mu.Unlock()
	hi.mu.Unlock()
	return nil
}

// transferCrossBranch 依序鎖：大帳號、小帳號、大分行、小分行。
func (b *Bank) transferCrossBranch(src, dst *Account, amount Amount) error {
	hi, lo := ordered(src, dst)
	hiBr, loBr := b.branches[hi.number.Branch()], b.branches[lo.number.Branch()]
	srcBr, dstBr := b.branches[src.number.Branch()], b.branches[dst.number.Branch()]

	hi.mu.Lock()
	lo.mu.Lock()
	hiBr.mu.Lock()
	loBr.mu.Lock()
	if src.Balance() < amount {
		loBr.mu.Unlock()
		hiBr.mu.Unlock()
		lo.mu.Unlock()
		hi.mu.Unlock()
		return ErrInsufficientFunds
	}
	if !dstBr.canCredit(amount) {
		loBr.mu.Unlock()
		hiBr.mu.Unlock()
		lo.mu.Unlock()
		hi.mu.Unlock()
		return ErrAmountOverflow
	}
	src.adjust(srcBr, -amount, true)
	dst.adjust(dstBr, amount, true)
	loBr.mu.Unlock()
	hiBr.mu.Unlock()
	lo.mu.Unlock()
	hi.mu.Unlock()
	return nil
}
