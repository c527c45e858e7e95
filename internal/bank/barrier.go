// internal/bank/barrier.go
//
// 日結屏障：固定數量的 worker 各自完成「今天」的操作後呼叫 WorkerFinishedDay。
// 最後抵達者負責結算報表、歸零計數，然後逐一喚醒其他 worker；
// 其他 worker 則在自己的喚醒通道上等待。
//
// 喚醒通道為單格緩衝：某 worker 要能再次收到訊號，必須先抵達下一天的屏障，
// 而那時它早已消費掉上一個訊號，所以送出端永遠不會阻塞，也不會有跨日殘留的訊號。
package bank

// WorkerFinishedDay 由 worker 在完成當日操作後呼叫，直到所有 worker 都抵達才返回。
// last 為 true 表示本次呼叫者是最後抵達者並已完成結算。
// 同一個 worker 編號同時只能有一個呼叫在進行。
func (b *Bank) WorkerFinishedDay(worker int) (last bool, err error) {
	if worker < 0 || worker >= len(b.wake) {
		return false, ErrWorkerOutOfRange
	}

	b.dayMu.Lock()
	b.finishedToday++
	if b.finishedToday < len(b.wake) {
		b.dayMu.Unlock()
		<-b.wake[worker]
		return false, nil
	}

	bal := b.TotalBalance()
	b.reportMu.Lock()
	d := b.report.closeDay(bal, b.now())
	b.reportMu.Unlock()
	hook := b.OnDayClosed
	if hook != nil {
		// 先在屏障鎖外執行 hook，再放行其他 worker：
		// hook 可呼叫 FinishedToday 等方法，而其他 worker 仍在等待，不會進入下一天
		b.dayMu.Unlock()
		hook(d)
		b.dayMu.Lock()
	}

	b.finishedToday = 0
	for i, ch := range b.wake {
		if i != worker {
			ch <- struct{}{}
		}
	}
	b.dayMu.Unlock()
	return true, nil
}

// FinishedToday 回傳今天已抵達屏障的 worker 數。
func (b *Bank) FinishedToday() int {
	b.dayMu.Lock()
	defer b.dayMu.Unlock()
	return b.finishedToday
}

// Day 回傳已結算的天數，也就是目前進行中的日期編號。
func (b *Bank) Day() int {
	b.reportMu.Lock()
	defer b.reportMu.Unlock()
	return len(b.report.Days)
}
