// internal/storage/model.go
//
// 定義報表快照的序列化格式。
// 這一層只保存每日結算報表與執行參數，不保存帳本餘額：
// 行程重啟後帳本一律由初始參數重建。
//
// 本套件不 import bank，避免循環依賴；轉換由 bank.ReportSnapshot 負責。
package storage

import "time"

// Meta 為快照的中繼資料，用於版本比對與追蹤來源。
type Meta struct {
	Storage   string    `json:"storage"`        // 儲存類型，例如 "json_snapshot"
	Version   int       `json:"version"`        // 結構版本號
	Timestamp time.Time `json:"timestamp"`      // 快照建立時間
	Note      string    `json:"note,omitempty"` // 備註
}

// RunConfig 為產生此快照的銀行參數。
type RunConfig struct {
	Branches           int   `json:"branches"`
	AccountsPerBranch  int   `json:"accounts_per_branch"`
	InitialBalance     int64 `json:"initial_balance"`
	ReportingThreshold int64 `json:"reporting_threshold"`
	Workers            int   `json:"workers"`
}

// DayRecord 為單日報表的序列化格式。
// Display 為 Balance 的兩位小數表示，僅供人工檢視。
type DayRecord struct {
	Day            int       `json:"day"`
	Balance        int64     `json:"balance"`
	Display        string    `json:"display"`
	Transfers      int       `json:"transfers"`
	LargeTransfers int       `json:"large_transfers"`
	LargeVolume    int64     `json:"large_volume"`
	PerWorker      []int     `json:"per_worker"`
	ClosedAt       time.Time `json:"closed_at"`
}

// Snapshot 為一次執行的完整報表快照。
type Snapshot struct {
	Meta   Meta        `json:"_meta"`
	RunID  string      `json:"run_id"`
	Config RunConfig   `json:"config"`
	Days   []DayRecord `json:"days"`
}
