// internal/server/handler.go
//
// Package server 提供唯讀的 HTTP 介面，只輸出已結算的日報。
// 這一層不呼叫任何銀行操作（包括即時總額）；存提款與轉帳只由 teller worker 執行。
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"bankledger/internal/bank"
)

// Server 為 HTTP 層核心結構，只持有 Bank 的讀取入口。
type Server struct {
	Bank *bank.Bank
}

// NewServer 建立新的 HTTP 伺服器。
func NewServer(b *bank.Bank) *Server {
	return &Server{Bank: b}
}

// reportView 為對外輸出的日報格式，金額額外附上兩位小數表示。
type reportView struct {
	bank.DayReport
	Display string `json:"display"`
}

func toView(d bank.DayReport) reportView {
	return reportView{DayReport: d, Display: bank.FormatAmount(d.Balance)}
}

// reports 處理 GET /reports → 列出所有已結算的日報。
func (s *Server) reports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	days := s.Bank.Reports()
	out := make([]reportView, len(days))
	for i, d := range days {
		out[i] = toView(d)
	}
	writeJSON(w, http.StatusOK, out)
}

// reportByDay 處理 GET /reports/{day}。
func (s *Server) reportByDay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	raw := strings.Trim(strings.TrimPrefix(r.URL.Path, "/reports/"), "/")
	day, err := strconv.Atoi(raw)
	if err != nil || day < 0 {
		writeErr(w, fmt.Errorf("bad day %q", raw), http.StatusBadRequest)
		return
	}
	days := s.Bank.Reports()
	if day >= len(days) {
		writeErr(w, fmt.Errorf("day %d not closed yet", day), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toView(days[day]))
}

// health 提供健康檢查端點：GET /health。
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
