// internal/server/router.go
//
// HTTP 路由註冊，與 handler.go 分離。
// 所有端點同時掛在 /api/v1/ 與根路徑下。
package server

import "net/http"

// Router 建立並回傳整個 HTTP 處理鏈。
func (s *Server) Router() http.Handler {
	v1 := http.NewServeMux()

	v1.HandleFunc("/health", s.health)

	//   - GET /reports        → 所有日報
	//   - GET /reports/{day}  → 單日報表
	v1.HandleFunc("/reports", s.reports)
	v1.HandleFunc("/reports/", s.reportByDay)

	root := http.NewServeMux()
	root.Handle("/api/v1/", http.StripPrefix("/api/v1", v1))
	root.Handle("/", v1)

	return root
}
