// internal/storage/jsonstore_test.go
//
// 驗證報表快照寫入與讀回後內容一致，並確認原子寫入不留下暫存檔。
package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestSnapshotSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")

	orig := Snapshot{
		Meta:   Meta{Version: 1, Note: "test"},
		RunID:  "run-1",
		Config: RunConfig{Branches: 2, AccountsPerBranch: 2, InitialBalance: 100, Workers: 3},
		Days: []DayRecord{
			{Day: 0, Balance: 400, Display: "4.00", Transfers: 5, LargeTransfers: 1, LargeVolume: 60, PerWorker: []int{1, 0, 0}},
			{Day: 1, Balance: 410, Display: "4.10", PerWorker: []int{0, 0, 0}},
		},
	}

	if err := SaveSnapshot(path, orig); err != nil {
		t.Fatalf("SaveSnapshot err=%v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("tmp file left behind: %v", err)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot err=%v", err)
	}
	if loaded.RunID != orig.RunID || loaded.Config != orig.Config || len(loaded.Days) != 2 {
		t.Fatalf("mismatch: loaded=%+v orig=%+v", loaded, orig)
	}
	if loaded.Days[0].LargeTransfers != 1 || loaded.Days[1].Balance != 410 {
		t.Fatalf("days mismatch: %+v", loaded.Days)
	}
	if loaded.Meta.Storage != "json_snapshot" || loaded.Meta.Timestamp.IsZero() {
		t.Fatalf("meta not stamped: %+v", loaded.Meta)
	}
}

func TestLoadSnapshotMissing(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("want ErrNotExist, got %v", err)
	}
}

func TestLoadSnapshotBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{bad json}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Fatal("expect decode error")
	}
}
