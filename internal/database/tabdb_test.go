package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/privacylens/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *TabDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleReport(url string) *model.AnalysisReport {
	r := model.NewAnalysisReport(url, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	r.AddThirdPartyDomain("google-analytics.com")
	r.ThirdPartyResources.Append(model.CategoryScripts, "www.google-analytics.com")
	r.EvalPatterns = append(r.EvalPatterns, model.EvalPattern{
		Type:     model.EvalTypeEval,
		Location: "Inline script #0",
		Preview:  "eval(x)",
	})
	r.AddFingerprintingAPI("navigator.userAgent")
	r.CanvasFingerprinting = true
	r.CookieCount = 2
	return r
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("Path() = %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{})
		if err == nil {
			t.Fatal("expected error for missing database")
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		if err := db.Put(context.Background(), 7, sampleReport("https://a.test/")); err != nil {
			t.Fatal(err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()
		got, err := db.Get(context.Background(), 7)
		if err != nil || got == nil {
			t.Fatalf("Get() = %v, %v", got, err)
		}
	})
}

func TestTabDBPutGet(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	want := sampleReport("https://news.example.com/")
	if err := db.Put(ctx, 1, want); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	got, err := db.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}

	missing, err := db.Get(ctx, 99)
	if err != nil || missing != nil {
		t.Errorf("Get() for unknown tab = %v, %v; want nil, nil", missing, err)
	}
}

func TestTabDBLastWriteWins(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.Put(ctx, 3, sampleReport("https://first.test/")); err != nil {
		t.Fatal(err)
	}
	second := model.NewAnalysisReport("https://second.test/", time.Date(2024, 5, 1, 12, 0, 1, 0, time.UTC))
	if err := db.Put(ctx, 3, second); err != nil {
		t.Fatal(err)
	}

	got, err := db.Get(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got.URL != "https://second.test/" || len(got.ThirdPartyDomains) != 0 {
		t.Errorf("expected the second report, got %+v", got)
	}

	list, err := db.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Score != 100 {
		t.Errorf("List() = %+v", list)
	}
}

func TestTabDBDelete(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	for _, id := range []int{1, 2} {
		if err := db.Put(ctx, id, sampleReport("https://tab.test/")); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := db.Delete(ctx, 42); err != nil {
		t.Errorf("deleting an unknown tab should succeed: %v", err)
	}

	if got, _ := db.Get(ctx, 1); got != nil {
		t.Error("tab 1 should be gone")
	}
	if got, _ := db.Get(ctx, 2); got == nil {
		t.Error("tab 2 must survive deletion of tab 1")
	}

	if err := db.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	list, err := db.List(ctx)
	if err != nil || len(list) != 0 {
		t.Errorf("List() after Clear = %v, %v", list, err)
	}
}

func TestTabDBList(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.Put(ctx, 5, sampleReport("https://b.test/")); err != nil {
		t.Fatal(err)
	}
	if err := db.Put(ctx, 2, model.NewAnalysisReport("https://a.test/", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))); err != nil {
		t.Fatal(err)
	}

	got, err := db.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []TabSummary{
		{TabID: 2, URL: "https://a.test/", Score: 100, AnalyzedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{TabID: 5, URL: "https://b.test/", Score: model.Score(sampleReport("https://b.test/")), AnalyzedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	if got := parseTimestamp("2024-01-02 03:04:05"); got != time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) {
		t.Errorf("parseTimestamp() = %v", got)
	}
	if !parseTimestamp("garbage").IsZero() {
		t.Error("unparsable timestamp should be zero")
	}
}
