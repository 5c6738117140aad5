package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/output/artifact"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/metrics"
)

var (
	colors = []string{"red", "blue", "green", "yellow", "purple", "brown"}
	shapes = []string{"tall", "wide"}
	nouns  = []string{"chair", "table", "sofa", "lamp", "stool"}
)

// writeInputs lays out a corpus and both vocabularies in dir.
func writeInputs(t *testing.T, dir string, items int) config.InputConfig {
	t.Helper()
	var b strings.Builder
	b.WriteString("{")
	adjs := append(append([]string{}, colors...), shapes...)
	for i := 0; i < items; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		caption := fmt.Sprintf("a %s %s", adjs[i%len(adjs)], nouns[(i/len(adjs))%len(nouns)])
		fmt.Fprintf(&b, "%q:[%q,%q]", fmt.Sprintf("item%04d", i), caption, "another caption")
	}
	b.WriteString("}")

	in := config.InputConfig{
		CaptionPath: filepath.Join(dir, "id_captions.json"),
		ColorsPath:  filepath.Join(dir, "colors.txt"),
		ShapesPath:  filepath.Join(dir, "shapes.txt"),
	}
	for path, body := range map[string]string{
		in.CaptionPath: b.String(),
		in.ColorsPath:  strings.Join(colors, "\n"),
		in.ShapesPath:  strings.Join(shapes, "\n"),
	} {
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return in
}

func testConfig(t *testing.T, items int) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Input = writeInputs(t, dir, items)
	cfg.Output.SavePath = filepath.Join(dir, "out")
	cfg.Output.WriteJSON = true
	cfg.Metrics.TextfilePath = filepath.Join(dir, "compsplit.prom")
	return cfg
}

func TestRunOnceWritesArtifacts(t *testing.T) {
	cfg := testConfig(t, 400)
	m := metrics.New()
	a, err := New(context.Background(), cfg, m)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	res, err := a.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.Run.ID == "" || res.Run.Category != "chair" {
		t.Errorf("run = %+v", res.Run)
	}

	dir := artifact.Dir(cfg.Output.SavePath, cfg.Output.CaptionType, cfg.Output.Category)
	split, err := artifact.LoadSplit(dir)
	if err != nil {
		t.Fatalf("LoadSplit: %v", err)
	}
	data, err := artifact.LoadData(dir)
	if err != nil {
		t.Fatalf("LoadData: %v", err)
	}
	records, err := dataset.Import(res.Records.ItemIDs(), data)
	if err != nil {
		t.Fatal(err)
	}
	if err := split.Validate(records); err != nil {
		t.Errorf("persisted split invalid: %v", err)
	}
	if len(split.HeldoutPairs) == 0 {
		t.Error("expected heldout pairs for a 400 item corpus")
	}
	for _, name := range []string{artifact.SplitJSON, artifact.DataJSON} {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		if !json.Valid(raw) {
			t.Errorf("%s is not valid JSON", name)
		}
	}

	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("successful runs = %v", got)
	}
	if _, err := os.Stat(cfg.Metrics.TextfilePath); err != nil {
		t.Errorf("metrics textfile not written: %v", err)
	}
}

func TestRunOnceIsDeterministicPerSeed(t *testing.T) {
	cfg := testConfig(t, 300)
	a, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	first, err := a.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first.Run.ID == second.Run.ID {
		t.Error("run ids should differ between runs")
	}
	a1, _ := json.Marshal(first.Split)
	a2, _ := json.Marshal(second.Split)
	if string(a1) != string(a2) {
		t.Error("same seed produced different splits")
	}
}

func TestRunOnceMissingCorpusFails(t *testing.T) {
	cfg := testConfig(t, 10)
	cfg.Input.CaptionPath = filepath.Join(t.TempDir(), "missing.json")
	m := metrics.New()
	a, err := New(context.Background(), cfg, m)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	_, err = a.RunOnce(context.Background())
	if !apperrors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("failure")); got != 1 {
		t.Errorf("failed runs = %v", got)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t, 10)
	cfg.Split.HeldoutDivisor = 0
	if _, err := New(context.Background(), cfg, nil); !apperrors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPurgeTagCacheRequiresRedis(t *testing.T) {
	a, err := New(context.Background(), testConfig(t, 10), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if _, err := a.PurgeTagCache(context.Background()); !apperrors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestParseSchedule(t *testing.T) {
	sched, err := ParseSchedule("30 2 * * *", "Europe/Berlin")
	if err != nil {
		t.Fatal(err)
	}
	loc, _ := time.LoadLocation("Europe/Berlin")
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	next := sched.Next(from).In(loc)
	if next.Hour() != 2 || next.Minute() != 30 {
		t.Errorf("next = %v", next)
	}

	if _, err := ParseSchedule("@daily", ""); err != nil {
		t.Errorf("descriptor rejected: %v", err)
	}
	for _, expr := range []string{"", "61 * * * *", "* * *"} {
		if _, err := ParseSchedule(expr, "UTC"); !apperrors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("ParseSchedule(%q) = %v, want ErrInvalidInput", expr, err)
		}
	}
	if _, err := ParseSchedule("* * * * *", "Mars/Olympus"); !apperrors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("bad timezone accepted: %v", err)
	}
}

func TestRunScheduledStopsOnCancel(t *testing.T) {
	cfg := testConfig(t, 10)
	cfg.Schedule.Cron = "0 0 1 1 *"
	a, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.RunScheduled(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("RunScheduled: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
