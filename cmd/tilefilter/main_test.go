package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"

	"github.com/kbukum/tilefilter/config"
	"github.com/kbukum/tilefilter/tile"
	"github.com/kbukum/tilefilter/tilestore"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeFile(t, "config.yml", `
filter:
  command: cat
run:
  input: in
  output: out
  workers: 4
  zooms: [1, 2]
`)
	var flags cliFlags
	fs := newFlagSet(&flags)
	if err := fs.Parse([]string{"-c", path, "-e", "jq -c .", "-j", "2", "-z", "7", "--layer", "roads", "--strict-exit"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(fs, &flags)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Filter.Command != "jq -c ." || !cfg.Filter.StrictExit {
		t.Errorf("filter flags not applied: %+v", cfg.Filter)
	}
	if cfg.Run.Workers != 2 || cfg.Run.Input != "in" {
		t.Errorf("run flags not applied: %+v", cfg.Run)
	}
	if diff := cmp.Diff([]uint32{7}, cfg.Run.Zooms); diff != "" {
		t.Errorf("zooms mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"roads"}, cfg.Run.Layers); diff != "" {
		t.Errorf("layers mismatch (-want +got):\n%s", diff)
	}
}

func TestAppConfigDefaults(t *testing.T) {
	cfg := &AppConfig{}
	cfg.ApplyDefaults()
	if cfg.Name != serviceName || cfg.Version == "" {
		t.Errorf("unexpected service defaults: %+v", cfg.ServiceConfig)
	}
	if cfg.Filter.Shell == "" || cfg.Run.OnError != "abort" || cfg.Run.Workers < 1 {
		t.Errorf("unexpected section defaults: %+v %+v", cfg.Filter, cfg.Run)
	}
}

func TestAppConfigValidate(t *testing.T) {
	cfg := &AppConfig{ServiceConfig: config.ServiceConfig{Name: serviceName}}
	cfg.Run.Input, cfg.Run.Output = "in", "out"
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected missing command to fail validation")
	}
	cfg.Filter.Command = "cat"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.Observability.SampleRate = 2
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected sample rate above 1 to fail validation")
	}
}

func TestRunExitCodes(t *testing.T) {
	if code := run([]string{"--version"}); code != 0 {
		t.Errorf("--version exited %d", code)
	}
	if code := run([]string{"--bogus"}); code != 2 {
		t.Errorf("unknown flag exited %d", code)
	}
	missing := writeFile(t, "config.yml", "run:\n  input: in\n  output: out\n")
	if code := run([]string{"-c", missing}); code != 2 {
		t.Errorf("missing command exited %d", code)
	}
}

func TestRunEndToEnd(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	addr := tile.NewAddress(2, 1, 1)
	fc := geojson.NewFeatureCollection()
	for _, class := range []string{"path", "primary"} {
		f := geojson.NewFeature(orb.Point{-45, 30})
		f.Properties["class"] = class
		fc.Append(f)
	}
	layers := mvt.NewLayers(map[string]*geojson.FeatureCollection{"roads": fc})
	layers.ProjectToTile(addr.MapTile())
	data, err := tile.Encode(layers, false)
	if err != nil {
		t.Fatal(err)
	}

	in := t.TempDir()
	src, err := tilestore.CreateDir(in)
	if err != nil {
		t.Fatal(err)
	}
	if err := src.Put(t.Context(), tilestore.Tile{Address: addr, Data: data}); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "out.mbtiles")

	code := run([]string{"-i", in, "-o", out, "-e", `grep -v '"path"'`, "--log-level", "error"})
	if code != 0 {
		t.Fatalf("run exited %d", code)
	}

	sink, err := tilestore.OpenSource(out)
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()
	it := sink.Tiles(t.Context())
	defer it.Close()
	got, ok, err := it.Next(t.Context())
	if err != nil || !ok {
		t.Fatalf("expected one tile, ok=%v err=%v", ok, err)
	}
	decoded, err := tile.Decode(got.Data)
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 1 || len(decoded[0].Features) != 1 {
		t.Fatalf("expected one remaining feature, got %+v", decoded)
	}
	if class := decoded[0].Features[0].Properties["class"]; class != "primary" {
		t.Fatalf("expected primary road to survive, got %v", class)
	}
}
