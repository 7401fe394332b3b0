package filter_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"

	apperrors "github.com/kbukum/tilefilter/errors"
	"github.com/kbukum/tilefilter/filter"
	"github.com/kbukum/tilefilter/tile"
)

var addr = tile.NewAddress(3, 2, 5)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func newFilter(t *testing.T, cfg filter.Config) *filter.Filter {
	t.Helper()
	requireShell(t)
	f, err := filter.New(cfg, filter.WithStderr(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("unexpected error creating filter: %v", err)
	}
	return f
}

// emit returns a command that drains stdin and then prints output.
func emit(t *testing.T, output string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.json")
	if err := os.WriteFile(path, []byte(output), 0o600); err != nil {
		t.Fatal(err)
	}
	return fmt.Sprintf("cat >/dev/null; cat '%s'", path)
}

func mixedLayer() *mvt.Layer {
	return &mvt.Layer{
		Name:    "roads",
		Version: 2,
		Extent:  4096,
		Features: []*geojson.Feature{
			{Geometry: orb.Point{100, 200}, Properties: geojson.Properties{"name": "a", "rank": 1.0}},
			{Geometry: orb.LineString{{0, 0}, {2048, 2048}, {4000, 10}}, Properties: geojson.Properties{"oneway": true}},
			{Geometry: orb.Polygon{{{10, 10}, {1000, 10}, {1000, 1000}, {10, 1000}, {10, 10}}}, Properties: geojson.Properties{}},
			{Geometry: orb.MultiPoint{{1, 1}, {3000, 3000}}, Properties: geojson.Properties{"kind": "pois"}},
		},
	}
}

func pointsLayer(n int) *mvt.Layer {
	layer := &mvt.Layer{Name: "points", Version: 2, Extent: 4096}
	for i := 0; i < n; i++ {
		layer.Features = append(layer.Features, &geojson.Feature{
			Geometry:   orb.Point{float64(i % 4096), float64((i / 4096) % 4096)},
			Properties: geojson.Properties{"i": float64(i)},
		})
	}
	return layer
}

func appError(t *testing.T, err error) *apperrors.AppError {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}
	return appErr
}

func TestLayerRoundTrip(t *testing.T) {
	f := newFilter(t, filter.Config{Command: "cat"})
	in := mixedLayer()

	out, err := f.Layer(context.Background(), in, addr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Name != in.Name || out.Version != in.Version || out.Extent != in.Extent {
		t.Fatalf("layer metadata changed: %s/%d/%d", out.Name, out.Version, out.Extent)
	}
	if len(out.Features) != len(in.Features) {
		t.Fatalf("expected %d features, got %d", len(in.Features), len(out.Features))
	}
	for i := range in.Features {
		want, got := in.Features[i], out.Features[i]
		if got.Geometry.GeoJSONType() != want.Geometry.GeoJSONType() {
			t.Errorf("feature %d: expected %s, got %s", i, want.Geometry.GeoJSONType(), got.Geometry.GeoJSONType())
		}
		if diff := cmp.Diff(want.Properties, got.Properties); diff != "" {
			t.Errorf("feature %d properties (-want +got):\n%s", i, diff)
		}
	}

	p := out.Features[0].Geometry.(orb.Point)
	if d := p.X() - 100; d > 0.01 || d < -0.01 {
		t.Errorf("point x drifted: %v", p)
	}
	if d := p.Y() - 200; d > 0.01 || d < -0.01 {
		t.Errorf("point y drifted: %v", p)
	}
	if in.Features[0].Geometry.(orb.Point) != (orb.Point{100, 200}) {
		t.Error("input layer was modified")
	}
}

func TestLayerSkipsNonFeatures(t *testing.T) {
	output := strings.Join([]string{
		`{"type":"FeatureCollection"}`,
		`42`,
		`"Feature"`,
		`[{"type":"Feature"}]`,
		`{"type":7}`,
		`{"kind":"Feature"}`,
		`{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":null}`,
	}, "\n")
	f := newFilter(t, filter.Config{Command: emit(t, output)})

	out, err := f.Layer(context.Background(), mixedLayer(), addr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(out.Features))
	}
	if out.Features[0].Properties == nil {
		t.Fatal("null properties should become an empty map")
	}
}

func TestLayerProtocolErrors(t *testing.T) {
	tests := []struct {
		name    string
		feature string
		code    apperrors.ErrorCode
		message string
	}{
		{"missing geometry", `{"type":"Feature","properties":{}}`, apperrors.ErrCodeMissingGeometry, "filtered feature with no geometry"},
		{"missing properties", `{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]}}`, apperrors.ErrCodeInvalidProperties, "feature without properties hash"},
		{"properties not object", `{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":[]}`, apperrors.ErrCodeInvalidProperties, "feature without properties hash"},
		{"null geometry", `{"type":"Feature","geometry":null,"properties":{}}`, apperrors.ErrCodeNullGeometry, "null geometry"},
		{"geometry without type", `{"type":"Feature","geometry":{"coordinates":[0,0]},"properties":{}}`, apperrors.ErrCodeNullGeometry, "null geometry"},
		{"numeric geometry type", `{"type":"Feature","geometry":{"type":1,"coordinates":[0,0]},"properties":{}}`, apperrors.ErrCodeInvalidGeometryType, "geometry type is not a string"},
		{"missing coordinates", `{"type":"Feature","geometry":{"type":"Point"},"properties":{}}`, apperrors.ErrCodeInvalidCoordinates, "feature without coordinates array"},
		{"coordinates not array", `{"type":"Feature","geometry":{"type":"Point","coordinates":"0,0"},"properties":{}}`, apperrors.ErrCodeInvalidCoordinates, "feature without coordinates array"},
		{"unsupported geometry", `{"type":"Feature","geometry":{"type":"Circle","coordinates":[0,0]},"properties":{}}`, apperrors.ErrCodeUnsupportedGeometry, "can't handle geometry type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := `{"type":"FeatureCollection"}` + "\n\n" + tt.feature + "\n"
			f := newFilter(t, filter.Config{Command: emit(t, output)})

			out, err := f.Layer(context.Background(), mixedLayer(), addr)
			if out != nil {
				t.Fatal("expected no layer on error")
			}
			appErr := appError(t, err)
			if appErr.Code != tt.code {
				t.Fatalf("expected code %s, got %s (%v)", tt.code, appErr.Code, err)
			}
			if appErr.Message != tt.message {
				t.Fatalf("expected message %q, got %q", tt.message, appErr.Message)
			}
			if appErr.Line != 3 {
				t.Fatalf("expected line 3, got %d", appErr.Line)
			}
			if appErr.Context != tt.feature {
				t.Fatalf("expected context %q, got %q", tt.feature, appErr.Context)
			}
			if !apperrors.IsProtocol(err) {
				t.Fatal("expected a protocol error")
			}
		})
	}
}

func TestLayerSyntaxError(t *testing.T) {
	prefix := `{"type":"FeatureCollection"}` + "\n\n"
	tests := []struct {
		name   string
		output string
		line   int
	}{
		{"stray commas", "{\"type\":\"Feature\"\n,,\n", 1},
		{"missing comma", prefix + `{"type":"Feature" "geometry":{"type":"Point","coordinates":[0,0]},"properties":{}}` + "\n", 3},
		{"bad literal in properties", prefix + `{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":{"a":tru}}` + "\n", 3},
		{"trailing comma", prefix + `{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":{},}` + "\n", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFilter(t, filter.Config{Command: emit(t, tt.output)})

			out, err := f.Layer(context.Background(), mixedLayer(), addr)
			if out != nil {
				t.Fatal("expected no layer on error")
			}
			appErr := appError(t, err)
			if appErr.Code != apperrors.ErrCodeSyntax {
				t.Fatalf("expected %s, got %s (%v)", apperrors.ErrCodeSyntax, appErr.Code, err)
			}
			if appErr.Line != tt.line {
				t.Fatalf("expected line %d, got %d", tt.line, appErr.Line)
			}
		})
	}
}

func TestLayerTruncatesContext(t *testing.T) {
	feature := `{"type":"Feature","properties":{"blob":"` + strings.Repeat("x", 2000) + `"}}`
	f := newFilter(t, filter.Config{Command: emit(t, feature)})

	_, err := f.Layer(context.Background(), mixedLayer(), addr)
	appErr := appError(t, err)
	if !strings.HasSuffix(appErr.Context, "...") {
		t.Fatalf("expected ellipsis, got %q", appErr.Context[len(appErr.Context)-10:])
	}
	if n := len(strings.TrimSuffix(appErr.Context, "...")); n != filter.ContextLimit {
		t.Fatalf("expected %d characters of context, got %d", filter.ContextLimit, n)
	}
	if !strings.HasPrefix(feature, strings.TrimSuffix(appErr.Context, "...")) {
		t.Fatal("context should be a prefix of the value")
	}
}

func TestLayerCleanEOF(t *testing.T) {
	tests := []struct {
		name    string
		command string
		layer   *mvt.Layer
	}{
		{"drains input", "cat >/dev/null", mixedLayer()},
		{"true on empty layer", "true", &mvt.Layer{Name: "empty", Version: 2, Extent: 4096}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFilter(t, filter.Config{Command: tt.command})
			out, err := f.Layer(context.Background(), tt.layer, addr)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(out.Features) != 0 {
				t.Fatalf("expected no features, got %d", len(out.Features))
			}
			if out.Name != tt.layer.Name {
				t.Fatalf("expected layer %q, got %q", tt.layer.Name, out.Name)
			}
		})
	}
}

func TestLayerNoDeadlock(t *testing.T) {
	f := newFilter(t, filter.Config{Command: "cat"})
	in := pointsLayer(30000)

	type result struct {
		layer *mvt.Layer
		err   error
	}
	done := make(chan result, 1)
	go func() {
		out, err := f.Layer(context.Background(), in, addr)
		done <- result{out, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("unexpected error: %v", r.err)
		}
		if len(r.layer.Features) != len(in.Features) {
			t.Fatalf("expected %d features, got %d", len(in.Features), len(r.layer.Features))
		}
	case <-time.After(2 * time.Minute):
		t.Fatal("filter round trip did not finish")
	}
}

func openDescriptors(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skip("/proc/self/fd not available")
	}
	return len(entries)
}

func TestLayerDescriptorHygiene(t *testing.T) {
	ok := newFilter(t, filter.Config{Command: "cat"})
	bad := newFilter(t, filter.Config{Command: emit(t, `{"type":"Feature"}`)})
	ctx := context.Background()

	// Warm up so lazily created runtime descriptors are in the baseline.
	if _, err := ok.Layer(ctx, mixedLayer(), addr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	baseline := openDescriptors(t)

	for i := 0; i < 20; i++ {
		if _, err := ok.Layer(ctx, mixedLayer(), addr); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if n := openDescriptors(t); n != baseline {
			t.Fatalf("call %d: expected %d open descriptors, got %d", i, baseline, n)
		}
		if _, err := bad.Layer(ctx, pointsLayer(20000), addr); err == nil {
			t.Fatalf("call %d: expected an error", i)
		}
		if n := openDescriptors(t); n != baseline {
			t.Fatalf("call %d after failure: expected %d open descriptors, got %d", i, baseline, n)
		}
	}
}

func TestLayerExitStatus(t *testing.T) {
	command := "cat; exit 3"

	lenient := newFilter(t, filter.Config{Command: command})
	if _, err := lenient.Layer(context.Background(), mixedLayer(), addr); err != nil {
		t.Fatalf("non-zero exit should be ignored by default: %v", err)
	}

	strict := newFilter(t, filter.Config{Command: command, StrictExit: true})
	_, err := strict.Layer(context.Background(), mixedLayer(), addr)
	appErr := appError(t, err)
	if appErr.Code != apperrors.ErrCodeExec {
		t.Fatalf("expected %s, got %s", apperrors.ErrCodeExec, appErr.Code)
	}
	if appErr.Details["exit_code"] != 3 {
		t.Fatalf("expected exit code 3 in details, got %v", appErr.Details["exit_code"])
	}
}

func TestLayerTileEnv(t *testing.T) {
	command := `cat >/dev/null; printf '{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":{"tile":"%s/%s/%s","layer":"%s"}}' "$TILE_Z" "$TILE_X" "$TILE_Y" "$TILE_LAYER"`

	f := newFilter(t, filter.Config{Command: command, ExportTileEnv: true})
	out, err := f.Layer(context.Background(), mixedLayer(), addr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := geojson.Properties{"tile": "3/2/5", "layer": "roads"}
	if diff := cmp.Diff(want, out.Features[0].Properties); diff != "" {
		t.Fatalf("properties (-want +got):\n%s", diff)
	}

	f = newFilter(t, filter.Config{Command: command})
	out, err = f.Layer(context.Background(), mixedLayer(), addr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.Features[0].Properties["tile"]; got == "3/2/5" {
		t.Fatal("tile env should not be exported unless enabled")
	}
}

func TestLayerWriteFailure(t *testing.T) {
	// The filter closes its stdin straight away, so writing a layer larger
	// than the pipe buffer must fail.
	f := newFilter(t, filter.Config{Command: "exec 0</dev/null"})

	_, err := f.Layer(context.Background(), pointsLayer(20000), addr)
	appErr := appError(t, err)
	if appErr.Code != apperrors.ErrCodeWrite {
		t.Fatalf("expected %s, got %s (%v)", apperrors.ErrCodeWrite, appErr.Code, err)
	}
	if !apperrors.IsResource(err) {
		t.Fatal("expected a resource error")
	}
}

func TestLayerSpawnFailure(t *testing.T) {
	f, err := filter.New(filter.Config{Command: "cat", Shell: "/nonexistent/shell"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.Layer(context.Background(), mixedLayer(), addr)
	appErr := appError(t, err)
	if appErr.Code != apperrors.ErrCodeSpawn {
		t.Fatalf("expected %s, got %s", apperrors.ErrCodeSpawn, appErr.Code)
	}
}

func TestLayerCanceled(t *testing.T) {
	f := newFilter(t, filter.Config{Command: "sleep 30"})
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	_, err := f.Layer(ctx, &mvt.Layer{Name: "empty"}, addr)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 20*time.Second {
		t.Fatal("cancel did not stop the filter")
	}
}

func TestNewRequiresCommand(t *testing.T) {
	_, err := filter.New(filter.Config{})
	if !apperrors.HasCode(err, apperrors.ErrCodeInvalidConfig) {
		t.Fatalf("expected %s, got %v", apperrors.ErrCodeInvalidConfig, err)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := filter.Config{Command: "cat"}
	cfg.ApplyDefaults()
	if cfg.Shell != "sh" {
		t.Fatalf("expected default shell sh, got %q", cfg.Shell)
	}
	if cfg.Retry.MaxAttempts != 1 {
		t.Fatalf("expected a single spawn attempt by default, got %+v", cfg.Retry)
	}
}
