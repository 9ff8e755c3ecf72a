package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/thywilljoshua/pptx-to-slides/internal/pptx"
	"github.com/thywilljoshua/pptx-to-slides/internal/pptx/pptxtest"
	"github.com/thywilljoshua/pptx-to-slides/internal/rasterize"
	"github.com/thywilljoshua/pptx-to-slides/internal/render"
)

var (
	rendererOnce sync.Once
	testRenderer *render.Renderer
)

// smallRenderer keeps synthetic images cheap.
func smallRenderer(t testing.TB) *render.Renderer {
	t.Helper()
	rendererOnce.Do(func() {
		r, err := render.New(render.Options{Width: 320, Height: 180})
		if err != nil {
			t.Fatalf("renderer: %v", err)
		}
		testRenderer = r
	})
	return testRenderer
}

func baseConfig(t testing.TB) Config {
	return Config{Renderer: smallRenderer(t)}
}

type fakeRasterizer struct {
	res   rasterize.Result
	err   error
	block bool
	calls atomic.Int32
}

func (f *fakeRasterizer) Name() string { return "fake" }

func (f *fakeRasterizer) Rasterize(ctx context.Context, data []byte) (rasterize.Result, error) {
	f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return rasterize.Result{}, ctx.Err()
	}
	return f.res, f.err
}

func pngImages(n int) []rasterize.Image {
	out := make([]rasterize.Image, n)
	for i := range out {
		out[i] = rasterize.Image{MIME: "image/png", Data: []byte(fmt.Sprintf("remote-%d", i+1))}
	}
	return out
}

type fakeEnhancer struct {
	text  string
	err   error
	calls []string
}

func (f *fakeEnhancer) RecoverText(ctx context.Context, mime string, data []byte) (string, error) {
	f.calls = append(f.calls, mime+":"+string(data))
	return f.text, f.err
}

// threeSlideDeck has slides A, B, C where B's relationship is missing.
func threeSlideDeck(t *testing.T) []byte {
	return pptxtest.Deck{
		Slides:    []pptxtest.Slide{pptxtest.Text("Alpha"), pptxtest.Text("Bravo"), pptxtest.Text("Charlie")},
		Unrelated: []int{2},
	}.Bytes(t)
}

func texts(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Text
	}
	return out
}

func numbers(recs []Record) []int {
	out := make([]int, len(recs))
	for i, r := range recs {
		out[i] = r.SlideNumber
	}
	return out
}

func TestRunEndToEnd(t *testing.T) {
	recs, err := Run(context.Background(), threeSlideDeck(t), baseConfig(t))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, Record{
		ID:          "slide-1",
		ImageURL:    recs[0].ImageURL,
		StartTime:   0,
		Duration:    10,
		Text:        "Alpha",
		SlideNumber: 1,
		Source:      "synthetic",
	}, recs[0])
	assert.Equal(t, "slide-3", recs[1].ID)
	assert.Equal(t, 3, recs[1].SlideNumber)
	assert.Equal(t, "Charlie", recs[1].Text)
	assert.Equal(t, 10.0, recs[1].StartTime)
	for _, r := range recs {
		assert.True(t, strings.HasPrefix(r.ImageURL, "data:image/png;base64,"))
	}
}

func TestRunRenumber(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Renumber = true
	recs, err := Run(context.Background(), threeSlideDeck(t), cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, numbers(recs))
	assert.Equal(t, "slide-2", recs[1].ID)
	assert.Equal(t, "Charlie", recs[1].Text)
}

func TestRunFollowsManifestOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(rt, "slides")
		seed := rapid.Int64().Draw(rt, "seed")
		deck := pptxtest.Deck{}
		var want []string
		for i := 0; i < n; i++ {
			name := fmt.Sprintf("slide %c", 'A'+i)
			deck.Slides = append(deck.Slides, pptxtest.Text(name))
			want = append(want, name)
		}
		recs, err := Run(context.Background(), deck.Package().Shuffle(seed).Bytes(t), baseConfig(t))
		if err != nil {
			rt.Fatalf("run: %v", err)
		}
		if got := texts(recs); strings.Join(got, "|") != strings.Join(want, "|") {
			rt.Fatalf("texts %v, want %v", got, want)
		}
	})
}

func TestRunTimingIsUniform(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 5).Draw(rt, "slides")
		dur := rapid.Float64Range(0.5, 30).Draw(rt, "duration")
		deck := pptxtest.Deck{}
		for i := 0; i < n; i++ {
			deck.Slides = append(deck.Slides, pptxtest.Text())
		}
		cfg := baseConfig(t)
		cfg.SlideDuration = dur
		recs, err := Run(context.Background(), deck.Bytes(t), cfg)
		if err != nil {
			rt.Fatalf("run: %v", err)
		}
		if len(recs) != n {
			rt.Fatalf("got %d records, want %d", len(recs), n)
		}
		for i, r := range recs {
			if r.Duration != dur || r.StartTime != float64(i)*dur {
				rt.Fatalf("record %d: start %v duration %v", i, r.StartTime, r.Duration)
			}
			if r.ImageURL == "" {
				rt.Fatalf("record %d has no image", i)
			}
		}
	})
}

func TestRunFallbackEquivalence(t *testing.T) {
	data := threeSlideDeck(t)
	plain, err := Run(context.Background(), data, baseConfig(t))
	require.NoError(t, err)

	for name, r := range map[string]rasterize.Rasterizer{
		"noop":        rasterize.Noop{},
		"unavailable": &fakeRasterizer{err: rasterize.ErrUnavailable},
		"failing":     &fakeRasterizer{err: errors.New("converter crashed")},
		"empty":       &fakeRasterizer{},
		"combined":    &fakeRasterizer{res: rasterize.Result{Images: pngImages(1), Combined: true}},
		"single":      &fakeRasterizer{res: rasterize.Result{Images: pngImages(1)}},
	} {
		t.Run(name, func(t *testing.T) {
			cfg := baseConfig(t)
			cfg.Rasterizer = r
			recs, err := Run(context.Background(), data, cfg)
			require.NoError(t, err)
			assert.Equal(t, plain, recs)
		})
	}
}

func TestRunRemoteTimeout(t *testing.T) {
	cfg := baseConfig(t)
	r := &fakeRasterizer{block: true}
	cfg.Rasterizer = r
	cfg.RemoteTimeout = 20 * time.Millisecond

	start := time.Now()
	recs, err := Run(context.Background(), threeSlideDeck(t), cfg)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"Alpha", "Charlie"}, texts(recs))
	assert.Equal(t, "synthetic", recs[0].Source)
}

// stuckRasterizer never looks at its context.
type stuckRasterizer struct {
	release chan struct{}
}

func (stuckRasterizer) Name() string { return "stuck" }

func (s stuckRasterizer) Rasterize(context.Context, []byte) (rasterize.Result, error) {
	<-s.release
	return rasterize.Result{Images: pngImages(2)}, nil
}

func TestRunRemoteTimeoutIgnoredByBackend(t *testing.T) {
	stuck := stuckRasterizer{release: make(chan struct{})}
	t.Cleanup(func() { close(stuck.release) })

	core, logs := observer.New(zapcore.InfoLevel)
	cfg := baseConfig(t)
	cfg.Rasterizer = rasterize.Chain{stuck}
	cfg.RemoteTimeout = 50 * time.Millisecond
	cfg.Logger = zap.New(core)

	start := time.Now()
	recs, err := Run(context.Background(), threeSlideDeck(t), cfg)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, []string{"Alpha", "Charlie"}, texts(recs))
	assert.Equal(t, "synthetic", recs[0].Source)

	skipped := logs.FilterMessage("strategy skipped").FilterField(zap.String("strategy", "remote")).All()
	require.Len(t, skipped, 1)
	assert.Contains(t, skipped[0].ContextMap()["error"], context.DeadlineExceeded.Error())
}

func TestRunRemoteSplicesText(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Rasterizer = &fakeRasterizer{res: rasterize.Result{Images: pngImages(2)}}
	recs, err := Run(context.Background(), threeSlideDeck(t), cfg)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, []string{"Alpha", "Charlie"}, texts(recs))
	assert.Equal(t, []int{1, 3}, numbers(recs))
	for i, r := range recs {
		assert.Equal(t, SourceRemote, r.Source)
		mime, data, err := pptx.DecodeDataURI(r.ImageURL)
		require.NoError(t, err)
		assert.Equal(t, "image/png", mime)
		assert.Equal(t, fmt.Sprintf("remote-%d", i+1), string(data))
	}
}

func TestRunRemoteWithMoreImagesThanSlides(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Rasterizer = &fakeRasterizer{res: rasterize.Result{Images: pngImages(3)}}
	recs, err := Run(context.Background(), threeSlideDeck(t), cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 4}, numbers(recs))
	assert.Equal(t, []string{"Alpha", "Charlie", ""}, texts(recs))
	assert.Equal(t, []string{"slide-1", "slide-3", "slide-4"}, []string{recs[0].ID, recs[1].ID, recs[2].ID})
}

func TestRunRemoteWithUnparseablePackage(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Rasterizer = &fakeRasterizer{res: rasterize.Result{Images: pngImages(2)}}
	recs, err := Run(context.Background(), []byte("opaque bytes the converter understood"), cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, numbers(recs))
	assert.Equal(t, []string{"", ""}, texts(recs))
}

func TestRunInvalidPresentation(t *testing.T) {
	_, err := Run(context.Background(), []byte("not a zip"), baseConfig(t))
	require.ErrorIs(t, err, ErrInvalidPresentation)
	assert.ErrorIs(t, err, pptx.ErrInvalidPackage)

	p := &pptxtest.Package{}
	p.AddText("docProps/app.xml", "<Properties/>")
	_, err = Run(context.Background(), p.Bytes(t), baseConfig(t))
	require.ErrorIs(t, err, ErrInvalidPresentation)
	assert.ErrorIs(t, err, pptx.ErrInvalidPackageStructure)

	none := pptxtest.Deck{Slides: []pptxtest.Slide{pptxtest.Text("x")}, Unrelated: []int{1}}
	_, err = Run(context.Background(), none.Bytes(t), baseConfig(t))
	assert.ErrorIs(t, err, ErrInvalidPresentation)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, threeSlideDeck(t), baseConfig(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunLogsSkippedSlides(t *testing.T) {
	p := pptxtest.Deck{Slides: []pptxtest.Slide{pptxtest.Text("kept"), pptxtest.Text("broken")}}.Package()
	for i, e := range p.Entries {
		if e.Name == "ppt/slides/slide2.xml" {
			p.Entries[i].Data = []byte("<p:sld>")
		}
	}
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := baseConfig(t)
	cfg.Logger = zap.New(core)

	recs, err := Run(context.Background(), p.Bytes(t), cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, texts(recs))

	skipped := logs.FilterMessage("slide skipped").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, zapcore.WarnLevel, skipped[0].Level)
	assert.Equal(t, int64(2), skipped[0].ContextMap()["slide"])
	assert.NotEmpty(t, logs.FilterMessage("strategy skipped").All(), "remote strategy logs its skip")
	assert.Len(t, logs.FilterMessage("strategy succeeded").All(), 1)
}

func TestRunEnhancesBitmapsWithoutText(t *testing.T) {
	deck := pptxtest.Deck{
		Slides: []pptxtest.Slide{pptxtest.Text(), pptxtest.Text(), pptxtest.Text("has text")},
		Media:  []pptxtest.Entry{{Name: "ppt/media/slide1.png", Data: []byte("bitmap")}},
	}
	enh := &fakeEnhancer{text: "  Recovered\n title "}
	cfg := baseConfig(t)
	cfg.Enhancer = enh

	recs, err := Run(context.Background(), deck.Bytes(t), cfg)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"image/png:bitmap"}, enh.calls, "only the media image without text is sent")
	assert.Equal(t, "Recovered\n title", recs[0].Text)
	assert.Equal(t, "", recs[1].Text)
	assert.Equal(t, "has text", recs[2].Text)
}

func TestRunEnhancerFailureKeepsRecord(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Rasterizer = &fakeRasterizer{res: rasterize.Result{Images: pngImages(1)}}
	cfg.Enhancer = &fakeEnhancer{err: errors.New("quota")}
	deck := pptxtest.Deck{Slides: []pptxtest.Slide{pptxtest.Text()}}
	recs, err := Run(context.Background(), deck.Bytes(t), cfg)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, SourceRemote, recs[0].Source)
	assert.Empty(t, recs[0].Text)
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.pptx")
	require.NoError(t, os.WriteFile(path, threeSlideDeck(t), 0o600))
	recs, err := RunFile(context.Background(), path, baseConfig(t))
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	_, err = RunFile(context.Background(), filepath.Join(t.TempDir(), "missing.pptx"), baseConfig(t))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteImages(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")
	recs := []Record{
		{ID: "slide-1", SlideNumber: 1, ImageURL: pptx.DataURI("image/png", []byte("png"))},
		{ID: "slide-12", SlideNumber: 12, ImageURL: pptx.DataURI("image/jpeg", []byte("jpeg"))},
	}
	paths, err := WriteImages(dir, recs)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, "slide-001.png", filepath.Base(paths[0]))
	assert.Equal(t, "slide-012.jpg", filepath.Base(paths[1]))
	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	_, err = WriteImages(dir, []Record{{ID: "slide-9", ImageURL: "https://example.com/x.png"}})
	assert.Error(t, err)
}
