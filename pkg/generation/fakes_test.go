package generation

import (
	"errors"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/systemstart/doxgen-worker/pkg/compile"
)

type fakeRenderer struct {
	render func(ref string, data map[string]any) (string, error)
}

func (f fakeRenderer) Render(ref string, data map[string]any) (string, error) {
	return f.render(ref, data)
}

func fixedText(text string) fakeRenderer {
	return fakeRenderer{render: func(string, map[string]any) (string, error) { return text, nil }}
}

// sequenceCompiler runs steps[i] on the i-th call and repeats the last step afterwards.
type sequenceCompiler struct {
	calls atomic.Int32
	steps []func(source string) (*compile.Artifact, error)
}

func (c *sequenceCompiler) Compile(source string) (*compile.Artifact, error) {
	i := int(c.calls.Add(1)) - 1
	if i >= len(c.steps) {
		i = len(c.steps) - 1
	}
	return c.steps[i](source)
}

func compilerOf(steps ...func(string) (*compile.Artifact, error)) *sequenceCompiler {
	return &sequenceCompiler{steps: steps}
}

// writesBytes produces an artifact with content inside a working area under root.
func writesBytes(t *testing.T, root string, content []byte) func(string) (*compile.Artifact, error) {
	t.Helper()
	return func(string) (*compile.Artifact, error) {
		area, err := compile.NewWorkingArea(root)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(area.Path(compile.OutputFilename), content, 0o600); err != nil {
			return nil, err
		}
		return compile.NewArtifact(area, compile.OutputFilename)
	}
}

func failsWith(msg string) func(string) (*compile.Artifact, error) {
	return func(string) (*compile.Artifact, error) {
		return nil, errors.New(msg)
	}
}

// blocksUntil waits for release, then runs next. It reports entry on started.
func blocksUntil(release <-chan struct{}, started chan<- struct{}, next func(string) (*compile.Artifact, error)) func(string) (*compile.Artifact, error) {
	return func(source string) (*compile.Artifact, error) {
		if started != nil {
			started <- struct{}{}
		}
		<-release
		return next(source)
	}
}

type placerFunc func(src, dest string) error

func (f placerFunc) Place(src, dest string) error { return f(src, dest) }

// windowRecorder records the [enter, exit] interval of each generation and the
// peak number of generations active at once.
type windowRecorder struct {
	mu      sync.Mutex
	active  int
	peak    int
	opened  map[string]time.Time
	windows [][2]time.Time
}

func newWindowRecorder() *windowRecorder {
	return &windowRecorder{opened: make(map[string]time.Time)}
}

func (w *windowRecorder) enter(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active++
	w.peak = max(w.peak, w.active)
	w.opened[key] = time.Now()
}

func (w *windowRecorder) exit(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active--
	w.windows = append(w.windows, [2]time.Time{w.opened[key], time.Now()})
}

func (w *windowRecorder) overlapping() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	ws := append([][2]time.Time(nil), w.windows...)
	sort.Slice(ws, func(i, j int) bool { return ws[i][0].Before(ws[j][0]) })
	for i := 1; i < len(ws); i++ {
		if ws[i][0].Before(ws[i-1][1]) {
			return true
		}
	}
	return false
}
