package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"overdub/internal/config"
)

// ConfigOption customizes the configuration NewConfig hands back.
type ConfigOption func(*builder)

type builder struct {
	t   testing.TB
	cfg *config.Config

	baseDir string
	onPath  bool
}

// NewConfig builds a config rooted in a fresh temp directory, with options
// applied on top of sensible test defaults.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths = config.Paths{
		WorkspaceDir: filepath.Join(base, "workspace"),
		OutputDir:    filepath.Join(base, "output"),
		LogDir:       filepath.Join(base, "logs"),
		QueueDB:      filepath.Join(base, "queue.db"),
	}
	cfg.Logging.Format = "json"

	b := &builder{t: t, cfg: &cfg, baseDir: base}
	for _, opt := range opts {
		opt(b)
	}
	return b.cfg
}

// WithXTTSURL points the test config at an XTTS server.
func WithXTTSURL(url string) ConfigOption {
	return func(b *builder) {
		b.cfg.Tools.XTTSURL = url
	}
}

// WithTargetLanguage overrides the dubbing target language.
func WithTargetLanguage(lang string) ConfigOption {
	return func(b *builder) {
		b.cfg.Render.TargetLanguage = lang
	}
}

// WithStubbedBinaries drops no-op executables for the named tools onto PATH.
// With no names, the default external binaries are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *builder) {
		if len(names) == 0 {
			names = []string{"edge-tts", "ffmpeg", "ffprobe"}
		}
		for _, name := range names {
			b.writeStub(name, "#!/bin/sh\nexit 0\n")
		}
	}
}

// WithStubbedBinary writes a stub executable with the given script body and
// prepends its directory to PATH.
func WithStubbedBinary(name, script string) ConfigOption {
	return func(b *builder) {
		b.writeStub(name, script)
	}
}

func (b *builder) writeStub(name, script string) {
	binDir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(binDir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		b.t.Fatalf("write stub %s: %v", name, err)
	}

	if b.onPath {
		return
	}
	oldPath := os.Getenv("PATH")
	if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
		b.t.Fatalf("set PATH: %v", err)
	}
	b.t.Cleanup(func() {
		_ = os.Setenv("PATH", oldPath)
	})
	b.onPath = true
}

// BaseDir recovers the temp root behind a NewConfig-built config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkspaceDir)
}
