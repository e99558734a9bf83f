// Package artifact writes the offline audit trees: per-agent markdown
// transcripts, per-stage workflow markers, and per-agent LLM call chains,
// keyed by date and symbol.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Writer appends markdown artifacts under a logs root:
//
//	<root>/markdown/<YYYY-MM-DD>/<SYMBOL>/<agent>.md
//	<root>/markdown/<YYYY-MM-DD>/<SYMBOL>/workflow.md
//	<root>/llm/<YYYY-MM-DD>/<SYMBOL>/<NN>.<agent>.md
//
// Appends across parallel agents are serialized by one mutex; the files
// are small and write frequency is per-stage, so contention is not a
// concern.
type Writer struct {
	mu     sync.Mutex
	root   string
	logger *zap.Logger
	now    func() time.Time
}

// NewWriter builds a writer rooted at dir (created lazily).
func NewWriter(dir string, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{root: dir, logger: logger, now: time.Now}
}

// AppendAgentMarkdown appends one agent output section to the agent's
// per-day transcript.
func (w *Writer) AppendAgentMarkdown(symbol, agent, stage, content string, meta map[string]string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n## %s - %s\n\n", stage, w.now().Format("15:04:05"))
	for _, key := range sortedKeys(meta) {
		fmt.Fprintf(&b, "- **%s**: %s\n", key, meta[key])
	}
	if len(meta) > 0 {
		b.WriteString("\n")
	}
	b.WriteString(content)
	b.WriteString("\n")

	path := filepath.Join(w.markdownDir(symbol), sanitize(agent)+".md")
	return w.appendFile(path, b.String())
}

// AppendWorkflowMarker appends a stage start/end marker to workflow.md.
func (w *Writer) AppendWorkflowMarker(symbol, marker string) error {
	line := fmt.Sprintf("- %s %s\n", w.now().Format(time.RFC3339), marker)
	path := filepath.Join(w.markdownDir(symbol), "workflow.md")
	return w.appendFile(path, line)
}

// WriteCallChain writes one sealed agent call chain. Seq is the
// per-session sequence number, rendered as a two-digit zero-padded
// prefix.
func (w *Writer) WriteCallChain(symbol, agent string, seq int, doc string) error {
	dir := filepath.Join(w.root, "llm", w.dateDir(), sanitize(symbol))
	path := filepath.Join(dir, fmt.Sprintf("%02d.%s.md", seq, sanitize(agent)))

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("write call chain: %w", err)
	}
	w.logger.Debug("call chain written", zap.String("path", path))
	return nil
}

func (w *Writer) markdownDir(symbol string) string {
	return filepath.Join(w.root, "markdown", w.dateDir(), sanitize(symbol))
}

func (w *Writer) dateDir() string {
	return w.now().Format("2006-01-02")
}

func (w *Writer) appendFile(path, content string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("append artifact: %w", err)
	}
	return nil
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}
