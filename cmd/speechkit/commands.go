package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kbukum/speechkit/audio"
	"github.com/kbukum/speechkit/logger"
	"github.com/kbukum/speechkit/observability"
	"github.com/kbukum/speechkit/transcription"
	"github.com/kbukum/speechkit/transcription/whispercpp/models"
	"github.com/kbukum/speechkit/version"
)

const shutdownTimeout = 5 * time.Second

// TranscribeCmd transcribes one input.
type TranscribeCmd struct {
	Backend  string `short:"b" help:"Use only this backend, ignoring the configured priority."`
	Model    string `short:"m" help:"Model for batch backends, full identifier or short name."`
	Progress bool   `help:"Print partial text to stderr as it arrives." default:"true" negatable:""`
	Format   string `short:"f" help:"Output format: ${enum}." enum:"text,segments,turns" default:"text"`

	Input string `arg:"" help:"Audio file, or - for stdin. Batch backends read stdin as f32le 16 kHz mono." default:"-"`
}

// Run executes the transcribe command.
func (c *TranscribeCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g.Config, g.Debug)
	if err != nil {
		return err
	}
	logger.Init(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.Setup(ctx, cfg.Observability, cfg.Name, version.Short(), cfg.Environment)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdown(sctx)
	}()

	metrics, err := observability.NewMetrics(observability.Meter(cfg.Name))
	if err != nil {
		return err
	}

	c.apply(&cfg.Transcription)
	mgr, err := newManager(ctx, cfg.Transcription, cfg.Name, metrics)
	if err != nil {
		return err
	}
	defer func() { _ = mgr.CloseAll(context.Background()) }()

	t, err := mgr.Get(ctx)
	if err != nil {
		return err
	}

	var opts transcription.Options
	if c.Progress {
		opts.OnProgress = progressPrinter(os.Stderr)
	}
	text, err := t.Transcribe(ctx, c.input(os.Stdin), opts)
	if err != nil {
		return err
	}
	return render(os.Stdout, c.Format, text)
}

// apply folds the command-line overrides into cfg.
func (c *TranscribeCmd) apply(cfg *TranscriptionConfig) {
	if c.Backend != "" {
		cfg.Backend = c.Backend
		cfg.Fallback = nil
	}
	if c.Model == "" {
		return
	}
	if cfg.Backends == nil {
		cfg.Backends = make(map[string]map[string]any)
	}
	for _, name := range cfg.Priority() {
		if cfg.Backends[name] == nil {
			cfg.Backends[name] = make(map[string]any)
		}
		cfg.Backends[name]["model"] = c.Model
	}
}

func (c *TranscribeCmd) input(stdin io.Reader) audio.Input {
	if c.Input == "" || c.Input == "-" {
		return audio.FromStream(stdin)
	}
	return audio.FromFile(c.Input)
}

// progressPrinter writes every non-empty partial text on its own line.
func progressPrinter(w io.Writer) transcription.ProgressFunc {
	return func(text string) {
		if text = strings.TrimSpace(text); text != "" {
			fmt.Fprintln(w, text)
		}
	}
}

// ParseCmd renders saved recognizer output.
type ParseCmd struct {
	Format string `short:"f" help:"Output format: ${enum}." enum:"segments,turns,text" default:"segments"`
	Input  string `arg:"" help:"whisper-cli stdout capture, or - for stdin." default:"-"`
}

// Run executes the parse command.
func (c *ParseCmd) Run(_ *Globals) error {
	var r io.Reader = os.Stdin
	if c.Input != "-" {
		f, err := os.Open(c.Input)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if c.Format == "text" {
		return render(os.Stdout, c.Format, transcription.Texts(transcription.ParseLines(string(raw))))
	}
	return render(os.Stdout, c.Format, string(raw))
}

// render writes a transcript in format. segments and turns parse the
// timestamped lines of text first.
func render(w io.Writer, format, text string) error {
	switch format {
	case "segments":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(transcription.ParseLines(text))
	case "turns":
		for _, turn := range transcription.GroupTurns(transcription.ParseLines(text)) {
			if _, err := fmt.Fprintf(w, "[%s --> %s] %s\n", turn.Start(), turn.End(), turn.Text()); err != nil {
				return err
			}
		}
		return nil
	default:
		if text != "" && !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		_, err := io.WriteString(w, text)
		return err
	}
}

// ModelsCmd lists models.
type ModelsCmd struct{}

// Run executes the models command.
func (c *ModelsCmd) Run(_ *Globals) error {
	return listModels(os.Stdout)
}

func listModels(w io.Writer) error {
	for _, e := range models.Catalog() {
		marker := " "
		if e.Model == transcription.DefaultModel {
			marker = "*"
		}
		if _, err := fmt.Fprintf(w, "%s %-40s %-24s %s\n", marker, e.Model, e.Model.ShortName(), e.File); err != nil {
			return err
		}
	}
	return nil
}

// VersionCmd prints the build version.
type VersionCmd struct{}

// Run executes the version command.
func (c *VersionCmd) Run(_ *Globals) error {
	fmt.Println("speechkit " + version.Full())
	return nil
}
