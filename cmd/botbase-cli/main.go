// Command botbase-cli talks to a sys-botbase agent from the command line.
//
// Usage:
//
//	botbase-cli --host 192.168.1.20 info
//	botbase-cli --config botbase.toml peek heap 0x4293D8B0 16
//	botbase-cli --host 192.168.1.20 pointer-peek 8 -- 0x4C1D2A0 0x10 -0x8
//	botbase-cli --host 192.168.1.20 watch --dir frames --interval 2s --metrics-addr :9102
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/pior/botbase"
	"github.com/pior/botbase/promexporter"
	"github.com/pior/botbase/protocol"
)

// CLI defines the command-line interface.
type CLI struct {
	Peek            PeekCmd            `cmd:"" help:"Read memory at an offset."`
	Poke            PokeCmd            `cmd:"" help:"Write hex bytes at an offset."`
	PointerPeek     PointerPeekCmd     `cmd:"" name:"pointer-peek" help:"Read memory through a pointer chain."`
	PointerAll      PointerAllCmd      `cmd:"" name:"pointer-all" help:"Resolve a pointer chain to an absolute address."`
	PointerRelative PointerRelativeCmd `cmd:"" name:"pointer-relative" help:"Resolve a pointer chain to a relative address."`
	Info            InfoCmd            `cmd:"" help:"Show title, agent version and base addresses."`
	Running         RunningCmd         `cmd:"" help:"Report whether a program is running."`
	Screenshot      ScreenshotCmd      `cmd:"" help:"Capture the framebuffer to a file."`
	Watch           WatchCmd           `cmd:"" help:"Capture the framebuffer periodically, keeping changed frames."`

	Config   string `short:"c" help:"Path to TOML config file." type:"path"`
	Host     string `help:"Agent host (overrides the config file)."`
	Port     int    `help:"Agent port (overrides the config file)."`
	LogLevel string `help:"Log level (debug, info, warn, error)." default:"info"`
}

// app carries what every command needs.
type app struct {
	ctx    context.Context
	config botbase.Config
	logger zerolog.Logger
}

// connect creates a client and opens its connection.
func (rt *app) connect() (*botbase.Client, error) {
	client, err := botbase.NewClient(rt.config)
	if err != nil {
		return nil, err
	}
	client.Connect(rt.ctx)
	if !client.Connected() {
		return nil, fmt.Errorf("could not connect to %s", client.Addr())
	}
	return client, nil
}

// PeekCmd reads memory.
type PeekCmd struct {
	Space  string `arg:"" help:"Address space (heap, main, absolute)."`
	Offset string `arg:"" help:"Offset, decimal or 0x-prefixed hex."`
	Size   int    `arg:"" help:"Number of bytes."`
}

func (c *PeekCmd) Run(rt *app) error {
	space, err := protocol.ParseAddressSpace(c.Space)
	if err != nil {
		return err
	}
	offset, err := strconv.ParseUint(c.Offset, 0, 64)
	if err != nil {
		return fmt.Errorf("parse offset: %w", err)
	}

	client, err := rt.connect()
	if err != nil {
		return err
	}
	defer client.Disconnect()

	data, err := client.Read(rt.ctx, space, offset, c.Size)
	if err != nil {
		return err
	}
	fmt.Println(strings.ToUpper(hex.EncodeToString(data)))
	return nil
}

// PokeCmd writes memory.
type PokeCmd struct {
	Space  string `arg:"" help:"Address space (heap, main, absolute)."`
	Offset string `arg:"" help:"Offset, decimal or 0x-prefixed hex."`
	Data   string `arg:"" help:"Bytes to write as hex, optionally 0x-prefixed."`
}

func (c *PokeCmd) Run(rt *app) error {
	space, err := protocol.ParseAddressSpace(c.Space)
	if err != nil {
		return err
	}
	offset, err := strconv.ParseUint(c.Offset, 0, 64)
	if err != nil {
		return fmt.Errorf("parse offset: %w", err)
	}
	data, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(c.Data, "0x"), "0X"))
	if err != nil {
		return fmt.Errorf("parse data: %w", err)
	}

	client, err := rt.connect()
	if err != nil {
		return err
	}
	defer client.Disconnect()

	return client.Write(rt.ctx, space, offset, data)
}

// PointerPeekCmd reads through a pointer chain.
type PointerPeekCmd struct {
	Size  int      `arg:"" help:"Number of bytes."`
	Jumps []string `arg:"" help:"Jumps, decimal or 0x-prefixed hex. Put -- before negative jumps."`
}

func (c *PointerPeekCmd) Run(rt *app) error {
	jumps, err := parseJumps(c.Jumps)
	if err != nil {
		return err
	}

	client, err := rt.connect()
	if err != nil {
		return err
	}
	defer client.Disconnect()

	data, err := client.PointerPeek(rt.ctx, c.Size, jumps)
	if err != nil {
		return err
	}
	fmt.Println(strings.ToUpper(hex.EncodeToString(data)))
	return nil
}

// PointerAllCmd resolves a chain to an absolute address.
type PointerAllCmd struct {
	Jumps []string `arg:"" help:"Jumps, decimal or 0x-prefixed hex. Put -- before negative jumps."`
}

func (c *PointerAllCmd) Run(rt *app) error {
	return resolveChain(rt, c.Jumps, (*botbase.Client).PointerAll)
}

// PointerRelativeCmd resolves a chain to a relative address.
type PointerRelativeCmd struct {
	Jumps []string `arg:"" help:"Jumps, decimal or 0x-prefixed hex. Put -- before negative jumps."`
}

func (c *PointerRelativeCmd) Run(rt *app) error {
	return resolveChain(rt, c.Jumps, (*botbase.Client).PointerRelative)
}

func resolveChain(rt *app, args []string, resolve func(*botbase.Client, context.Context, []int64) (uint64, error)) error {
	jumps, err := parseJumps(args)
	if err != nil {
		return err
	}

	client, err := rt.connect()
	if err != nil {
		return err
	}
	defer client.Disconnect()

	addr, err := resolve(client, rt.ctx, jumps)
	if err != nil {
		return err
	}
	fmt.Printf("0x%016X\n", addr)
	return nil
}

// InfoCmd shows the agent and title metadata.
type InfoCmd struct{}

func (c *InfoCmd) Run(rt *app) error {
	client, err := rt.connect()
	if err != nil {
		return err
	}
	defer client.Disconnect()

	version, err := client.BotbaseVersion(rt.ctx)
	if err != nil {
		return err
	}
	title, err := client.TitleID(rt.ctx)
	if err != nil {
		return err
	}
	gameVersion, err := client.GameInfo(rt.ctx, "version")
	if err != nil {
		return err
	}
	mainBase, err := client.MainNsoBase(rt.ctx)
	if err != nil {
		return err
	}
	heapBase, err := client.HeapBase(rt.ctx)
	if err != nil {
		return err
	}
	unixTime, err := client.UnixTime(rt.ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Agent:    %s (sys-botbase %s)\n", client.Addr(), version)
	fmt.Printf("Title:    %s (version %s)\n", title, gameVersion)
	fmt.Printf("Main:     0x%016X\n", mainBase)
	fmt.Printf("Heap:     0x%016X\n", heapBase)
	fmt.Printf("Clock:    %s\n", time.Unix(unixTime, 0).UTC().Format(time.RFC3339))
	return nil
}

// RunningCmd checks a program id.
type RunningCmd struct {
	PID string `arg:"" name:"pid" help:"Program id, decimal or 0x-prefixed hex."`
}

func (c *RunningCmd) Run(rt *app) error {
	pid, err := strconv.ParseUint(c.PID, 0, 64)
	if err != nil {
		return fmt.Errorf("parse pid: %w", err)
	}

	client, err := rt.connect()
	if err != nil {
		return err
	}
	defer client.Disconnect()

	running, err := client.IsProgramRunning(rt.ctx, pid)
	if err != nil {
		return err
	}
	fmt.Println(running)
	return nil
}

// ScreenshotCmd captures one frame.
type ScreenshotCmd struct {
	Out string `short:"o" help:"Output file." default:"screenshot.jpg" type:"path"`
}

func (c *ScreenshotCmd) Run(rt *app) error {
	client, err := rt.connect()
	if err != nil {
		return err
	}
	defer client.Disconnect()

	fb, err := client.CaptureFramebuffer(rt.ctx)
	if err != nil {
		return err
	}
	if fb.Empty() {
		return fmt.Errorf("agent returned an empty framebuffer")
	}
	if err := os.WriteFile(c.Out, fb.Data, 0o644); err != nil {
		return err
	}
	rt.logger.Info().Str("file", c.Out).Int("bytes", len(fb.Data)).Msg("screenshot saved")
	return nil
}

// WatchCmd captures frames on an interval and keeps those that changed.
type WatchCmd struct {
	Dir         string        `help:"Directory for captured frames." default:"frames" type:"path"`
	Interval    time.Duration `help:"Time between captures." default:"5s"`
	Count       int           `help:"Number of captures, 0 for no limit." default:"0"`
	MetricsAddr string        `name:"metrics-addr" help:"Serve Prometheus metrics on this address."`
}

func (c *WatchCmd) Run(rt *app) error {
	if c.Interval <= 0 {
		return fmt.Errorf("invalid interval %s: must be positive", c.Interval)
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return err
	}

	client, err := botbase.NewClient(rt.config)
	if err != nil {
		return err
	}
	shared, err := botbase.NewShared(client)
	if err != nil {
		return err
	}
	defer shared.Close()

	if c.MetricsAddr != "" {
		exporter := promexporter.NewExporter()
		if err := exporter.Register(promexporter.NewClientCollector(client, shared)); err != nil {
			return err
		}
		go func() {
			if err := exporter.Serve(rt.ctx, c.MetricsAddr); err != nil {
				rt.logger.Error().Err(err).Str("addr", c.MetricsAddr).Msg("metrics server failed")
			}
		}()
		rt.logger.Info().Str("addr", c.MetricsAddr).Msg("serving metrics")
	}

	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	var last uint64
	for n := 1; c.Count == 0 || n <= c.Count; n++ {
		var fb botbase.Framebuffer
		err := shared.Do(rt.ctx, func(client *botbase.Client) error {
			var err error
			fb, err = client.CaptureFramebuffer(rt.ctx)
			return err
		})
		switch {
		case rt.ctx.Err() != nil:
			return nil
		case err != nil:
			rt.logger.Warn().Err(err).Int("capture", n).Msg("capture failed")
		case fb.Empty():
			rt.logger.Warn().Int("capture", n).Msg("empty framebuffer")
		case fb.Checksum == last:
			rt.logger.Debug().Int("capture", n).Msg("frame unchanged")
		default:
			last = fb.Checksum
			name := filepath.Join(c.Dir, fmt.Sprintf("%s-%016x.jpg", fb.CapturedAt.Format("20060102T150405"), fb.Checksum))
			if err := os.WriteFile(name, fb.Data, 0o644); err != nil {
				return err
			}
			rt.logger.Info().Str("file", name).Int("bytes", len(fb.Data)).Msg("frame saved")
		}

		if c.Count != 0 && n == c.Count {
			break
		}
		select {
		case <-rt.ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

func parseJumps(args []string) ([]int64, error) {
	jumps := make([]int64, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseInt(a, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("parse jump %q: %w", a, err)
		}
		jumps = append(jumps, v)
	}
	return jumps, nil
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Logger{}, err
	}
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(lvl).With().Timestamp().Str("app", "botbase-cli").Logger(), nil
}

func main() {
	cli := CLI{}
	kctx := kong.Parse(&cli,
		kong.Name("botbase-cli"),
		kong.Description("Command line client for sys-botbase agents"),
		kong.UsageOnError(),
	)

	logger, err := newLogger(cli.LogLevel)
	kctx.FatalIfErrorf(err)

	config, err := loadClientConfig(cli.Config, cli.Host, cli.Port)
	kctx.FatalIfErrorf(err)
	config.Logger = &logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = kctx.Run(&app{ctx: ctx, config: config, logger: logger})
	kctx.FatalIfErrorf(err)
}
