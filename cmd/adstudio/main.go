// Command adstudio composes ad creatives and renders them to PNG.
//
// Usage:
//
//	adstudio serve  [-config file]
//	adstudio render [-config file] -scene scene.json [-size 1200x628,1080x1080] [-name N] [-out dir]
//	adstudio edit   [-config file] [-image file] [-logo file] [-log file]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/gogpu/adstudio"
	"github.com/gogpu/adstudio/assets"
	"github.com/gogpu/adstudio/canvas"
	"github.com/gogpu/adstudio/collab"
	"github.com/gogpu/adstudio/export"
	"github.com/gogpu/adstudio/internal/config"
	"github.com/gogpu/adstudio/internal/tui"
	"github.com/gogpu/adstudio/server"
	"github.com/gogpu/adstudio/studio"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "serve":
		err = runServe(ctx, args)
	case "render":
		err = runRender(ctx, args)
	case "edit":
		err = runEdit(ctx, args)
	case "version":
		fmt.Println("adstudio", adstudio.Version)
	case "-h", "-help", "--help", "help":
		usage(os.Stdout)
	default:
		usage(os.Stderr)
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "adstudio:", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: adstudio <serve|render|edit|version> [flags]")
}

// loadConfig parses the shared -config flag and installs the logger.
func loadConfig(fs *flag.FlagSet, args []string, logOut io.Writer) (*config.Config, error) {
	path := fs.String("config", "", "YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg, err := config.Load(*path)
	if err != nil {
		return nil, err
	}
	lvl, _ := config.ParseLevel(cfg.LogLevel)
	if logOut != nil {
		logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: lvl}))
		slog.SetDefault(logger)
		adstudio.SetLogger(logger)
	}
	return cfg, nil
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg, err := loadConfig(fs, args, os.Stdout)
	if err != nil {
		return err
	}

	exportOpts, err := cfg.ExportOptions()
	if err != nil {
		return err
	}
	sc := cfg.ServerOptions()
	srv, err := server.New(sc,
		server.WithExporter(export.New(append(exportOpts, export.WithLoader(server.StaticLoader(sc)))...)))
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, cfg.Server.Listen)
}

type sceneFile struct {
	Elements []canvas.Element `json:"elements"`
	Canvas   *canvas.Size     `json:"canvas"`
}

func runRender(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	scenePath := fs.String("scene", "", "scene JSON file ({elements, canvas})")
	sizes := fs.String("size", "1200x628,1080x1080", "comma-separated output sizes WxH")
	name := fs.String("name", "", "output base name (default export_WxH)")
	out := fs.String("out", "", "output directory (default export.dir)")
	cfg, err := loadConfig(fs, args, os.Stderr)
	if err != nil {
		return err
	}
	if *scenePath == "" {
		return errors.New("render: -scene is required")
	}

	data, err := os.ReadFile(*scenePath)
	if err != nil {
		return err
	}
	var scene sceneFile
	if err := json.Unmarshal(data, &scene); err != nil {
		return fmt.Errorf("render: %s: %w", *scenePath, err)
	}
	size := cfg.Canvas
	if scene.Canvas != nil && !scene.Canvas.IsEmpty() {
		size = *scene.Canvas
	}

	exportOpts, err := cfg.ExportOptions()
	if err != nil {
		return err
	}
	// relative image paths resolve against the scene file
	loader := assets.NewLoader(assets.WithFS(os.DirFS(filepath.Dir(*scenePath))))
	x := export.New(append(exportOpts, export.WithLoader(loader))...)

	dir := *out
	if dir == "" {
		dir = cfg.Export.Dir
	}
	sink := export.DirSink{Dir: dir}

	for _, s := range strings.Split(*sizes, ",") {
		target, err := export.ParseTarget(s)
		if err != nil {
			return err
		}
		if *name != "" {
			target.Name = fmt.Sprintf("%s_%dx%d", *name, target.Width, target.Height)
		}
		if err := x.Export(ctx, scene.Elements, size, target, sink); err != nil {
			return err
		}
		fmt.Println(filepath.Join(dir, target.FileName()))
	}
	return nil
}

// stringList collects a repeatable flag.
type stringList []string

func (l *stringList) String() string     { return strings.Join(*l, ",") }
func (l *stringList) Set(v string) error { *l = append(*l, v); return nil }

func runEdit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	var images, logos stringList
	fs.Var(&images, "image", "product image to add (repeatable)")
	fs.Var(&logos, "logo", "logo image to add (repeatable)")
	logPath := fs.String("log", "", "write logs to this file")

	// the terminal belongs to the editor, so logs go to a file or nowhere
	cfg, err := loadConfig(fs, args, nil)
	if err != nil {
		return err
	}
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		lvl, _ := config.ParseLevel(cfg.LogLevel)
		adstudio.SetLogger(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: lvl})))
	}

	exportOpts, err := cfg.ExportOptions()
	if err != nil {
		return err
	}
	opts := []studio.Option{
		studio.WithCanvasSize(cfg.Canvas),
		studio.WithExportOptions(exportOpts...),
		studio.WithLoaderOptions(assets.WithFS(os.DirFS("."))),
	}
	if c := cfg.NewClient(); c != nil {
		opts = append(opts, studio.WithClient(c))
	}
	session := studio.NewSession(opts...)

	for _, u := range []struct {
		kind  canvas.Kind
		paths []string
	}{{canvas.KindImage, images}, {canvas.KindLogo, logos}} {
		for _, p := range u.paths {
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			session.AddImage(ctx, collab.Upload{Name: filepath.Base(p), Data: data}, u.kind)
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	return tui.New(screen, session, export.DirSink{Dir: cfg.Export.Dir}).Run(ctx)
}
