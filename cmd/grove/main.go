package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/grove/internal"
	"github.com/starford/grove/internal/garden"
	"github.com/starford/grove/internal/graph"
	"github.com/starford/grove/internal/mcpserver"
	"github.com/starford/grove/internal/render"
	"github.com/starford/grove/internal/storage"
	pkgconfig "github.com/starford/grove/pkg/config"
)

var version = "dev"

// loadConfig reads the --config file over the defaults. A missing file is
// fine; the defaults then apply.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if v := cmd.String("vault"); v != "" {
		cfg.Vault.Path = v
	}
	return cfg, nil
}

func options(cfg *internal.Config) []internal.Option {
	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}
}

// openGarden loads the garden for the one-shot commands.
func openGarden(ctx context.Context, cmd *cli.Command) (*internal.Garden, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return internal.Open(ctx, options(cfg)...)
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, options(cfg)...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func build(ctx context.Context, cmd *cli.Command) error {
	mode, err := render.ParseMode(cmd.String("mode"))
	if err != nil {
		return err
	}
	g, err := openGarden(ctx, cmd)
	if err != nil {
		return err
	}
	defer g.Close()

	out, err := storage.CreateFS(cmd.String("out"))
	if err != nil {
		return err
	}
	res, err := g.Service.Export(ctx, out, garden.ExportOptions{
		Mode:        mode,
		SVG:         cmd.Bool("svg"),
		Concurrency: int(cmd.Int("concurrency")),
	})
	if err != nil {
		return err
	}
	g.Logger.Info("build: done",
		slog.String("out", out.Root()),
		slog.Int("notes", res.Notes),
		slog.Int("files", res.Files))
	return nil
}

func writeGraph(ctx context.Context, w io.Writer, g *graph.Graph, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	case "dot":
		_, err := io.WriteString(w, graph.ToDOT(g))
		return err
	case "svg":
		svg, err := graph.RenderSVG(ctx, graph.ToDOT(g))
		if err != nil {
			return err
		}
		_, err = w.Write(svg)
		return err
	default:
		return fmt.Errorf("unknown graph format %q (want json, dot or svg)", format)
	}
}

func graphCmd(ctx context.Context, cmd *cli.Command) error {
	g, err := openGarden(ctx, cmd)
	if err != nil {
		return err
	}
	defer g.Close()
	return writeGraph(ctx, os.Stdout, g.Service.Graph(), cmd.String("format"))
}

func check(ctx context.Context, cmd *cli.Command) error {
	g, err := openGarden(ctx, cmd)
	if err != nil {
		return err
	}
	defer g.Close()

	rep := g.Service.Check()
	printReport(os.Stdout, rep)
	if !rep.OK() {
		return cli.Exit("", 1)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	g, err := openGarden(ctx, cmd)
	if err != nil {
		return err
	}
	defer g.Close()
	return mcpserver.New(g.Service, version).ServeStdio()
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "grove",
		Usage:   "Digital garden engine: wikilinks, knowledge graph and JSON views over a Markdown vault",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (YAML or TOML)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Override the vault directory",
				Sources: cli.EnvVars("GROVE_VAULT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the JSON API with live reload",
				Action: serve,
			},
			{
				Name:   "build",
				Usage:  "Write the static JSON views and note fragments",
				Action: build,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "dist", Usage: "Output directory"},
					&cli.StringFlag{Name: "mode", Value: string(render.ModeInline), Usage: "Render path: inline or tree"},
					&cli.BoolFlag{Name: "svg", Usage: "Also lay out graph.svg with Graphviz"},
					&cli.IntFlag{Name: "concurrency", Value: 8, Usage: "Parallel note renders"},
				},
			},
			{
				Name:   "graph",
				Usage:  "Print the knowledge graph",
				Action: graphCmd,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "json, dot or svg"},
				},
			},
			{
				Name:   "check",
				Usage:  "Report invalid notes and broken links",
				Action: check,
			},
			{
				Name:   "mcp",
				Usage:  "Serve read-only garden tools over MCP stdio",
				Action: mcp,
			},
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
