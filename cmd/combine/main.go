package main

import (
	"errors"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	combine "github.com/flywave/go-combine"
	"github.com/flywave/go-combine/internal/logger"
)

var cli struct {
	Inputs []string `arg:"" optional:"" name:"input" help:"glTF/GLB files whose scene nodes form the selection, in order." type:"existingfile"`

	Output       string `help:"Output GLB path." short:"o" default:"combined.glb"`
	Config       string `help:"Optional YAML settings file." short:"c"`
	Name         string `help:"Name of the combined node, overrides the settings file."`
	NoLightmapUV bool   `help:"Skip secondary lightmap UV generation."`
	LogFile      string `help:"Also write logs to this file."`
	Verbose      bool   `help:"Enable debug logging." short:"v"`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("combine"),
		kong.Description("Merges the meshes of the selected objects into a single mesh grouped by material and generates lightmap UVs."),
		kong.UsageOnError(),
	)

	level := "info"
	if cli.Verbose {
		level = "debug"
	}
	logger.Init(level, cli.LogFile)
	defer logger.Sync()

	kctx.FatalIfErrorf(run())
}

func run() error {
	settings, err := combine.LoadSettings(cli.Config)
	if err != nil {
		return err
	}
	if cli.Name != "" {
		settings.Output = cli.Name
	}
	if cli.NoLightmapUV {
		settings.LightmapUV = false
	}

	selection, err := combine.LoadSelection(cli.Inputs)
	if err != nil {
		return err
	}

	node, err := combine.Combine(selection, settings.Options())
	if err != nil {
		// the three abort conditions are warnings, not failures: the
		// scene is left untouched and nothing is written
		if errors.Is(err, combine.ErrNothingSelected) ||
			errors.Is(err, combine.ErrNoUsableInput) ||
			errors.Is(err, combine.ErrNoMaterials) {
			logger.Warn(err.Error())
			return nil
		}
		return err
	}

	doc, err := combine.ExportDocument(node)
	if err != nil {
		return err
	}
	glb, err := combine.ExportGLB(doc, 8)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cli.Output, glb, 0o644); err != nil {
		return err
	}

	logger.Info("combined selection",
		zap.Int("objects", len(selection)),
		zap.Int("materials", node.MaterialCount()),
		zap.Int("submeshes", node.Mesh.SubmeshCount()),
		zap.String("output", node.Name),
		zap.String("file", cli.Output))
	return nil
}
