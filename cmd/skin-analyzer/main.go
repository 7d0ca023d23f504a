package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/menta2k/skin-analyzer/internal/app"
	"github.com/menta2k/skin-analyzer/internal/config"
	"github.com/menta2k/skin-analyzer/internal/logging"
	"github.com/menta2k/skin-analyzer/internal/utils"
	"github.com/menta2k/skin-analyzer/pkg/analyzer"
	"github.com/menta2k/skin-analyzer/pkg/compositor"
	"github.com/menta2k/skin-analyzer/pkg/persona"
	"github.com/menta2k/skin-analyzer/pkg/processing"
	"github.com/menta2k/skin-analyzer/pkg/types"
)

type options struct {
	in, outDir, ext string
	quality         int
	lossless        bool
	markers         bool
	product         string
	profile         compositor.Profile
}

type report struct {
	Source   string                    `json:"source"`
	Info     analyzer.ImageInfo        `json:"info"`
	Result   *types.SkinAnalysisResult `json:"result"`
	Enhanced compositor.Source         `json:"enhanced"`
	Product  string                    `json:"product,omitempty"`
}

func main() {
	var opts options
	var configPath, mode, level, sex, concerns string
	var initConfig bool

	flag.StringVar(&opts.in, "in", "", "input photo path, URL or directory (jpg/png/webp/gif)")
	flag.StringVar(&opts.outDir, "out", "", "output directory (default from config)")
	flag.StringVar(&configPath, "config", "", "YAML config file (default ~/.config/skin-analyzer/config.yaml when present)")
	flag.StringVar(&mode, "mode", "", "analysis mode: local|remote|vision (overrides config)")
	flag.StringVar(&level, "log", "", "log level: debug|info|warn|error (overrides config)")

	flag.StringVar(&opts.ext, "ext", "", "output format for images: png|jpg|webp (default from config)")
	flag.IntVar(&opts.quality, "quality", 0, "JPEG/WebP output quality (1-100, default from config)")
	flag.BoolVar(&opts.lossless, "lossless", false, "WebP output lossless mode")
	flag.BoolVar(&opts.markers, "markers", true, "write the before image with problem markers")
	flag.StringVar(&opts.product, "product", "", "also write a product treatment preview (e.g. repairing-serum); defaults to the quiz product with -sex")

	flag.StringVar(&sex, "sex", "", "score the quiz for this sex (female|male), write the routine and preview its primary product")
	flag.StringVar(&concerns, "concerns", "", "comma separated quiz concerns (acne,redness,...)")
	flag.BoolVar(&initConfig, "init-config", false, "write the default config to -config (or the default path) and exit")

	flag.Parse()
	log := logging.Component("cli")

	if initConfig {
		path := configPath
		if path == "" {
			path = config.GetConfigPath()
		}
		if err := config.Default().SaveToFile(path); err != nil {
			log.Fatal(err)
		}
		log.Infof("wrote %s", path)
		return
	}

	if opts.in == "" && sex == "" {
		fmt.Fprintf(os.Stderr, "usage: %s -in photo.jpg|URL|dir [-mode local|remote|vision] [-out outdir] [-ext png|jpg|webp] [-product key] [-sex female|male -concerns acne,redness]\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}

	if configPath == "" && utils.FileExists(config.GetConfigPath()) {
		configPath = config.GetConfigPath()
	}
	cfg, err := app.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if mode != "" {
		cfg.Analysis.Mode = mode
	}
	if level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	if err := logging.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		log.Fatal(err)
	}

	if opts.outDir == "" {
		opts.outDir = cfg.Output.OutputDir
	}
	if opts.ext == "" {
		opts.ext = cfg.Output.DefaultFormat
	}
	if opts.quality == 0 {
		opts.quality = cfg.Output.Quality
	}
	if err := utils.EnsureDir(opts.outDir); err != nil {
		log.Fatal(err)
	}

	if sex != "" {
		primary, err := writeRoutine(opts.outDir, sex, concerns)
		if err != nil {
			log.Fatal(err)
		}
		if opts.product == "" {
			opts.product = primary
		}
	}
	if opts.product != "" {
		p, ok := compositor.ProfileForProduct(opts.product)
		if !ok {
			log.Fatalf("unknown product %q (known: %s)", opts.product, strings.Join(persona.DefaultCatalog().Keys(), ", "))
		}
		opts.profile = p
	}
	if opts.in == "" {
		return
	}

	svc, err := app.Build(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	inputs := []string{opts.in}
	if !utils.IsURL(opts.in) && utils.DirExists(opts.in) {
		inputs, err = utils.ListImageFiles(opts.in)
		if err != nil {
			log.Fatal(err)
		}
		log.Infof("found %d photos in %s", len(inputs), opts.in)
	}

	failed := 0
	for _, in := range inputs {
		if ctx.Err() != nil {
			break
		}
		if err := process(ctx, svc, in, opts); err != nil {
			log.WithError(err).WithField("input", in).Error("processing failed")
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func process(ctx context.Context, svc *app.Services, in string, opts options) error {
	log := logging.Component("cli").WithField("input", in)
	processor := processing.NewProcessor()

	img, err := processor.LoadImageSmart(ctx, in)
	if err != nil {
		return err
	}
	if err := svc.Analyzer.ValidateImage(img); err != nil {
		log.WithError(err).Warn("photo is below the recommended size")
	}

	res := svc.Analyzer.AnalyzeImage(ctx, img)
	log.WithFields(logrus.Fields{
		"strategy": res.Strategy,
		"score":    res.OverallScore,
		"skinType": res.SkinType,
		"problems": len(res.Problems),
	}).Info("analysis complete")

	landmarks := svc.Analyzer.Local().Landmarks(analyzer.Input{Image: img})
	comp, err := svc.Compositor.Compose(ctx, img, res, compositor.Options{ShowMarkers: opts.markers, Landmarks: landmarks})
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}

	save := func(img image.Image, suffix string) error {
		path := utils.OutputPath(in, opts.outDir, suffix, opts.ext)
		if err := processor.SaveImage(img, path, opts.ext, opts.quality, opts.lossless); err != nil {
			return fmt.Errorf("save %s: %w", path, err)
		}
		if st, err := os.Stat(path); err == nil {
			log.Infof("wrote %s (%s)", path, utils.FormatFileSize(st.Size()))
		}
		return nil
	}

	if err := save(comp.Before, "before"); err != nil {
		return err
	}
	if comp.Overlay != nil {
		if err := save(compositor.Flatten(comp.Before, comp.Overlay), "markers"); err != nil {
			return err
		}
	}
	if err := save(comp.After, "after"); err != nil {
		return err
	}
	if opts.profile != "" {
		treated := compositor.Treat(img, res.Problems, opts.profile)
		compositor.Watermark(treated, compositor.DefaultWatermark)
		if err := save(treated, "treated"); err != nil {
			return err
		}
	}

	rep := report{
		Source:   in,
		Info:     svc.Analyzer.GetImageInfo(img),
		Result:   res,
		Enhanced: comp.Source,
		Product:  opts.product,
	}
	return writeJSON(utils.OutputPath(in, opts.outDir, "analysis", "json"), rep)
}

// writeRoutine scores the quiz, writes routine.json and returns the primary product
func writeRoutine(outDir, sex, concerns string) (string, error) {
	answers := persona.Answers{Sex: sex}
	for _, c := range strings.Split(concerns, ",") {
		if c = strings.TrimSpace(c); c != "" {
			answers.Concerns = append(answers.Concerns, c)
		}
	}

	res, err := persona.Score(answers)
	if err != nil {
		return "", err
	}
	logging.Component("cli").WithFields(logrus.Fields{
		"persona": res.Persona,
		"product": res.ProductKey,
	}).Info("quiz scored")
	return res.ProductKey, writeJSON(filepath.Join(outDir, "routine.json"), res)
}

func writeJSON(path string, v any) error {
	js, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, js, 0o644); err != nil {
		return err
	}
	logging.Component("cli").Infof("wrote %s", path)
	return nil
}
