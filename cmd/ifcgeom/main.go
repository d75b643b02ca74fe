// Command ifcgeom drives the geometry pipeline from the command line:
// process one model, or watch a directory and process models as they
// arrive.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/arx-os/ifcgeom/internal/collab"
	"github.com/arx-os/ifcgeom/internal/common/logger"
	"github.com/arx-os/ifcgeom/internal/config"
	"github.com/arx-os/ifcgeom/internal/infrastructure/ifc"
	"github.com/arx-os/ifcgeom/internal/infrastructure/services"
	"github.com/arx-os/ifcgeom/internal/metrics"
	"github.com/arx-os/ifcgeom/internal/storage"
	"github.com/arx-os/ifcgeom/internal/usecase"
)

var version = "dev"

var (
	flagConfig     string
	flagInstanced  bool
	flagOutput     string
	flagPretty     bool
	flagSequential bool
)

var rootCmd = &cobra.Command{
	Use:   "ifcgeom",
	Short: "IFC geometry pipeline",
	Long: `ifcgeom parses IFC STEP files and generates renderable triangle
meshes for every building element, including void subtraction for
openings (doors, windows, penetrations).

Models are read from the configured storage backend (local filesystem,
S3, GCS or Azure Blob) and results can be exported as JSON.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (YAML or JSON)")

	processCmd.Flags().BoolVar(&flagInstanced, "instanced", false, "group identical geometry and emit one mesh with many instances")
	processCmd.Flags().StringVarP(&flagOutput, "out", "o", "", "storage key to write the exported JSON document to")
	processCmd.Flags().BoolVar(&flagPretty, "pretty", false, "indent the exported document")
	processCmd.Flags().BoolVar(&flagSequential, "sequential", false, "disable parallel processing")

	rootCmd.AddCommand(processCmd, watchCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the use case stack.
func setup(sourceHint string) (*config.Config, *usecase.GeometryUseCase, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, err
	}
	if flagSequential {
		cfg.Geometry.Sequential = true
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		logger.SetLevel(logger.DEBUG)
	case "warn":
		logger.SetLevel(logger.WARN)
	case "error":
		logger.SetLevel(logger.ERROR)
	default:
		logger.SetLevel(logger.INFO)
	}

	// An absolute local path re-roots the local backend at the file's
	// directory so the same key syntax works for every backend.
	if cfg.Storage.Backend == "local" && filepath.IsAbs(sourceHint) {
		cfg.Storage.BasePath = filepath.Dir(sourceHint)
	}

	store, err := storage.Open(context.Background(), &cfg.Storage)
	if err != nil {
		return nil, nil, err
	}

	var mtr *metrics.Pipeline
	if cfg.Metrics.Enabled {
		mtr = metrics.NewPipeline(cfg.Metrics.Namespace, prometheus.DefaultRegisterer)
	}

	log := logger.New(logger.INFO)
	svc := ifc.NewGeometryService(cfg.Geometry, log, mtr).
		WithCollaborators(collab.StepPropertyExtractor{}, collab.RelAggregatesHierarchyBuilder{}, collab.IfcStyledItemResolver{})

	uc := usecase.NewGeometryUseCase(store, ifc.NewLoggingService(svc, log), log)
	return cfg, uc, nil
}

var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Process one IFC model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := args[0]
		_, uc, err := setup(source)
		if err != nil {
			return err
		}

		key := source
		if filepath.IsAbs(source) {
			key = filepath.Base(source)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := uc.ProcessFile(ctx, key, usecase.ProcessOptions{
			Instanced: flagInstanced,
			OutputKey: flagOutput,
			Pretty:    flagPretty,
		})
		if err != nil {
			return err
		}

		printSummary(result)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Watch a directory and process IFC files as they arrive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		_, uc, err := setup(filepath.Join(dir, "placeholder.ifc"))
		if err != nil {
			return err
		}

		log := logger.New(logger.INFO)
		watcher, err := services.NewFileWatcher(dir, 2*time.Second, log)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go watcher.Run(ctx)
		logger.Info("watching %s for IFC files", dir)

		for ev := range watcher.Events() {
			logger.Info("%s: %s", ev.Action, ev.Path)
			result, err := uc.ProcessFile(ctx, filepath.Base(ev.Path), usecase.ProcessOptions{
				OutputKey: strings.TrimSuffix(filepath.Base(ev.Path), ".ifc") + ".json",
			})
			if err != nil {
				logger.Error("processing %s failed: %v", ev.Path, err)
				continue
			}
			printSummary(result)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ifcgeom", version)
	},
}

func printSummary(result *usecase.ProcessResult) {
	m := result.Model
	fmt.Printf("%s (schema %s)\n", m.Name, m.Schema)
	fmt.Printf("  elements: %d  vertices: %d  triangles: %d\n",
		m.Stats.ElementsEmitted, m.Stats.Vertices, m.Stats.Triangles)
	if m.Stats.SharedGeometries > 0 {
		fmt.Printf("  shared geometries: %d  instances: %d\n",
			m.Stats.SharedGeometries, m.Stats.Instances)
	}
	if m.Stats.HasRTC {
		fmt.Printf("  rtc offset: (%.0f, %.0f, %.0f)\n",
			m.Stats.RTCOffset[0], m.Stats.RTCOffset[1], m.Stats.RTCOffset[2])
	}
	for _, t := range m.SortedTypes() {
		fmt.Printf("  %-28s %d\n", t, m.ElementCounts[t])
	}
	for _, s := range m.Storeys {
		if s.Elevation != nil {
			fmt.Printf("  storey %-20s elev %.2f  elements %d\n", s.Name, *s.Elevation, s.ElementCount)
		} else {
			fmt.Printf("  storey %-20s elements %d\n", s.Name, s.ElementCount)
		}
	}
	if m.Stats.DecodeFailed+m.Stats.ProcessFailed+m.Stats.OutlierFiltered > 0 {
		fmt.Printf("  failures: decode %d  process %d  outliers %d\n",
			m.Stats.DecodeFailed, m.Stats.ProcessFailed, m.Stats.OutlierFiltered)
	}
	if result.OutputKey != "" {
		fmt.Printf("  wrote %s\n", result.OutputKey)
	}
}
