// Command framesim samples the bodies of a scenario, reconstructs a reference
// frame from its descriptor and reports the geometric accelerations felt by
// the probes of the scenario in that frame. It optionally renders the probes
// through a two-stage transform pipeline.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/frame-kinematics/frames"
	"github.com/signalsfoundry/frame-kinematics/geometry"
	"github.com/signalsfoundry/frame-kinematics/internal/logging"
	"github.com/signalsfoundry/frame-kinematics/internal/observability"
	"github.com/signalsfoundry/frame-kinematics/kb"
	"github.com/signalsfoundry/frame-kinematics/scenario"
	"github.com/signalsfoundry/frame-kinematics/timectrl"
)

type config struct {
	ScenarioPath string
	Steps        int
	Tick         time.Duration
	Frame        string // JSON descriptor
	MetricsAddr  string
	RealTime     bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.ScenarioPath, "scenario", "configs/scenario.json", "path to the JSON scenario")
	flag.IntVar(&cfg.Steps, "steps", 0, "number of ticks to sample (0 keeps the scenario value)")
	flag.DurationVar(&cfg.Tick, "tick", 0, "tick interval (0 keeps the scenario value)")
	flag.StringVar(&cfg.Frame, "frame", "", `JSON frame descriptor overriding the scenario one, e.g. {"body_centred_non_rotating":{"centre":"Earth"}}`)
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "address on which to serve Prometheus metrics, e.g. :9090")
	flag.BoolVar(&cfg.RealTime, "real-time", false, "pace ticks with the wall clock")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	log := logging.NewFromEnv()

	err := run(ctx, cfg, os.Stdout, log)
	stop()
	if err != nil {
		log.Error(ctx, "framesim failed", logging.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, out io.Writer, base logging.Logger) (err error) {
	ctx, log := logging.WithRunLogger(ctx, base)

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	ctx, span := observability.StartSpan(ctx, "framesim", "framesim.run",
		attribute.String("run_id", logging.RunIDFromContext(ctx)),
		attribute.String("scenario", cfg.ScenarioPath))
	defer func() { observability.EndSpan(span, err) }()

	collector, err := observability.NewKinematicsCollector(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: collector.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn(ctx, "metrics server stopped", logging.Err(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info(ctx, "serving metrics", logging.String("addr", cfg.MetricsAddr))
	}

	store := kb.NewKnowledgeBase()
	sc, err := scenario.LoadFile(store, cfg.ScenarioPath)
	if err != nil {
		return err
	}
	if err := applyOverrides(sc, cfg); err != nil {
		return err
	}
	log.Info(ctx, "loaded scenario",
		logging.String("path", cfg.ScenarioPath),
		logging.Int("bodies", len(sc.BodyIDs)),
		logging.Int("probes", len(sc.ProbeIDs)),
		logging.Int("steps", sc.Steps),
		logging.Float("tick_s", sc.Tick.Seconds()))

	sim, err := newSimulation(store, sc)
	if err != nil {
		return err
	}

	updates := 0
	unsubscribe := store.Subscribe(func(ev kb.Event) {
		if ev.Type != kb.EventBodyUpdated {
			return
		}
		updates++
		log.Debug(ctx, "body sampled",
			logging.String("body", ev.Body.ID),
			logging.Float("x", ev.Body.Coordinates.X),
			logging.Float("y", ev.Body.Coordinates.Y),
			logging.Float("z", ev.Body.Coordinates.Z))
	})
	defer unsubscribe()

	mode := timectrl.Accelerated
	if cfg.RealTime {
		mode = timectrl.RealTime
	}
	tc := timectrl.NewTimeController(sc.Epoch, sc.Tick, mode)
	tc.AddListener(sim.sample)
	if err := tc.Run(ctx, sc.Steps); err != nil {
		return fmt.Errorf("sampling: %w", err)
	}
	fmt.Fprintf(out, "Sampled %d body states\n", updates)

	frame, err := frames.ReadFromMessage[geometry.ICRS, Navigation](ctx, &sc.Frame, sim.ephemeris, frames.WithCollector(collector))
	if err != nil {
		return err
	}
	instrumented := frames.Instrument(frame, collector)

	probes := sim.probes(sc.ProbeIDs)
	fmt.Fprintf(out, "Frame %s over [%s, %s]\n", frame.Variant(),
		instrumented.TMin().Time().Format(time.RFC3339), instrumented.TMax().Time().Format(time.RFC3339))
	if err := reportKinematics(ctx, out, instrumented, probes); err != nil {
		return err
	}

	rendered := 0
	if sc.Pipeline != nil {
		if rendered, err = renderPipeline(ctx, out, sim, sc.Pipeline, probes, collector); err != nil {
			return fmt.Errorf("pipeline: %w", err)
		}
	}

	log.Info(ctx, "run complete",
		logging.String("frame", frame.Variant().String()),
		logging.Int("motion_evaluations", int(instrumented.MotionEvaluations())),
		logging.Int("body_updates", updates),
		logging.Int("rendered_samples", rendered))
	return nil
}

func applyOverrides(sc *scenario.Scenario, cfg config) error {
	if cfg.Steps > 0 {
		sc.Steps = cfg.Steps
	}
	if cfg.Tick > 0 {
		sc.Tick = geometry.FromDuration(cfg.Tick)
	}
	if cfg.Frame != "" {
		var d frames.Descriptor
		if err := json.Unmarshal([]byte(cfg.Frame), &d); err != nil {
			return fmt.Errorf("-frame: %w", err)
		}
		sc.Frame = d
	}
	return nil
}
