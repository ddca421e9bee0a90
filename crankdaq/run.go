package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/starterbench/crankdaq/pkg/catalog"
	"github.com/starterbench/crankdaq/pkg/clock"
	"github.com/starterbench/crankdaq/pkg/config"
	"github.com/starterbench/crankdaq/pkg/rig"
	"github.com/starterbench/crankdaq/pkg/session"
	"github.com/starterbench/crankdaq/pkg/store"
	"github.com/starterbench/crankdaq/pkg/units"
)

func runCmd() *cobra.Command {
	var (
		portFlag   string
		configFlag string
		mockFlag   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start acquisition and record episodes until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFlag)
			if err != nil {
				return err
			}
			if portFlag != "" {
				cfg.Serial.Port = portFlag
			}
			return runAcquisition(cfg, mockFlag)
		},
	}

	cmd.Flags().StringVarP(&portFlag, "port", "p", "", "serial port override (e.g. /dev/ttyACM0)")
	cmd.Flags().StringVar(&configFlag, "config", "config.yaml", "configuration file path")
	cmd.Flags().BoolVar(&mockFlag, "mock", false, "use the mocked rig instead of a serial port")

	return cmd
}

func runAcquisition(cfg *config.Config, mock bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pterm.DefaultHeader.WithFullWidth().Println("crankdaq — starter rig acquisition")

	// Storage first: the system must never acquire data it cannot persist.
	st := store.New(cfg.Storage.Dir, cfg.Storage.FilePrefix)
	if err := st.Check(); err != nil {
		return haltOnStorageFault(ctx, err)
	}

	cat, err := catalog.Open(filepath.Join(cfg.Storage.Dir, cfg.Storage.CatalogFile))
	if err != nil {
		return haltOnStorageFault(ctx, err)
	}
	defer cat.Close()

	var hw rig.Rig
	if mock {
		pterm.Info.Println("Using mocked rig")
		hw = rig.NewMock(&cfg.Mock)
	} else {
		if cfg.Console.WaitForPort {
			pterm.Info.Printf("Waiting up to %s for %s\n", cfg.Console.WaitTimeout, cfg.Serial.Port)
			if err := rig.WaitForPort(ctx, cfg.Serial.Port, cfg.Console.WaitTimeout); err != nil {
				return err
			}
		}
		hw = rig.NewSerial(cfg.Serial.Port, cfg.Serial.BaudRate)
	}

	if err := hw.Connect(); err != nil {
		return err
	}
	defer hw.Close()

	// The counter reset output is asserted once here and held for the life
	// of the process; the rig's documented wiring never deasserts it.
	// Confirm the line's polarity against the counter datasheet before
	// changing this.
	if err := hw.SetCounterReset(true); err != nil {
		return err
	}

	rec := session.New(hw, hw, st, session.Options{
		PeriodMicros:   cfg.Sampling.PeriodMicros,
		BufferCapacity: cfg.Sampling.BufferCapacity,
	})
	rec.OnEpisode(func(ep session.Episode) {
		reportEpisode(ep, cfg.Sampling.PeriodMicros)
		if err := cat.Record(ep); err != nil {
			pterm.Error.Printf("Catalog update failed: %v\n", err)
		}
	})

	go statusLoop(ctx, rec, units.NewConverter(cfg.Calibration))

	pterm.Info.Printf("Sampling at %d us period, storing under %s\n",
		cfg.Sampling.PeriodMicros, cfg.Storage.Dir)
	pterm.Info.Println("Waiting for trigger. Ctrl-C to stop.")

	err = rec.Run(ctx, clock.NewMonotonic())
	if errors.Is(err, context.Canceled) {
		pterm.Info.Println("Stopped.")
		return nil
	}
	return err
}

// haltOnStorageFault is the fatal boot state: storage is unusable, so no
// acquisition happens, and the fault is signaled once a second so an
// operator without a display can detect the hang. Only an interrupt exits.
func haltOnStorageFault(ctx context.Context, cause error) error {
	pterm.Error.Printf("Storage unavailable, refusing to acquire: %v\n", cause)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return cause
		case <-ticker.C:
			pterm.Error.Println("Storage unavailable — fix storage and restart")
		}
	}
}

func reportEpisode(ep session.Episode, periodMicros uint32) {
	duration := time.Duration(ep.EndMicros.Sub(ep.StartMicros)) * time.Microsecond

	if ep.File == "" {
		pterm.Error.Printf("Episode lost: drain failed after %d records (%s)\n", ep.Records, duration)
		return
	}

	pterm.Success.Printf("Episode %s: %d records over %s (%d bytes)\n",
		filepath.Base(ep.File), ep.Records, duration, ep.Bytes)
	if ep.Overflows > 0 {
		pterm.Warning.Printf("Buffer wrapped %d time(s): oldest samples were overwritten\n", ep.Overflows)
	}
	if ep.BusFaults > 0 {
		pterm.Warning.Printf("%d counter bus fault(s) during the episode\n", ep.BusFaults)
	}
}

// statusLoop prints a one-line status while recording. It reads only the
// recorder's atomic counters; the acquisition loop stays the sole owner of
// the buffer.
func statusLoop(ctx context.Context, rec *session.Recorder, conv *units.Converter) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var prevCount uint32
	var prevTime time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			stats := rec.Stats()
			if !stats.Recording {
				prevTime = time.Time{}
				continue
			}

			var rpm float32
			if !prevTime.IsZero() {
				delta := (stats.LastCount - prevCount) & 0xFFFFFF
				rpm = conv.RPM(delta, uint32(now.Sub(prevTime).Microseconds()))
			}
			prevCount = stats.LastCount
			prevTime = now

			pterm.Info.Printf("recording  records=%d  current=%.0fA  strain=%.0fN  rpm=%.0f\n",
				stats.Records,
				conv.StarterAmps(stats.LastFrame.StarterCurrent),
				conv.StrainNewtons(stats.LastFrame.StarterStrain),
				rpm)
		}
	}
}
