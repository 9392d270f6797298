package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/ayusman/thumbstick/internal/app"
	"github.com/ayusman/thumbstick/internal/controller"
	"github.com/ayusman/thumbstick/internal/hand"
	"github.com/ayusman/thumbstick/internal/signal"
	"github.com/ayusman/thumbstick/internal/tracking"
)

const plotWidth = 70

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.Recordings().GetByID(args[0])
	if err != nil {
		return err
	}
	frames, err := st.Recordings().Frames(rec.ID)
	if err != nil {
		return err
	}
	sigCfg, profile, err := app.ResolveSignalConfig(cfg, st)
	if err != nil {
		return err
	}

	src := tracking.NewReplaySource(frames, tracking.WithSpeed(replaySpeed))
	signals, err := replayThrough(src, sigCfg)
	if err != nil {
		return err
	}

	if profile == "" {
		profile = "config file"
	}
	fmt.Printf("recording: %s (%s)\n", rec.Name, rec.ID)
	fmt.Printf("profile: %s\n", profile)
	fmt.Printf("frames: %d over %s\n\n", len(signals), rec.Duration.Round(time.Millisecond))
	if len(signals) == 0 {
		return fmt.Errorf("no data to plot")
	}

	mags := make([]float64, len(signals))
	active := 0
	for i, s := range signals {
		mags[i] = s.Magnitude
		if s.Active {
			active++
		}
	}
	graph := asciigraph.Plot(mags,
		asciigraph.Height(10),
		asciigraph.Width(plotWidth),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(1),
		asciigraph.Caption("magnitude"))
	fmt.Println(graph)
	fmt.Printf("\nactive: %d/%d frames (%.0f%%)\n", active, len(signals), 100*float64(active)/float64(len(signals)))
	return nil
}

// replayThrough feeds every frame of src through a controller and returns
// the signal after each one.
func replayThrough(src *tracking.ReplaySource, cfg signal.Config) ([]signal.Signal, error) {
	c, err := controller.New(src, cfg)
	if err != nil {
		return nil, err
	}

	var out []signal.Signal
	unsubscribe := src.Subscribe(func(u hand.Update) {
		out = append(out, c.HandleUpdate(u))
	})
	defer unsubscribe()

	if err := src.Start(context.Background()); err != nil {
		return nil, err
	}
	<-src.Done()
	src.Stop()
	return out, nil
}

func listRecordings(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	recs, err := st.Recordings().List()
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("no recordings found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCREATED\tFRAMES\tDURATION")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			r.ID,
			r.Name,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Frames,
			r.Duration.Round(time.Millisecond),
		)
	}
	return w.Flush()
}

func deleteRecording(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Recordings().Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}
