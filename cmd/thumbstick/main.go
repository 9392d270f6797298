package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/thumbstick/internal/app"
	"github.com/ayusman/thumbstick/internal/config"
	"github.com/ayusman/thumbstick/internal/log"
	"github.com/ayusman/thumbstick/internal/recorder"
	"github.com/ayusman/thumbstick/internal/store"
	"github.com/ayusman/thumbstick/internal/tui"
)

var (
	configPath string
	logLevel   string
	// serve
	addr      string
	staticDir string
	withTray  bool
	// record
	recordName     string
	recordDuration time.Duration
	// replay
	replaySpeed float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "thumbstick",
		Short:         "hand tracked virtual thumbstick",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "track the hand and serve the signal over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")
	serveCmd.Flags().StringVar(&staticDir, "static", "", "directory of static files to serve")
	serveCmd.Flags().BoolVar(&withTray, "tray", false, "show a system tray menu")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "show the live signal in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}

	recordCmd := &cobra.Command{
		Use:   "record",
		Short: "record camera tracking into the store",
		Args:  cobra.NoArgs,
		RunE:  runRecord,
	}
	recordCmd.Flags().StringVar(&recordName, "name", "", "recording name (default: timestamp)")
	recordCmd.Flags().DurationVar(&recordDuration, "duration", 10*time.Second, "recording length, 0 records until interrupted")

	replayCmd := &cobra.Command{
		Use:   "replay [recording_id]",
		Short: "replay a recording through the controller and plot the magnitude",
		Args:  cobra.ExactArgs(1),
		RunE:  runReplay,
	}
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 0, "playback speed, 0 replays without waiting")

	recordingsCmd := &cobra.Command{
		Use:   "recordings",
		Short: "manage recordings",
	}
	recordingsCmd.AddCommand(
		&cobra.Command{Use: "list", Short: "list recordings", Args: cobra.NoArgs, RunE: listRecordings},
		&cobra.Command{Use: "delete [recording_id]", Short: "delete a recording", Args: cobra.ExactArgs(1), RunE: deleteRecording},
	)

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage the config file",
	}
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default config",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initConfig,
	}
	initCmd.Flags().Bool("force", false, "overwrite an existing file")
	configCmd.AddCommand(initCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list controller presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				cfg, _ := config.GetPreset(name)
				fmt.Printf("  %-12s deadzone=%.3f max=%.3f scale=%.1f\n",
					name, cfg.Deadzone, cfg.MaxDistance, cfg.ScaleFactor)
			}
			return nil
		},
	}

	rootCmd.AddCommand(serveCmd, liveCmd, recordCmd, replayCmd, recordingsCmd, newProfilesCmd(), configCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadSettings reads the config file and initialises logging.
func loadSettings() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	log.Init(cfg.LogLevel)
	return cfg, nil
}

func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = addr
	}
	if staticDir != "" {
		cfg.Server.StaticDir = staticDir
	}
	if withTray {
		cfg.Server.Tray = true
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	a, err := app.New(app.Config{Settings: cfg, Store: st})
	if err != nil {
		return err
	}

	ctx, stop := interruptContext()
	defer stop()
	log.Info("serving", "addr", cfg.Server.Addr, "profile", a.Profile())
	return a.Run(ctx)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	a, err := app.New(app.Config{Settings: cfg, Store: st})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Start(context.Background()); err != nil {
		return err
	}
	title := "thumbstick"
	if a.Profile() != "" {
		title += " · " + a.Profile()
	}
	tick := time.Duration(cfg.Server.TickMs) * time.Millisecond
	m, err := tui.NewModel(a.Controller(), title, tick, cfg.Scene.Gain)
	if err != nil {
		return err
	}
	bindings, err := a.Bindings()
	if err != nil {
		return err
	}
	for _, b := range bindings {
		if err := m.Bind(b.Entity, b.MovementSpeed); err != nil {
			return fmt.Errorf("binding %s: %w", b.Entity, err)
		}
	}
	return tui.Run(m)
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	cfg.Tracking.Source = config.SourceCamera

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	a, err := app.New(app.Config{Settings: cfg, Store: st})
	if err != nil {
		return err
	}
	defer a.Close()

	name := recordName
	if name == "" {
		name = time.Now().Format("2006-01-02 15:04:05")
	}

	ctx, stop := interruptContext()
	defer stop()
	if recordDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, recordDuration)
		defer cancel()
	}

	rec := recorder.New(st.Recordings(), a.Source())
	if _, err := rec.Start(ctx, name); err != nil {
		return err
	}
	fmt.Printf("recording %q, press ctrl+c to stop\n", name)
	<-ctx.Done()

	done, err := rec.Stop()
	if err != nil {
		return err
	}
	fmt.Printf("saved %s: %d frames over %s\n", done.ID, done.Frames, done.Duration.Round(time.Millisecond))
	return nil
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := configPath
	if len(args) > 0 {
		path = args[0]
	}
	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := config.Save(path, config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
