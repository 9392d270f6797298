package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/thumbstick/internal/config"
	"github.com/ayusman/thumbstick/internal/hand"
	"github.com/ayusman/thumbstick/internal/joint"
	"github.com/ayusman/thumbstick/internal/signal"
	"github.com/ayusman/thumbstick/internal/store"
)

var (
	profilePreset   string
	profileHand     string
	profilePolicy   string
	profileRef      string
	profileDeadzone float64
	profileMax      float64
	profileScale    float64
)

func newProfilesCmd() *cobra.Command {
	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "manage controller profiles",
	}

	addCmd := &cobra.Command{
		Use:   "add [name]",
		Short: "save a controller profile",
		Args:  cobra.ExactArgs(1),
		RunE:  addProfile,
	}
	addCmd.Flags().StringVar(&profilePreset, "preset", "default", "preset to start from")
	addCmd.Flags().StringVar(&profileHand, "hand", "", "tracked hand (left, right)")
	addCmd.Flags().StringVar(&profilePolicy, "deadzone-policy", "", "deadzone policy (reset, hold)")
	addCmd.Flags().StringVar(&profileRef, "reference", "", "reference joint (index_knuckle, index_tip)")
	addCmd.Flags().Float64Var(&profileDeadzone, "deadzone", 0, "deadzone distance")
	addCmd.Flags().Float64Var(&profileMax, "max-distance", 0, "distance at full magnitude")
	addCmd.Flags().Float64Var(&profileScale, "scale", 0, "direction scale factor")

	profilesCmd.AddCommand(
		&cobra.Command{Use: "list", Short: "list profiles", Args: cobra.NoArgs, RunE: listProfiles},
		addCmd,
		&cobra.Command{Use: "delete [name]", Short: "delete a profile", Args: cobra.ExactArgs(1), RunE: deleteProfile},
		&cobra.Command{Use: "use [name]", Short: "make a profile active", Args: cobra.ExactArgs(1), RunE: useProfile},
	)
	return profilesCmd
}

// profileConfig builds a controller config from the preset and the flags
// that were set.
func profileConfig(cmd *cobra.Command) (signal.Config, error) {
	cfg, ok := config.GetPreset(profilePreset)
	if !ok {
		return signal.Config{}, fmt.Errorf("unknown preset: %s (available: %v)", profilePreset, config.ListPresets())
	}
	flags := cmd.Flags()
	if flags.Changed("hand") {
		side, err := hand.ParseSide(profileHand)
		if err != nil {
			return signal.Config{}, err
		}
		cfg.HandSide = side
	}
	if flags.Changed("deadzone-policy") {
		p, err := signal.ParseDeadzonePolicy(profilePolicy)
		if err != nil {
			return signal.Config{}, err
		}
		cfg.DeadzonePolicy = p
	}
	if flags.Changed("reference") {
		r, err := joint.ParseReference(profileRef)
		if err != nil {
			return signal.Config{}, err
		}
		cfg.ReferenceJoint = r
	}
	if flags.Changed("deadzone") {
		cfg.Deadzone = profileDeadzone
	}
	if flags.Changed("max-distance") {
		cfg.MaxDistance = profileMax
	}
	if flags.Changed("scale") {
		cfg.ScaleFactor = profileScale
	}
	return cfg, cfg.Validate()
}

func addProfile(cmd *cobra.Command, args []string) error {
	sigCfg, err := profileConfig(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	p := store.NewProfile(args[0], sigCfg)
	if err := st.Profiles().Create(p); err != nil {
		return err
	}
	fmt.Printf("created profile %s (%s)\n", p.Name, p.ID)
	return nil
}

func listProfiles(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	profiles, err := st.Profiles().List()
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Println("no profiles found")
		return nil
	}
	active, err := st.Settings().Get(store.SettingActiveProfile)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tNAME\tHAND\tDEADZONE\tMAX\tSCALE\tPOLICY\tREFERENCE")
	for _, p := range profiles {
		mark := ""
		if p.ID == active {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.3f\t%.3f\t%.1f\t%s\t%s\n",
			mark, p.Name, p.HandSide, p.Deadzone, p.MaxDistance, p.ScaleFactor, p.DeadzonePolicy, p.ReferenceJoint)
	}
	return w.Flush()
}

func deleteProfile(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := st.Profiles().GetByName(args[0])
	if err != nil {
		return fmt.Errorf("profile %s: %w", args[0], err)
	}
	if err := st.Profiles().Delete(p.ID); err != nil {
		return err
	}
	if active, err := st.Settings().Get(store.SettingActiveProfile); err == nil && active == p.ID {
		if err := st.Settings().Delete(store.SettingActiveProfile); err != nil {
			return err
		}
	}
	fmt.Printf("deleted profile %s\n", p.Name)
	return nil
}

func useProfile(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := st.Profiles().GetByName(args[0])
	if err != nil {
		return fmt.Errorf("profile %s: %w", args[0], err)
	}
	if err := st.Settings().Set(store.SettingActiveProfile, p.ID); err != nil {
		return err
	}
	fmt.Printf("active profile: %s\n", p.Name)
	return nil
}
