package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"pet-tracker/internal/app"
	"pet-tracker/internal/config"
	"pet-tracker/internal/i18n"
	"pet-tracker/internal/session"
	"pet-tracker/internal/tracker"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := app.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var verbose bool

// newApp reads the config and creates a PetApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Feed", "Status").
func newApp(ctx context.Context, operation string) (*app.PetApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewPetApp(ctx, cfg, operation, verbose)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// loadApp creates a PetApp and loads the session and pet data. Session
// problems are reported in the display language.
func loadApp(ctx context.Context, operation string) (*app.PetApp, error) {
	a, err := newApp(ctx, operation)
	if err != nil {
		return nil, err
	}
	if err := a.Load(ctx); err != nil {
		err = userError(a.Printer(), err)
		a.Close()
		return nil, err
	}
	if a.View().Pet == nil {
		msg := a.Printer().T("no_pet")
		a.Close()
		return nil, errors.New(msg)
	}
	return a, nil
}

// userError replaces session errors with a translated hint.
func userError(p *i18n.Printer, err error) error {
	switch {
	case errors.Is(err, session.ErrNotLoggedIn):
		return errors.New(p.T("not_logged_in"))
	case errors.Is(err, app.ErrSessionExpired):
		return errors.New(p.T("session_expired"))
	}
	return err
}

var rootCmd = &cobra.Command{
	Use:          "pettrack",
	Short:        "Track feeding, walks, baths and weight for your pet",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		clientID := uuid.New().String()
		cfg := config.NewConfig(clientID, defaults["base_dir"])
		if baseURL, _ := cmd.Flags().GetString("api"); baseURL != "" {
			cfg.API.BaseURL = baseURL
		}

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Client ID: %s\n", clientID)
		fmt.Printf("Base Dir:  %s\n", defaults["base_dir"])
		fmt.Printf("API:       %s\n", cfg.API.BaseURL)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Client ID:  %s\n", cfg.ClientID)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Log Level:  %s\n", cfg.LogLevel)
		fmt.Printf("API:        %s (timeout %s)\n", cfg.API.BaseURL, cfg.API.Timeout.Duration)
		fmt.Printf("Storage:    %s\n", describeStorage(cfg.Storage))
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		return nil
	},
}

func describeStorage(s config.StorageConfig) string {
	switch s.Type {
	case "s3":
		return fmt.Sprintf("s3 (bucket %s, prefix %q)", s.S3Bucket, s.S3Prefix)
	case "sqlite", "filesystem":
		return fmt.Sprintf("%s (%s)", s.Type, s.DataDir)
	default:
		return s.Type
	}
}

// login command
var loginCmd = &cobra.Command{
	Use:   "login [EMAIL]",
	Short: "Log in to the pet tracker server",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "Login")
		if err != nil {
			return err
		}
		defer a.Close()

		p := a.Printer()
		reader := bufio.NewReader(os.Stdin)

		email := ""
		if len(args) > 0 {
			email = args[0]
		} else {
			fmt.Printf("%s: ", p.T("email"))
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("reading email: %w", err)
			}
			email = strings.TrimSpace(line)
		}

		password, err := readPassword(reader, p.T("password"))
		if err != nil {
			return err
		}

		user, err := a.Login(ctx, email, password)
		if err != nil {
			return err
		}
		name := user.FirstName
		if name == "" {
			name = user.Email
		}
		fmt.Println(p.T("logged_in_as", name))
		return nil
	},
}

// readPassword reads a password without echo from a terminal, or a plain
// line when stdin is not a terminal.
func readPassword(reader *bufio.Reader, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Printf("%s: ", prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

// logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget cached pet data",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "Logout")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Println(a.Printer().T("logged_out"))
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's overview",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), "Status")
		if err != nil {
			return err
		}
		defer a.Close()

		printStatus(a)
		return nil
	},
}

func printStatus(a *app.PetApp) {
	p := a.Printer()
	v := a.View()
	now := a.Now()

	fmt.Println(p.T("greeting", a.DisplayName()))
	fmt.Println(describePet(p, v.Pet))
	fmt.Println()

	fmt.Println(p.T("today"))
	fmt.Printf("  %s: %s\n", p.T("fed"), p.YesNo(v.HasFedToday))
	fmt.Printf("  %s: %s\n", p.T("walked"), p.YesNo(v.HasWalkedToday))
	fmt.Println()

	fmt.Println(p.T("grooming"))
	if v.LastBathAt != nil {
		fmt.Printf("  %s: %s (%s)\n", p.T("last_bath"), p.Date(*v.LastBathAt), p.RelativeDays(*v.LastBathAt, now))
	} else {
		fmt.Printf("  %s: %s\n", p.T("last_bath"), p.T("not_recorded"))
	}
	due := p.Date(v.NextBathDueAt)
	if v.IsBathDueToday {
		due += "  " + p.T("due_today")
	}
	fmt.Printf("  %s: %s\n", p.T("next_schedule"), due)
	fmt.Println()

	fmt.Println(p.T("health"))
	if v.CurrentWeightKg != nil {
		fmt.Printf("  %s: %s\n", p.T("current_weight"), p.Weight(*v.CurrentWeightKg))
	} else {
		fmt.Printf("  %s: %s\n", p.T("current_weight"), p.T("not_recorded"))
	}
}

func describePet(p *i18n.Printer, pet *tracker.Pet) string {
	var details []string
	if pet.Breed != nil && *pet.Breed != "" {
		details = append(details, *pet.Breed)
	}
	if pet.Age != nil {
		details = append(details, fmt.Sprintf("%s %d", strings.ToLower(p.T("age")), *pet.Age))
	}
	if len(details) == 0 {
		return pet.Name
	}
	return fmt.Sprintf("%s (%s)", pet.Name, strings.Join(details, ", "))
}

// feed command
var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Mark the pet fed today",
	RunE: func(cmd *cobra.Command, args []string) error {
		undo, _ := cmd.Flags().GetBool("undo")

		a, err := loadApp(cmd.Context(), "Feed")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Feed(cmd.Context(), undo); err != nil {
			return userError(a.Printer(), err)
		}
		p := a.Printer()
		fmt.Printf("%s: %s\n", p.T("fed"), p.YesNo(a.View().HasFedToday))
		return nil
	},
}

// walk command
var walkCmd = &cobra.Command{
	Use:   "walk",
	Short: "Mark the pet walked today",
	RunE: func(cmd *cobra.Command, args []string) error {
		undo, _ := cmd.Flags().GetBool("undo")

		a, err := loadApp(cmd.Context(), "Walk")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Walk(cmd.Context(), undo); err != nil {
			return userError(a.Printer(), err)
		}
		p := a.Printer()
		fmt.Printf("%s: %s\n", p.T("walked"), p.YesNo(a.View().HasWalkedToday))
		return nil
	},
}

// bathe command
var batheCmd = &cobra.Command{
	Use:   "bathe",
	Short: "Log a bath now",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), "Bathe")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Bathe(cmd.Context()); err != nil {
			return userError(a.Printer(), err)
		}
		p := a.Printer()
		v := a.View()
		fmt.Println(p.T("bathed"))
		fmt.Printf("%s: %s\n", p.T("next_schedule"), p.Date(v.NextBathDueAt))
		return nil
	},
}

// weigh command
var weighCmd = &cobra.Command{
	Use:   "weigh VALUE",
	Short: "Log the pet's weight in kg",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), "Weigh")
		if err != nil {
			return err
		}
		defer a.Close()

		p := a.Printer()
		kg, err := a.Weigh(cmd.Context(), args[0])
		if errors.Is(err, app.ErrInvalidWeight) {
			return errors.New(p.T("invalid_weight", args[0]))
		}
		if err != nil {
			return userError(p, err)
		}
		fmt.Println(p.T("weight_logged", p.Weight(kg)))
		return nil
	},
}

// refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-fetch activities from the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), "Refresh")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Refresh(cmd.Context()); err != nil {
			return userError(a.Printer(), err)
		}
		fmt.Println(a.Printer().T("refreshed"))
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:       "history {feedings|walks|baths|weights}",
	Short:     "View activity history",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"feedings", "walks", "baths", "weights"},
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := loadApp(cmd.Context(), "History")
		if err != nil {
			return err
		}
		defer a.Close()

		p := a.Printer()
		v := a.View()
		now := a.Now()

		switch args[0] {
		case "feedings":
			fmt.Println(p.T("feeding_title"))
			rows := tracker.SortedFeedings(v.Feedings)
			if len(rows) == 0 {
				fmt.Println("  " + p.T("no_data_yet"))
			}
			for _, f := range head(rows, limit) {
				label := p.T("not_fed_label")
				if f.Fed {
					label = p.T("fed")
				}
				fmt.Printf("  %s  %s\n", p.DateTime(f.At), label)
			}
		case "walks":
			fmt.Println(p.T("walk_title"))
			rows := tracker.SortedWalks(v.Walks)
			if len(rows) == 0 {
				fmt.Println("  " + p.T("no_data_yet"))
			}
			for _, w := range head(rows, limit) {
				label := p.T("skipped_label")
				if w.Walked {
					label = p.T("walked_label")
				}
				fmt.Printf("  %s  %s\n", p.DateTime(w.At), label)
			}
		case "baths":
			fmt.Println(p.T("baths_title"))
			due := p.Date(v.NextBathDueAt)
			if v.IsBathDueToday {
				due += "  " + p.T("due_today")
			}
			fmt.Printf("  %s: %s\n", p.T("due"), due)
			fmt.Printf("  %s\n", p.T("monthly_schedule_hint"))
			fmt.Println()

			fmt.Println(p.T("history_days_between_baths"))
			intervals := tracker.BathIntervals(v.Baths)
			if len(intervals) == 0 {
				fmt.Println("  " + p.T("not_enough_data"))
			} else {
				parts := make([]string, len(intervals))
				for i, d := range intervals {
					parts[i] = strconv.Itoa(d)
				}
				fmt.Println("  " + strings.Join(parts, ", "))
			}
			for _, b := range head(tracker.SortedBaths(v.Baths), limit) {
				fmt.Printf("  %s (%s)\n", p.Date(b.At), p.RelativeDays(b.At, now))
			}
		case "weights":
			fmt.Println(p.T("weight_title"))
			if v.CurrentWeightKg != nil {
				fmt.Printf("  %s: %s\n", p.T("current"), p.Weight(*v.CurrentWeightKg))
			}
			fmt.Println(p.T("history"))
			rows := tracker.SortedWeights(v.Weights)
			if len(rows) == 0 {
				fmt.Println("  " + p.T("no_data_yet"))
			}
			for _, w := range head(rows, limit) {
				fmt.Printf("  %s  %s\n", p.DateTime(w.At), p.Weight(w.WeightKg))
			}
		}
		return nil
	},
}

// head returns at most n items; n <= 0 returns all.
func head[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n]
}

// lang command
var langCmd = &cobra.Command{
	Use:       "lang [nb|en]",
	Short:     "Show or set the display language",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(i18n.Norwegian), string(i18n.English)},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "Lang")
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 0 {
			fmt.Printf("%s: %s\n", a.Printer().T("language"), a.Language())
			return nil
		}

		lang, _ := i18n.ParseLang(args[0])
		if err := a.SetLanguage(cmd.Context(), lang); err != nil {
			return err
		}
		fmt.Println(a.Printer().T("language_set", lang))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Mirror log output to stderr")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configInitCmd.Flags().String("api", "", "API base URL (default "+config.DefaultBaseURL+")")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(feedCmd)
	feedCmd.Flags().Bool("undo", false, "Clear today's feeding instead")
	rootCmd.AddCommand(walkCmd)
	walkCmd.Flags().Bool("undo", false, "Clear today's walk instead")
	rootCmd.AddCommand(batheCmd)
	rootCmd.AddCommand(weighCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of entries to show")
	rootCmd.AddCommand(langCmd)
}
