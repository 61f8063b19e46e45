// flappygym runs the Flappy Bird simulator for humans and agents.
//
// Usage:
//
//	flappygym list             - List environments and agents
//	flappygym play             - Play in the terminal
//	flappygym menu             - Menu to play, watch an agent or browse scores
//	flappygym run              - Run agent episodes and record them
//	flappygym scores           - Show human high scores and agent episodes
//	flappygym serve            - Start SSH server for remote play
//	flappygym watch            - Stream an agent to the browser
//
// Global flags (also FLAPPYGYM_<NAME> environment variables):
//
//	--fps <rate>         - Set tick rate (default: 30)
//	--seed <value>       - Set RNG seed for reproducible episodes
//	--db <path>          - Set database path (default: ~/.flappygym/scores.db)
//	--config <path>      - Simulator config YAML
//	--log-level <level>  - debug, info, warn or error
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vovakirdan/flappy-gym/internal/config"
	"github.com/vovakirdan/flappy-gym/internal/core"
	"github.com/vovakirdan/flappy-gym/internal/logging"
)

// settings are the global options after flag, env and file merging.
type settings struct {
	FPS      int    `mapstructure:"fps"`
	Seed     int64  `mapstructure:"seed"`
	DB       string `mapstructure:"db"`
	Config   string `mapstructure:"config"`
	LogLevel string `mapstructure:"log-level"`
}

var (
	vp       = viper.New()
	global   settings
	logger   *log.Logger
	flappyCf config.FlappyConfig
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "flappygym",
	Short: "Flappy Bird simulator for the terminal and for agents",
	Long: `flappygym is a deterministic Flappy Bird simulator with a gym-style
environment layer. Humans play it in the terminal or over SSH; agents play
it headless, in parallel, or live in the browser.

Available commands:
  list     - Show environments and agents
  play     - Play in the terminal
  menu     - Interactive menu (play, watch an agent, scores)
  run      - Run agent episodes
  scores   - View high scores and recorded episodes
  serve    - Start SSH server for remote play
  watch    - Stream an agent playing to the browser

Settings are read from flags, FLAPPYGYM_* environment variables and
~/.flappygym/flappygym.yaml, in that order of precedence.

Examples:
  flappygym play
  flappygym run --env FlappyBird-v0 --agent heuristic --episodes 100 --workers 4
  flappygym watch --addr :8080
  flappygym serve --ssh :2222`,
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.Int("fps", core.DefaultTickRate, "Tick rate (frames per second)")
	flags.Int64("seed", 0, "RNG seed (0 = random based on time)")
	flags.String("db", "~/.flappygym/scores.db", "Path to scores database")
	flags.String("config", "", "Path to simulator config YAML")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
}

// loadSettings merges flags, environment and the optional settings file,
// then builds the logger and the simulator config shared by all commands.
func loadSettings(cmd *cobra.Command, _ []string) error {
	if err := vp.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	vp.SetEnvPrefix("FLAPPYGYM")
	vp.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vp.AutomaticEnv()

	vp.SetConfigName("flappygym")
	vp.SetConfigType("yaml")
	vp.AddConfigPath("$HOME/.flappygym")
	if err := vp.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read settings: %w", err)
		}
	}

	if err := vp.Unmarshal(&global); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}

	logger = logging.New(global.LogLevel, "flappygym")

	cfg, err := config.LoadFlappy(global.Config)
	if err != nil {
		return err
	}
	flappyCf = cfg
	logger.Debug("settings loaded", "fps", global.FPS, "seed", global.Seed, "db", global.DB, "settings", vp.ConfigFileUsed())
	return nil
}

// fatalf prints an error and exits.
func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
