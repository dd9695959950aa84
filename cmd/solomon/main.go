package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/go-go-golems/solomon/cmd/solomon/cmds"
	"github.com/go-go-golems/solomon/pkg/settings"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

var rootCmd = &cobra.Command{
	Use:   "solomon",
	Short: "solomon is a conversational client for a generation backend",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// reinitialize the logger because we can now parse --log-level and co
		// from the command line flag
		initLogger()
	},
	SilenceUsage: true,
}

func initLogger() {
	logLevel := viper.GetString("log-level")
	verbose := viper.GetBool("verbose")
	if verbose && logLevel != "trace" {
		logLevel = "debug"
	}

	err := InitLogger(&logConfig{
		Level:      logLevel,
		LogFile:    viper.GetString("log-file"),
		LogFormat:  viper.GetString("log-format"),
		WithCaller: viper.GetBool("with-caller"),
	})
	cobra.CheckErr(err)
}

type logConfig struct {
	WithCaller bool
	Level      string
	LogFormat  string
	LogFile    string
}

func initConfig(rootCmd *cobra.Command, configPath string) error {
	viper.SetEnvPrefix("solomon")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.solomon")

		xdgConfigPath, err := os.UserConfigDir()
		if err == nil {
			viper.AddConfigPath(xdgConfigPath + "/solomon")
		}
	}

	err := viper.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// no config file, flags and environment only
	} else if err != nil {
		return err
	}
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	settings.SetDefaults(viper.GetViper())

	err = viper.BindPFlags(rootCmd.PersistentFlags())
	if err != nil {
		return err
	}

	initLogger()

	log.Debug().
		Str("config", viper.ConfigFileUsed()).
		Msg("Loaded configuration")

	return nil
}

func InitLogger(config *logConfig) error {
	if config.WithCaller {
		log.Logger = log.With().Caller().Logger()
	}
	var logWriter io.Writer
	if config.LogFormat == "text" {
		logWriter = zerolog.ConsoleWriter{Out: os.Stderr}
	} else {
		logWriter = os.Stderr
	}

	if config.LogFile != "" {
		logWriter = io.MultiWriter(
			logWriter,
			zerolog.ConsoleWriter{
				NoColor: true,
				Out: &lumberjack.Logger{
					Filename:   config.LogFile,
					MaxSize:    10, // megabytes
					MaxBackups: 3,
					MaxAge:     28, //days
					Compress:   false,
				},
			})
	}

	log.Logger = log.Output(logWriter)

	switch config.Level {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	}

	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	// logging flags
	rootCmd.PersistentFlags().Bool("with-caller", false, "Log caller")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (trace, debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (json, text)")
	rootCmd.PersistentFlags().String("log-file", "", "Log file (default: stderr)")

	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ~/.solomon/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Verbose output")

	d := settings.Defaults()
	rootCmd.PersistentFlags().String(settings.KeyBackend, string(d.Backend.Kind), "Generation backend (http, openai, mock)")
	rootCmd.PersistentFlags().String(settings.KeyBackendURL, d.Backend.URL, "Base URL of the http backend")
	rootCmd.PersistentFlags().Duration(settings.KeyBackendTimeout, d.Backend.Timeout, "Request timeout for the http backend")
	rootCmd.PersistentFlags().String(settings.KeyTargetAgent, "", "Agent id chat requests are routed to")
	rootCmd.PersistentFlags().Bool(settings.KeyAllowInsecureBackend, d.Backend.AllowInsecure, "Allow plain http and local network backends")
	rootCmd.PersistentFlags().String(settings.KeyOpenAIAPIKey, "", "OpenAI API key")
	rootCmd.PersistentFlags().String(settings.KeyOpenAIBaseURL, "", "OpenAI-compatible base URL")
	rootCmd.PersistentFlags().String(settings.KeyOpenAIModel, d.OpenAI.Model, "OpenAI model")
	rootCmd.PersistentFlags().String(settings.KeyStore, string(d.Store.Kind), "Session store (file, sqlite, memory)")
	rootCmd.PersistentFlags().String(settings.KeyStorePath, "", "Session store path (default in the user config directory)")
	rootCmd.PersistentFlags().Int64(settings.KeyMaxAttachmentSize, d.MaxAttachmentSize, "Maximum attachment size in bytes")

	// parse the flags one time just to catch --config
	configFile := ""
	for idx, arg := range os.Args {
		if arg == "--config" && len(os.Args) > idx+1 {
			configFile = os.Args[idx+1]
		}
	}

	err := initConfig(rootCmd, configFile)
	if err != nil {
		panic(err)
	}

	rootCmd.AddCommand(
		cmds.NewSendCommand(),
		cmds.NewNewCommand(),
		cmds.NewClearCommand(),
		cmds.NewHistoryCommand(),
		cmds.NewModelCommand(),
		cmds.NewProfileCommand(),
		cmds.NewRenderCommand(),
		cmds.NewShowCommand(),
		cmds.NewSchemaCommand(),
		cmds.NewChatCommand(),
		cmds.NewBackendCommand(),
		cmds.NewConfigCommand(),
	)
}
