package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/yorulabs/skills-mcp/internal/config"
	"github.com/yorulabs/skills-mcp/pkg/logger"
)

var (
	cfgFile, logLevel, logPath string
	stderr, debug              bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "skills-mcp",
	Short: "Agent Skills server with MCP and HTTP transports",
	Long: `A server that discovers Agent Skills - organized folders of
instructions, scripts, and resources - and exposes them to AI agents
over MCP (stdio or HTTP) and a REST API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initLogger(logPath, logLevel, debug, stderr); err != nil {
			return err
		}

		initConfig(cmd)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&stderr, "stderr", "e", false, "log to stderr")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "log level: DEBUG, INFO, WARN, ERROR, FATAL, PANIC")
	rootCmd.PersistentFlags().StringVar(&logPath, "log-path", "./log", "log file path")
	rootCmd.PersistentFlags().String("skills-dir", "", "skills root directory (overrides config file and SKILLS_DIR)")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.path", rootCmd.PersistentFlags().Lookup("log-path"))
	_ = viper.BindPFlag("log.debug", rootCmd.PersistentFlags().Lookup("debug"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig(cmd *cobra.Command) {
	config.Init()

	if cfgFile != "" {
		config.Viper().SetConfigFile(cfgFile)
	} else {
		config.Viper().AddConfigPath(".")
		config.Viper().AddConfigPath("./configs")
		config.Viper().SetConfigType("yaml")
		config.Viper().SetConfigName("config")
	}

	config.Viper().AutomaticEnv()

	if err := config.Viper().ReadInConfig(); err != nil {
		logger.Debugf("Config file not found: %v", err)
	} else {
		logger.Infof("Using config file: %s", config.Viper().ConfigFileUsed())
	}

	if dir, _ := cmd.Flags().GetString("skills-dir"); dir != "" {
		config.Viper().Set("skills.dir", dir)
	}
}

const logCallerSkip = 1

func initLogger(path, level string, debug, e bool) error {
	writer := getLogWriter(path)
	if e {
		stderrWriter, _, err := zap.Open("stderr")
		if err != nil {
			return err
		}
		writer = stderrWriter
	}

	logLevel := zapcore.InfoLevel
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		return err
	}
	if debug {
		logLevel = zapcore.DebugLevel
	}

	encoder := getLogEncoder(debug, e)

	core := zapcore.NewCore(encoder, writer, logLevel)
	zapLogger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(logCallerSkip))

	logger.ReplaceLogger(zapLogger)

	return nil
}

func getLogEncoder(debug, e bool) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	if debug && e {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeCaller = zapcore.FullCallerEncoder
	}

	return zapcore.NewConsoleEncoder(encoderConfig)
}

func getLogWriter(path string) zapcore.WriteSyncer {
	path = strings.TrimRight(path, "/")
	lumberJackLogger := &lumberjack.Logger{
		Filename:   path + "/skills-mcp.log",
		MaxSize:    10,   // megabytes
		MaxBackups: 10,   // number of backups
		MaxAge:     30,   // days
		Compress:   true, // compress old files
	}
	return zapcore.AddSync(lumberJackLogger)
}
