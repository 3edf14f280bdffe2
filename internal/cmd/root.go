package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "xpubsub",
	Short: "Hierarchical pub/sub over a DOM-like event tree",
	Long: `xpubsub drives an in-memory document with the xpubsub bus: it boots the
default bus on the document, fires the ready signal and emits events through
scoped buses attached to nodes of the tree.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is ./xpubsub.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("console", false, "human readable console logs")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.console", rootCmd.PersistentFlags().Lookup("console"))
}

func initConfig() {
	SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("xpubsub")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/xpubsub")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("XPUBSUB")
	// XPUBSUB_LOG_LEVEL for log.level
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Missing config file is fine; defaults apply.
	_ = viper.ReadInConfig()
}
