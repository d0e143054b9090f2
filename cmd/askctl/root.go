package main

import (
	"github.com/reshetovitsme/askanon/internal/di"
	"github.com/reshetovitsme/askanon/internal/shared/config"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

// options are shared by every command
type options struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "askctl",
		Short:        "Administer an askanon instance",
		Long:         `askctl mints development identity tokens and moderates questions directly against the configured document store.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default: first of config.{yaml,yml,json,toml})")

	root.AddCommand(
		newTokenCmd(opts),
		newPendingCmd(opts),
		newApproveCmd(opts),
		newRejectCmd(opts),
	)
	return root
}

func (o *options) loadConfig() (*config.Config, error) {
	return config.LoadFile(o.configFile)
}

// withInjector runs fn against a container built from the loaded config
func (o *options) withInjector(fn func(do.Injector) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	// Moderating from the command line never messages the bot chats
	cfg.TelegramBotToken = ""

	injector, err := di.Setup(cfg)
	if err != nil {
		return err
	}
	defer di.Shutdown(injector)

	return fn(injector)
}
