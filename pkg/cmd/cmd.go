// Package cmd contains the command line applications for the project.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/s3presign/pkg/configs"
	"github.com/yeisme/s3presign/pkg/log"
)

var (
	// configPath 配置文件或所在目录.
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   configs.AppName,
		Short: "Issue presigned POST upload authorizations for S3 compatible storage",
		Long: `s3presign checks that an object key is still free in a bucket and, if so,
issues a time-limited presigned POST form for it, printed together with a
ready-to-run curl command.`,
		Example: `  s3presign --bucket s3presign --key 1677634244.gz --expires-in 3600
  s3presign -f backup.tar.gz -o json
  s3presign serve`,
		Version:           configs.AppVersion,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initRuntime,
		RunE:              runPresign,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file, or directory containing config.{yaml,json,toml,env}")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", configs.DefaultDebug, "enable debug logging")

	registerPresignFlags()
	registerConfigsCommands()
	registerServeCommands()
	registerVersionCommands()
}

// initRuntime 加载配置并初始化日志. 只有显式传入的命令行参数会覆盖配置.
func initRuntime(cmd *cobra.Command, _ []string) error {
	flags := cmd.Root().Flags()
	persistent := cmd.Root().PersistentFlags()

	err := configs.InitConfig(configPath,
		configs.WithFlag("server.debug", persistent.Lookup("debug")),
		configs.WithFlag("presign.bucket", flags.Lookup("bucket")),
		configs.WithFlag("presign.key", flags.Lookup("key")),
		configs.WithFlag("presign.file", flags.Lookup("file")),
		configs.WithFlag("presign.expires_in", flags.Lookup("expires-in")),
		configs.WithFlag("presign.output", flags.Lookup("output")),
		configs.WithFlag("presign.probe_error_policy", flags.Lookup("probe-error-policy")),
		configs.WithFlag("server.port", serveCmd.Flags().Lookup("port")),
		configs.WithFlag("server.host", serveCmd.Flags().Lookup("host")),
	)
	if err != nil {
		return err
	}

	log.Init()

	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
