/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2019-2026 Wind River Systems, Inc. */

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/ghodss/yaml"
	"github.com/go-logr/logr"
	perrors "github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/crowbar/node-inventory/attributes"
	utils "github.com/crowbar/node-inventory/common"
	"github.com/crowbar/node-inventory/platform"
)

const (
	ConfigArg    = "config"
	StoreArg     = "store"
	NodeArg      = "node"
	SysfsRootArg = "sysfs-root"
	DevRootArg   = "dev-root"
	ProcRootArg  = "proc-root"
	LogLevelArg  = "log-level"
)

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "inventoryctl",
	Short: "A utility to inventory and name the hardware of a node.",
	Long: `This is a node-local helper tool which records the network interfaces
and disks of a node in its attribute store, resolves the conduits of the
node to stable interface and bond names, arbitrates disk claims and reports
the resulting inventory.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	hostname, _ := os.Hostname()

	flags := rootCmd.PersistentFlags()
	flags.String(ConfigArg, utils.DefaultConfigFilepath, "configuration file")
	flags.String(StoreArg, "", "attribute store: file:<path>, configmap:<namespace>/<name> or memory:")
	flags.String(NodeArg, hostname, "name of the node")
	flags.String(SysfsRootArg, "", "sysfs mount point")
	flags.String(DevRootArg, "", "device directory")
	flags.String(ProcRootArg, "", "procfs mount point")
	flags.String(LogLevelArg, "", "log level (debug, info, error)")
}

// setup installs the logger and loads the configuration.  Flags given on the
// command line override the configuration file.
func setup(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	path, _ := flags.GetString(ConfigArg)
	configErr := utils.ReadConfig(path)

	bindings := map[string]string{
		utils.StoreKey:     StoreArg,
		utils.SysfsRootKey: SysfsRootArg,
		utils.DevRootKey:   DevRootArg,
		utils.ProcRootKey:  ProcRootArg,
		utils.LogLevelKey:  LogLevelArg,
	}
	for key, name := range bindings {
		if flag := flags.Lookup(name); flag != nil && flag.Changed {
			if err := utils.BindFlag(key, flag); err != nil {
				return err
			}
		}
	}

	level, err := zapcore.ParseLevel(utils.GetString(utils.LogLevelKey))
	if err != nil {
		return perrors.Wrapf(err, "invalid log level")
	}

	ctrl.SetLogger(newLogger(level))

	if configErr != nil {
		setupLog.Error(configErr, "unable to read inventory configuration")
		return configErr
	}

	return nil
}

func newLogger(level zapcore.Level) logr.Logger {
	opts := zap.Options{
		Development: level == zapcore.DebugLevel,
		Level:       level,
	}
	return zap.New(zap.UseFlagOptions(&opts), zap.WriteTo(os.Stderr))
}

func newClient() (client.Client, error) {
	config, err := ctrl.GetConfig()
	if err != nil {
		return nil, err
	}
	return client.New(config, client.Options{Scheme: scheme})
}

// openNode loads the attribute store of the node named on the command line.
func openNode(cmd *cobra.Command) (*platform.NodeInfo, error) {
	name, _ := cmd.Flags().GetString(NodeArg)
	if name == "" {
		return nil, utils.NewInvalidArgument("node name must not be blank")
	}

	uri := utils.GetString(utils.StoreKey)

	store, err := attributes.Open(context.Background(), uri, newClient)
	if err != nil {
		return nil, perrors.Wrapf(err, "failed to open attribute store %q", uri)
	}

	setupLog.V(1).Info("attribute store opened", "node", name, "store", uri)

	return platform.NewNodeInfo(name, store), nil
}

// printYAML writes 'value' to the command output as a YAML document.
func printYAML(cmd *cobra.Command, value interface{}) error {
	buf, err := yaml.Marshal(value)
	if err != nil {
		return perrors.Wrap(err, "failed to render YAML")
	}

	_, err = cmd.OutOrStdout().Write(buf)
	return err
}
