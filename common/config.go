/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2019-2026 Wind River Systems, Inc. */

package common

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"
	perrors "github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
)

var log = logf.Log.WithName("config")

// FeaturePrefix defines the viper configuration prefix for all inventory
// features and sub-features.
const FeaturePrefix = "features"

// FeatureName is the type alias that represents the path for a feature or
// sub-feature.
type FeatureName string

// Defines the current list of supported features and sub-features.
const (
	Discovery        FeatureName = "discovery"
	NetworkDiscovery FeatureName = "discovery.network"
	BlockDiscovery   FeatureName = "discovery.block"
	DMIDiscovery     FeatureName = "discovery.dmi"
	UEFIDiscovery    FeatureName = "discovery.uefi"
	Inventory        FeatureName = "inventory"
	BondPersistence  FeatureName = "inventory.bonds"
	Disks            FeatureName = "disk"
	DiskClaims       FeatureName = "disk.claims"
	Metrics          FeatureName = "metrics"
)

// featureDefaultStates is the default state of each feature.
var featureDefaultStates = map[FeatureName]bool{
	Discovery:        true,
	NetworkDiscovery: true,
	BlockDiscovery:   true,
	DMIDiscovery:     true,
	UEFIDiscovery:    true,
	Inventory:        true,
	BondPersistence:  true,
	Disks:            true,
	DiskClaims:       true,
	Metrics:          false,
}

// OptionName is the type alias that represents an option of a feature.
type OptionName string

// Defines the current list of supported feature options.
const (
	UseEthtool    OptionName = "useEthtool"
	SkipHyperVIDs OptionName = "skipHyperVIDs"
	Textfile      OptionName = "textfile"
)

// featureOptionDefaults is the default value for each feature option.
var featureOptionDefaults = map[FeatureName]map[OptionName]interface{}{
	NetworkDiscovery: {
		UseEthtool: true,
	},
	DiskClaims: {
		SkipHyperVIDs: true,
	},
	Metrics: {
		Textfile: "/var/lib/node_exporter/textfile_collector/inventory.prom",
	},
}

// Defines the top level settings which are not tied to a feature.
const (
	SysfsRootKey = "paths.sysfs"
	DevRootKey   = "paths.dev"
	ProcRootKey  = "paths.proc"
	StoreKey     = "store"
	LogLevelKey  = "log.level"
)

var settingDefaults = map[string]interface{}{
	SysfsRootKey: "/sys",
	DevRootKey:   "/dev",
	ProcRootKey:  "/proc",
	StoreKey:     "file:/var/lib/inventory/attributes.yaml",
	LogLevelKey:  "info",
}

// DefaultConfigFilepath is the absolute path of the inventory config file.
const DefaultConfigFilepath = "/etc/inventory/config.yaml"

var cfg *viper.Viper

// FeatureConfigPath returns the config attribute path which represents the
// top-level path for the specified feature.
func FeatureConfigPath(name FeatureName) string {
	return fmt.Sprintf("%s.%s", FeaturePrefix, name)
}

// FeatureStatePath returns the config attribute path which represents the
// current configured state of the feature.
func FeatureStatePath(name FeatureName) string {
	return fmt.Sprintf("%s.enabled", FeatureConfigPath(name))
}

// FeatureOptionPath returns the config attribute path which represents the
// option value of the specified feature option.
func FeatureOptionPath(name FeatureName, option OptionName) string {
	return fmt.Sprintf("%s.%s", FeatureConfigPath(name), option)
}

// ReadConfig is a utility which loads the inventory configuration into
// memory.  An empty path selects the default location.  A leading "~" is
// expanded to the home directory of the current user.  A missing file is not
// an error; the defaults stay in effect and file monitoring is disabled.
func ReadConfig(path string) (err error) {
	if path == "" {
		path = DefaultConfigFilepath
	}

	path, err = homedir.Expand(path)
	if err != nil {
		return perrors.Wrapf(err, "failed to expand config path %q", path)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.V(1).Info("config file not present, using defaults", "path", path)
		return nil
	}

	cfg.SetConfigFile(path)

	err = cfg.ReadInConfig()
	if err == nil {
		cfg.WatchConfig()
		cfg.OnConfigChange(func(e fsnotify.Event) {
			log.Info("config file changed", "path", e.Name, "op", e.Op.String())
		})

		log.Info("inventory config has been loaded from file.", "path", path)
	} else {
		err = perrors.Wrap(err, "failed to read config file")
	}

	return err
}

// BindFlag overrides a top level setting with the value of a command line
// flag whenever that flag was explicitly set.
func BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return nil
	}

	return perrors.Wrapf(cfg.BindPFlag(key, flag), "failed to bind flag %q", flag.Name)
}

// GetString returns the current value of a top level setting.
func GetString(key string) string {
	return cfg.GetString(key)
}

// SetValue overrides a setting for the remainder of the process.
func SetValue(key string, value interface{}) {
	cfg.Set(key, value)
}

// IsFeatureEnabled returns whether a specific feature is enabled or not.  A
// sub-feature is only enabled if all of its parent features are enabled.
func IsFeatureEnabled(name FeatureName) bool {
	for parent, ok := featureParent(name); ok; parent, ok = featureParent(parent) {
		if !cfg.GetBool(FeatureStatePath(parent)) {
			log.V(1).Info("parent feature is disabled", "name", string(name), "parent", string(parent))
			return false
		}
	}

	value := cfg.GetBool(FeatureStatePath(name))
	if !value {
		log.V(1).Info("feature is disabled", "name", string(name))
	}

	return value
}

func featureParent(name FeatureName) (FeatureName, bool) {
	if i := strings.LastIndex(string(name), "."); i > 0 {
		return name[:i], true
	}
	return "", false
}

// GetFeatureOption returns the value of the specified option as an Interface
// value; otherwise nil is returned if the option does not exist in the config.
func GetFeatureOption(name FeatureName, option OptionName) interface{} {
	return cfg.Get(FeatureOptionPath(name, option))
}

// GetFeatureOptionBool returns the value of the specified option as a Bool
// value; otherwise the specified default value is returned if the option does
// not exist.
func GetFeatureOptionBool(name FeatureName, option OptionName, defaultValue bool) bool {
	value := GetFeatureOption(name, option)
	if value != nil {
		if result, ok := value.(bool); ok {
			return result
		} else {
			log.Info("unexpected option type",
				"option", option, "type", reflect.TypeOf(value))
		}
	}

	return defaultValue
}

// GetFeatureOptionString returns the value of the specified option as a
// String value; otherwise the specified default value is returned.
func GetFeatureOptionString(name FeatureName, option OptionName, defaultValue string) string {
	value := GetFeatureOption(name, option)
	if value != nil {
		if result, ok := value.(string); ok {
			return result
		}
		log.Info("unexpected option type",
			"option", option, "type", reflect.TypeOf(value))
	}

	return defaultValue
}

func newConfig() *viper.Viper {
	c := viper.New()

	for key, value := range featureDefaultStates {
		c.SetDefault(FeatureStatePath(key), value)
	}

	for key, options := range featureOptionDefaults {
		for option, value := range options {
			c.SetDefault(FeatureOptionPath(key, option), value)
		}
	}

	for key, value := range settingDefaults {
		c.SetDefault(key, value)
	}

	c.SetConfigFile(DefaultConfigFilepath)
	c.SetEnvPrefix("INVENTORY")
	c.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.AutomaticEnv()

	return c
}

func init() {
	cfg = newConfig()
}
