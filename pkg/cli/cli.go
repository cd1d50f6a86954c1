// pkg/cli/cli.go
//
// Flag helpers shared by the cobra command tree. Flags are bound into viper so
// a value can come from a flag, a MICRONS_* variable or the config file.

package cli

import (
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// configKeyAnnotation overrides the viper key a flag is bound to.
const configKeyAnnotation = "microns_config_key"

// SetConfigKey binds flag name to a config key other than its own name, e.g.
// --compose-binary to orchestrator.binary.
func SetConfigKey(flags *pflag.FlagSet, name, key string) {
	_ = flags.SetAnnotation(name, configKeyAnnotation, []string{key})
}

// ConfigKey is the viper key for f: its annotation, else its name with dashes
// turned into underscores.
func ConfigKey(f *pflag.Flag) string {
	if keys := f.Annotations[configKeyAnnotation]; len(keys) > 0 {
		return keys[0]
	}
	return strings.ReplaceAll(f.Name, "-", "_")
}

// BindFlagsToViper binds all flags on a command, persistent ones included, to
// a Viper instance.
func BindFlagsToViper(cmd *cobra.Command, v *viper.Viper) error {
	var result error
	bind := func(f *pflag.Flag) {
		if err := v.BindPFlag(ConfigKey(f), f); err != nil {
			result = multierror.Append(result, err)
		}
	}
	cmd.Flags().VisitAll(bind)
	cmd.PersistentFlags().VisitAll(bind)
	return result
}

// SetViperEnvPrefix lets Viper read PREFIX_KEY variables; nested keys use
// underscores, so orchestrator.timeout is PREFIX_ORCHESTRATOR_TIMEOUT.
func SetViperEnvPrefix(v *viper.Viper, prefix string) {
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}
