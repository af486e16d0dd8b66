// Package flags registers the flags shared by the drivergen commands and
// resolves them into config.Options.
package flags

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/goliatone/go-drivergen/pkg/buildtree"
	"github.com/goliatone/go-drivergen/pkg/config"
)

// Aliases maps legacy flag names onto their current name.
var Aliases = map[string]string{
	"mbedtls-root": "root",
}

// Normalize resolves Aliases. Install it with FlagSet.SetNormalizeFunc.
func Normalize(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if alias, ok := Aliases[name]; ok {
		name = alias
	}
	return pflag.NormalizedName(name)
}

// RegisterRun adds the flags locating the inputs and outputs of a run.
func RegisterRun(fs *pflag.FlagSet) {
	fs.String("root", "", "project root (default: search upwards from the working directory)")
	fs.String("template-dir", "", "directory holding the driver templates")
	fs.String("json-dir", "", "directory holding the driver JSONs and the manifest")
	fs.String("manifest", "", "manifest file name inside the JSON directory (default \"driverlist.json\")")
	fs.StringArray("template", nil, "template to render; repeat to render several")
	fs.String("context-key", "", "template variable holding the driver list (default \"drivers\")")
	fs.String("schemas", "", "schema source: tree or builtin (default \"tree\")")
	fs.Bool("trim-blocks", false, "remove the first newline after a template block tag")
	fs.String("file-mode", "", "permissions of the generated files (default \"0644\")")
	fs.StringSlice("config-path", []string{"."}, "configuration paths")
	fs.String("config-name", config.DefaultConfigName, "configuration name")
}

// RegisterLogging adds the logging flags.
func RegisterLogging(fs *pflag.FlagSet) {
	fs.String("log-format", "auto", "log format (auto|json|text)")
	fs.Bool("debug", false, "debug mode")
	fs.CountP("log-level", "v", "log level (-v=warn, -vv=info, -vvv=debug)")
}

// BindFlags binds every flag of cmd, inherited flags included, to v.
func BindFlags(cmd *cobra.Command, v *viper.Viper) {
	bind := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			_ = v.BindPFlag(f.Name, f)
		})
	}
	bind(cmd.Flags())
	bind(cmd.InheritedFlags())
}

// Load reads the config file named by the flags, decodes the options and
// discovers the project root when none was given.
func Load(cmd *cobra.Command) (config.Options, error) {
	v := config.Viper(cmd.Context())
	BindFlags(cmd, v)

	if _, err := config.ReadFile(v, v.GetStringSlice("config-path"), v.GetString("config-name")); err != nil {
		return config.Options{}, err
	}
	opts, err := config.FromViper(v)
	if err != nil {
		return config.Options{}, err
	}

	if opts.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return config.Options{}, fmt.Errorf("resolve working directory: %w", err)
		}
		if opts.Root, err = buildtree.FindRoot(wd); err != nil {
			return config.Options{}, err
		}
	}
	return opts, nil
}
