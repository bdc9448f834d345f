package conf

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pratham-garg-456/Network-Monitor/util/cliflags"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// DefaultConfig maps flat, dot-delimited config keys to default values.
type DefaultConfig map[string]any

type ParseOptions struct {
	// Cli is the cli.Context from urfave/cli
	Cli *cli.Context

	// CliMap is a map of cli flag names to config keys
	CliMap map[string]string

	// Defaults is a map of default values
	Defaults DefaultConfig

	// EnvPrefix is the prefix for env vars
	EnvPrefix string

	// FileName is the name of the json configuration file to load
	FileName string

	// EnvFile is the name of a dotenv file to load. Its keys follow
	// the same rules as env vars.
	EnvFile string

	// ListKeys are config keys holding lists. Values for these keys
	// from env vars are split at commas.
	ListKeys []string

	// ValidateFile is called with the contents of the configuration
	// file before they are merged
	ValidateFile func(map[string]any) error

	// Log is the logger to use
	Log *zap.Logger
}

func Parse[C any](opt ParseOptions) (C, error) {
	var config C

	var log *zap.Logger
	if opt.Log != nil {
		log = opt.Log
	} else {
		log = zap.NewNop()
	}

	k := koanf.New(".")

	if opt.Defaults != nil {
		if err := k.Load(confmap.Provider(opt.Defaults, "."), nil); err != nil {
			log.Error("error loading defaults", zap.Error(err))
			return config, err
		}
	}

	if opt.FileName != "" {
		if err := loadFile(k, opt); err != nil {
			log.Error("error parsing file",
				zap.Error(err),
				zap.String("file", opt.FileName),
			)
			return config, err
		}
	}

	transformPrefixedEnv := func(key, value string) (string, any) {
		name := transformEnv(key, opt.EnvPrefix)
		if slices.Contains(opt.ListKeys, name) {
			return name, splitList(value)
		}
		return name, value
	}

	if opt.EnvFile != "" {
		if err := loadEnvFile(k, opt.EnvFile, opt.EnvPrefix, transformPrefixedEnv); err != nil {
			log.Error("error parsing env file",
				zap.Error(err),
				zap.String("file", opt.EnvFile),
			)
			return config, err
		}
	}

	if err := k.Load(env.ProviderWithValue(opt.EnvPrefix, ".", transformPrefixedEnv), nil); err != nil {
		log.Error("error parsing env vars", zap.Error(err))
		return config, err
	}

	if opt.Cli != nil {
		transformFlag := func(s string) string {
			if opt.CliMap != nil {
				if name, ok := opt.CliMap[s]; ok {
					return name
				}
			}

			// replace - with _
			return strings.ReplaceAll(strings.ToLower(s), "-", "_")
		}

		if err := k.Load(cliflags.Provider(opt.Cli, ".", transformFlag), nil); err != nil {
			log.Error("error parsing cli flags", zap.Error(err))
			return config, err
		}
	}

	if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{Tag: "conf"}); err != nil {
		log.Error("error unmarshalling config", zap.Error(err))
		return config, err
	}

	return config, nil
}

func loadFile(k *koanf.Koanf, opt ParseOptions) error {
	fk := koanf.New(".")

	if err := fk.Load(file.Provider(opt.FileName), json.Parser()); err != nil {
		return err
	}

	if opt.ValidateFile != nil {
		if err := opt.ValidateFile(fk.Raw()); err != nil {
			return err
		}
	}

	return k.Merge(fk)
}

func loadEnvFile(k *koanf.Koanf, name, prefix string, transform func(string, string) (string, any)) error {
	data, err := os.ReadFile(name)
	if err != nil {
		return err
	}

	vars, err := dotenv.Parser().Unmarshal(data)
	if err != nil {
		return fmt.Errorf("invalid env file: %w", err)
	}

	// apply the same filtering and key mapping as for env vars
	mp := make(map[string]any, len(vars))
	for key, value := range vars {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		if name, value := transform(key, fmt.Sprint(value)); name != "" {
			mp[name] = value
		}
	}

	return k.Load(confmap.Provider(mp, "."), nil)
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return []string{}
	}

	items := strings.Split(value, ",")
	for i, item := range items {
		items[i] = strings.TrimSpace(item)
	}

	return items
}

func transformEnv(s, prefix string) string {
	// pop prefix if it is set
	s = strings.TrimPrefix(s, prefix)
	// allow specifying nested env vars w/ __
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}
