// Package config loads client-side Constraints from CLI flags, environment
// variables, and an optional YAML file, in that order of precedence. It is
// ambient plumbing around the codec, not a codec concern: the ldapcodec
// package never imports it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jvanzyl/ldapcodec"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// fileConfig mirrors ldapcodec.Constraints for the subset of fields that
// are read from a config file or environment, using the struct tags viper
// and mapstructure need.
type fileConfig struct {
	TimeLimit         time.Duration     `mapstructure:"time_limit" yaml:"time_limit"`
	HopLimit          int               `mapstructure:"hop_limit" yaml:"hop_limit"`
	ReferralFollowing bool              `mapstructure:"referral_following" yaml:"referral_following"`
	Properties        map[string]string `mapstructure:"properties" yaml:"properties"`
}

// Load builds a Constraints value from, in increasing order of precedence:
// built-in defaults, a YAML config file (configPath, if non-empty and it
// exists), LDAPCODEC_* environment variables, and flags bound from fs (may
// be nil).
func Load(fs *pflag.FlagSet, configPath string) (*ldapcodec.Constraints, error) {
	v := viper.New()

	v.SetDefault("time_limit", time.Duration(0))
	v.SetDefault("hop_limit", 10)
	v.SetDefault("referral_following", false)

	v.SetEnvPrefix("LDAPCODEC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
			}
		}
	}

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	var fc fileConfig
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&fc, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &ldapcodec.Constraints{
		TimeLimit:         fc.TimeLimit,
		HopLimit:          fc.HopLimit,
		ReferralFollowing: fc.ReferralFollowing,
		Properties:        fc.Properties,
	}, nil
}
