package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"unicode"

	"github.com/cronokirby/hwmont/bench"
	"github.com/cronokirby/hwmont/emulator"
	"github.com/naoina/toml"
	"github.com/urfave/cli/v2"
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		link := ""
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://pkg.go.dev/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type hwmontConfig struct {
	Bench    bench.Config
	Hardware emulator.Config
}

func defaultConfig() hwmontConfig {
	cfg := hwmontConfig{
		Bench:    bench.DefaultConfig,
		Hardware: emulator.DefaultConfig,
	}
	// Don't share the widths with the package default.
	cfg.Bench.Widths = append([]bench.Width(nil), bench.DefaultConfig.Widths...)
	return cfg
}

func loadConfig(file string, cfg *hwmontConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = decodeConfig(bufio.NewReader(f), cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

func decodeConfig(r io.Reader, cfg *hwmontConfig) error {
	return tomlSettings.NewDecoder(r).Decode(cfg)
}

// makeConfig loads the configuration file, if any, and applies flags on top.
func makeConfig(ctx *cli.Context) (hwmontConfig, error) {
	cfg := defaultConfig()
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	if ctx.IsSet(seedFlag.Name) {
		cfg.Bench.Seed = ctx.Uint64(seedFlag.Name)
	}
	if ctx.IsSet(crossCheckFlag.Name) {
		cfg.Bench.CrossCheck = ctx.Bool(crossCheckFlag.Name)
	}
	return cfg, cfg.Bench.Validate()
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}
	comment := "# Note: a Seed of 0 picks a random seed for every run.\n\n"
	io.WriteString(os.Stdout, comment)
	os.Stdout.Write(out)
	return nil
}
