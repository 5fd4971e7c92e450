// Package config turns caller-supplied command descriptions (YAML files,
// tool arguments) into validated domain commands. Backend parameter maps are
// decoded into their typed configs strictly: unknown keys are rejected, not
// silently ignored.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/relay/pkg/adapters/process"
	"github.com/aretw0/relay/pkg/adapters/serial"
	"github.com/aretw0/relay/pkg/adapters/shell"
	"github.com/aretw0/relay/pkg/domain"
)

// CommandSpec is the external, loosely-typed form of a command.
type CommandSpec struct {
	Argv      []string       `yaml:"argv" json:"argv"`
	Transport string         `yaml:"transport" json:"transport"`
	Mode      string         `yaml:"mode" json:"mode"`
	Timeout   string         `yaml:"timeout" json:"timeout"`
	Reference string         `yaml:"reference" json:"reference"`
	Params    map[string]any `yaml:"params" json:"params"`
}

// File is the on-disk shape of a command file.
type File struct {
	Command CommandSpec `yaml:"command"`
}

// Load reads a YAML command file and builds the domain command.
func Load(path string) (domain.Command, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Command{}, fmt.Errorf("read command file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return domain.Command{}, fmt.Errorf("parse command file: %w", err)
	}
	return Build(f.Command)
}

// Build converts a CommandSpec into a validated domain.Command.
func Build(spec CommandSpec) (domain.Command, error) {
	cmd := domain.Command{
		Argv:          spec.Argv,
		Transport:     domain.Transport(spec.Transport),
		Mode:          domain.Mode(spec.Mode),
		ReferencePath: spec.Reference,
	}
	if spec.Timeout != "" {
		d, err := time.ParseDuration(spec.Timeout)
		if err != nil {
			return domain.Command{}, &domain.ValidationError{Field: "timeout", Reason: err.Error()}
		}
		cmd.Timeout = d
	}
	if spec.Params != nil {
		params, err := DecodeParams(cmd.Transport, spec.Params)
		if err != nil {
			return domain.Command{}, err
		}
		cmd.Params = params
	}
	cmd = cmd.Normalized()
	if err := cmd.Validate(); err != nil {
		return domain.Command{}, err
	}
	return cmd, nil
}

// sessionSpec is the decodable form of shell.Config; the key file is loaded
// here so the typed config carries only material the conn needs.
type sessionSpec struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	KeyPath  string        `mapstructure:"key_path"`
	Settle   time.Duration `mapstructure:"settle"`
}

type processSpec struct {
	Dir string            `mapstructure:"dir"`
	Env map[string]string `mapstructure:"env"`
}

type serialSpec struct {
	Device string        `mapstructure:"device"`
	Baud   int           `mapstructure:"baud"`
	Poll   time.Duration `mapstructure:"poll"`
}

func strictDecode(raw map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      target,
		ErrorUnused: true,
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// DecodeParams builds the typed backend config for a transport kind from a
// generic parameter map. Unknown keys fail the decode explicitly.
func DecodeParams(kind domain.Transport, raw map[string]any) (any, error) {
	switch kind {
	case domain.TransportProcess:
		var spec processSpec
		if err := strictDecode(raw, &spec); err != nil {
			return nil, &domain.ValidationError{Field: "params", Reason: err.Error()}
		}
		return process.Config{Dir: spec.Dir, Env: spec.Env}, nil

	case domain.TransportSession:
		var spec sessionSpec
		if err := strictDecode(raw, &spec); err != nil {
			return nil, &domain.ValidationError{Field: "params", Reason: err.Error()}
		}
		cfg := shell.Config{
			Host:     spec.Host,
			Port:     spec.Port,
			User:     spec.User,
			Password: spec.Password,
			Settle:   spec.Settle,
		}
		if spec.KeyPath != "" {
			pem, err := shell.LoadKey(spec.KeyPath)
			if err != nil {
				return nil, &domain.ValidationError{Field: "params", Reason: err.Error()}
			}
			cfg.KeyPEM = pem
		}
		if err := cfg.Validate(); err != nil {
			return nil, &domain.ValidationError{Field: "params", Reason: err.Error()}
		}
		return cfg, nil

	case domain.TransportSerial:
		var spec serialSpec
		if err := strictDecode(raw, &spec); err != nil {
			return nil, &domain.ValidationError{Field: "params", Reason: err.Error()}
		}
		cfg := serial.Config{Device: spec.Device, Baud: spec.Baud, Poll: spec.Poll}
		if err := cfg.Validate(); err != nil {
			return nil, &domain.ValidationError{Field: "params", Reason: err.Error()}
		}
		return cfg, nil

	default:
		return nil, &domain.ValidationError{Field: "transport", Reason: "unknown transport " + string(kind)}
	}
}
