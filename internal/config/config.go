package config

import (
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/imdario/mergo"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// AuthMethod selects how we authenticate an SSH session
type AuthMethod string

const (
	AuthKey      AuthMethod = "key"
	AuthPassword AuthMethod = "password"
	AuthAgent    AuthMethod = "agent"
)

// ServerSpec represents a single server to probe. Specs are immutable
// once discovery starts. Passwords are collected at runtime and never
// written back to the config file.
type ServerSpec struct {
	Host     string     `yaml:"host"`
	User     string     `yaml:"user,omitempty"`
	Port     int        `yaml:"port,omitempty"`
	Auth     AuthMethod `yaml:"auth,omitempty"`
	Identity string     `yaml:"identity,omitempty"`
	Sudo     *bool      `yaml:"sudo,omitempty"`
	Password string     `yaml:"-"`
}

// UseSudo reports whether probe commands should be prefixed with sudo.
// Unset means yes, matching how most docker hosts are provisioned.
func (s ServerSpec) UseSudo() bool {
	return s.Sudo == nil || *s.Sudo
}

// Address returns the host:port dial address for the spec
func (s ServerSpec) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SSHDefaults represents fallback connection settings applied to any
// server spec that leaves them blank
type SSHDefaults struct {
	User     string     `yaml:"user"`
	Port     int        `yaml:"port"`
	Auth     AuthMethod `yaml:"auth"`
	Identity string     `yaml:"identity"`
	Sudo     *bool      `yaml:"sudo,omitempty"`
}

// Config represents the data structure of our user provided yaml
// configuration. Targets may contain CIDR blocks which are expanded into
// one server spec per address using the SSH defaults.
type Config struct {
	SSH     SSHDefaults  `yaml:"ssh"`
	Servers []ServerSpec `yaml:"servers"`
	Targets []string     `yaml:"targets,omitempty"`
}

// New returns unmarshaled data structure of user provided config
func New(confPath string) (*Config, error) {
	var config Config

	raw, err := os.ReadFile(confPath)

	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(raw, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Default returns a config with no servers and ssh defaults pointing at
// the current user's standard key
func Default() (*Config, error) {
	user := os.Getenv("USER")
	home, err := os.UserHomeDir()

	if err != nil {
		return nil, err
	}

	identity := path.Join(home, ".ssh/id_rsa")
	sudo := true

	return &Config{
		SSH: SSHDefaults{
			User:     user,
			Port:     22,
			Auth:     AuthKey,
			Identity: identity,
			Sudo:     &sudo,
		},
		Servers: []ServerSpec{},
	}, nil
}

// Write persists conf to the configured config file path. Password
// fields are excluded by the yaml codec.
func Write(conf Config) error {
	configFile := viper.Get("config-file").(string)

	file, err := os.Create(configFile)

	if err != nil {
		return err
	}

	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)

	return encoder.Encode(conf)
}

// ServerSpecs returns the fully resolved server list: explicit servers
// plus expanded targets, each merged over the ssh defaults and
// validated. Order follows the config file.
func (c *Config) ServerSpecs() ([]ServerSpec, error) {
	expanded, err := expandTargets(c.Targets)

	if err != nil {
		return nil, err
	}

	specs := append([]ServerSpec{}, c.Servers...)
	specs = append(specs, expanded...)

	if len(specs) == 0 {
		return nil, errors.New("no servers configured")
	}

	defaults := ServerSpec{
		User:     c.SSH.User,
		Port:     c.SSH.Port,
		Auth:     c.SSH.Auth,
		Identity: c.SSH.Identity,
		Sudo:     c.SSH.Sudo,
	}

	for i := range specs {
		if err := mergo.Merge(&specs[i], defaults); err != nil {
			return nil, err
		}

		if specs[i].Port == 0 {
			specs[i].Port = 22
		}

		if specs[i].Auth == "" {
			specs[i].Auth = AuthKey
		}

		if err := validate(specs[i]); err != nil {
			return nil, err
		}
	}

	return specs, nil
}

func validate(spec ServerSpec) error {
	if spec.Host == "" {
		return errors.New("server host cannot be empty")
	}

	if spec.User == "" {
		return fmt.Errorf("no ssh user for server %s", spec.Host)
	}

	if spec.Port < 1 || spec.Port > 65535 {
		return fmt.Errorf("invalid port %d for server %s", spec.Port, spec.Host)
	}

	switch spec.Auth {
	case AuthKey:
		if spec.Identity == "" {
			return fmt.Errorf("key auth requires an identity file for server %s", spec.Host)
		}
	case AuthPassword, AuthAgent:
	default:
		return fmt.Errorf("unknown auth method %q for server %s", spec.Auth, spec.Host)
	}

	return nil
}
