package config

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/diwise/odata-client/pkg/odata/client"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	yaml "gopkg.in/yaml.v2"
)

const (
	EnvServiceRoot string = "ODATA_SERVICE_ROOT"
	EnvUsername    string = "ODATA_USERNAME"
	EnvPassword    string = "ODATA_PASSWORD"
	EnvVerifySSL   string = "ODATA_VERIFY_SSL"
	EnvTimeout     string = "ODATA_TIMEOUT"
)

type Profile struct {
	Name         string `yaml:"name"`
	URL          string `yaml:"url"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	VerifySSL    *bool  `yaml:"verifySSL"`
	Timeout      string `yaml:"timeout"`
	UpdateMethod string `yaml:"updateMethod"`
}

type Config struct {
	DefaultProfile string    `yaml:"defaultProfile"`
	Profiles       []Profile `yaml:"profiles"`
}

func LoadConfiguration(data io.Reader) (*Config, error) {

	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	err = yaml.Unmarshal(buf, &cfg)

	return cfg, err
}

// Profile returns the named profile. An empty name selects the default
// profile, or the first one when no default is configured.
func (c *Config) Profile(name string) (Profile, error) {
	if name == "" {
		name = c.DefaultProfile
	}

	if name == "" && len(c.Profiles) > 0 {
		return c.Profiles[0], nil
	}

	for _, p := range c.Profiles {
		if p.Name == name {
			return p, nil
		}
	}

	return Profile{}, fmt.Errorf("no profile named %q in configuration", name)
}

// WithEnvironment returns a copy of p where every setting that has a
// corresponding environment variable is replaced by its value.
func (p Profile) WithEnvironment(ctx context.Context) Profile {
	p.URL = env.GetVariableOrDefault(ctx, EnvServiceRoot, p.URL)
	p.Username = env.GetVariableOrDefault(ctx, EnvUsername, p.Username)
	p.Password = env.GetVariableOrDefault(ctx, EnvPassword, p.Password)
	p.Timeout = env.GetVariableOrDefault(ctx, EnvTimeout, p.Timeout)

	if verify := env.GetVariableOrDefault(ctx, EnvVerifySSL, ""); verify != "" {
		enabled, err := strconv.ParseBool(verify)
		if err == nil {
			p.VerifySSL = &enabled
		}
	}

	return p
}

func (p Profile) ShouldVerifySSL() bool {
	return p.VerifySSL == nil || *p.VerifySSL
}

func (p Profile) RequestTimeout() (time.Duration, error) {
	if p.Timeout == "" {
		return client.DefaultTimeout, nil
	}

	d, err := time.ParseDuration(p.Timeout)
	if err != nil {
		// plain numbers are seconds
		seconds, serr := strconv.Atoi(p.Timeout)
		if serr != nil {
			return 0, fmt.Errorf("invalid timeout %q: %w", p.Timeout, err)
		}
		d = time.Duration(seconds) * time.Second
	}

	return d, nil
}

// ServiceOptions translates the profile into options for client.NewService
func (p Profile) ServiceOptions() ([]func(*client.Service), error) {
	if p.URL == "" {
		return nil, fmt.Errorf("no service root configured, set %s or use a profile with an url", EnvServiceRoot)
	}

	timeout, err := p.RequestTimeout()
	if err != nil {
		return nil, err
	}

	options := []func(*client.Service){
		client.VerifySSL(p.ShouldVerifySSL()),
		client.Timeout(timeout),
	}

	if p.Username != "" {
		options = append(options, client.Credentials(p.Username, p.Password))
	}

	if p.UpdateMethod != "" {
		options = append(options, client.UpdateMethod(p.UpdateMethod))
	}

	return options, nil
}
