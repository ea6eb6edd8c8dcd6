package config

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestLoadConfig(t *testing.T) {
	is, config := setupConfigTest(t)

	is.Equal(len(config.Profiles), 2) // should have two profiles
	is.Equal(config.DefaultProfile, "nav")
}

func TestSelectProfile(t *testing.T) {
	is, config := setupConfigTest(t)

	p, err := config.Profile("")
	is.NoErr(err)
	is.Equal(p.URL, "https://nav.example.com:7048/NAV-WEB/OData")
	is.Equal(p.Username, "navuser")
	is.True(!p.ShouldVerifySSL())

	p, err = config.Profile("staging")
	is.NoErr(err)
	is.True(p.ShouldVerifySSL())

	_, err = config.Profile("production")
	is.True(err != nil)
}

func TestRequestTimeout(t *testing.T) {
	is, config := setupConfigTest(t)

	nav, _ := config.Profile("nav")
	d, err := nav.RequestTimeout()
	is.NoErr(err)
	is.Equal(d, 45*time.Second)

	staging, _ := config.Profile("staging")
	d, err = staging.RequestTimeout()
	is.NoErr(err)
	is.Equal(d, 30*time.Second)

	_, err = Profile{Timeout: "soon"}.RequestTimeout()
	is.True(err != nil)
}

func TestEnvironmentOverridesProfile(t *testing.T) {
	is, config := setupConfigTest(t)

	t.Setenv(EnvServiceRoot, "http://localhost:7048/NAV-WEB/OData")
	t.Setenv(EnvPassword, "from-env")
	t.Setenv(EnvVerifySSL, "true")
	t.Setenv(EnvTimeout, "10")

	nav, _ := config.Profile("nav")
	p := nav.WithEnvironment(context.Background())

	is.Equal(p.URL, "http://localhost:7048/NAV-WEB/OData")
	is.Equal(p.Username, "navuser")
	is.Equal(p.Password, "from-env")
	is.True(p.ShouldVerifySSL())

	d, err := p.RequestTimeout()
	is.NoErr(err)
	is.Equal(d, 10*time.Second)
}

func TestServiceOptions(t *testing.T) {
	is, config := setupConfigTest(t)

	nav, _ := config.Profile("nav")
	options, err := nav.ServiceOptions()
	is.NoErr(err)
	is.Equal(len(options), 4) // ssl, timeout, credentials and update method

	_, err = Profile{}.ServiceOptions()
	is.True(err != nil) // an url is required
}

func setupConfigTest(t *testing.T) (*is.I, *Config) {
	is := is.New(t)
	cfgData := bytes.NewBuffer([]byte(configFile))
	config, err := LoadConfiguration(cfgData)
	is.NoErr(err)

	return is, config
}

var configFile string = `
defaultProfile: nav
profiles:
  - name: nav
    url: https://nav.example.com:7048/NAV-WEB/OData
    username: navuser
    password: secret
    verifySSL: false
    timeout: 45s
    updateMethod: merge
  - name: staging
    url: https://staging.example.com/OData
`
