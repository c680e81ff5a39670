/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/ulule/limiter/v3"
)

type Config struct {
	bind        string
	corsOrigins []string
	port        int
	prefix      string
	profile     bool
	rateLimit   string
	tlsCert     string
	tlsKey      string

	apiKey  string
	envFile string
	verbose bool
	version bool

	apiURL      string
	muted       bool
	realtimeURL string
}

// envAliases lets the web front-end's VITE_* variables configure the client
// too.
var envAliases = map[string][]string{
	"api-key": {"VOTEBOX_API_KEY", "VITE_ABLY_API_KEY"},
	"api-url": {"VOTEBOX_API_URL", "VITE_API_URL"},
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if _, err := limiter.NewRateFromFormatted(c.rateLimit); err != nil {
		return errors.Wrapf(err, "invalid --rate-limit %q", c.rateLimit)
	}
	return nil
}

func (c *Config) validateClient() error {
	u, err := url.Parse(c.apiURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid --api-url (must be an http or https url): %q", c.apiURL)
	}

	if c.realtimeURL == "" {
		c.realtimeURL = realtimeURLFor(u)
	}

	r, err := url.Parse(c.realtimeURL)
	if err != nil || (r.Scheme != "ws" && r.Scheme != "wss") || r.Host == "" {
		return fmt.Errorf("invalid --realtime-url (must be a ws or wss url): %q", c.realtimeURL)
	}

	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// realtimeURLFor derives the websocket endpoint served next to an API.
func realtimeURLFor(api *url.URL) string {
	u := *api
	u.Scheme = "ws"
	if api.Scheme == "https" {
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/realtime"
	u.RawQuery = ""
	u.Fragment = ""

	return u.String()
}

func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return errors.Wrapf(err, "load %s", path)
}

// bindFlags fills every flag not given on the command line from its
// VOTEBOX_* environment variable.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		if names, ok := envAliases[f.Name]; ok {
			_ = v.BindEnv(append([]string{f.Name}, names...)...)
		} else {
			_ = v.BindEnv(f.Name)
		}
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func normalizeFlags(fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
}

func newClientCmd(cfg *Config, use, route, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validateClient(); err != nil {
				return err
			}
			return runClient(cmd.Context(), cfg, route, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	fs := cmd.Flags()
	normalizeFlags(fs)

	fs.StringVar(&cfg.apiURL, "api-url", "http://localhost:8080", "base url of the vote api (env: VOTEBOX_API_URL, VITE_API_URL)")
	fs.BoolVar(&cfg.muted, "muted", false, "start with sound effects muted (env: VOTEBOX_MUTED)")
	fs.StringVar(&cfg.realtimeURL, "realtime-url", "", "websocket url of the realtime service, derived from --api-url if empty (env: VOTEBOX_REALTIME_URL)")

	return cmd
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("VOTEBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "votebox",
		Short:         "A live yes/no audience vote: backend, ballot, live display and stats.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnvFile(cfg.envFile); err != nil {
				return err
			}
			bindFlags(v, cmd.Flags())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg)
		},
	}

	pfs := cmd.PersistentFlags()
	normalizeFlags(pfs)

	pfs.StringVar(&cfg.apiKey, "api-key", "", "shared key required by the realtime service (env: VOTEBOX_API_KEY, VITE_ABLY_API_KEY)")
	pfs.StringVar(&cfg.envFile, "env-file", ".env", "dotenv file to load before reading the environment (env: VOTEBOX_ENV_FILE)")
	pfs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: VOTEBOX_VERBOSE)")

	fs := cmd.Flags()
	normalizeFlags(fs)

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: VOTEBOX_BIND)")
	fs.StringSliceVar(&cfg.corsOrigins, "cors-origin", nil, "origin allowed to call the api cross-site, repeatable (env: VOTEBOX_CORS_ORIGIN)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: VOTEBOX_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: VOTEBOX_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: VOTEBOX_PROFILE)")
	fs.StringVar(&cfg.rateLimit, "rate-limit", "20-S", "votes accepted per client ip, as <limit>-<S|M|H|D> (env: VOTEBOX_RATE_LIMIT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: VOTEBOX_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: VOTEBOX_TLS_KEY)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: VOTEBOX_VERSION)")

	cmd.AddCommand(
		newClientCmd(cfg, "respond", "/", "Vote yes or no from the terminal."),
		newClientCmd(cfg, "view", "/view", "Show the live reaction display."),
		newClientCmd(cfg, "stats", "/stats", "Show the running tally."),
	)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("votebox v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
