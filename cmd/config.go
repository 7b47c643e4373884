package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/musicdash/internal/config"
	"github.com/KaramelBytes/musicdash/internal/logger"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set musicdash configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		out := cmd.OutOrStdout()
		for _, key := range cfgpkg.Keys {
			fmt.Fprintf(out, "%s: %s\n", key, configValue(c, key))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		// reload so flag overrides of this run are not persisted
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := setConfigValue(c, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		cfg = c
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func configValue(c *cfgpkg.Global, key string) string {
	switch key {
	case "dataset_source":
		return c.DatasetSource
	case "top_n":
		return strconv.Itoa(c.TopN)
	case "histogram_bins":
		return strconv.Itoa(c.HistogramBins)
	case "http_timeout_sec":
		return strconv.Itoa(c.HTTPTimeoutSec)
	case "retry_max_attempts":
		return strconv.Itoa(c.RetryMaxAttempts)
	case "retry_base_delay_ms":
		return strconv.Itoa(c.RetryBaseDelayMs)
	case "retry_max_delay_ms":
		return strconv.Itoa(c.RetryMaxDelayMs)
	case "server_addr":
		return c.ServerAddr
	case "cors_origins":
		return strings.Join(c.CORSOrigins, ",")
	case "rate_limit_rps":
		return strconv.FormatFloat(c.RateLimitRPS, 'g', -1, 64)
	case "rate_limit_burst":
		return strconv.Itoa(c.RateLimitBurst)
	case "trust_proxy":
		return strconv.FormatBool(c.TrustProxy)
	case "session_ttl_min":
		return strconv.Itoa(c.SessionTTLMin)
	case "log_level":
		return c.LogLevel
	case "log_format":
		return c.LogFormat
	case "environment":
		return c.Environment
	}
	return ""
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	atoi := func(floor int) (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < floor {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "dataset_source":
		c.DatasetSource = val
	case "top_n":
		c.TopN, err = atoi(1)
	case "histogram_bins":
		c.HistogramBins, err = atoi(1)
	case "http_timeout_sec":
		c.HTTPTimeoutSec, err = atoi(1)
	case "retry_max_attempts":
		c.RetryMaxAttempts, err = atoi(1)
	case "retry_base_delay_ms":
		c.RetryBaseDelayMs, err = atoi(0)
	case "retry_max_delay_ms":
		c.RetryMaxDelayMs, err = atoi(0)
	case "server_addr":
		c.ServerAddr = val
	case "cors_origins":
		c.CORSOrigins = nil
		for _, o := range strings.Split(val, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSOrigins = append(c.CORSOrigins, o)
			}
		}
	case "rate_limit_rps":
		f, perr := strconv.ParseFloat(val, 64)
		if perr != nil || f < 0 {
			return fmt.Errorf("invalid float for rate_limit_rps: %v", val)
		}
		c.RateLimitRPS = f
	case "rate_limit_burst":
		c.RateLimitBurst, err = atoi(1)
	case "trust_proxy":
		b, perr := strconv.ParseBool(val)
		if perr != nil {
			return fmt.Errorf("invalid bool for trust_proxy: %v", val)
		}
		c.TrustProxy = b
	case "session_ttl_min":
		c.SessionTTLMin, err = atoi(0)
	case "log_level":
		switch v := strings.ToLower(val); v {
		case "debug", "info", "warn", "warning", "error":
			c.LogLevel = v
		default:
			return fmt.Errorf("invalid log_level: %s (use debug|info|warn|error)", val)
		}
	case "log_format":
		switch v := strings.ToLower(val); v {
		case "", logger.FormatJSON, logger.FormatPretty:
			c.LogFormat = v
		default:
			return fmt.Errorf("invalid log_format: %s (use json|pretty)", val)
		}
	case "environment":
		c.Environment = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}
