package models

// MConfig Structure
type MConfig struct {
	Name            string         `yaml:"name"`
	Host            string         `yaml:"host"`
	Port            int            `yaml:"port"`
	LogLevel        string         `yaml:"log_level"`
	Tickers         []string       `yaml:"tickers"`
	IntervalMinutes int            `yaml:"interval_minutes"`
	ReloadSource    string         `yaml:"reload_source"`
	Server          MServerConfig  `yaml:"server"`
	HTTP            MHTTPConfig    `yaml:"http"`
	Storage         MStorageConfig `yaml:"storage"`
	Network         MNetworkConfig `yaml:"network"`
	Calendar        MCalendarCfg   `yaml:"calendar"`
}

type MServerConfig struct {
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`
}

type MHTTPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

type MStorageConfig struct {
	Enabled            bool   `yaml:"enabled"`
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MNetworkConfig struct {
	RequestTimeout int    `yaml:"timeout"`
	MaxRetries     int    `yaml:"retries"`
	UserAgent      string `yaml:"user_agent"`
}

type MCalendarCfg struct {
	Enabled bool `yaml:"enabled"`
}

// -----------------------------------------------------------------------------

// WindowSize returns the number of observations approximating 24 trading
// hours at the configured sampling interval.
func (c *MConfig) WindowSize() int {
	if c.IntervalMinutes <= 0 {
		return 0
	}
	return 24 * (60 / c.IntervalMinutes)
}
