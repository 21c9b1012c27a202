package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/b0bbywan/go-rtkit/logger"
)

const (
	AppName    = "go-rtkit"
	AppVersion = "0.1.0"
	envPrefix  = "GO_RTKIT"

	serviceType = "_go-rtkit._tcp"
	domain      = "local."
)

const (
	KindRealtime     = "realtime"
	KindHighPriority = "high"
)

type Config struct {
	RTKit         *RTKitConfig
	Promoter      *PromoterConfig
	Api           *ApiConfig
	Zeroconf      *ZeroConfig
	LogLevel      logger.Level
	LogComponents map[string]logger.Level
	// File is the config file that was read, empty when running on defaults.
	File string
}

type RTKitConfig struct {
	// Timeout bounds every remote call that has no deadline of its own.
	Timeout time.Duration
	// RTTimeUSec overrides the RLIMIT_RTTIME ceiling applied before a
	// realtime request. 0 means the daemon's RTTimeUSecMax.
	RTTimeUSec uint64
}

type PromoterConfig struct {
	LimitsTTL  time.Duration
	Promotions []Promotion
}

type ApiConfig struct {
	Enabled bool
	Listens []string
	CORS    *CORSConfig
}

type CORSConfig struct {
	Origins []string
}

type ZeroConfig struct {
	Enabled      bool
	InstanceName string
	ServiceType  string
	Domain       string
	Port         int
	TxtRecords   []string
}

// Promotion is one thread the promoter asks the daemon to elevate.
type Promotion struct {
	Name     string `mapstructure:"name"`
	PID      uint64 `mapstructure:"pid"`
	TID      uint64 `mapstructure:"tid"`
	Kind     string `mapstructure:"kind"`
	Priority uint32 `mapstructure:"priority"`
	Nice     int32  `mapstructure:"nice"`
}

// Validate checks the promotion is well formed. Bounds against the daemon
// policy are left to the daemon and the client.
func (p Promotion) Validate() error {
	if p.TID == 0 {
		return fmt.Errorf("promotion %q: tid is required", p.Name)
	}
	switch p.Kind {
	case KindRealtime:
		if p.Priority == 0 {
			return fmt.Errorf("promotion %q: realtime priority must be positive", p.Name)
		}
	case KindHighPriority:
	default:
		return fmt.Errorf("promotion %q: unknown kind %q (want %s or %s)", p.Name, p.Kind, KindRealtime, KindHighPriority)
	}
	return nil
}

// DefaultRTKit returns the client settings used when no config is given.
func DefaultRTKit() *RTKitConfig {
	return &RTKitConfig{Timeout: 5 * time.Second}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "WARN")
	v.SetDefault("log.components", map[string]string{})

	v.SetDefault("rtkit.timeout", "5s")
	v.SetDefault("rtkit.rttime_usec", 0)

	v.SetDefault("promoter.limits_ttl", "30s")
	v.SetDefault("promotions", []map[string]interface{}{})

	v.SetDefault("api.enabled", false)
	v.SetDefault("api.listen", []string{"127.0.0.1:8018"})
	v.SetDefault("api.cors.origins", []string{})

	v.SetDefault("zeroconf.enabled", false)
	v.SetDefault("zeroconf.instance_name", "")
	v.SetDefault("zeroconf.txt_records", []string{})
}

// Load reads the configuration from path only.
func Load(path string) (*Config, error) {
	return Read(viper.New(), path)
}

// Read loads the configuration through v, so flags bound to v take
// precedence over the file. An empty path searches the usual locations.
func Read(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		return load(v)
	}
	v.SetConfigName("config")                       // name of config file (without extension)
	v.SetConfigType("yaml")                         // config file format
	v.AddConfigPath(filepath.Join("/etc", AppName)) // Global configuration path
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", AppName)) // User config path
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional, continue with defaults if not found
		if _, isNotFound := err.(viper.ConfigFileNotFoundError); !isNotFound {
			return nil, fmt.Errorf("read config: %w", err)
		}
		logger.Debug("[config] no config file found, using defaults")
	}

	timeout := v.GetDuration("rtkit.timeout")
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	ttl := v.GetDuration("promoter.limits_ttl")
	if ttl < 0 {
		return nil, fmt.Errorf("invalid promoter.limits_ttl: %s", ttl)
	}

	var promotions []Promotion
	if err := v.UnmarshalKey("promotions", &promotions); err != nil {
		return nil, fmt.Errorf("parse promotions: %w", err)
	}
	for _, p := range promotions {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}

	apiCfg, err := apiConfig(v)
	if err != nil {
		return nil, err
	}

	components := make(map[string]logger.Level)
	for name, level := range v.GetStringMapString("log.components") {
		components[name] = logger.ParseLevel(level)
	}

	cfg := Config{
		RTKit: &RTKitConfig{
			Timeout:    timeout,
			RTTimeUSec: v.GetUint64("rtkit.rttime_usec"),
		},
		Promoter: &PromoterConfig{
			LimitsTTL:  ttl,
			Promotions: promotions,
		},
		Api:           apiCfg,
		Zeroconf:      zeroConfig(v, apiCfg),
		LogLevel:      logger.ParseLevel(v.GetString("log.level")),
		LogComponents: components,
		File:          v.ConfigFileUsed(),
	}

	return &cfg, nil
}

func apiConfig(v *viper.Viper) (*ApiConfig, error) {
	cfg := &ApiConfig{
		Enabled: v.GetBool("api.enabled"),
		Listens: v.GetStringSlice("api.listen"),
	}
	if origins := v.GetStringSlice("api.cors.origins"); len(origins) > 0 {
		cfg.CORS = &CORSConfig{Origins: origins}
	}
	if !cfg.Enabled {
		return cfg, nil
	}
	if len(cfg.Listens) == 0 {
		return nil, fmt.Errorf("api.listen: at least one address is required")
	}
	for _, addr := range cfg.Listens {
		if _, err := listenPort(addr); err != nil {
			return nil, fmt.Errorf("api.listen: %w", err)
		}
	}
	return cfg, nil
}

// zeroConfig advertises the first API address. Discovery is off when the
// API is. The instance name defaults to the hostname and the version TXT
// record always comes first.
func zeroConfig(v *viper.Viper, api *ApiConfig) *ZeroConfig {
	instance := v.GetString("zeroconf.instance_name")
	if instance == "" {
		instance = hostname()
	}
	cfg := &ZeroConfig{
		Enabled:      v.GetBool("zeroconf.enabled") && api.Enabled,
		InstanceName: instance,
		ServiceType:  serviceType,
		Domain:       domain,
		TxtRecords:   append([]string{"version=" + AppVersion}, v.GetStringSlice("zeroconf.txt_records")...),
	}
	if len(api.Listens) > 0 {
		cfg.Port, _ = listenPort(api.Listens[0])
	}
	return cfg
}

func listenPort(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid port in %q", addr)
	}
	return port, nil
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return AppName
	}
	return name
}
