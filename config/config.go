package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/risk"
)

// Config es la configuración completa del bot.
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Risk      RiskConfig      `yaml:"risk"`
	Kalshi    KalshiConfig    `yaml:"kalshi"`
	ESPN      ESPNConfig      `yaml:"espn"`
	Markets   MarketsConfig   `yaml:"markets"`
	Storage   StorageConfig   `yaml:"storage"`
	Cache     CacheConfig     `yaml:"cache"`
	Server    ServerConfig    `yaml:"server"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Log       LogConfig       `yaml:"log"`
}

// EngineConfig controla el loop de polling.
type EngineConfig struct {
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	DryRun              *bool  `yaml:"dry_run"` // nil = true; el modo real se pide explícitamente
	RecordSnapshots     bool   `yaml:"record_snapshots"`
	StrategiesDir       string `yaml:"strategies_dir"`
	StopFile            string `yaml:"stop_file"`
	Workers             int    `yaml:"workers"` // goroutines del collector (0 = NumCPU*2)
}

// RiskConfig son los límites duros. Importes en centavos.
type RiskConfig struct {
	MaxPositionSize      int `yaml:"max_position_size"`
	MaxDailyLoss         int `yaml:"max_daily_loss"`
	MaxExposurePerMarket int `yaml:"max_exposure_per_market"`
	MaxTotalExposure     int `yaml:"max_total_exposure"`
}

// KalshiConfig contiene el entorno y las credenciales de Kalshi.
type KalshiConfig struct {
	Environment    string `yaml:"environment"` // sandbox | production
	BaseURL        string `yaml:"base_url"`    // sobreescribe environment
	APIKeyID       string `yaml:"api_key_id"`
	PrivateKeyPath string `yaml:"private_key_path"`
}

// ESPNConfig controla el feed de marcadores.
type ESPNConfig struct {
	BaseURL string   `yaml:"base_url"`
	Sports  []string `yaml:"sports"` // vacío = todos
}

// MarketsConfig controla la resolución partido → ticker.
type MarketsConfig struct {
	Mappings       map[string]string   `yaml:"mappings"`        // event_id → ticker
	SportPrefixes  map[string][]string `yaml:"sport_prefixes"`  // vacío = prefijos por defecto
	ListTTLSeconds int                 `yaml:"list_ttl_seconds"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// CacheConfig activa la caché Redis de resolución de mercados.
type CacheConfig struct {
	RedisURL   string `yaml:"redis_url"` // vacío = sin caché
	TTLMinutes int    `yaml:"ttl_minutes"`
}

// ServerConfig controla la API de estado.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// SchedulerConfig controla los jobs periódicos.
type SchedulerConfig struct {
	Enabled    bool   `yaml:"enabled"`
	RollupSpec string `yaml:"rollup_spec"`
	ResetSpec  string `yaml:"reset_spec"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables de entorno sobreescriben los valores del YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse construye la configuración desde YAML ya leído.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Default devuelve la configuración por defecto, con overrides de entorno,
// para cuando no hay archivo.
func Default() *Config {
	_ = godotenv.Load()
	var cfg Config
	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	return &cfg
}

// PollInterval devuelve el intervalo de polling como time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Engine.PollIntervalSeconds) * time.Second
}

// CacheTTL devuelve el TTL de la caché Redis.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// ListTTL devuelve cuánto se reutiliza el listado de mercados abiertos.
func (c *Config) ListTTL() time.Duration {
	return time.Duration(c.Markets.ListTTLSeconds) * time.Second
}

// IsDryRun devuelve true salvo que dry_run sea false explícitamente.
func (c *Config) IsDryRun() bool {
	return c.Engine.DryRun == nil || *c.Engine.DryRun
}

// RiskLimits traduce la sección risk a risk.Limits.
func (c *Config) RiskLimits() risk.Limits {
	return risk.Limits{
		MaxPositionSize:      c.Risk.MaxPositionSize,
		MaxDailyLoss:         c.Risk.MaxDailyLoss,
		MaxExposurePerMarket: c.Risk.MaxExposurePerMarket,
		MaxTotalExposure:     c.Risk.MaxTotalExposure,
	}
}

// Sports devuelve los deportes configurados ya validados.
func (c *Config) Sports() []domain.Sport {
	out := make([]domain.Sport, 0, len(c.ESPN.Sports))
	for _, s := range c.ESPN.Sports {
		if sp, err := domain.ParseSport(s); err == nil {
			out = append(out, sp)
		}
	}
	return out
}

// SportPrefixes devuelve los prefijos de ticker configurados, o nil para
// usar los de por defecto.
func (c *Config) SportPrefixes() map[domain.Sport][]string {
	if len(c.Markets.SportPrefixes) == 0 {
		return nil
	}
	out := make(map[domain.Sport][]string, len(c.Markets.SportPrefixes))
	for k, v := range c.Markets.SportPrefixes {
		if sp, err := domain.ParseSport(k); err == nil {
			out[sp] = v
		}
	}
	return out
}

// HasCredentials devuelve true si hay key ID y ruta de clave privada.
func (c *Config) HasCredentials() bool {
	return c.Kalshi.APIKeyID != "" && c.Kalshi.PrivateKeyPath != ""
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("KALSHI_API_KEY_ID"); v != "" {
		cfg.Kalshi.APIKeyID = v
	}
	if v := os.Getenv("KALSHI_PRIVATE_KEY_PATH"); v != "" {
		cfg.Kalshi.PrivateKeyPath = v
	}
	if v := os.Getenv("KALSHI_ENV"); v != "" {
		cfg.Kalshi.Environment = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.RedisURL = v
	}
	if v := os.Getenv("KALSHIBOT_DB"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Engine.PollIntervalSeconds <= 0 {
		cfg.Engine.PollIntervalSeconds = 30
	}
	if cfg.Engine.StrategiesDir == "" {
		cfg.Engine.StrategiesDir = "config/strategies"
	}
	if cfg.Engine.StopFile == "" {
		cfg.Engine.StopFile = "STOP"
	}

	def := risk.DefaultLimits()
	if cfg.Risk.MaxPositionSize == 0 {
		cfg.Risk.MaxPositionSize = def.MaxPositionSize
	}
	if cfg.Risk.MaxDailyLoss == 0 {
		cfg.Risk.MaxDailyLoss = def.MaxDailyLoss
	}
	if cfg.Risk.MaxExposurePerMarket == 0 {
		cfg.Risk.MaxExposurePerMarket = def.MaxExposurePerMarket
	}
	if cfg.Risk.MaxTotalExposure == 0 {
		cfg.Risk.MaxTotalExposure = def.MaxTotalExposure
	}

	if cfg.Kalshi.Environment == "" {
		cfg.Kalshi.Environment = "sandbox"
	}
	if cfg.Markets.ListTTLSeconds <= 0 {
		cfg.Markets.ListTTLSeconds = 60
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "data/kalshibot.db"
	}
	if cfg.Cache.TTLMinutes <= 0 {
		cfg.Cache.TTLMinutes = 360
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Scheduler.RollupSpec == "" {
		cfg.Scheduler.RollupSpec = "0 5 0 * * *"
	}
	if cfg.Scheduler.ResetSpec == "" {
		cfg.Scheduler.ResetSpec = "0 0 0 * * *"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// validate rechaza valores que no tienen default sensato. Los límites de
// riesgo nunca se corrigen en silencio.
func (c *Config) validate() error {
	var errs []error

	if err := c.RiskLimits().Validate(); err != nil {
		errs = append(errs, err)
	}
	switch c.Kalshi.Environment {
	case "sandbox", "production":
	default:
		errs = append(errs, fmt.Errorf("kalshi.environment must be sandbox or production, got %q", c.Kalshi.Environment))
	}
	for _, s := range c.ESPN.Sports {
		if _, err := domain.ParseSport(s); err != nil {
			errs = append(errs, fmt.Errorf("espn.sports: %w", err))
		}
	}
	for k := range c.Markets.SportPrefixes {
		if _, err := domain.ParseSport(k); err != nil {
			errs = append(errs, fmt.Errorf("markets.sport_prefixes: %w", err))
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug|info|warn|error, got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text|json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
