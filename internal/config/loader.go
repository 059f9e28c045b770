package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load reads configuration from environment variables.
// Call godotenv.Load first to pick up a .env file. Unset or empty variables
// take their default; every malformed variable is reported, not just the
// first one.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envSpec is the parsed env/envAlt/default tag set of one field.
type envSpec struct {
	names    []string
	fallback string
}

func specOf(field reflect.StructField) (envSpec, bool) {
	name := field.Tag.Get("env")
	if name == "" {
		return envSpec{}, false
	}
	spec := envSpec{names: []string{name}, fallback: field.Tag.Get("default")}
	if alt := field.Tag.Get("envAlt"); alt != "" {
		spec.names = append(spec.names, alt)
	}
	return spec, true
}

// value returns the first non-empty variable, or the default.
func (s envSpec) value() string {
	for _, name := range s.names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return s.fallback
}

// loadStruct fills tagged fields of v, descending into nested sections.
func loadStruct(v reflect.Value) error {
	var errs []error
	t := v.Type()
	for i := range t.NumField() {
		field, fv := t.Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if field.Type.Kind() == reflect.Struct {
			errs = append(errs, loadStruct(fv))
			continue
		}

		spec, ok := specOf(field)
		if !ok {
			continue
		}
		raw := spec.value()
		if raw == "" {
			continue
		}
		if err := setField(fv, raw); err != nil {
			errs = append(errs, fmt.Errorf("%s=%q: %w", spec.names[0], raw, err))
		}
	}
	return errors.Join(errs...)
}

// setField parses raw into field according to its type.
func setField(field reflect.Value, raw string) error {
	raw = strings.TrimSpace(raw)
	switch {
	case field.Type() == durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return errors.New("not a duration (e.g. 30s, 1m30s)")
		}
		field.SetInt(int64(d))
	case field.CanInt():
		n, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return errors.New("not an integer in range")
		}
		field.SetInt(n)
	case field.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return errors.New("not a boolean")
		}
		field.SetBool(b)
	case field.Kind() == reflect.String:
		field.SetString(raw)
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}

// normalize lower-cases the enumerated settings so they compare directly.
func (c *Config) normalize() {
	for _, s := range []*string{&c.Store.Backend, &c.Import.Encoding, &c.Logging.Level, &c.Logging.Format} {
		*s = strings.ToLower(strings.TrimSpace(*s))
	}
}

// Validate checks every section and reports all failures at once.
func (c *Config) Validate() error {
	var problems []string
	problems = append(problems, c.Store.problems()...)
	problems = append(problems, c.Engine.problems()...)
	problems = append(problems, c.Import.problems()...)
	problems = append(problems, c.Logging.problems()...)

	if len(problems) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

func (s StoreConfig) problems() []string {
	var p []string
	switch strings.ToLower(s.Backend) {
	case BackendFile:
		if strings.TrimSpace(s.Dir) == "" {
			p = append(p, "STORE_DIR is required for the file backend")
		}
	case BackendSQLite:
		if strings.TrimSpace(s.SQLitePath) == "" {
			p = append(p, "STORE_SQLITE_PATH is required for the sqlite backend")
		}
	case BackendPostgres:
		p = append(p, s.Database.problems()...)
	case BackendRedis:
		if s.Redis.Addr == "" {
			p = append(p, "REDIS_ADDR is required for the redis backend")
		}
		if s.Redis.DB < 0 {
			p = append(p, "REDIS_DB must be non-negative")
		}
	case BackendMemory:
	default:
		p = append(p, fmt.Sprintf("STORE_BACKEND (%q) must be one of: %s", s.Backend,
			strings.Join([]string{BackendFile, BackendSQLite, BackendPostgres, BackendRedis, BackendMemory}, ", ")))
	}
	if s.Timeout <= 0 {
		p = append(p, "STORE_TIMEOUT must be positive")
	}
	return p
}

func (d DatabaseConfig) problems() []string {
	var p []string
	if d.URL == "" {
		p = append(p, "DATABASE_URL is required for the postgres backend")
	}
	switch {
	case d.MaxConns <= 0:
		p = append(p, "DB_MAX_CONNS must be positive")
	case d.MinConns < 0:
		p = append(p, "DB_MIN_CONNS must be non-negative")
	case d.MaxConns < d.MinConns:
		p = append(p, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", d.MaxConns, d.MinConns))
	}
	return p
}

// layoutSample is an instant whose fields all differ from the reference time,
// so a layout with no verbs formats to itself.
var layoutSample = time.Date(2001, 12, 31, 23, 58, 59, 0, time.UTC)

func (e EngineConfig) problems() []string {
	var p []string
	if e.MaxWait <= 0 {
		p = append(p, "ENGINE_MAX_WAIT must be positive")
	}
	switch layout := strings.TrimSpace(e.TimeLayout); {
	case layout == "":
		p = append(p, "ENGINE_TIME_LAYOUT must not be empty")
	case layoutSample.Format(layout) == layout:
		p = append(p, fmt.Sprintf("ENGINE_TIME_LAYOUT (%q) contains no date or time fields", e.TimeLayout))
	}
	if strings.TrimSpace(e.DefaultSource) == "" {
		p = append(p, "ENGINE_DEFAULT_SOURCE must not be empty")
	}
	return p
}

func (i ImportConfig) problems() []string {
	var p []string
	switch strings.ToLower(i.Encoding) {
	case "utf-8", "utf8", "gb18030", "gbk":
	default:
		p = append(p, fmt.Sprintf("IMPORT_ENCODING (%q) must be one of: utf-8, gb18030", i.Encoding))
	}
	if i.MaxBytes <= 0 {
		p = append(p, "IMPORT_MAX_BYTES must be positive")
	}
	return p
}

func (l LoggingConfig) problems() []string {
	var p []string
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		p = append(p, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", l.Level))
	}
	switch strings.ToLower(l.Format) {
	case "text", "json":
	default:
		p = append(p, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", l.Format))
	}
	return p
}

// String renders the config for debug logging with credentials masked.
func (c *Config) String() string {
	redacted := *c
	redacted.Store.Database.URL = mask(c.Store.Database.URL)
	redacted.Store.Redis.Password = mask(c.Store.Redis.Password)
	return fmt.Sprintf("%+v", redacted)
}

func mask(s string) string {
	if s == "" {
		return "[EMPTY]"
	}
	return "[MASKED]"
}
