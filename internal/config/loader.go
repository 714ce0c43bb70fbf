package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// LookupFunc returns the value of an environment variable.
type LookupFunc func(key string) (string, bool)

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

// Load builds a Config from the process environment.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom builds a Config from lookup. Fields whose variables are unset or
// empty take their default tag. The result is validated before it is
// returned.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	cfg := &Config{}
	if err := fill(reflect.ValueOf(cfg).Elem(), lookup); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// fieldTags is what a struct field declares about its variable.
//
//	env        primary variable name
//	envAlt     name tried when the primary one is empty
//	default    value used when both are empty
//	required   "true" fails the load instead of using the default
//	keepEmpty  "true" keeps blank entries of a comma list
type fieldTags struct {
	env, alt, def       string
	required, keepEmpty bool
}

func tagsOf(f reflect.StructField) fieldTags {
	return fieldTags{
		env:       f.Tag.Get("env"),
		alt:       f.Tag.Get("envAlt"),
		def:       f.Tag.Get("default"),
		required:  f.Tag.Get("required") == "true",
		keepEmpty: f.Tag.Get("keepEmpty") == "true",
	}
}

// resolve picks the raw text for a field. ok is false when there is nothing
// to set.
func (ft fieldTags) resolve(lookup LookupFunc) (raw string, ok bool, err error) {
	for _, name := range []string{ft.env, ft.alt} {
		if name == "" {
			continue
		}
		if v, _ := lookup(name); v != "" {
			return v, true, nil
		}
	}
	if ft.required {
		return "", false, fmt.Errorf("required environment variable %s is not set", ft.env)
	}
	return ft.def, ft.def != "", nil
}

// fill walks the sections of v and sets every field carrying an env tag.
func fill(v reflect.Value, lookup LookupFunc) error {
	typ := v.Type()
	for i := range typ.NumField() {
		sf, fv := typ.Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if sf.Type.Kind() == reflect.Struct && sf.Type != timeType {
			if err := fill(fv, lookup); err != nil {
				return err
			}
			continue
		}

		ft := tagsOf(sf)
		if ft.env == "" {
			continue
		}
		raw, ok, err := ft.resolve(lookup)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := assign(fv, raw, ft.keepEmpty); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", ft.env, raw, err)
		}
	}
	return nil
}

// assign parses raw into fv according to the field's Go type.
func assign(fv reflect.Value, raw string, keepEmpty bool) error {
	if fv.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		fv.SetInt(int64(d))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		fv.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		fv.SetBool(b)
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", fv.Type().Elem().Kind())
		}
		fv.Set(reflect.ValueOf(splitList(raw, keepEmpty)))
	default:
		return fmt.Errorf("unsupported field type: %s", fv.Kind())
	}
	return nil
}

func splitList(raw string, keepEmpty bool) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" || keepEmpty {
			out = append(out, p)
		}
	}
	return out
}

// problems collects validation failures so Validate can report them together.
type problems []string

func (p *problems) check(ok bool, format string, args ...any) {
	if !ok {
		*p = append(*p, fmt.Sprintf(format, args...))
	}
}

// Validate reports every setting that is out of range in a single error.
// Pool sizes are only checked when history storage is on.
func (c *Config) Validate() error {
	var p problems

	s := c.Server
	p.check(s.Port > 0 && s.Port <= 65535, "SERVER_PORT (%d) must be 1-65535", s.Port)
	p.check(s.ReadTimeout >= 0, "SERVER_READ_TIMEOUT must be non-negative")
	p.check(s.WriteTimeout >= 0, "SERVER_WRITE_TIMEOUT must be non-negative")
	p.check(s.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	p.check(s.RequestTimeout > 0, "SERVER_REQUEST_TIMEOUT must be positive")

	u := c.Upload
	p.check(u.MaxFileSize > 0, "UPLOAD_MAX_FILE_SIZE must be positive")
	p.check(u.MaxFiles > 0, "UPLOAD_MAX_FILES must be positive")
	p.check(u.MaxConcurrent > 0, "UPLOAD_MAX_CONCURRENT must be positive")
	p.check(u.MaxWaitTime > 0, "UPLOAD_MAX_WAIT_TIME must be positive")

	p.check(c.Clean.PreviewRows > 0, "CLEAN_PREVIEW_ROWS must be positive")

	p.check(!c.Rate.Enabled || c.Rate.RequestsPerMinute > 0,
		"RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	p.check(!c.Security.RequireAPIKey || len(c.Security.APIKeys) > 0,
		"REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")

	if db := c.Database; db.HistoryEnabled() {
		p.check(db.MaxConns > 0, "DB_MAX_CONNS must be positive")
		p.check(db.MinConns >= 0, "DB_MIN_CONNS must be non-negative")
		p.check(db.MaxConns >= db.MinConns, "DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", db.MaxConns, db.MinConns)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		p.check(false, "LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		p.check(false, "LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)
	}

	if len(p) == 0 {
		return nil
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(p, "\n  - "))
}

// String renders the settings worth logging at startup. The database URL is
// masked and API keys are only counted.
func (c *Config) String() string {
	db := "disabled"
	if c.Database.HistoryEnabled() {
		db = fmt.Sprintf("{URL: [MASKED], MaxConns: %d}", c.Database.MaxConns)
	}
	return fmt.Sprintf("Config{Server: {Addr: %q}, "+
		"Upload: {MaxFileSize: %d, MaxFiles: %d, MaxConcurrent: %d}, "+
		"Clean: {MissingTokens: %q, PreviewRows: %d}, "+
		"Rate: {Enabled: %v, RequestsPerMinute: %d}, "+
		"Security: {RequireAPIKey: %v, APIKeys: %d configured}, "+
		"Database: %s, "+
		"Logging: {Level: %q, Format: %q}}",
		c.Server.Addr(),
		c.Upload.MaxFileSize, c.Upload.MaxFiles, c.Upload.MaxConcurrent,
		c.Clean.MissingTokens, c.Clean.PreviewRows,
		c.Rate.Enabled, c.Rate.RequestsPerMinute,
		c.Security.RequireAPIKey, len(c.Security.APIKeys),
		db,
		c.Logging.Level, c.Logging.Format)
}
