// Package config provides YAML configuration for tracking runs.
//
// A configuration file names one service, a polling policy and the documents
// to process. It is the file-based alternative to wiring a poller in code.
//
// Example configuration:
//
//	title: Invoice backlog
//
//	service:
//	  type: docintel
//	  endpoint: ${DOCINTEL_ENDPOINT}
//	  key: ${DOCINTEL_KEY}
//	  rate: 5
//
//	polling:
//	  strategy: exponential
//	  interval: 2s
//	  max_interval: 30s
//	  timeout: 10m
//
//	documents:
//	  - name: march-invoice
//	    model: prebuilt-invoice
//	    path: ./invoices/march.pdf
//
//	batches:
//	  - name: receipts
//	    model: prebuilt-receipt
//	    path_template: "./receipts/{{.month}}/{{.store}}.jpg"
//	    dimensions:
//	      month: [jan, feb]
//	      store: [north, south]
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"reflect"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// minPollInterval is the smallest allowed interval for production configs.
	minPollInterval = 100 * time.Millisecond

	defaultPort           = 8080
	defaultPollInterval   = 5 * time.Second
	defaultMinInterval    = time.Second
	defaultMaxInterval    = time.Minute
	defaultMultiplier     = 2.0
	defaultConcurrency    = 4
	defaultDocintelModel  = "prebuilt-layout"
	defaultRestHTTPMethod = "POST"
)

// Service types.
const (
	ServiceDocintel = "docintel"
	ServiceDocling  = "docling"
	ServiceREST     = "rest"
)

// Polling strategies.
const (
	StrategyFixed       = "fixed"
	StrategyExponential = "exponential"
)

// Config is the root configuration structure.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "longrun" if not set.
	Title string `yaml:"title"`

	Service ServiceConfig `yaml:"service" validate:"required"`

	Polling PollingConfig `yaml:"polling"`

	// Concurrency is the number of operations driven at the same time.
	// Defaults to 4.
	Concurrency int `yaml:"concurrency" validate:"gte=0,lte=256"`

	Server ServerConfig `yaml:"server"`

	// Documents defines individual operations.
	Documents []DocumentConfig `yaml:"documents" validate:"dive"`

	// Batches defines document sets that expand via cartesian product.
	Batches []BatchConfig `yaml:"batches" validate:"dive"`
}

// ServiceConfig selects and configures the remote service.
type ServiceConfig struct {
	// Type is "docintel", "docling" or "rest".
	Type string `yaml:"type" validate:"required,oneof=docintel docling rest"`

	// Endpoint is the service base URL. Not used by "rest", whose URLs are
	// configured in full. Supports ${VAR} and ${VAR:-default}.
	Endpoint string `yaml:"endpoint"`

	// Key is the API key. Supports environment variable substitution.
	Key string `yaml:"key"`

	// APIVersion overrides the docintel API version.
	APIVersion string `yaml:"api_version"`

	// Rate limits remote calls to this many per second. 0 disables limiting.
	Rate float64 `yaml:"rate" validate:"gte=0"`

	// Burst is the number of calls allowed above Rate. Defaults to 1.
	Burst int `yaml:"burst" validate:"gte=0"`

	// Timeout bounds each HTTP request. 0 means no per-request timeout.
	Timeout Duration `yaml:"timeout"`

	REST *RESTConfig `yaml:"rest"`
}

// RESTConfig describes a generic REST long-running operation API.
type RESTConfig struct {
	// SubmitURL receives the document.
	SubmitURL string `yaml:"submit_url" validate:"required"`

	// Method is the submit method. Defaults to POST.
	Method string `yaml:"method" validate:"omitempty,oneof=POST PUT"`

	// ContentType of the submitted document.
	ContentType string `yaml:"content_type"`

	// Headers are sent with every request. Values support environment
	// variable substitution.
	Headers map[string]string `yaml:"headers"`

	// IDPath is the JSON path of the operation ID in the submit response.
	// When empty the Operation-Location or Location header is used.
	IDPath string `yaml:"id_path"`

	// StatusURL is the status URL template; {id} is replaced by the
	// operation ID. When empty the ID is used as the status URL.
	StatusURL string `yaml:"status_url"`

	// StatusPath is the JSON path of the status word.
	StatusPath string `yaml:"status_path"`

	// StatusWords maps service words to statuses
	// (notStarted, running, succeeded, failed, cancelled).
	StatusWords map[string]string `yaml:"status_words"`

	// ResultURL is the result URL template. When empty the result is read
	// from the final status response.
	ResultURL string `yaml:"result_url"`

	// ResultPath is the JSON path of the result. When empty the whole body
	// is the result.
	ResultPath string `yaml:"result_path"`

	ErrorCodePath    string `yaml:"error_code_path"`
	ErrorMessagePath string `yaml:"error_message_path"`
}

// PollingConfig configures the polling strategy.
type PollingConfig struct {
	// Strategy is "fixed" (default) or "exponential".
	Strategy string `yaml:"strategy" validate:"omitempty,oneof=fixed exponential"`

	// Interval is the delay between polls without a server hint, and the
	// first delay of the exponential strategy. Defaults to 5s.
	Interval Duration `yaml:"interval"`

	// MinInterval is the floor applied to every delay. Defaults to 1s when
	// unset; an explicit 0 disables the floor.
	MinInterval *Duration `yaml:"min_interval"`

	// MaxInterval caps exponential growth. Defaults to 1m.
	MaxInterval Duration `yaml:"max_interval"`

	// Multiplier is the exponential growth factor. Defaults to 2.
	Multiplier float64 `yaml:"multiplier" validate:"omitempty,gte=1"`

	// MaxAttempts bounds the number of status checks. 0 means unlimited.
	MaxAttempts int `yaml:"max_attempts" validate:"gte=0"`

	// Timeout bounds the total polling time per operation. 0 means unlimited.
	Timeout Duration `yaml:"timeout"`
}

// ServerConfig configures the status server.
type ServerConfig struct {
	// Enabled starts the status server during the run.
	Enabled bool `yaml:"enabled"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port" validate:"gte=0,lte=65535"`

	// KeepAlive keeps serving after every operation has finished, until
	// the process is interrupted.
	KeepAlive bool `yaml:"keep_alive"`
}

// DocumentConfig defines one operation.
type DocumentConfig struct {
	// Name identifies the operation in logs and the status API.
	Name string `yaml:"name" validate:"required"`

	// Path is a local file to submit. Exclusive with URL.
	Path string `yaml:"path"`

	// URL is a publicly reachable document. Exclusive with Path and only
	// supported by docintel.
	URL string `yaml:"url"`

	// OperationID resumes an operation started elsewhere instead of
	// submitting the document.
	OperationID string `yaml:"operation_id"`

	// Model is the docintel model ID. Defaults to "prebuilt-layout".
	Model string `yaml:"model"`

	// Pages restricts analysis to a page range (e.g., "1-3,5").
	Pages string `yaml:"pages"`

	// Locale is a locale hint (e.g., "en-US").
	Locale string `yaml:"locale"`

	// Features enables optional analysis features.
	Features []string `yaml:"features"`

	// Labels are metadata key-value pairs for grouping/filtering.
	Labels map[string]string `yaml:"labels"`
}

// BatchConfig defines a document set that expands via cartesian product.
//
// For example, with dimensions {month: [jan, feb], store: [north, south]},
// the batch expands to 4 documents.
type BatchConfig struct {
	// Name is the base name for generated documents.
	Name string `yaml:"name" validate:"required"`

	// PathTemplate is a Go template for local file paths. Dimension keys
	// are available as template variables: {{.month}}. Exclusive with
	// URLTemplate.
	PathTemplate string `yaml:"path_template"`

	// URLTemplate is a Go template for document URLs. Dimension values
	// are URL-encoded before interpolation.
	URLTemplate string `yaml:"url_template"`

	// Dimensions maps dimension names to their possible values.
	Dimensions map[string][]string `yaml:"dimensions" validate:"required,min=1"`

	Model    string            `yaml:"model"`
	Pages    string            `yaml:"pages"`
	Locale   string            `yaml:"locale"`
	Features []string          `yaml:"features"`
	Labels   map[string]string `yaml:"labels"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Relative document paths are kept as written; they are resolved against
// the working directory when the run starts.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in the service endpoint, key, REST
// URLs and headers, and document paths and URLs. Defaults are applied
// before validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := validate.Struct(&cfg); err != nil {
		return nil, validationError(err)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Concurrency == 0 {
		c.Concurrency = defaultConcurrency
	}
	if c.Service.Burst == 0 {
		c.Service.Burst = 1
	}

	p := &c.Polling
	if p.Strategy == "" {
		p.Strategy = StrategyFixed
	}
	if p.Interval == 0 {
		p.Interval = Duration(defaultPollInterval)
	}
	if p.MinInterval == nil {
		d := Duration(defaultMinInterval)
		p.MinInterval = &d
	}
	if p.MaxInterval == 0 {
		p.MaxInterval = Duration(defaultMaxInterval)
	}
	if p.Multiplier == 0 {
		p.Multiplier = defaultMultiplier
	}

	if r := c.Service.REST; r != nil && r.Method == "" {
		r.Method = defaultRestHTTPMethod
	}

	if c.Service.Type == ServiceDocintel {
		for i := range c.Documents {
			if c.Documents[i].Model == "" {
				c.Documents[i].Model = defaultDocintelModel
			}
		}
		for i := range c.Batches {
			if c.Batches[i].Model == "" {
				c.Batches[i].Model = defaultDocintelModel
			}
		}
	}
}

// validate checks struct tags. Field names in errors use the yaml names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError converts validator errors into one message per field,
// using the yaml path of the field (e.g., "service.type").
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// drop the root struct name
		_, path, _ := strings.Cut(fe.Namespace(), ".")

		var msg string
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "oneof":
			msg = "must be one of " + fe.Param()
		case "gte":
			msg = "must be at least " + fe.Param()
		case "lte":
			msg = "must be at most " + fe.Param()
		case "min":
			msg = "must have at least " + fe.Param() + " entries"
		default:
			msg = "failed " + fe.Tag() + " validation"
		}
		msgs = append(msgs, path+": "+msg)
	}

	return errors.New(strings.Join(msgs, "; "))
}

// expandAndValidate expands environment variables and runs the semantic
// checks that struct tags cannot express.
func (c *Config) expandAndValidate() error {
	var err error

	if err := c.validatePolling(); err != nil {
		return err
	}

	s := &c.Service
	if s.Endpoint, err = expandEnvVars(s.Endpoint); err != nil {
		return fmt.Errorf("service.endpoint: %w", err)
	}
	if s.Key, err = expandEnvVars(s.Key); err != nil {
		return fmt.Errorf("service.key: %w", err)
	}
	if s.Timeout.Duration() < 0 {
		return fmt.Errorf("service.timeout cannot be negative, got %s", s.Timeout.Duration())
	}

	switch s.Type {
	case ServiceDocintel, ServiceDocling:
		if err := validateHTTPURL(s.Endpoint); err != nil {
			return fmt.Errorf("service.endpoint: %w", err)
		}
		if s.REST != nil {
			return fmt.Errorf("service.rest is only valid for type %q", ServiceREST)
		}
	case ServiceREST:
		if s.REST == nil {
			return fmt.Errorf("service.rest is required for type %q", ServiceREST)
		}
		if err := s.REST.expandAndValidate(); err != nil {
			return err
		}
	}

	for i := range c.Documents {
		if err := c.validateDocument(i); err != nil {
			return err
		}
	}

	for i := range c.Batches {
		if err := c.validateBatch(i); err != nil {
			return err
		}
	}

	if len(c.Documents) == 0 && len(c.Batches) == 0 {
		return errors.New("at least one document or batch must be defined")
	}

	return nil
}

func (c *Config) validatePolling() error {
	p := c.Polling

	if p.Interval.Duration() < minPollInterval {
		return fmt.Errorf("polling.interval must be at least %s, got %s", minPollInterval, p.Interval.Duration())
	}
	if p.MinInterval != nil && p.MinInterval.Duration() < 0 {
		return fmt.Errorf("polling.min_interval cannot be negative, got %s", p.MinInterval.Duration())
	}
	if p.Timeout.Duration() < 0 {
		return fmt.Errorf("polling.timeout cannot be negative, got %s", p.Timeout.Duration())
	}
	if p.Strategy == StrategyExponential && p.MaxInterval.Duration() < p.Interval.Duration() {
		return fmt.Errorf("polling.max_interval (%s) must not be less than polling.interval (%s)",
			p.MaxInterval.Duration(), p.Interval.Duration())
	}
	return nil
}

func (r *RESTConfig) expandAndValidate() error {
	var err error

	if r.SubmitURL, err = expandEnvVars(r.SubmitURL); err != nil {
		return fmt.Errorf("service.rest.submit_url: %w", err)
	}
	if err := validateHTTPURL(r.SubmitURL); err != nil {
		return fmt.Errorf("service.rest.submit_url: %w", err)
	}

	if r.StatusURL, err = expandEnvVars(r.StatusURL); err != nil {
		return fmt.Errorf("service.rest.status_url: %w", err)
	}
	if r.ResultURL, err = expandEnvVars(r.ResultURL); err != nil {
		return fmt.Errorf("service.rest.result_url: %w", err)
	}

	for k, v := range r.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("service.rest.headers[%s]: %w", k, err)
		}
		r.Headers[k] = expanded
	}

	if _, err := r.StatusWordMap(); err != nil {
		return fmt.Errorf("service.rest.%w", err)
	}

	return nil
}

func (c *Config) validateDocument(i int) error {
	var err error
	d := &c.Documents[i]
	ctx := fmt.Sprintf("documents[%d] (%s)", i, d.Name)

	if d.Path, err = expandEnvVars(d.Path); err != nil {
		return fmt.Errorf("%s: path: %w", ctx, err)
	}
	if d.URL, err = expandEnvVars(d.URL); err != nil {
		return fmt.Errorf("%s: url: %w", ctx, err)
	}

	if d.OperationID != "" {
		if d.Path != "" || d.URL != "" {
			return fmt.Errorf("%s: operation_id cannot be combined with path or url", ctx)
		}
		return nil
	}

	if err := c.validateSource(ctx, d.Path != "", d.URL != ""); err != nil {
		return err
	}
	if d.URL != "" {
		if err := validateHTTPURL(d.URL); err != nil {
			return fmt.Errorf("%s: url: %w", ctx, err)
		}
	}

	return nil
}

func (c *Config) validateBatch(i int) error {
	var err error
	b := &c.Batches[i]
	ctx := fmt.Sprintf("batches[%d] (%s)", i, b.Name)

	if b.PathTemplate, err = expandEnvVars(b.PathTemplate); err != nil {
		return fmt.Errorf("%s: path_template: %w", ctx, err)
	}
	if b.URLTemplate, err = expandEnvVars(b.URLTemplate); err != nil {
		return fmt.Errorf("%s: url_template: %w", ctx, err)
	}

	if err := c.validateSource(ctx, b.PathTemplate != "", b.URLTemplate != ""); err != nil {
		return err
	}

	for _, tmpl := range []string{b.PathTemplate, b.URLTemplate} {
		if tmpl == "" {
			continue
		}
		// fail fast before the run tries to use an invalid template
		if _, err := template.New("").Parse(tmpl); err != nil {
			return fmt.Errorf("%s: invalid template: %w", ctx, err)
		}
	}

	for dimName, dimValues := range b.Dimensions {
		if len(dimValues) == 0 {
			return fmt.Errorf("%s: dimension %q has no values", ctx, dimName)
		}
		seen := make(map[string]struct{}, len(dimValues))
		for _, v := range dimValues {
			if _, exists := seen[v]; exists {
				return fmt.Errorf("%s: dimension %q has duplicate value %q", ctx, dimName, v)
			}
			seen[v] = struct{}{}
		}
	}

	return nil
}

// validateSource checks that exactly one of path and url is set and that the
// service supports the chosen source.
func (c *Config) validateSource(ctx string, hasPath, hasURL bool) error {
	switch {
	case hasPath && hasURL:
		return fmt.Errorf("%s: path and url are mutually exclusive", ctx)
	case !hasPath && !hasURL:
		return fmt.Errorf("%s: path or url is required", ctx)
	case hasURL && c.Service.Type != ServiceDocintel:
		return fmt.Errorf("%s: url sources are only supported by service type %q", ctx, ServiceDocintel)
	}
	return nil
}

func validateHTTPURL(raw string) error {
	if raw == "" {
		return errors.New("is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url must have a host")
	}
	return nil
}
