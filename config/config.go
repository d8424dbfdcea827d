package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"chat-relay/logging"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
	Test        Environment = "test"
)

const DefaultUpstreamURL = "https://openrouter.ai/api/v1/chat/completions"

// Config is built once at startup and never mutated afterwards.
type Config struct {
	APIKey      string
	Model       string
	UseMock     bool
	Environment Environment
	AppURL      string
	Port        string
	UpstreamURL string
	Stream      bool
	SSELogDir   string
}

// environ mirrors the raw process environment before validation.
type environ struct {
	APIKey      string `env:"OPENROUTER_API_KEY" validate:"required"`
	Model       string `env:"OPENROUTER_MODEL" validate:"required"`
	UseMock     string `env:"USE_MOCK_AI" envDefault:"false"`
	NodeEnv     string `env:"NODE_ENV" envDefault:"development" validate:"oneof=development production test"`
	AppURL      string `env:"NEXT_PUBLIC_APP_URL" validate:"omitempty,url"`
	Port        string `env:"PORT" envDefault:"3000" validate:"numeric"`
	UpstreamURL string `env:"OPENROUTER_URL" envDefault:"https://openrouter.ai/api/v1/chat/completions" validate:"url"`
	Stream      string `env:"OPENROUTER_STREAM" envDefault:"false"`
	SSELogDir   string `env:"SSELOG_DIR"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("env"), ",")
		return name
	})
	return v
}

// Load reads and validates the process environment.
func Load() (*Config, error) {
	return LoadFrom(env.ToMap(os.Environ()))
}

// LoadFrom validates the given environment. When validation fails during a
// production build it logs a warning and returns Placeholder instead.
func LoadFrom(environment map[string]string) (*Config, error) {
	e, problems := parse(environment)
	if len(problems) == 0 {
		return e.config(), nil
	}

	if isProductionBuild(environment) {
		logging.WarnMsg("Environment validation failed during build, using defaults: %s", strings.Join(problems, ", "))
		return Placeholder(), nil
	}

	return nil, fmt.Errorf("Environment validation failed:\n%s\n\n"+
		"Please check your .env.local file and ensure all required variables are set.",
		strings.Join(problems, "\n"))
}

// Placeholder is a non-functional configuration that lets a production
// build proceed without real credentials.
func Placeholder() *Config {
	return &Config{
		APIKey:      "build-time-default",
		Model:       "gpt-4",
		UseMock:     false,
		Environment: Production,
		Port:        "3000",
		UpstreamURL: DefaultUpstreamURL,
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// Referer identifies this app to the upstream API.
func (c *Config) Referer() string {
	if c.AppURL != "" {
		return c.AppURL
	}
	return "http://localhost:" + c.Port
}

func (e *environ) config() *Config {
	return &Config{
		APIKey:      e.APIKey,
		Model:       e.Model,
		UseMock:     e.UseMock == "true",
		Environment: Environment(e.NodeEnv),
		AppURL:      e.AppURL,
		Port:        e.Port,
		UpstreamURL: e.UpstreamURL,
		Stream:      e.Stream == "true",
		SSELogDir:   e.SSELogDir,
	}
}

// parse reads environment once and validates the result. It returns one
// "NAME: reason" line per invalid variable.
func parse(environment map[string]string) (*environ, []string) {
	var e environ
	if err := env.ParseWithOptions(&e, env.Options{Environment: environment}); err != nil {
		var agg env.AggregateError
		if errors.As(err, &agg) {
			problems := make([]string, 0, len(agg.Errors))
			for _, perr := range agg.Errors {
				problems = append(problems, perr.Error())
			}
			return nil, problems
		}
		return nil, []string{err.Error()}
	}

	err := validate.Struct(e)
	if err == nil {
		return &e, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, []string{err.Error()}
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, fmt.Sprintf("%s: %s", fe.Field(), describe(fe)))
	}
	return nil, problems
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required but not set"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "url":
		return "must be a valid URL"
	case "numeric":
		return "must be a number"
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

func isProductionBuild(environment map[string]string) bool {
	return environment["NODE_ENV"] == string(Production) ||
		environment["NEXT_PHASE"] == "phase-production-build"
}
