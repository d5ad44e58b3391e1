// Package config carga la configuración del proceso una sola vez al arrancar.
//
// El valor resultante es inmutable: se construye en main y se pasa por puntero
// a cada componente. Nunca se modifica después del arranque.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const DefaultAPIURL = "https://sistema.sistemawbuy.com.br/api/v1"

type Config struct {
	APIURL   string `env:"WBUY_API_URL" envDefault:"https://sistema.sistemawbuy.com.br/api/v1"`
	Token    string `env:"WBUY_TOKEN"`
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	UpstreamTimeout        time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"40s"`
	UpstreamMaxConcurrency int           `env:"UPSTREAM_MAX_CONCURRENCY" envDefault:"4"`
	ProbeConcurrency       int           `env:"PROBE_CONCURRENCY" envDefault:"1"`
	PartitionConcurrency   int           `env:"PARTITION_CONCURRENCY" envDefault:"4"`

	RetryAttempts  int           `env:"RETRY_ATTEMPTS" envDefault:"1"`
	RetryBaseDelay time.Duration `env:"RETRY_BASE_DELAY" envDefault:"500ms"`

	BreakerFailureThreshold uint32        `env:"BREAKER_FAILURE_THRESHOLD" envDefault:"5"`
	BreakerOpenTimeout      time.Duration `env:"BREAKER_OPEN_TIMEOUT" envDefault:"30s"`

	DefaultPageSize int      `env:"DEFAULT_PAGE_SIZE" envDefault:"100"`
	DefaultMaxPages int      `env:"DEFAULT_MAX_PAGES" envDefault:"8"`
	DefaultStatuses []string `env:"DEFAULT_STATUSES" envSeparator:"," envDefault:"1,2,3,4,5,6,7,8,9,10"`

	ProbeMenuFile string `env:"PROBE_MENU_FILE"`

	// menu no viene del entorno; se resuelve en Load
	menu *ProbeMenu
}

// Load lee el entorno y, si PROBE_MENU_FILE está definido, el menú YAML.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()

	if cfg.ProbeMenuFile != "" {
		menu, err := LoadProbeMenu(cfg.ProbeMenuFile)
		if err != nil {
			return nil, err
		}
		cfg.menu = &menu
	}

	return &cfg, nil
}

// WithProbeMenu devuelve una copia de la configuración con otro menú.
func (c Config) WithProbeMenu(menu ProbeMenu) *Config {
	c.menu = &menu
	return &c
}

// ProbeMenu devuelve el menú cargado o el menú por defecto.
func (c *Config) ProbeMenu() ProbeMenu {
	if c.menu == nil {
		return DefaultProbeMenu()
	}
	return *c.menu
}

func (c *Config) normalize() {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	c.Token = strings.TrimSpace(c.Token)

	if c.UpstreamMaxConcurrency <= 0 {
		c.UpstreamMaxConcurrency = 1
	}
	if c.ProbeConcurrency <= 0 {
		c.ProbeConcurrency = 1
	}
	if c.PartitionConcurrency <= 0 {
		c.PartitionConcurrency = 1
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 1
	}
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 100
	}
	if c.DefaultMaxPages <= 0 {
		c.DefaultMaxPages = 8
	}

	statuses := make([]string, 0, len(c.DefaultStatuses))
	for _, s := range c.DefaultStatuses {
		if s = strings.TrimSpace(s); s != "" {
			statuses = append(statuses, s)
		}
	}
	c.DefaultStatuses = statuses
}

// HasToken indica si hay credencial configurada
func (c *Config) HasToken() bool {
	return c.Token != ""
}

// HeaderScheme describe cómo construir los headers de autenticación.
// El marcador {token} se reemplaza por la credencial.
type HeaderScheme struct {
	Name    string            `yaml:"name"`
	Headers map[string]string `yaml:"headers"`
}

// QueryScheme describe parámetros de query agregados a cada intento.
type QueryScheme struct {
	Name   string            `yaml:"name"`
	Params map[string]string `yaml:"params"`
}

// ProbeMenu es el menú de candidatos que recorre el prober.
// El orden de cada lista es la prioridad.
type ProbeMenu struct {
	Endpoints       []string       `yaml:"endpoints"`
	DetailTemplates []string       `yaml:"detail_templates"`
	HeaderSchemes   []HeaderScheme `yaml:"header_schemes"`
	QuerySchemes    []QueryScheme  `yaml:"query_schemes"`
	SearchParams    []string       `yaml:"search_params"`
	StatusParam     string         `yaml:"status_param"`
}

// DefaultProbeMenu: bearer sobre /order va primero, es el esquema confirmado.
func DefaultProbeMenu() ProbeMenu {
	return ProbeMenu{
		Endpoints:       []string{"order", "orders", "pedido", "pedidos"},
		DetailTemplates: []string{"order/{id}", "orders/{id}", "pedido/{id}"},
		HeaderSchemes: []HeaderScheme{
			{Name: "bearer", Headers: map[string]string{"Authorization": "Bearer {token}"}},
			{Name: "raw", Headers: map[string]string{"Authorization": "{token}"}},
			{Name: "token", Headers: map[string]string{"token": "{token}"}},
			{Name: "bearer+token", Headers: map[string]string{"Authorization": "Bearer {token}", "token": "{token}"}},
		},
		QuerySchemes: []QueryScheme{
			{Name: "none"},
			{Name: "token", Params: map[string]string{"token": "{token}"}},
		},
		SearchParams: []string{"rastreio", "codigo_rastreio", "tracking", "search"},
		StatusParam:  "status",
	}
}

// LoadProbeMenu lee un menú YAML; las listas vacías conservan los valores por defecto.
func LoadProbeMenu(path string) (ProbeMenu, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ProbeMenu{}, fmt.Errorf("failed to read probe menu: %w", err)
	}

	var file ProbeMenu
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &file); err != nil {
		return ProbeMenu{}, fmt.Errorf("failed to unmarshal probe menu: %w", err)
	}

	menu := DefaultProbeMenu()
	if len(file.Endpoints) > 0 {
		menu.Endpoints = file.Endpoints
	}
	if len(file.DetailTemplates) > 0 {
		menu.DetailTemplates = file.DetailTemplates
	}
	if len(file.HeaderSchemes) > 0 {
		menu.HeaderSchemes = file.HeaderSchemes
	}
	if len(file.QuerySchemes) > 0 {
		menu.QuerySchemes = file.QuerySchemes
	}
	if len(file.SearchParams) > 0 {
		menu.SearchParams = file.SearchParams
	}
	if file.StatusParam != "" {
		menu.StatusParam = file.StatusParam
	}
	return menu, nil
}
