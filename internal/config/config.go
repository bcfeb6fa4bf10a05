package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

type Application struct {
	Host      string    `koanf:"host"`
	Port      int       `koanf:"port"`
	Google    Google    `koanf:"google"`
	Database  Database  `koanf:"db"`
	Dashboard Dashboard `koanf:"dashboard"`
	LogSheet  LogSheet  `koanf:"logsheet"`
	Session   Session   `koanf:"session"`
}

type Google struct {
	ClientId     string `koanf:"clientid"`
	ClientSecret string `koanf:"clientsecret"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

type Dashboard struct {
	// Range is the cell range holding expense rows, header excluded.
	Range           string        `koanf:"range"`
	RefreshInterval time.Duration `koanf:"refreshinterval"`
}

// LogSheet is the spreadsheet receiving one row per sign-in. Logging is off when Id is empty.
type LogSheet struct {
	Id    string `koanf:"id"`
	Range string `koanf:"range"`
}

type Session struct {
	CookieName string        `koanf:"cookiename"`
	TTL        time.Duration `koanf:"ttl"`
	Secure     bool          `koanf:"secure"`
}

func Defaults() Application {
	return Application{
		Host: "http://localhost:3000",
		Port: 8181,
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "expenses",
			Pass:   "",
			Name:   "expenses",
			Schema: "expenses",
		},
		Dashboard: Dashboard{
			Range:           "Sheet1!A2:M100",
			RefreshInterval: 30 * time.Second,
		},
		LogSheet: LogSheet{
			Range: "Sheet1!A:E",
		},
		Session: Session{
			CookieName: "session",
			TTL:        30 * 24 * time.Hour,
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "EXPENSES_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "EXPENSES_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
