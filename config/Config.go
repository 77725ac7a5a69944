// package config defines the program's configuration including the defaults
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/johannes-kuhfuss/pubwizard/domain"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Configuration with subsections
type AppConfig struct {
	Server struct {
		Host      string        `envconfig:"PUBWF_HOST" default:"http://localhost:8000"`
		SessionId string        `envconfig:"PUBWF_SESSION_ID"`
		CsrfToken string        `envconfig:"PUBWF_CSRF_TOKEN"`
		Timeout   time.Duration `envconfig:"PUBWF_TIMEOUT" default:"5s"`
	}
	Wizard struct {
		PdbLookupDelay time.Duration `envconfig:"PDB_LOOKUP_DELAY" default:"1s"`
		ProfileFile    string        `envconfig:"WIZARD_PROFILE_FILE"`
	}
	RunTime struct {
		ExperimentId int64
		Action       string
		Profile      domain.WizardProfile
	}
}

var (
	EnvFile = ".env"
)

// InitConfig initializes the configuration and sets the defaults
func InitConfig(file string, config *AppConfig) error {
	if err := loadConfig(file); err != nil {
		return fmt.Errorf("could not load configuration from file: %v", err.Error())
	}
	if err := envconfig.Process("", config); err != nil {
		return fmt.Errorf("could not initialize configuration: %v", err.Error())
	}
	if err := setDefaults(config); err != nil {
		return fmt.Errorf("could not load wizard profile: %v", err.Error())
	}
	return nil
}

// checkFilePath does sanity-checking on file paths
func checkFilePath(filePath *string) {
	if *filePath != "" {
		*filePath = filepath.Clean(*filePath)
		_, err := os.Stat(*filePath)
		if err == nil {
			*filePath, err = filepath.EvalSymlinks(*filePath)
			if err != nil {
				log.Printf("error checking file %v", *filePath)
			}
		}
	}
}

// setDefaults sets defaults for some configurations items
func setDefaults(config *AppConfig) error {
	config.Server.Host = strings.TrimSuffix(config.Server.Host, "/")
	checkFilePath(&config.Wizard.ProfileFile)
	profile, err := LoadProfile(config.Wizard.ProfileFile)
	if err != nil {
		return err
	}
	config.RunTime.Profile = profile
	return nil
}

// LoadProfile reads the wizard profile from a yaml file. An empty file name yields the default profile
func LoadProfile(file string) (domain.WizardProfile, error) {
	var profile domain.WizardProfile
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return profile, err
		}
		if err := yaml.Unmarshal(data, &profile); err != nil {
			return profile, err
		}
	}
	if len(profile.Acknowledgements) == 0 {
		profile.Acknowledgements = domain.DefaultAcknowledgements
	}
	for _, field := range profile.ExtraInfo {
		if field.Key == "" {
			return profile, fmt.Errorf("extra info field %q has no key", field.Label)
		}
	}
	return profile, nil
}

// loadConfig loads the configuration from file. Returns an error if loading fails
func loadConfig(file string) error {
	if err := godotenv.Load(file); err != nil {
		return err
	}
	return nil
}
