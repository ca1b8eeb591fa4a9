package backend

import (
	"errors"
	"fmt"

	"spese-insights/internal/config"
	gsheet "spese-insights/internal/expenses/google"
)

const defaultDataDirectory = "data"

// FromAppConfig picks the store settings out of the process configuration.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	bt := BackendType(appConfig.DataBackend)
	if !bt.IsValid() {
		return Config{}, fmt.Errorf("unknown DATA_BACKEND %q (want one of %v)", appConfig.DataBackend, backendTypes)
	}

	cfg := Config{Type: bt}
	switch bt {
	case SQLiteBackend:
		cfg.SQLiteDBPath = appConfig.SQLiteDBPath
	case SheetsBackend:
		cfg.Sheets = gsheet.Config{
			SpreadsheetID:   appConfig.GoogleSpreadsheetID,
			SheetName:       appConfig.GoogleSheetName,
			CredentialsJSON: appConfig.GoogleServiceAccountJSON,
			CredentialsFile: appConfig.GoogleServiceAccountFile,
		}
	case MemoryBackend:
		cfg.DataDirectory = appConfig.SeedDataDir
	}
	if cfg.Type == MemoryBackend && cfg.DataDirectory == "" {
		cfg.DataDirectory = defaultDataDirectory
	}
	return cfg, nil
}

// Validate reports settings the selected store cannot open without.
func (c Config) Validate() error {
	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("sqlite backend: database path is required")
		}
	case SheetsBackend:
		if c.Sheets.SpreadsheetID == "" {
			return errors.New("sheets backend: spreadsheet ID is required")
		}
		if c.Sheets.CredentialsJSON == "" && c.Sheets.CredentialsFile == "" {
			return errors.New("sheets backend: service account credentials are required")
		}
	case MemoryBackend:
	default:
		return fmt.Errorf("unknown backend type %q", c.Type)
	}
	return nil
}
