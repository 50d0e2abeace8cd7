package pricewatch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

type BrowserConfig struct {
	Headless       bool   `json:"headless"`
	NoSandbox      bool   `json:"no_sandbox"`
	TimeoutSeconds int    `json:"timeout_seconds"` // 0: no session limit
	UserDataDir    string `json:"user_data_dir,omitempty"`
}

type PriceTrackingConfig struct {
	Path            string      `json:"path"`
	Site            ListingSite `json:"site"`
	SearchTerm      string      `json:"search_term"`
	IntervalSeconds int         `json:"interval_seconds"`
}

type BackInStockConfig struct {
	Site               ListingSite `json:"site"`
	Keywords           []string    `json:"keywords"`
	MinIntervalSeconds int         `json:"min_interval_seconds"`
	MaxIntervalSeconds int         `json:"max_interval_seconds"`
}

type StockCheckConfig struct {
	Path               string         `json:"path"`
	Selectors          StockSelectors `json:"selectors"`
	ProbeTimeoutMillis int            `json:"probe_timeout_millis"`
	PageSettleMillis   int            `json:"page_settle_millis"`
	ResealedWaitMillis int            `json:"resealed_wait_millis"`
}

type ChallengeConfig struct {
	SiteURL        string `json:"site_url"`
	SpreadsheetURL string `json:"spreadsheet_url"`
}

// Config is handed to every task; nothing is read from package state.
type Config struct {
	OutputDir     string              `json:"output_dir"`
	SessionDir    string              `json:"session_dir"` // cookie files per site; empty keeps cookies in memory
	Currency      string              `json:"currency"`
	DateLayout    string              `json:"date_layout"`
	Browser       BrowserConfig       `json:"browser"`
	PriceTracking PriceTrackingConfig `json:"price_tracking"`
	BackInStock   BackInStockConfig   `json:"back_in_stock"`
	StockCheck    StockCheckConfig    `json:"stock_check"`
	Challenge     ChallengeConfig     `json:"challenge"`
}

func DefaultConfig() Config {
	outputDir := os.Getenv("ROBOT_ARTIFACTS")
	if outputDir == "" {
		outputDir = "output"
	}
	return Config{
		OutputDir:  outputDir,
		SessionDir: filepath.Join(outputDir, "sessions"),
		Currency:   DefaultCurrency,
		DateLayout: DefaultDateLayout,
		Browser: BrowserConfig{
			Headless: true,
		},
		PriceTracking: PriceTrackingConfig{
			Path:            filepath.Join(outputDir, "price_tracking.xlsx"),
			Site:            EmagSite,
			SearchTerm:      "iphone 15 pink 256GB",
			IntervalSeconds: 3600,
		},
		BackInStock: BackInStockConfig{
			Site:               EbaySite,
			Keywords:           []string{"bmw", "m7658"},
			MinIntervalSeconds: 1800,
			MaxIntervalSeconds: 3600,
		},
		StockCheck: StockCheckConfig{
			Path:               filepath.Join(outputDir, "products_data.xlsx"),
			Selectors:          AltexSelectors,
			ProbeTimeoutMillis: 5000,
			PageSettleMillis:   2000,
			ResealedWaitMillis: 1000,
		},
		Challenge: ChallengeConfig{
			SiteURL:        "https://rpachallenge.com/",
			SpreadsheetURL: "https://rpachallenge.com/assets/downloadFiles/challenge.xlsx",
		},
	}
}

func (config Config) Validate() error {
	if config.PriceTracking.IntervalSeconds < 0 {
		return fmt.Errorf("price_tracking.interval_seconds must not be negative")
	}
	if config.BackInStock.MaxIntervalSeconds < config.BackInStock.MinIntervalSeconds {
		return fmt.Errorf("back_in_stock: max_interval_seconds < min_interval_seconds")
	}
	return nil
}

func (config Config) ChromeOptions() NewChromeOptions {
	return NewChromeOptions{
		Headless:     config.Browser.Headless,
		NoSandbox:    config.Browser.NoSandbox,
		Timeout:      time.Duration(config.Browser.TimeoutSeconds) * time.Second,
		UserDataDir:  config.Browser.UserDataDir,
		DownloadPath: filepath.Join(config.OutputDir, "chrome"),
	}
}

func splitExt(f string) (string, string) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] == '.' {
			return f[0:i], f[i+1:]
		}
	}
	return f, ""
}

// ReadConfig reads a json5 configuration file over base, `name` should come
// with a file extension. Non-zero values of <name>.local.<ext> next to it
// override the result. os.ErrNotExist is returned when neither file exists.
func ReadConfig[T any](name string, base T) (T, error) {
	out := base
	allNotFound := true

	dirname := filepath.Dir(name)
	prefixname, ext := splitExt(filepath.Base(name))

	defaultFile, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(defaultFile) > 0 {
		if err := json5.Unmarshal(defaultFile, &out); err != nil {
			return out, fmt.Errorf("%v: %w", name, err)
		}
		allNotFound = false
	}

	localFilepath := filepath.Join(dirname, fmt.Sprintf("%s.local.%s", prefixname, ext))
	localFile, err := os.ReadFile(localFilepath)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(localFile) > 0 {
		var override T
		if err := json5.Unmarshal(localFile, &override); err != nil {
			return out, fmt.Errorf("%v: %w", localFilepath, err)
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return out, err
		}
		allNotFound = false
	}

	if allNotFound {
		return out, os.ErrNotExist
	}
	return out, nil
}

// LoadConfig reads the file at name over DefaultConfig. A missing file is not
// an error.
func LoadConfig(name string) (Config, error) {
	if name == "" {
		return DefaultConfig(), nil
	}
	config, err := ReadConfig(name, DefaultConfig())
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return config, err
	}
	return config, config.Validate()
}
