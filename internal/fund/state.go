package fund

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"NavSentinel/internal/model"
)

// DefaultFunds is the reference data written when no funds file exists.
var DefaultFunds = []model.FundRecord{
	{Company: "Axis Mutual Fund", Fund: "Axis Arbitrage Fund - Regular plan", ProviderFundID: "53", ProviderSchemeID: "130771"},
	{Company: "ITI Mutual fund", Fund: "ITI Dynamic Bond Fund - Direct plan", ProviderFundID: "70", ProviderSchemeID: "149029"},
}

type fundsFile struct {
	Funds []model.FundRecord `yaml:"funds"`
}

// LoadFunds reads the funds file. ok is false if the file doesn't exist.
func LoadFunds(path string) (funds []model.FundRecord, ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var f fundsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, false, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := validateFunds(f.Funds); err != nil {
		return nil, false, fmt.Errorf("%s: %w", path, err)
	}
	return f.Funds, true, nil
}

// SaveFunds writes funds to path, creating the directory if needed.
func SaveFunds(path string, funds []model.FundRecord) error {
	data, err := yaml.Marshal(fundsFile{Funds: funds})
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func validateFunds(funds []model.FundRecord) error {
	seen := make(map[string]struct{}, len(funds))
	for i, f := range funds {
		if f.Fund == "" || f.ProviderFundID == "" || f.ProviderSchemeID == "" {
			return fmt.Errorf("fund #%d: fund, mf_id and sc_id are required", i+1)
		}
		if _, dup := seen[f.Fund]; dup {
			return fmt.Errorf("duplicate fund name %q", f.Fund)
		}
		seen[f.Fund] = struct{}{}
	}
	return nil
}
