package web3

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

//go:embed networks.yaml
var builtinNetworks []byte

// NetworkProfile fixes the three contract addresses the tools rely on for a
// given network. Profiles are immutable once selected.
type NetworkProfile struct {
	Name          string
	Description   string
	WrappedNative common.Address
	SwapRouter    common.Address
	PriceFeed     common.Address
}

// networkDefinitions models the structure of networks.yaml.
type networkDefinitions struct {
	Networks map[string]networkDefinition `yaml:"networks"`
}

type networkDefinition struct {
	Description   string `yaml:"description"`
	WrappedNative string `yaml:"wrapped_native"`
	SwapRouter    string `yaml:"swap_router"`
	PriceFeed     string `yaml:"price_feed"`
}

// NetworkTable is the set of known profiles keyed by lower-case name.
type NetworkTable map[string]NetworkProfile

// LoadNetworkTable parses the built-in profile table and, when path is not
// empty, merges the profiles defined in that YAML file over it.
func LoadNetworkTable(path string) (NetworkTable, error) {
	table := NetworkTable{}
	if err := table.merge(builtinNetworks, "builtin"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(path) == "" {
		return table, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取网络配置失败: %w", err)
	}
	if err := table.merge(content, path); err != nil {
		return nil, err
	}
	return table, nil
}

func (t NetworkTable) merge(content []byte, source string) error {
	var defs networkDefinitions
	if err := yaml.Unmarshal(content, &defs); err != nil {
		return fmt.Errorf("解析网络配置 %s 失败: %w", source, err)
	}
	for name, def := range defs.Networks {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			return fmt.Errorf("网络配置 %s 含有空名称", source)
		}
		profile := NetworkProfile{Name: key, Description: def.Description}
		for _, field := range []struct {
			label string
			raw   string
			dst   *common.Address
		}{
			{"wrapped_native", def.WrappedNative, &profile.WrappedNative},
			{"swap_router", def.SwapRouter, &profile.SwapRouter},
			{"price_feed", def.PriceFeed, &profile.PriceFeed},
		} {
			if !common.IsHexAddress(field.raw) {
				return fmt.Errorf("网络 %s 的 %s 地址非法: %q", key, field.label, field.raw)
			}
			*field.dst = common.HexToAddress(field.raw)
		}
		t[key] = profile
	}
	return nil
}

// Profile returns the profile registered under name (case-insensitive).
func (t NetworkTable) Profile(name string) (NetworkProfile, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	profile, ok := t[key]
	if !ok {
		return NetworkProfile{}, fmt.Errorf("不支持的网络: %s（已知: %s）", name, strings.Join(t.Names(), ", "))
	}
	return profile, nil
}

// Names returns the sorted list of known network names.
func (t NetworkTable) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
