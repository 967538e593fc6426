package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

type fileCatalog struct {
	Products []fileProduct `yaml:"products"`
	Addons   []fileAddon   `yaml:"addons"`
}

type fileProduct struct {
	ID            string              `yaml:"id"`
	BillingID     string              `yaml:"billing_id"`
	Name          string              `yaml:"name"`
	Specs         Specs               `yaml:"specs"`
	Pricing       map[string]string   `yaml:"pricing"`
	Addons        []string            `yaml:"addons"`
	ConfigOptions map[string][]string `yaml:"config_options"`
}

type fileAddon struct {
	ID        string `yaml:"id"`
	BillingID string `yaml:"billing_id"`
	Name      string `yaml:"name"`
	Price     string `yaml:"price"`
}

// Open loads the catalog at path, or the embedded default when path is empty.
func Open(path string) (*Catalog, error) {
	table, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	c := New(table)
	c.path = path
	return c, nil
}

// LoadFile reads a YAML catalog from disk, or the embedded default.
func LoadFile(path string) (*Table, error) {
	if strings.TrimSpace(path) == "" {
		return Parse(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, fmt.Sprintf("read catalog %s", path))
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Table, error) {
	var file fileCatalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "decode catalog")
	}

	addons := make([]Addon, 0, len(file.Addons))
	for _, a := range file.Addons {
		price, err := parseAmount(a.Price)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, fmt.Sprintf("addon %s price", a.ID))
		}
		addons = append(addons, Addon{ID: a.ID, BillingID: a.BillingID, Name: a.Name, Price: price})
	}

	products := make([]Product, 0, len(file.Products))
	for _, p := range file.Products {
		pricing, err := parsePricing(p.Pricing)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, fmt.Sprintf("product %s pricing", p.ID))
		}
		addonIDs := p.Addons
		if addonIDs == nil {
			addonIDs = []string{}
		}
		products = append(products, Product{
			ID:            p.ID,
			BillingID:     p.BillingID,
			Name:          p.Name,
			Specs:         p.Specs,
			Pricing:       pricing,
			AddonIDs:      addonIDs,
			ConfigOptions: p.ConfigOptions,
		})
	}
	return newTable(products, addons)
}

func parsePricing(raw map[string]string) (Pricing, error) {
	var pricing Pricing
	for key, value := range raw {
		cycle, err := ParseCycle(key)
		if err != nil {
			return Pricing{}, err
		}
		amount, err := parseAmount(value)
		if err != nil {
			return Pricing{}, err
		}
		switch cycle {
		case CycleMonthly:
			pricing.Monthly = amount
		case CycleQuarterly:
			pricing.Quarterly = amount
		case CycleSemiannually:
			pricing.Semiannually = amount
		case CycleAnnually:
			pricing.Annually = amount
		}
	}
	return pricing, nil
}

func parseAmount(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value)
}

// Refresh reloads the backing file and swaps the table. Concurrent refreshes
// share one load. The served table is untouched when loading fails.
func (c *Catalog) Refresh(ctx context.Context) (int, error) {
	ch := c.reload.DoChan("refresh", func() (any, error) {
		table, err := LoadFile(c.path)
		if err != nil {
			return nil, err
		}
		c.Replace(table)
		return table.Size(), nil
	})
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(int), nil
	}
}
