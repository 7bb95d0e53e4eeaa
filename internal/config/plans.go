package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Plan describes the quota limits attached to a billing tier.
type Plan struct {
	Code                    string `mapstructure:"code"`
	Name                    string `mapstructure:"name"`
	MaxAdAccounts           int64  `mapstructure:"maxAdAccounts"`
	MaxSeats                int64  `mapstructure:"maxSeats"`
	MaxChangeEventsPerMonth int64  `mapstructure:"maxChangeEventsPerMonth"`
}

// PlanCatalog is the full set of sellable tiers.
type PlanCatalog struct {
	Plans []Plan `mapstructure:"plans"`
}

// TrialPlanCode is the fallback tier applied when an organization has no
// active subscription.
const TrialPlanCode = "trial"

func DefaultPlanCatalog() PlanCatalog {
	return PlanCatalog{
		Plans: []Plan{
			{Code: TrialPlanCode, Name: "Trial", MaxAdAccounts: 1, MaxSeats: 2, MaxChangeEventsPerMonth: 500},
			{Code: "starter", Name: "Starter", MaxAdAccounts: 3, MaxSeats: 5, MaxChangeEventsPerMonth: 5_000},
			{Code: "growth", Name: "Growth", MaxAdAccounts: 10, MaxSeats: 15, MaxChangeEventsPerMonth: 50_000},
		},
	}
}

// PlanCatalogHolder keeps the active catalog and hot-reloads it when the
// backing plans.yml changes.
type PlanCatalogHolder struct {
	current atomic.Value // holds PlanCatalog
}

func NewPlanCatalogHolder() (*PlanCatalogHolder, error) {
	v := viper.New()

	v.SetConfigName("plans")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/adwatch/config") // Volume-mounted config
	v.AddConfigPath("/etc/adwatch")            // System config
	v.AddConfigPath(".")                       // Current directory (dev mode)

	v.SetEnvPrefix("ADWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultPlanCatalog()
		v.SetDefault("plans", defaults.Plans)
	}

	var catalog PlanCatalog
	if err := v.UnmarshalKey("plans", &catalog.Plans); err != nil {
		return nil, err
	}
	if len(catalog.Plans) == 0 {
		catalog = DefaultPlanCatalog()
	}
	if err := validatePlanCatalog(catalog); err != nil {
		return nil, err
	}

	holder := &PlanCatalogHolder{}
	holder.current.Store(catalog)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		// Reload fires after startup, so the process-global logger is live.
		log := zap.L().Named("plan-catalog")
		var updated PlanCatalog
		if err := v.UnmarshalKey("plans", &updated.Plans); err != nil {
			log.Error("reload failed", zap.Error(err))
			return
		}
		if err := validatePlanCatalog(updated); err != nil {
			log.Warn("invalid catalog ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("catalog reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// NewStaticPlanCatalogHolder wraps a fixed catalog, bypassing file watching.
func NewStaticPlanCatalogHolder(catalog PlanCatalog) (*PlanCatalogHolder, error) {
	if err := validatePlanCatalog(catalog); err != nil {
		return nil, err
	}
	holder := &PlanCatalogHolder{}
	holder.current.Store(catalog)
	return holder, nil
}

// Current returns the active catalog.
func (h *PlanCatalogHolder) Current() PlanCatalog {
	return h.current.Load().(PlanCatalog)
}

// Resolve returns the plan for a code, falling back to the trial tier for
// unknown or empty codes.
func (h *PlanCatalogHolder) Resolve(code string) Plan {
	catalog := h.Current()
	code = strings.ToLower(strings.TrimSpace(code))
	for _, plan := range catalog.Plans {
		if plan.Code == code {
			return plan
		}
	}
	for _, plan := range catalog.Plans {
		if plan.Code == TrialPlanCode {
			return plan
		}
	}
	return DefaultPlanCatalog().Plans[0]
}

func validatePlanCatalog(catalog PlanCatalog) error {
	if len(catalog.Plans) == 0 {
		return errors.New("plan catalog must define at least one plan")
	}
	seen := make(map[string]bool, len(catalog.Plans))
	hasTrial := false
	for _, plan := range catalog.Plans {
		code := strings.ToLower(strings.TrimSpace(plan.Code))
		if code == "" {
			return errors.New("plan code must not be empty")
		}
		if seen[code] {
			return errors.New("duplicate plan code: " + code)
		}
		seen[code] = true
		if code == TrialPlanCode {
			hasTrial = true
		}
		if plan.MaxAdAccounts < 0 || plan.MaxSeats < 0 || plan.MaxChangeEventsPerMonth < 0 {
			return errors.New("plan limits must not be negative: " + code)
		}
	}
	if !hasTrial {
		return errors.New("plan catalog must include the trial tier")
	}
	return nil
}
