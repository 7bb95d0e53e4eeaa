// Package diff compares two resource states and classifies the difference.
// Pure functions, no I/O.
package diff

import (
	"math"

	"github.com/adwatchhq/adwatch/internal/change/domain"
	"github.com/adwatchhq/adwatch/internal/platform"
	"github.com/adwatchhq/adwatch/internal/snapshot"
)

// Result is the structured classification of one comparison.
type Result struct {
	HasChanges  bool
	ChangeType  domain.ChangeType
	Severity    domain.Severity
	Diff        map[string]domain.FieldDiff
	BeforeValue platform.ResourceState
	AfterValue  platform.ResourceState
}

// Budget changes beyond these percentages escalate severity.
const (
	budgetWarningPct  = 20.0
	budgetCriticalPct = 50.0
)

// Compare diffs a previous state against a current one. Nil before means the
// resource is new; nil after means it vanished.
func Compare(before, after platform.ResourceState) Result {
	switch {
	case before == nil && after != nil:
		return Result{
			HasChanges: true,
			ChangeType: domain.ChangeTypeCreated,
			Severity:   domain.SeverityInfo,
			Diff:       map[string]domain.FieldDiff{},
			AfterValue: after,
		}
	case before != nil && after == nil:
		return Result{
			HasChanges:  true,
			ChangeType:  domain.ChangeTypeDeleted,
			Severity:    domain.SeverityWarning,
			Diff:        map[string]domain.FieldDiff{},
			BeforeValue: before,
		}
	case before == nil && after == nil:
		return Result{
			ChangeType: domain.ChangeTypeUpdated,
			Severity:   domain.SeverityInfo,
			Diff:       map[string]domain.FieldDiff{},
		}
	}

	fieldDiffs := fieldsChanged(before, after)
	if len(fieldDiffs) == 0 {
		return Result{
			ChangeType:  domain.ChangeTypeUpdated,
			Severity:    domain.SeverityInfo,
			Diff:        fieldDiffs,
			BeforeValue: before,
			AfterValue:  after,
		}
	}

	result := Result{
		HasChanges:  true,
		ChangeType:  domain.ChangeTypeUpdated,
		Severity:    domain.SeverityInfo,
		Diff:        fieldDiffs,
		BeforeValue: before,
		AfterValue:  after,
	}
	classifyStatus(&result, before, after)
	classifyBudget(&result, before, after)
	classifyTargeting(&result)
	return result
}

func fieldsChanged(before, after platform.ResourceState) map[string]domain.FieldDiff {
	diffs := make(map[string]domain.FieldDiff)
	for key, oldValue := range before {
		newValue, present := after[key]
		if !present {
			diffs[key] = domain.FieldDiff{Before: oldValue, After: nil}
			continue
		}
		if !Equal(oldValue, newValue) {
			diffs[key] = domain.FieldDiff{Before: oldValue, After: newValue}
		}
	}
	for key, newValue := range after {
		if _, present := before[key]; !present {
			diffs[key] = domain.FieldDiff{Before: nil, After: newValue}
		}
	}
	return diffs
}

// Equal reports order-independent deep structural equality via canonical
// serialization. Numeric values compare by value, so int 100 equals float64
// 100 but not the string "100".
func Equal(a, b any) bool {
	return snapshot.Canonical(normalize(a)) == snapshot.Canonical(normalize(b))
}

func normalize(value any) any {
	switch typed := value.(type) {
	case int:
		return float64(typed)
	case int32:
		return float64(typed)
	case int64:
		return float64(typed)
	case float32:
		return float64(typed)
	}
	return value
}

func classifyStatus(result *Result, before, after platform.ResourceState) {
	if _, changed := result.Diff["status"]; !changed {
		return
	}

	oldStatus := before.Status()
	newStatus := after.Status()
	switch {
	case isPausedStatus(newStatus):
		result.ChangeType = domain.ChangeTypePaused
		result.Severity = result.Severity.Max(domain.SeverityWarning)
	case isPausedStatus(oldStatus) && isActiveStatus(newStatus):
		result.ChangeType = domain.ChangeTypeResumed
	}
}

func classifyBudget(result *Result, before, after platform.ResourceState) {
	if _, changed := result.Diff["budget"]; !changed {
		return
	}

	oldBudget, oldOK := before.Budget()
	newBudget, newOK := after.Budget()
	if !oldOK || !newOK {
		return
	}

	if oldBudget == 0 {
		// Percent change from zero is undefined; any move away from an
		// empty budget is treated as maximal.
		if newBudget != 0 {
			result.Severity = result.Severity.Max(domain.SeverityCritical)
		}
		return
	}

	pct := math.Abs(newBudget-oldBudget) / math.Abs(oldBudget) * 100
	switch {
	case pct > budgetCriticalPct:
		result.Severity = result.Severity.Max(domain.SeverityCritical)
	case pct > budgetWarningPct:
		result.Severity = result.Severity.Max(domain.SeverityWarning)
	}
}

func classifyTargeting(result *Result) {
	if _, changed := result.Diff["targeting"]; !changed {
		return
	}
	result.Severity = result.Severity.Max(domain.SeverityWarning)
}

func isPausedStatus(status string) bool {
	return status == "paused" || status == "disabled"
}

func isActiveStatus(status string) bool {
	return status == "active" || status == "enabled"
}
