// Package filter narrows already-fetched pages with simple record predicates.
// They work around table API queries that do not honour every condition of
// their sysparm_query.
package filter

import (
	"slices"
	"strings"

	"github.com/Sternrassler/servicenow-client/pkg/logging"
	"github.com/Sternrassler/servicenow-client/pkg/record"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

var recordsSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "servicenow_records_skipped_total",
	Help: "Total records dropped by a filter policy",
}, []string{"filter"})

// Filter names used in logs and metrics.
const (
	NameHardwareStatus = "hardware_status"
	NameInUsePhysical  = "in_use_physical"
)

// StatusInUse is the default hardware status allow-set member.
const StatusInUse = "In Use"

// Func transforms a page into a filtered page. Extra arguments are bound by
// closure (see ByHardwareStatus).
type Func func(page *record.Page) *record.Page

// HardwareStatus keeps records whose child.hardware_status is one of
// statuses (exact, case-sensitive). The input page is not modified.
//
// An empty allow-set, whether omitted, nil or an explicit empty slice, means
// {"In Use"}; there is no way to request "keep nothing". To drop every record
// pass a status no record carries.
func HardwareStatus(page *record.Page, statuses ...string) *record.Page {
	if len(statuses) == 0 {
		statuses = []string{StatusInUse}
	}

	kept := make([]record.Record, 0, page.Len())
	for _, rec := range pageRecords(page) {
		status := rec.String(record.FieldHardwareStatus)
		if !slices.Contains(statuses, status) {
			log.Debug().
				Str("component", logging.ComponentFilter).
				Str("child", rec.String(record.FieldChild)).
				Str("hardware_status", status).
				Strs("allowed", statuses).
				Msg("Skipping record: hardware status not allowed")
			recordsSkippedTotal.WithLabelValues(NameHardwareStatus).Inc()
			continue
		}
		kept = append(kept, rec)
	}
	return record.WithResult(kept)
}

// ByHardwareStatus binds statuses to HardwareStatus. An empty allow-set
// selects {"In Use"} as in HardwareStatus.
func ByHardwareStatus(statuses ...string) Func {
	allowed := slices.Clone(statuses)
	return func(page *record.Page) *record.Page {
		return HardwareStatus(page, allowed...)
	}
}

// PhysicalServersInUse keeps records whose child.hardware_status is "in use"
// and whose child.virtual is "false", both compared case-insensitively.
// The input page is not modified.
func PhysicalServersInUse(page *record.Page) *record.Page {
	kept := make([]record.Record, 0, page.Len())
	for _, rec := range pageRecords(page) {
		status := rec.String(record.FieldHardwareStatus)
		if strings.ToLower(status) != "in use" {
			log.Debug().
				Str("component", logging.ComponentFilter).
				Str("child", rec.String(record.FieldChild)).
				Str("hardware_status", status).
				Msg("Skipping record: hardware status not \"In Use\"")
			recordsSkippedTotal.WithLabelValues(NameInUsePhysical).Inc()
			continue
		}

		virtual := rec.String(record.FieldVirtual)
		if strings.ToLower(virtual) != "false" {
			log.Debug().
				Str("component", logging.ComponentFilter).
				Str("child", rec.String(record.FieldChild)).
				Str("virtual", virtual).
				Msg("Skipping record: virtual not \"false\"")
			recordsSkippedTotal.WithLabelValues(NameInUsePhysical).Inc()
			continue
		}
		kept = append(kept, rec)
	}
	return record.WithResult(kept)
}

// InUsePhysical is PhysicalServersInUse as a Func.
var InUsePhysical Func = PhysicalServersInUse

func pageRecords(page *record.Page) []record.Record {
	if page == nil {
		return nil
	}
	return page.Result
}
