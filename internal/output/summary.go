package output

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/scan-io-git/skims/internal/cache"
	"github.com/scan-io-git/skims/internal/finding"
	"github.com/scan-io-git/skims/internal/scanner"
)

// WriteSummary renders the counts of a run and the vulnerabilities per
// finding as tables.
func WriteSummary(w io.Writer, s scanner.Summary) {
	counts := tablewriter.NewWriter(w)
	counts.SetHeader([]string{"Run", "Value"})
	counts.SetAutoFormatHeaders(false)
	counts.SetAutoWrapText(false)
	counts.AppendBulk([][]string{
		{"id", s.RunID},
		{"status", s.Status},
		{"files discovered", strconv.FormatInt(s.Discovered, 10)},
		{"files parsed", strconv.FormatInt(s.Parsed, 10)},
		{"files from cache", strconv.FormatInt(s.Cached, 10)},
		{"files skipped", strconv.FormatInt(s.Skipped, 10)},
		{"files failed", strconv.FormatInt(s.Failed, 10)},
		{"detector runs", fmt.Sprintf("%d (%d cached)", s.DetectorRuns+s.DetectorCached, s.DetectorCached)},
		{"detector failures", strconv.FormatInt(s.DetectorFailures, 10)},
		{"vulnerabilities", strconv.Itoa(s.Vulnerabilities)},
		{"duration", s.Duration.Round(time.Millisecond).String()},
	})
	counts.Render()

	if len(s.Findings) == 0 {
		return
	}
	ids := lo.Keys(s.Findings)
	slices.Sort(ids)

	perFinding := tablewriter.NewWriter(w)
	perFinding.SetHeader([]string{"Finding", "Vulnerabilities"})
	perFinding.SetAutoFormatHeaders(false)
	perFinding.SetAutoWrapText(false)
	for _, id := range ids {
		perFinding.Append([]string{finding.MustGet(id).Label(), strconv.Itoa(s.Findings[id])})
	}
	perFinding.Render()
}

// WriteCatalog renders the finding catalog.
func WriteCatalog(w io.Writer, findings []finding.Finding) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Title", "CWE", "Severity"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	for _, f := range findings {
		table.Append([]string{string(f.ID), f.Title, strings.Join(f.CWEs(), ", "), string(f.Severity)})
	}
	table.Render()
}

// WriteCacheStats renders the cache entries per namespace with a total row.
func WriteCacheStats(w io.Writer, stats []cache.NamespaceStats) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Namespace", "Entries", "Bytes"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	var entries int
	var size int64
	for _, ns := range stats {
		table.Append([]string{ns.Namespace, strconv.Itoa(ns.Entries), strconv.FormatInt(ns.Bytes, 10)})
		entries += ns.Entries
		size += ns.Bytes
	}
	table.SetFooter([]string{"total", strconv.Itoa(entries), strconv.FormatInt(size, 10)})
	table.Render()
}
