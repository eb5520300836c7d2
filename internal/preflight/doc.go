// Package preflight provides readiness checks for the filesystem paths and
// external engine that bnptool depends on.
//
// The doctor command runs RunAll and renders each Result as a table row.
// Checks never return errors; failures are described in Result.Detail.
package preflight
