// Package config loads and validates the filter's YAML service
// configuration.
//
// The service configuration is distinct from the workflow document: the
// former selects paths, logging, metrics, and retention behavior, while
// the latter is the JSON node/connection graph evaluated per message
// and handled by the workflow package.
//
// A missing configuration file yields working defaults: the filter
// must behave sensibly when invoked by an MTA on a box where nothing
// has been configured yet. Environment variables of the form
// MAILFLOW_SECTION_FIELD override file values.
package config
