// Package internaldefs holds the shared counter definitions used by the
// exporter packages. It exists so the prometheus and otel exporters render
// identical metric names and help strings without duplicating tables.
package internaldefs
