// Package logging builds the slog loggers used throughout reelsync: a
// console handler that renders "TIME LEVEL component: msg key=value" lines
// and a JSON handler for machine consumption, both selected and leveled
// from configuration.
package logging
