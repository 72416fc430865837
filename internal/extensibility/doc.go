// Package extensibility holds the pluggable pieces documents are compiled
// against: named guard and action registries, expression guards over event
// payloads, and event sources that feed a running machine.
package extensibility
