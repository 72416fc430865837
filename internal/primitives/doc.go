// Package primitives defines the declarative form of a model: plain data
// that is read from YAML or JSON, validated and hashed before the loader
// turns it into an hsm.Model, plus the Event trigger declarative models react
// to.
//
// Paths follow the model's qualified names. A state's children live in its
// default region and are addressed as "parent.child"; states of a named
// region are addressed as "parent.region.child".
package primitives
