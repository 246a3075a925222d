// Package pageflow fetches a stream of URLs and turns every fetched page into
// a structured record holding its title, description and timestamp. Network
// and parsing work is bounded by a two-stage pipeline with backpressure.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., http/, goquery/, sqlite/).
package pageflow

// Version is the client label version reported by the default user agent.
const Version = "0.1.0"

// DefaultUserAgent identifies pageflow to the servers it fetches from.
const DefaultUserAgent = "pageflow/" + Version
