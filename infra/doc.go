// Package infra contains technical adapters: the solver backend, solution
// storage, metrics exporters, the MQTT notifier, Sentry monitoring and the
// shapefile export. These packages depend only on the interfaces defined
// in the core packages.
package infra
