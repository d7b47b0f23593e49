// Package config loads and validates the booking-gateway YAML configuration.
package config
