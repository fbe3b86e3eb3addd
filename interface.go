package netatmo

import (
	"context"
)

// NetatmoClient defines the interface for Netatmo API operations.
// Client implements this interface, enabling mocking for tests.
type NetatmoClient interface {
	// Home operations
	GetHomesData(ctx context.Context, homeID string) (*HomesData, error)
	GetHomeStatus(ctx context.Context, homeID string) (*HomeStatus, error)
	DefaultHomeID(ctx context.Context) (string, error)
	ListThermostatRooms(ctx context.Context, homeID string) ([]ThermostatRoom, error)
	FindRoomByName(ctx context.Context, name, homeID string) (*Room, error)

	// Thermostat operations
	SetTrueTemperature(ctx context.Context, roomID string, correctedTemperature float64, homeID string) (*TrueTemperatureResult, error)
}

// Compile-time check that Client implements NetatmoClient.
var _ NetatmoClient = (*Client)(nil)

// Compile-time check that Authenticator implements CredentialSource.
var _ CredentialSource = (*Authenticator)(nil)
