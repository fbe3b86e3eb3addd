package netatmo

import (
	"context"
	"log/slog"
	"math"
)

const (
	// temperatureTolerance is the difference below which a room is
	// considered already at the corrected temperature and no write is
	// issued.
	temperatureTolerance = 0.1

	// largeDifferenceThreshold triggers a warning: a correction this far
	// from the measured value usually means the wrong room or a typo.
	largeDifferenceThreshold = 10.0
)

// trueTemperatureRequest is the request body for the truetemperature
// endpoint. The vendor requires the currently measured value alongside
// the correction.
type trueTemperatureRequest struct {
	HomeID               string  `json:"home_id"`
	RoomID               string  `json:"room_id"`
	CurrentTemperature   float64 `json:"current_temperature"`
	CorrectedTemperature float64 `json:"corrected_temperature"`
}

// trueTemperatureResponse is the API envelope for the truetemperature
// endpoint.
type trueTemperatureResponse struct {
	Status     string `json:"status"`
	TimeServer int64  `json:"time_server"`
}

// TrueTemperatureResult reports the outcome of a temperature correction.
type TrueTemperatureResult struct {
	Status     string
	TimeServer int64

	// Skipped is true when the room was already within tolerance of the
	// corrected temperature and no write was issued.
	Skipped bool
}

// SetTrueTemperature calibrates a room's measured temperature to the
// given corrected value. Pass an empty homeID to use the default home.
//
// The room's currently measured temperature is read first; when it is
// already within 0.1°C of the correction the write is skipped and the
// result carries Skipped=true.
func (c *Client) SetTrueTemperature(ctx context.Context, roomID string, correctedTemperature float64, homeID string) (*TrueTemperatureResult, error) {
	if err := validateRoomID(roomID); err != nil {
		return nil, err
	}
	if err := validateTemperature(correctedTemperature, "corrected_temperature"); err != nil {
		return nil, err
	}
	if homeID != "" {
		if err := validateHomeID(homeID); err != nil {
			return nil, err
		}
	}

	if homeID == "" {
		id, err := c.DefaultHomeID(ctx)
		if err != nil {
			return nil, err
		}
		homeID = id
	}

	// Name lookup is logging-only; fall back to the ID when it fails.
	roomName := c.roomName(ctx, homeID, roomID)

	status, err := c.GetHomeStatus(ctx, homeID)
	if err != nil {
		return nil, err
	}

	var current *float64
	for _, room := range status.Rooms {
		if room.ID == roomID {
			current = room.ThermMeasuredTemperature
			break
		}
	}
	if current == nil {
		return nil, &RoomNotFoundError{RoomID: roomID}
	}

	diff := math.Abs(*current - correctedTemperature)
	if diff < temperatureTolerance {
		c.logInfo(ctx, "temperature_already_at_target",
			slog.String("room", roomName),
			slog.Float64("measured", *current),
		)
		return &TrueTemperatureResult{
			Status:     "ok",
			TimeServer: status.TimeServer,
			Skipped:    true,
		}, nil
	}

	if diff > largeDifferenceThreshold {
		c.logWarn(ctx, "large_temperature_difference",
			slog.String("room", roomName),
			slog.Float64("measured", *current),
			slog.Float64("corrected", correctedTemperature),
			slog.Float64("difference", diff),
		)
	}

	data, err := c.post(ctx, trueTemperaturePath, nil, &trueTemperatureRequest{
		HomeID:               homeID,
		RoomID:               roomID,
		CurrentTemperature:   *current,
		CorrectedTemperature: correctedTemperature,
	})
	if err != nil {
		return nil, err
	}

	resp, err := unmarshalResponse[trueTemperatureResponse](data, "true temperature response")
	if err != nil {
		return nil, err
	}

	c.logInfo(ctx, "temperature_corrected",
		slog.String("room", roomName),
		slog.Float64("measured", *current),
		slog.Float64("corrected", correctedTemperature),
	)

	return &TrueTemperatureResult{Status: resp.Status, TimeServer: resp.TimeServer}, nil
}

func (c *Client) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if c.logger == nil {
		return
	}
	c.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}
