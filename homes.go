package netatmo

import (
	"context"
	"net/url"
	"strings"
)

const (
	homesDataPath       = "/api/homesdata"
	homeStatusPath      = "/api/homestatus"
	trueTemperaturePath = "/api/truetemperature"
)

// Room is the static metadata for a room as reported by homesdata.
type Room struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Home represents a home and its rooms as reported by homesdata.
type Home struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Rooms []Room `json:"rooms,omitempty"`
}

// HomesData is the parsed payload of the homesdata endpoint.
type HomesData struct {
	Homes      []Home
	TimeServer int64
}

// homesDataResponse is the API envelope for the homesdata endpoint.
type homesDataResponse struct {
	Body struct {
		Homes []Home `json:"homes"`
	} `json:"body"`
	Status     string `json:"status"`
	TimeServer int64  `json:"time_server"`
}

// RoomStatus is the live state of a room as reported by homestatus.
// Temperatures are pointers because the API omits them for rooms
// without a thermostat.
type RoomStatus struct {
	ID                       string   `json:"id"`
	ThermMeasuredTemperature *float64 `json:"therm_measured_temperature,omitempty"`
	ThermSetpointTemperature *float64 `json:"therm_setpoint_temperature,omitempty"`
}

// HomeStatus is the parsed payload of the homestatus endpoint.
type HomeStatus struct {
	ID         string
	Rooms      []RoomStatus
	TimeServer int64
}

// homeStatusResponse is the API envelope for the homestatus endpoint.
type homeStatusResponse struct {
	Body struct {
		Home struct {
			ID    string       `json:"id"`
			Rooms []RoomStatus `json:"rooms"`
		} `json:"home"`
	} `json:"body"`
	Status     string `json:"status"`
	TimeServer int64  `json:"time_server"`
}

// ThermostatRoom joins a room's homesdata metadata with its homestatus
// temperatures.
type ThermostatRoom struct {
	ID                  string
	Name                string
	MeasuredTemperature *float64
	SetpointTemperature *float64
}

// GetHomesData returns the homes and rooms attached to the account.
// Pass an empty homeID to fetch all homes.
func (c *Client) GetHomesData(ctx context.Context, homeID string) (*HomesData, error) {
	var query url.Values
	if homeID != "" {
		query = url.Values{"home_id": {homeID}}
	}

	data, err := c.get(ctx, homesDataPath, query)
	if err != nil {
		return nil, err
	}

	resp, err := unmarshalResponse[homesDataResponse](data, "homes data")
	if err != nil {
		return nil, err
	}

	return &HomesData{Homes: resp.Body.Homes, TimeServer: resp.TimeServer}, nil
}

// GetHomeStatus returns the live state of a home, including room
// temperatures.
func (c *Client) GetHomeStatus(ctx context.Context, homeID string) (*HomeStatus, error) {
	if strings.TrimSpace(homeID) == "" {
		return nil, ErrEmptyHomeID
	}

	data, err := c.get(ctx, homeStatusPath, url.Values{"home_id": {homeID}})
	if err != nil {
		return nil, err
	}

	resp, err := unmarshalResponse[homeStatusResponse](data, "home status")
	if err != nil {
		return nil, err
	}

	return &HomeStatus{
		ID:         resp.Body.Home.ID,
		Rooms:      resp.Body.Home.Rooms,
		TimeServer: resp.TimeServer,
	}, nil
}

// DefaultHomeID returns the ID of the account's first home.
func (c *Client) DefaultHomeID(ctx context.Context) (string, error) {
	homes, err := c.GetHomesData(ctx, "")
	if err != nil {
		return "", err
	}

	if len(homes.Homes) == 0 {
		return "", &HomeNotFoundError{}
	}

	return homes.Homes[0].ID, nil
}

// ListThermostatRooms returns every room in the home with its name and
// current temperatures. Pass an empty homeID to use the default home.
func (c *Client) ListThermostatRooms(ctx context.Context, homeID string) ([]ThermostatRoom, error) {
	if homeID == "" {
		id, err := c.DefaultHomeID(ctx)
		if err != nil {
			return nil, err
		}
		homeID = id
	}

	homes, err := c.GetHomesData(ctx, homeID)
	if err != nil {
		return nil, err
	}

	status, err := c.GetHomeStatus(ctx, homeID)
	if err != nil {
		return nil, err
	}

	statusByID := make(map[string]RoomStatus, len(status.Rooms))
	for _, rs := range status.Rooms {
		statusByID[rs.ID] = rs
	}

	var rooms []ThermostatRoom
	for _, home := range homes.Homes {
		if home.ID != homeID {
			continue
		}
		for _, room := range home.Rooms {
			tr := ThermostatRoom{ID: room.ID, Name: room.Name}
			if rs, ok := statusByID[room.ID]; ok {
				tr.MeasuredTemperature = rs.ThermMeasuredTemperature
				tr.SetpointTemperature = rs.ThermSetpointTemperature
			}
			rooms = append(rooms, tr)
		}
	}

	return rooms, nil
}

// FindRoomByName resolves a room by case-insensitive name match.
// Pass an empty homeID to search the default home.
func (c *Client) FindRoomByName(ctx context.Context, name, homeID string) (*Room, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyRoomName
	}

	homes, err := c.GetHomesData(ctx, homeID)
	if err != nil {
		return nil, err
	}

	for _, home := range homes.Homes {
		if homeID != "" && home.ID != homeID {
			continue
		}
		for _, room := range home.Rooms {
			if strings.EqualFold(room.Name, name) {
				r := room
				return &r, nil
			}
		}
	}

	return nil, &RoomNotFoundError{RoomID: name}
}

// roomName returns the display name for a room, falling back to its ID
// when the lookup fails. Used only for logging.
func (c *Client) roomName(ctx context.Context, homeID, roomID string) string {
	homes, err := c.GetHomesData(ctx, homeID)
	if err != nil {
		return roomID
	}

	for _, home := range homes.Homes {
		if home.ID != homeID {
			continue
		}
		for _, room := range home.Rooms {
			if room.ID == roomID {
				return room.Name
			}
		}
	}

	return roomID
}
