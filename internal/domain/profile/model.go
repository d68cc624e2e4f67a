package profile

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ProfileType is the intent a user declares on the selection screen.
type ProfileType string

const (
	Commuter ProfileType = "commuter"
	Tourist  ProfileType = "tourist"
	Driver   ProfileType = "driver"
)

// VehicleType refines the driver profile.
type VehicleType string

const (
	VehicleEV   VehicleType = "ev"
	VehicleCar  VehicleType = "car"
	VehicleBike VehicleType = "bike"
)

// MapKind selects between marker pins and severity circles.
type MapKind string

const (
	MapPins    MapKind = "pins"
	MapHeatmap MapKind = "heatmap"
)

// ChartKind is kept open: unknown kinds survive decoding so the renderer can fail closed.
type ChartKind string

const (
	ChartBar  ChartKind = "bar"
	ChartLine ChartKind = "line"
	ChartPie  ChartKind = "pie"
	ChartArea ChartKind = "area"
)

// Severity is the explicit heatmap tier. Empty means "derive from the label".
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Coordinate is a WGS84 lat/lng pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Request describes one profile query.
type Request struct {
	ProfileType ProfileType `json:"profile_type"`
	VehicleType VehicleType `json:"vehicle_type,omitempty"`
	Location    *Coordinate `json:"location,omitempty"`
}

// Response is the rendering payload returned by the backend.
type Response struct {
	Message *string  `json:"message,omitempty"`
	Map     *MapSpec `json:"map,omitempty"`
	Charts  []Chart  `json:"charts"`
	Stats   []Stat   `json:"stats"`
}

// MapSpec lists the points to draw and how.
type MapSpec struct {
	Kind   MapKind    `json:"type"`
	Points []MapPoint `json:"data"`
}

// MapPoint is one pin or heat circle.
type MapPoint struct {
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Label    string   `json:"label"`
	Severity Severity `json:"severity,omitempty"`
}

// Chart is a titled series drawn with one of the chart kinds.
type Chart struct {
	Kind   ChartKind    `json:"type"`
	Title  string       `json:"title"`
	Points []ChartPoint `json:"data"`
}

// ChartPoint is a labelled value.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Unit  *string `json:"unit,omitempty"`
}

// Stat is a pre-formatted key figure.
type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ParseProfileType validates raw user input.
func ParseProfileType(raw string) (ProfileType, error) {
	switch t := ProfileType(strings.ToLower(strings.TrimSpace(raw))); t {
	case Commuter, Tourist, Driver:
		return t, nil
	default:
		return "", fmt.Errorf("invalid profile type %q: must be commuter, tourist or driver", raw)
	}
}

// ParseVehicleType validates raw user input.
func ParseVehicleType(raw string) (VehicleType, error) {
	switch v := VehicleType(strings.ToLower(strings.TrimSpace(raw))); v {
	case VehicleEV, VehicleCar, VehicleBike:
		return v, nil
	default:
		return "", fmt.Errorf("invalid vehicle type %q: must be ev, car or bike", raw)
	}
}

// Validate enforces that a vehicle type accompanies exactly the driver profile.
func (r Request) Validate() error {
	if _, err := ParseProfileType(string(r.ProfileType)); err != nil {
		return err
	}
	if r.ProfileType == Driver {
		if r.VehicleType == "" {
			return fmt.Errorf("vehicle type is required for driver profile")
		}
		if _, err := ParseVehicleType(string(r.VehicleType)); err != nil {
			return err
		}
		return nil
	}
	if r.VehicleType != "" {
		return fmt.Errorf("vehicle type is only valid for driver profile")
	}
	return nil
}

var vehicleLabels = map[VehicleType]string{
	VehicleEV:   "Electric Vehicle",
	VehicleCar:  "Car",
	VehicleBike: "Bike",
}

var profileLabels = map[ProfileType]string{
	Commuter: "Commuter",
	Tourist:  "Tourist",
	Driver:   "Driver",
}

// Title is the heading shown above a profile dashboard.
func (r Request) Title() string {
	if r.ProfileType == Driver {
		if label, ok := vehicleLabels[r.VehicleType]; ok {
			return label + " Driver"
		}
	}
	if label, ok := profileLabels[r.ProfileType]; ok {
		return label
	}
	return string(r.ProfileType)
}

// UnmarshalJSON defaults the chart and stat lists to empty slices.
func (r *Response) UnmarshalJSON(data []byte) error {
	type wire Response
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Charts == nil {
		w.Charts = []Chart{}
	}
	if w.Stats == nil {
		w.Stats = []Stat{}
	}
	*r = Response(w)
	return nil
}
