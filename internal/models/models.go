package models

import "time"

// Charger is a snapshot of one charger as returned by the charger-management API.
// Fields beyond ID and Name are informational; they are rendered or logged but
// never drive cost computation.
type Charger struct {
	ID               string `json:"Id"`
	Name             string `json:"Name"`
	DeviceID         string `json:"DeviceId"`
	SerialNo         string `json:"SerialNo"`
	IsOnline         bool   `json:"IsOnline"`
	OperatingMode    int    `json:"OperatingMode"`
	InstallationName string `json:"InstallationName"`
}

// EnergySample is one energy delta (kWh) reported for the roughly 15-minute
// interval preceding Timestamp. A zero delta is valid and carries no cost.
type EnergySample struct {
	Timestamp time.Time `json:"Timestamp"`
	Energy    float64   `json:"Energy"`
}

// ChargeSession is one continuous charging event. The cost pipeline consumes
// only the session count and the nested samples; the remaining fields are
// carried for logging.
type ChargeSession struct {
	ID            string         `json:"Id"`
	DeviceID      string         `json:"DeviceId"`
	StartDateTime string         `json:"StartDateTime"`
	EndDateTime   string         `json:"EndDateTime"`
	Energy        float64        `json:"Energy"`
	EnergyDetails []EnergySample `json:"EnergyDetails"`
}

// PriceEntry is one hour of a day's spot prices. The remote unit is hundredths
// of SEK per kWh; the oracle converts before handing prices out.
type PriceEntry struct {
	Hour     int     `json:"hour"`
	PriceSEK float64 `json:"price_sek"`
}

// CostRow is the finished per-charger report line.
type CostRow struct {
	ChargerName  string
	ChargesCount int
	TotalEnergy  float64
	TotalCost    float64
	AveragePrice float64
	Warning      string
}
