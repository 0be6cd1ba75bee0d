package model

import "time"

// Location is a GPS coordinate pair reported by a player's client.
type Location struct {
    Lat  float64 `json:"lat"`
    Long float64 `json:"long"`
}

// Player is the directory snapshot of a player.  The IP address and
// location fields feed the proximity guard; LocationUpdatedAt defines
// their staleness relative to the game's ip_gps_check_interval.
type Player struct {
    ID                uint64     // players.id
    UUID              string     // players.uuid
    Name              string     // players.name
    IPAddress         string     // players.ip_address
    Location          *Location  // players.location_lat/location_long (nullable)
    LocationUpdatedAt *time.Time // players.location_updated_at (nullable)
}
