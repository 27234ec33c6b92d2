package model

// Trip columns the analytic queries rely on. The trip table may carry more.
const (
	ColTripDuration = "trip_duration" // seconds
	ColGender       = "gender"        // 0 male, 1 female, -1 unknown
	ColAge          = "age"
	ColStartStation = "start_station_name"
	ColYear         = "st_year"
	ColMonth        = "st_month"
	ColDay          = "st_day"
)

// TripColumns lists the columns the analytic queries read.
var TripColumns = []string{ColTripDuration, ColGender, ColAge, ColStartStation, ColYear, ColMonth, ColDay}

// Node is an entity of the trip graph model.
type Node struct {
	Label      string
	Properties []string
}

// Relationship links two nodes of the trip graph model.
type Relationship struct {
	Start *Node
	End   *Node
	Type  string
}

// TripGraph describes how a trip record decomposes into entities.
func TripGraph() ([]*Node, []Relationship) {
	trip := &Node{Label: "Trip", Properties: []string{"trip_duration", "rideable_type"}}
	station := &Node{Label: "Station", Properties: []string{
		"station_id", "station_name", "latitude", "longitude", "city", "landmark", "dpcapacity",
	}}
	rider := &Node{Label: "Rider", Properties: []string{"usertype", "gender", "age"}}
	tm := &Node{Label: "Time", Properties: []string{"year", "month", "day", "hour", "minute", "second"}}

	nodes := []*Node{trip, station, rider, tm}
	rels := []Relationship{
		{Start: trip, End: station, Type: "STARTS_AT"},
		{Start: trip, End: station, Type: "ENDS_AT"},
		{Start: trip, End: rider, Type: "TAKEN_BY"},
		{Start: trip, End: tm, Type: "OCCURS_ON"},
	}
	return nodes, rels
}
