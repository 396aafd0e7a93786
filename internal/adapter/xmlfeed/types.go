package xmlfeed

import "encoding/xml"

// Wire types for the 511-style XML event feed. Coordinates are integer
// micro-degrees; "44123456" means 44.123456°.

type document struct {
	XMLName      xml.Name
	Incidents    []event `xml:"incident"`
	LaneClosures []event `xml:"laneClosure"`
}

type event struct {
	SourceID         string        `xml:"source,attr"`
	Type             string        `xml:"type,attr"`
	Severity         string        `xml:"severity"`
	Desc             string        `xml:"desc"`
	CreatedTimestamp string        `xml:"createdTimestamp"`
	Start            *location     `xml:"startLocation"`
	End              *location     `xml:"endLocation"`
	Midpoints        []point       `xml:"midpoints>point"`
	Restrictions     *restrictions `xml:"roadRestrictions"`
	AffectedLanes    string        `xml:"affectedLanesDescription"`
}

type location struct {
	Lat     int64  `xml:"lat"`
	Lon     int64  `xml:"lon"`
	Roadway string `xml:"roadway"`
	City    string `xml:"city"`
}

type point struct {
	Lat   int64 `xml:"lat"`
	Lon   int64 `xml:"lon"`
	Order int   `xml:"order"`
}

type restrictions struct {
	Weight string `xml:"weight"`
	Width  string `xml:"width"`
}
