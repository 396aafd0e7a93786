package gauges

// Wire types for the USGS instantaneous-values JSON format, trimmed to the
// fields this adapter reads.

type response struct {
	Value struct {
		TimeSeries []timeSeries `json:"timeSeries"`
	} `json:"value"`
}

type timeSeries struct {
	SourceInfo sourceInfo `json:"sourceInfo"`
	Values     []struct {
		Value []reading `json:"value"`
	} `json:"values"`
}

type sourceInfo struct {
	SiteName string `json:"siteName"`
	SiteCode []struct {
		Value string `json:"value"`
	} `json:"siteCode"`
	GeoLocation struct {
		GeogLocation struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"geogLocation"`
	} `json:"geoLocation"`
}

type reading struct {
	Value    string `json:"value"`
	DateTime string `json:"dateTime"`
}

func (s sourceInfo) siteCode() string {
	if len(s.SiteCode) == 0 {
		return ""
	}
	return s.SiteCode[0].Value
}
