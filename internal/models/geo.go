package models

// GeoLocation is the subset of the ip-api.com payload we log.
type GeoLocation struct {
	Status      string  `json:"status"`
	Message     string  `json:"message,omitempty"` // set when status is "fail"
	Query       string  `json:"query"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	RegionName  string  `json:"regionName"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	ISP         string  `json:"isp"`
}
