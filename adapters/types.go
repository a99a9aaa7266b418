package adapters

// DeviceFacts is the read-only bundle of platform strings attached to every event.
type DeviceFacts struct {
	AppVersion   string `json:"app_version"`
	HardwareID   string `json:"hardware_id"`
	OSVersion    string `json:"os_version"`
	Manufacturer string `json:"manufacturer"`
	Platform     string `json:"platform"`
	SDKVersion   string `json:"sdk_version"`
	DeviceModel  string `json:"device_model"`
}

// HTTPResponse represents the response from an HTTP request.
type HTTPResponse struct {
	Status int
	Body   []byte
}

// OK reports whether the status code is in the 2xx range.
func (r *HTTPResponse) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}
