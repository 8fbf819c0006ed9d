package packets

type PairingRequest struct {
	HardwareID *string `json:"hardware_id"`
}

type PairingResponse struct {
	HardwareID string `json:"hardware_id"`
	Code       string `json:"code"`
}

type CurrentPlaylistResponse struct {
	DeviceID   int  `json:"device_id"`
	PlaylistID *int `json:"playlist_id"`
}
