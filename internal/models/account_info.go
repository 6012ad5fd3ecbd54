package models

// AccountInfo is the player_api.php response without an action.
type AccountInfo struct {
	UserInfo   UserInfo   `json:"user_info"`
	ServerInfo ServerInfo `json:"server_info"`
}

type UserInfo struct {
	Username             string     `json:"username"`
	Password             string     `json:"password"`
	Message              string     `json:"message"`
	Auth                 FlexInt    `json:"auth"`
	Status               string     `json:"status"`
	ExpDate              FlexString `json:"exp_date"`
	IsTrial              FlexString `json:"is_trial"`
	ActiveCons           FlexString `json:"active_cons"`
	CreatedAt            FlexString `json:"created_at"`
	MaxConnections       FlexString `json:"max_connections"`
	AllowedOutputFormats []string   `json:"allowed_output_formats"`
}

type ServerInfo struct {
	URL            string     `json:"url"`
	Port           FlexString `json:"port"`
	HTTPSPort      FlexString `json:"https_port"`
	ServerProtocol string     `json:"server_protocol"`
	RTMPPort       FlexString `json:"rtmp_port"`
	Timezone       string     `json:"timezone"`
	TimestampNow   FlexInt    `json:"timestamp_now"`
	TimeNow        string     `json:"time_now"`
}
