package dto

// Well-known command types. The queue itself accepts any command_type
// string; these are the ones the bundled agent knows how to execute.
const (
	CommandScanAll           = "scan_all"
	CommandScanImage         = "scan_image"
	CommandCollectSystemInfo = "collect_system_info"
	CommandPing              = "ping"
	CommandUpdateConfig      = "update_config"
)

// ScanImagePayload is the command_data shape for scan_image
type ScanImagePayload struct {
	Image string `json:"image" validate:"required"`
}
