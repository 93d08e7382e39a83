package domains

// AssetGroup organizes agents into named groups
type AssetGroup struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	DisplayName string `json:"display_name" db:"display_name"`
	Description string `json:"description" db:"description"`
	Color       string `json:"color" db:"color"`
	Icon        string `json:"icon" db:"icon"`
}

// AssetTag labels agents; an agent may carry any number of tags
type AssetTag struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	DisplayName string `json:"display_name" db:"display_name"`
	Color       string `json:"color" db:"color"`
	Category    string `json:"category" db:"category"`
}
