package types

type AppState struct {
	SelectedSessionID string   `json:"selected_session_id"`
	ViewMode          ViewMode `json:"view_mode"`
	SidebarCollapsed  bool     `json:"sidebar_collapsed"`
}
