package viewer

const (
	Version = "1"

	TypeHello = "HELLO"
	TypePage  = "PAGE"
	TypeClick = "CLICK"
)

// HelloMsg opens a viewer session.
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

// PageMsg carries the whole rendered document.
type PageMsg struct {
	Type string `json:"type"`
	HTML string `json:"html"`
}

// ClickMsg forwards a click on the element with the given id.
type ClickMsg struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}
