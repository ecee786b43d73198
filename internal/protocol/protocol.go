package protocol

// Game Server endpoints.
const (
	PathGameState   = "/api/get_game_state"
	PathDefinitions = "/api/get_definitions"
	PathDoContract  = "/api/do_contract"
	PathBuyItem     = "/api/buy_item"
	PathResetGame   = "/api/reset_game"
	PathHealth      = "/healthz"
)

// HeaderRequestID tags mutating requests so the server journal can be
// matched against client logs.
const HeaderRequestID = "X-Request-Id"

// Store item kinds.
const (
	KindConsumable = "consumable"
	KindUpgrade    = "upgrade"
	KindStackable  = "stackable"
)
