package domain

// SME is a sender business whose location anchors pickup legs.
type SME struct {
	SMEID   string
	Name    string
	Address string
	Coords  Coordinates
	AreaID  string
}
