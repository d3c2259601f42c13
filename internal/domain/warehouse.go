package domain

type WarehouseType string

const (
	WarehouseHub        WarehouseType = "HUB"
	WarehouseSatellite  WarehouseType = "SATELLITE"
	WarehouseLocalDepot WarehouseType = "LOCAL_DEPOT"
)

type WarehouseStatus string

const (
	WarehouseActive      WarehouseStatus = "ACTIVE"
	WarehouseInactive    WarehouseStatus = "INACTIVE"
	WarehouseMaintenance WarehouseStatus = "MAINTENANCE"
)

// Warehouse is a physical node in the dispatch network.
//
// CurrentLoad is a derived counter, not ground truth: it counts legs
// whose destination is this warehouse and whose goods are physically
// present. It is recomputable from scratch by the usage sync.
type Warehouse struct {
	WarehouseID   string
	Name          string
	Address       string
	Coords        Coordinates
	Type          WarehouseType
	AreaID        string
	CapacityLimit int
	CurrentLoad   int
	Status        WarehouseStatus
}

// AvailableCapacity returns remaining slots; negative means overloaded.
func (w *Warehouse) AvailableCapacity() int {
	return w.CapacityLimit - w.CurrentLoad
}
