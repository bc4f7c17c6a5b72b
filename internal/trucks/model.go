package trucks

import "time"

// Truck is a delivery vehicle selectable on an invoice.
type Truck struct {
	ID          int64     `json:"id" db:"id"`
	PlateNumber string    `json:"plate_number" db:"plate_number"`
	DriverName  *string   `json:"driver_name,omitempty" db:"driver_name"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CreateTruckRequest registers a vehicle.
type CreateTruckRequest struct {
	PlateNumber string  `json:"plate_number" validate:"required,max=32"`
	DriverName  *string `json:"driver_name,omitempty" validate:"omitempty,max=200"`
}

// UpdateTruckRequest patches a vehicle. Nil fields are left untouched.
type UpdateTruckRequest struct {
	PlateNumber *string `json:"plate_number,omitempty" validate:"omitempty,max=32"`
	DriverName  *string `json:"driver_name,omitempty" validate:"omitempty,max=200"`
	IsActive    *bool   `json:"is_active,omitempty"`
}
