package model

// Category tags items and storage locations
type Category struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	Name             string            `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	ColorID          uint              `gorm:"not null;default:1" json:"color_id"`
	Color            CategoryColor     `gorm:"foreignKey:ColorID" json:"color"`
	Items            []Item            `gorm:"many2many:item_category;" json:"-"`
	StorageLocations []StorageLocation `gorm:"many2many:storage_category;" json:"-"`
}

// CategoryColor is a fixed palette entry; Color carries the bootstrap
// color token used by the frontend.
type CategoryColor struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"type:varchar(100);not null" json:"name"`
	Color string `gorm:"type:varchar(100);not null" json:"color"`
}
